// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package universe implements stage S4b: materializing per-date
// liquidity-rank thresholds as boolean flag columns, rather than a
// single universe-name string column, so that membership queries are a
// scan of one byte-wide column instead of a string comparison.
package universe

import (
	"sort"

	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/store"
)

// Thresholds are the fixed universe sizes materialized per date.
var Thresholds = []int{100, 200, 500, 1000}

// Row is one symbol's universe membership on a single date.
type Row struct {
	Symbol   string `json:"symbol" parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	InTop100 bool   `json:"in_top_100" parquet:"name=in_top_100, type=BOOLEAN"`
	InTop200 bool   `json:"in_top_200" parquet:"name=in_top_200, type=BOOLEAN"`
	InTop500 bool   `json:"in_top_500" parquet:"name=in_top_500, type=BOOLEAN"`
	InTop1000 bool  `json:"in_top_1000" parquet:"name=in_top_1000, type=BOOLEAN"`
}

// Build runs S4b over win: for every date, reads the snapshot partition
// (after S3 has populated liquidity_rank), projects (symbol,
// liquidity_rank), and publishes a universe partition under universeRoot
// with boolean in_top_N columns, N in Thresholds. By construction
// in_top_100 implies in_top_200 implies in_top_500 implies in_top_1000.
func Build(snapshotRoot, universeRoot string, win query.Window) error {
	rows, err := query.Scan(snapshotRoot, win, nil, []string{"liquidity_rank"})
	if err != nil {
		return err
	}

	byDate := make(map[string][]query.Row)
	for _, r := range rows {
		key := r.Date.Format(store.DateLayout)
		byDate[key] = append(byDate[key], r)
	}

	dates, err := store.ListPartitionsInWindow(snapshotRoot, win.Start, win.End)
	if err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "list partitions").WithPath(snapshotRoot).WithStage("S4b")
	}

	for _, date := range dates {
		dayRows := byDate[date.Format(store.DateLayout)]
		universeRows := make([]Row, 0, len(dayRows))
		for _, r := range dayRows {
			rank, ok := r.Columns["liquidity_rank"]
			if !ok {
				continue
			}
			rk := int(rank.(int32))
			universeRows = append(universeRows, Row{
				Symbol:    r.Symbol,
				InTop100:  rk <= 100,
				InTop200:  rk <= 200,
				InTop500:  rk <= 500,
				InTop1000: rk <= 1000,
			})
		}
		sort.Slice(universeRows, func(i, j int) bool { return universeRows[i].Symbol < universeRows[j].Symbol })

		if err := writeUniversePartition(universeRoot, date, universeRows); err != nil {
			return krxerr.Wrap(krxerr.StoreError, err, "publish universe partition").WithStage("S4b").WithDate(date.Format(store.DateLayout))
		}
	}

	return nil
}

// Members returns, per date in win, the set of symbols whose
// in_top_N flag is set on that date, where N is the smallest entry of
// Thresholds that is at least threshold (thresholds above 1000 use
// in_top_1000).
func Members(universeRoot string, win query.Window, threshold int) (map[string]map[string]bool, error) {
	dates, err := store.ListPartitionsInWindow(universeRoot, win.Start, win.End)
	if err != nil {
		return nil, krxerr.Wrap(krxerr.StoreError, err, "list universe partitions").WithPath(universeRoot)
	}

	out := make(map[string]map[string]bool, len(dates))
	for _, date := range dates {
		rows, err := readUniversePartition(universeRoot, date)
		if err != nil {
			return nil, err
		}
		key := date.Format(store.DateLayout)
		set := make(map[string]bool)
		for _, r := range rows {
			if inTop(r, threshold) {
				set[r.Symbol] = true
			}
		}
		out[key] = set
	}
	return out, nil
}

func inTop(r Row, threshold int) bool {
	switch {
	case threshold <= 100:
		return r.InTop100
	case threshold <= 200:
		return r.InTop200
	case threshold <= 500:
		return r.InTop500
	default:
		return r.InTop1000
	}
}
