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

// Package query implements the scan engine over a partitioned store:
// partition pruning by window, row-group pruning by symbol, and column
// projection down to a long-format result.
package query

import (
	"sort"
	"time"

	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/store"
)

// Window is an inclusive date range [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d lies within the window, inclusive.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Row is one long-format result row: the synthesized partition-key date,
// the symbol, and the subset of requested columns present on this row.
type Row struct {
	Date    time.Time
	Symbol  string
	Columns map[string]any
}

// Scan reads every partition in root whose key lies within win, optionally
// restricted to symbols and projected down to columns, and returns a
// long-format table ordered (date ascending, symbol ascending within
// date). A nil/empty symbols set means no symbol filter; a nil/empty
// columns set means every column is projected.
//
// Partition pruning: only directories whose key lies in win are opened
// (store.ListPartitionsInWindow). Row-group pruning: when symbols is
// non-empty, row groups whose min-max symbol range excludes every
// requested symbol are skipped without decoding. A partition that cannot
// be decoded aborts the whole scan -- no partial result is returned.
func Scan(root string, win Window, symbols map[string]bool, columns []string) ([]Row, error) {
	dates, err := store.ListPartitionsInWindow(root, win.Start, win.End)
	if err != nil {
		return nil, krxerr.Wrap(krxerr.StoreError, err, "list partitions").WithPath(root)
	}

	colSet := toSet(columns)
	var out []Row

	for _, date := range dates {
		path := store.DataFilePath(root, date)
		groups, err := store.PrunableRowGroups(path, symbols)
		if err != nil {
			return nil, krxerr.Wrap(krxerr.CorruptionError, err, "inspect row groups").WithPath(path).WithStage("scan")
		}

		rows, err := store.ReadRowGroups(path, groups)
		if err != nil {
			return nil, krxerr.Wrap(krxerr.CorruptionError, err, "decode partition").WithPath(path).WithStage("scan")
		}

		for _, r := range rows {
			if len(symbols) > 0 && !symbols[r.Symbol] {
				continue
			}
			out = append(out, Row{
				Date:    date,
				Symbol:  r.Symbol,
				Columns: project(r, colSet),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Symbol < out[j].Symbol
	})

	return out, nil
}

func toSet(columns []string) map[string]bool {
	if len(columns) == 0 {
		return nil
	}
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	return set
}

// wants reports whether column should be projected: an empty/nil colSet
// means every column is requested.
func wants(colSet map[string]bool, column string) bool {
	if len(colSet) == 0 {
		return true
	}
	return colSet[column]
}
