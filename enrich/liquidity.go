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
package enrich

import (
	"sort"

	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/schema"
	"github.com/penny-vault/krxdata/store"
)

// LiquidityRank runs S3 over win: for every date in the window, ranks
// symbols by traded value descending (dense rank, ties share a rank, no
// gaps; rank 1 is most liquid) and rewrites the partition with the
// liquidity_rank column populated, preserving every other column
// including any adjustment_factor already written by S2.
func LiquidityRank(roots store.Roots, win query.Window) error {
	dates, err := store.ListPartitionsInWindow(roots.Root, win.Start, win.End)
	if err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "list partitions").WithPath(roots.Root).WithStage("S3")
	}

	for _, date := range dates {
		rows, ok, err := store.ReadPartition(roots.Root, date)
		if err != nil {
			return krxerr.Wrap(krxerr.CorruptionError, err, "read partition for liquidity rank").WithStage("S3").WithDate(date.Format(store.DateLayout))
		}
		if !ok {
			continue
		}

		ranks := denseRankByValueDesc(rows)
		for i := range rows {
			rank := int32(ranks[rows[i].Symbol])
			rows[i].LiquidityRank = &rank
		}

		if err := store.WritePartition(roots, date, rows); err != nil {
			return err
		}
	}

	return nil
}

// denseRankByValueDesc assigns a 1-based dense rank to each symbol in
// rows, ordered by Value descending. Symbols tied on Value share a rank;
// the next distinct value's rank is the prior rank plus one, never
// skipping ranks for the tied group's size.
func denseRankByValueDesc(rows []schema.Row) map[string]int {
	ordered := make([]schema.Row, len(rows))
	copy(ordered, rows)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Value > ordered[j].Value })

	ranks := make(map[string]int, len(ordered))
	rank := 0
	var prevValue int64
	first := true
	for _, r := range ordered {
		if first || r.Value != prevValue {
			rank++
			prevValue = r.Value
			first = false
		}
		ranks[r.Symbol] = rank
	}
	return ranks
}
