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

// Package enrich implements stages S2 (per-symbol adjustment factor) and
// S3 (per-date liquidity rank), both of which rewrite existing snapshot
// partitions atomically in place, adding a column without disturbing the
// rows or any previously-enriched column.
package enrich

import (
	"sort"
	"time"

	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/store"
	"github.com/shopspring/decimal"
)

// observation is one (date, basePrice, closePrice) tuple for a symbol,
// used internally while walking each symbol's history in date order.
type observation struct {
	date       time.Time
	basePrice  int64
	closePrice int64
}

// Adjustment runs S2 over win: for every symbol observed in [win.Start,
// win.End], it computes factor(t, s) = base_price(t, s) /
// close_price(lag(t, s)) where lag(t, s) is the latest prior trading date
// for s in the store -- looked up arbitrarily far back, not just within
// win -- and rewrites every partition in win with the adjustment_factor
// column populated, leaving every other column (including an existing
// liquidity_rank from S3) untouched.
func Adjustment(roots store.Roots, win query.Window) error {
	history, err := loadHistory(roots.Root, win.End)
	if err != nil {
		return err
	}

	factors := computeFactors(history)

	dates, err := store.ListPartitionsInWindow(roots.Root, win.Start, win.End)
	if err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "list partitions").WithPath(roots.Root).WithStage("S2")
	}

	for _, date := range dates {
		rows, ok, err := store.ReadPartition(roots.Root, date)
		if err != nil {
			return krxerr.Wrap(krxerr.CorruptionError, err, "read partition for adjustment").WithStage("S2").WithDate(date.Format(store.DateLayout))
		}
		if !ok {
			continue
		}

		for i := range rows {
			if f, ok := factors[key(date, rows[i].Symbol)]; ok {
				val := f
				rows[i].AdjustmentFactor = &val
			} else {
				rows[i].AdjustmentFactor = nil
			}
		}

		if err := store.WritePartition(roots, date, rows); err != nil {
			return err
		}
	}

	return nil
}

// loadHistory reads every committed partition up to and including upTo,
// grouping (date, base_price, close_price) observations by symbol. S2's
// lag lookup may need to reach arbitrarily far before a query window's
// start, so the full history below upTo is loaded rather than just the
// window.
func loadHistory(root string, upTo time.Time) (map[string][]observation, error) {
	dates, err := store.ListPartitionsInWindow(root, time.Time{}, upTo)
	if err != nil {
		return nil, krxerr.Wrap(krxerr.StoreError, err, "list partitions").WithPath(root).WithStage("S2")
	}

	history := make(map[string][]observation)
	for _, date := range dates {
		rows, ok, err := store.ReadPartition(root, date)
		if err != nil {
			return nil, krxerr.Wrap(krxerr.CorruptionError, err, "read partition for history").WithStage("S2").WithDate(date.Format(store.DateLayout))
		}
		if !ok {
			continue
		}
		for _, r := range rows {
			history[r.Symbol] = append(history[r.Symbol], observation{
				date:       date,
				basePrice:  r.BasePrice,
				closePrice: r.ClosePrice,
			})
		}
	}

	for symbol := range history {
		obs := history[symbol]
		sort.Slice(obs, func(i, j int) bool { return obs[i].date.Before(obs[j].date) })
		history[symbol] = obs
	}

	return history, nil
}

// computeFactors derives factor(t, s) for every observation that has a
// predecessor, keyed by (date, symbol). The quotient is taken through
// shopspring/decimal so that values distinguishable at 10^-6 survive the
// float64 round-trip required by the stored column.
func computeFactors(history map[string][]observation) map[string]float64 {
	factors := make(map[string]float64)

	for symbol, obs := range history {
		for i := 1; i < len(obs); i++ {
			prevClose := obs[i-1].closePrice
			if prevClose == 0 {
				continue
			}
			f := decimal.NewFromInt(obs[i].basePrice).DivRound(decimal.NewFromInt(prevClose), 9)
			val, _ := f.Round(6).Float64()
			factors[key(obs[i].date, symbol)] = val
		}
	}

	return factors
}

func key(date time.Time, symbol string) string {
	return date.Format(store.DateLayout) + "|" + symbol
}
