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

// Package cumulative implements stage S4a: the range-dependent reverse
// cumulative product of adjustment factors, built fresh into the
// ephemeral cache root on every loader initialization.
package cumulative

import (
	"sort"
	"time"

	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/store"
	"github.com/shopspring/decimal"
)

// Row is the single enriched column this stage produces: the cumulative
// multiplier that rescales a price at date to the window's latest scale
// for this symbol.
type Row struct {
	Symbol        string  `json:"symbol" parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	CumMultiplier float64 `json:"cum_multiplier" parquet:"name=cum_multiplier, type=DOUBLE"`
}

// Build runs S4a over win and writes one partition per date under
// cacheRoot, each holding (symbol, cum_multiplier) rows. The cache is
// never merged or appended to -- every call rebuilds it from scratch for
// the given window, per the range-dependence contract.
//
// Per symbol s with observations (t1,f1)...(tk,fk) in [win.Start,
// win.End] sorted ascending: cum(tk,s) = 1, and for i from k-1 down to 1,
// cum(ti,s) = cum(ti+1,s) * f(i+1) -- the factor at ti itself is never
// folded into cum(ti,s), only factors strictly after ti. A null factor
// (no corporate action recorded) contributes 1.0 to the product.
func Build(root, cacheRoot string, win query.Window) error {
	rows, err := query.Scan(root, win, nil, []string{"adjustment_factor"})
	if err != nil {
		return err
	}

	bySymbol := make(map[string][]symbolObs)
	for _, r := range rows {
		factor := 1.0
		if v, ok := r.Columns["adjustment_factor"]; ok {
			factor = v.(float64)
		}
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], symbolObs{date: r.Date, factor: factor})
	}

	byDate := make(map[time.Time][]Row)
	for symbol, obs := range bySymbol {
		sort.Slice(obs, func(i, j int) bool { return obs[i].date.Before(obs[j].date) })

		cum := decimal.NewFromInt(1)
		values := make([]float64, len(obs))
		values[len(obs)-1], _ = cum.Round(6).Float64()

		for i := len(obs) - 2; i >= 0; i-- {
			cum = cum.Mul(decimal.NewFromFloat(obs[i+1].factor))
			v, _ := cum.Round(6).Float64()
			values[i] = v
		}

		for i, o := range obs {
			byDate[o.date] = append(byDate[o.date], Row{Symbol: symbol, CumMultiplier: values[i]})
		}
	}

	for date, dayRows := range byDate {
		sort.Slice(dayRows, func(i, j int) bool { return dayRows[i].Symbol < dayRows[j].Symbol })
		if err := writeCumulativePartition(cacheRoot, date, dayRows); err != nil {
			return krxerr.Wrap(krxerr.StoreError, err, "publish cumulative partition").WithStage("S4a").WithDate(date.Format(store.DateLayout))
		}
	}

	return nil
}

type symbolObs struct {
	date   time.Time
	factor float64
}

// Lookup returns the cumulative multiplier cache for every date under
// cacheRoot in win, keyed by (date, symbol).
func Lookup(cacheRoot string, win query.Window) (map[string]float64, error) {
	dates, err := store.ListPartitionsInWindow(cacheRoot, win.Start, win.End)
	if err != nil {
		return nil, krxerr.Wrap(krxerr.StoreError, err, "list cumulative partitions").WithPath(cacheRoot)
	}

	out := make(map[string]float64)
	for _, date := range dates {
		rows, err := readCumulativePartition(cacheRoot, date)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out[date.Format(store.DateLayout)+"|"+r.Symbol] = r.CumMultiplier
		}
	}
	return out, nil
}
