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
package loader

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/krxdata/cumulative"
	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/store"
	"github.com/penny-vault/krxdata/universe"
)

// Universe selects which symbols are retained per date in a Get call. At
// most one of Symbols or Name should be set; neither set means no
// filter is applied.
type Universe struct {
	// Symbols, when non-empty, is used uniformly across every date.
	Symbols []string
	// Name is a materialized universe ("top_100", "top_200", "top_500",
	// "top_1000"), scanned per-date from the universe table.
	Name string
}

// DataLoader is bound to a fixed window [S,E] (the "loader window"); any
// sub-window passed to Get must lie within it.
type DataLoader struct {
	Window       query.Window
	SnapshotRoot string
	UniverseRoot string
	CacheRoot    string
	Registry     *FieldRegistry
}

// WideTable is the pivoted result of Get: rows are dates ascending,
// columns are symbols ascending, cells are nullable values.
type WideTable struct {
	Dates   []time.Time
	Symbols []string
	Values  map[time.Time]map[string]any
}

// Value returns the cell for (date, symbol), and whether it is present.
func (w *WideTable) Value(date time.Time, symbol string) (any, bool) {
	row, ok := w.Values[date]
	if !ok {
		return nil, false
	}
	v, ok := row[symbol]
	return v, ok
}

// Get resolves field via the registry, scans it over subWindow (or the
// full loader window when subWindow is nil), applies the universe
// semi-join, optionally applies the price adjustment, and pivots the
// long result to wide.
func (l *DataLoader) Get(field string, uni Universe, subWindow *query.Window, adjusted bool) (*WideTable, error) {
	f, err := l.Registry.Resolve(field)
	if err != nil {
		return nil, err
	}

	win := l.Window
	if subWindow != nil {
		if subWindow.Start.Before(l.Window.Start) || subWindow.End.After(l.Window.End) {
			return nil, krxerr.New(krxerr.WindowError, "sub-window lies outside the loader window")
		}
		win = *subWindow
	}

	rows, err := query.Scan(l.SnapshotRoot, win, nil, []string{f.Column})
	if err != nil {
		return nil, err
	}

	allowed, err := l.resolveUniverse(uni, win)
	if err != nil {
		return nil, err
	}

	var multipliers map[string]float64
	if adjusted && f.Adjustable {
		multipliers, err = cumulative.Lookup(l.CacheRoot, win)
		if err != nil {
			return nil, err
		}
	}

	table := &WideTable{Values: make(map[time.Time]map[string]any)}
	symbolSet := make(map[string]bool)
	dateSet := make(map[time.Time]bool)

	for _, r := range rows {
		if allowed != nil {
			daySet, ok := allowed[r.Date.Format(store.DateLayout)]
			if !ok || !daySet[r.Symbol] {
				continue
			}
		}

		v, ok := r.Columns[f.Column]
		if !ok {
			continue
		}

		if multipliers != nil {
			if mult, ok := multipliers[r.Date.Format(store.DateLayout)+"|"+r.Symbol]; ok {
				v = adjustValue(v, mult)
			}
		}

		if _, ok := table.Values[r.Date]; !ok {
			table.Values[r.Date] = make(map[string]any)
		}
		table.Values[r.Date][r.Symbol] = v
		symbolSet[r.Symbol] = true
		dateSet[r.Date] = true
	}

	table.Dates = sortedDates(dateSet)
	table.Symbols = sortedSymbols(symbolSet)
	return table, nil
}

func (l *DataLoader) resolveUniverse(uni Universe, win query.Window) (map[string]map[string]bool, error) {
	if len(uni.Symbols) > 0 {
		set := make(map[string]bool, len(uni.Symbols))
		for _, s := range uni.Symbols {
			set[s] = true
		}
		dates, err := store.ListPartitionsInWindow(l.SnapshotRoot, win.Start, win.End)
		if err != nil {
			return nil, krxerr.Wrap(krxerr.StoreError, err, "list partitions").WithPath(l.SnapshotRoot)
		}
		allowed := make(map[string]map[string]bool, len(dates))
		for _, d := range dates {
			allowed[d.Format(store.DateLayout)] = set
		}
		return allowed, nil
	}

	if uni.Name == "" {
		return nil, nil
	}

	threshold, err := parseUniverseName(uni.Name)
	if err != nil {
		return nil, err
	}
	return universe.Members(l.UniverseRoot, win, threshold)
}

func parseUniverseName(name string) (int, error) {
	trimmed := strings.TrimPrefix(name, "top_")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, krxerr.New(krxerr.ConfigError, fmt.Sprintf("unrecognized universe name %q", name)).WithField("universe")
	}
	return n, nil
}

// adjustValue applies mult to v using nearest-even rounding, returning an
// int64 for integer-valued fields (prices) or the scaled float otherwise.
func adjustValue(v any, mult float64) any {
	switch t := v.(type) {
	case int64:
		return int64(math.RoundToEven(float64(t) * mult))
	case int32:
		return int32(math.RoundToEven(float64(t) * mult))
	case float64:
		return math.RoundToEven(t*mult*1e6) / 1e6
	default:
		return v
	}
}

func sortedDates(set map[time.Time]bool) []time.Time {
	out := make([]time.Time, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func sortedSymbols(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
