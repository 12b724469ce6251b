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
package store

import (
	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/schema"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

// PrunableRowGroups returns the indices of the row groups in path that
// could contain at least one symbol in symbols, using each row group's
// min/max symbol statistics. A nil/empty symbols set disables pruning
// and every row group index is returned.
func PrunableRowGroups(path string, symbols map[string]bool) ([]int, error) {
	mins, maxes, _, err := rowGroupSymbolRange(path)
	if err != nil {
		return nil, err
	}

	groups := make([]int, 0, len(mins))
	for i := range mins {
		if len(symbols) == 0 || rangeMayContain(mins[i], maxes[i], symbols) {
			groups = append(groups, i)
		}
	}
	return groups, nil
}

// rangeMayContain reports whether any symbol in symbols could fall in the
// inclusive [min, max] range. Since row groups are written with rows
// sorted ascending by Symbol (schema.SortBySymbol), this is a sound
// pruning test: a symbol strictly outside [min, max] cannot be present.
func rangeMayContain(min, max string, symbols map[string]bool) bool {
	for s := range symbols {
		if s >= min && s <= max {
			return true
		}
	}
	return false
}

// ReadRowGroups decodes only the given row-group indices of path,
// skipping the rows of every other row group without decoding them. This
// is the row-group pruning boundary: callers that already pruned via
// PrunableRowGroups only pay decode cost for surviving groups.
func ReadRowGroups(path string, groups []int) ([]schema.Row, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, krxerr.Wrap(krxerr.StoreError, err, "open partition file for read").WithPath(path)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(schema.Row), 4)
	if err != nil {
		return nil, krxerr.Wrap(krxerr.CorruptionError, err, "decode partition footer").WithPath(path)
	}
	defer pr.ReadStop()

	keep := make(map[int]bool, len(groups))
	for _, g := range groups {
		keep[g] = true
	}

	var out []schema.Row
	for i, rg := range pr.Footer.RowGroups {
		n := int(rg.NumRows)
		if !keep[i] {
			pr.SkipRows(int64(n))
			continue
		}
		rows := make([]schema.Row, n)
		if n > 0 {
			if err := pr.Read(&rows); err != nil {
				return nil, krxerr.Wrap(krxerr.CorruptionError, err, "decode row group").WithPath(path).WithField("row_group")
			}
		}
		out = append(out, rows...)
	}
	return out, nil
}
