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
	"os"
	"reflect"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/store"
)

// WriteCSV writes table to path as a flat file: one row per date, one
// column per symbol present anywhere in the table. A wide table's column
// set is only known at runtime, so a row struct shaped to table.Symbols
// is built with reflect.StructOf before handing off to
// github.com/gocarina/gocsv for the actual marshaling.
func WriteCSV(table *WideTable, path string) error {
	fields := []reflect.StructField{
		{
			Name: "Date",
			Type: reflect.TypeOf(""),
			Tag:  reflect.StructTag(`csv:"date"`),
		},
	}
	for i, symbol := range table.Symbols {
		fields = append(fields, reflect.StructField{
			Name: fmt.Sprintf("Symbol%d", i),
			Type: reflect.TypeOf(""),
			Tag:  reflect.StructTag(fmt.Sprintf(`csv:"%s"`, symbol)),
		})
	}
	rowType := reflect.StructOf(fields)

	out := reflect.MakeSlice(reflect.SliceOf(rowType), 0, len(table.Dates))
	for _, d := range table.Dates {
		row := reflect.New(rowType).Elem()
		row.Field(0).SetString(d.Format(store.DateLayout))
		for i, symbol := range table.Symbols {
			if v, ok := table.Value(d, symbol); ok {
				row.Field(i + 1).SetString(fmt.Sprintf("%v", v))
			}
		}
		out = reflect.Append(out, row)
	}

	f, err := os.Create(path)
	if err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "create csv file").WithPath(path)
	}
	defer f.Close()

	slicePtr := reflect.New(out.Type())
	slicePtr.Elem().Set(out)

	if err := gocsv.MarshalFile(slicePtr.Interface(), f); err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "write csv file").WithPath(path)
	}
	return nil
}
