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
	"os"
	"path/filepath"

	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/schema"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// TargetRowGroupSize is the approximate number of rows packed into each
// parquet row group, chosen so that row-group min/max statistics on
// security_id are fine-grained enough to prune effectively during
// symbol-filtered scans.
const TargetRowGroupSize = 1000

// writeParquetFile encodes rows (already sorted by Symbol by the caller)
// into a column-chunked, ZSTD-compressed parquet file at path, flushing
// a new row group every TargetRowGroupSize rows so row-group boundaries
// are deterministic regardless of byte-size heuristics.
func writeParquetFile(path string, rows []schema.Row) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "create partition directory").WithPath(path)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "open partition file for write").WithPath(path)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(schema.Row), 4)
	if err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "create parquet writer").WithPath(path)
	}
	pw.CompressionType = parquet.CompressionCodec_ZSTD
	pw.PageSize = 8 * 1024

	for i, row := range rows {
		r := row
		if err := pw.Write(&r); err != nil {
			return krxerr.Wrap(krxerr.StoreError, err, "write row to parquet").WithPath(path)
		}
		if (i+1)%TargetRowGroupSize == 0 {
			if err := pw.Flush(true); err != nil {
				return krxerr.Wrap(krxerr.StoreError, err, "flush row group").WithPath(path)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "finalize parquet file").WithPath(path)
	}

	log.Debug().Str("path", path).Int("rows", len(rows)).Msg("wrote partition")
	return nil
}

// readParquetFile decodes every row from a partition's data file.
func readParquetFile(path string) ([]schema.Row, error) {
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

	num := int(pr.GetNumRows())
	rows := make([]schema.Row, num)
	if num > 0 {
		if err := pr.Read(&rows); err != nil {
			return nil, krxerr.Wrap(krxerr.CorruptionError, err, "decode partition rows").WithPath(path)
		}
	}
	return rows, nil
}

// rowGroupSymbolRange reports the inclusive min/max Symbol value stored
// in a parquet file's row-group statistics, keyed by row-group index, so
// callers can prune row groups before decoding them. BYTE_ARRAY/UTF8
// statistics are stored as the raw min/max bytes of the column values,
// so comparing them as strings is exact.
func rowGroupSymbolRange(path string) (mins, maxes []string, rowCounts []int64, err error) {
	fr, ferr := local.NewLocalFileReader(path)
	if ferr != nil {
		return nil, nil, nil, krxerr.Wrap(krxerr.StoreError, ferr, "open partition file for read").WithPath(path)
	}
	defer fr.Close()

	pr, perr := reader.NewParquetReader(fr, new(schema.Row), 4)
	if perr != nil {
		return nil, nil, nil, krxerr.Wrap(krxerr.CorruptionError, perr, "decode partition footer").WithPath(path)
	}
	defer pr.ReadStop()

	for _, rg := range pr.Footer.RowGroups {
		var minVal, maxVal string
		for _, col := range rg.Columns {
			if len(col.MetaData.PathInSchema) == 0 {
				continue
			}
			name := col.MetaData.PathInSchema[len(col.MetaData.PathInSchema)-1]
			if name != "symbol" {
				continue
			}
			if col.MetaData.Statistics.MinValue != nil {
				minVal = string(col.MetaData.Statistics.MinValue)
			}
			if col.MetaData.Statistics.MaxValue != nil {
				maxVal = string(col.MetaData.Statistics.MaxValue)
			}
		}
		mins = append(mins, minVal)
		maxes = append(maxes, maxVal)
		rowCounts = append(rowCounts, rg.NumRows)
	}
	return mins, maxes, rowCounts, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
