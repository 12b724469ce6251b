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
package cumulative

import (
	"os"
	"path/filepath"
	"time"

	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/store"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

func writeCumulativePartition(root string, date time.Time, rows []Row) error {
	dir := store.PartitionPath(root, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, store.DataFileName)
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(Row), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for _, r := range rows {
		row := r
		if err := pw.Write(&row); err != nil {
			return err
		}
	}
	return pw.WriteStop()
}

func readCumulativePartition(root string, date time.Time) ([]Row, error) {
	path := store.DataFilePath(root, date)
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, krxerr.Wrap(krxerr.StoreError, err, "open cumulative partition").WithPath(path)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(Row), 4)
	if err != nil {
		return nil, krxerr.Wrap(krxerr.CorruptionError, err, "decode cumulative partition footer").WithPath(path)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	rows := make([]Row, num)
	if num > 0 {
		if err := pr.Read(&rows); err != nil {
			return nil, krxerr.Wrap(krxerr.CorruptionError, err, "decode cumulative partition rows").WithPath(path)
		}
	}
	return rows, nil
}
