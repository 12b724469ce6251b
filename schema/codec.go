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
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/penny-vault/krxdata/krxerr"
)

// Record is one upstream daily snapshot row: an untyped mapping from
// column name to string or number, exactly the shape the fetcher
// contract hands back. Numeric fields commonly arrive as locale-formatted
// strings with thousands separators.
type Record map[string]any

// RequiredFields lists the upstream keys that must be present for a
// Record to decode into a Row. Anything else in the record is ignored.
var RequiredFields = []string{
	"symbol", "name", "market", "base_price", "close_price",
	"price_change", "volume", "value", "fluctuation_rate", "fluctuation_type",
}

// DecodeRow validates and converts one upstream Record into a typed Row.
// Missing required fields or numeric fields that fail coercion are
// reported as a PayloadError naming the offending field.
func DecodeRow(rec Record) (*Row, error) {
	for _, field := range RequiredFields {
		if _, ok := rec[field]; !ok {
			return nil, krxerr.New(krxerr.PayloadError, "missing required field").WithField(field)
		}
	}

	symbol, err := stringField(rec, "symbol")
	if err != nil {
		return nil, err
	}
	name, err := stringField(rec, "name")
	if err != nil {
		return nil, err
	}
	marketCode, err := stringField(rec, "market")
	if err != nil {
		return nil, err
	}

	basePrice, err := intField(rec, "base_price")
	if err != nil {
		return nil, err
	}
	closePrice, err := intField(rec, "close_price")
	if err != nil {
		return nil, err
	}
	priceChange, err := intField(rec, "price_change")
	if err != nil {
		return nil, err
	}
	volume, err := intField(rec, "volume")
	if err != nil {
		return nil, err
	}
	value, err := intField(rec, "value")
	if err != nil {
		return nil, err
	}

	fluctuationRate, err := stringField(rec, "fluctuation_rate")
	if err != nil {
		return nil, err
	}
	fluctuationType, err := stringField(rec, "fluctuation_type")
	if err != nil {
		return nil, err
	}

	return &Row{
		Symbol:          symbol,
		Name:            name,
		Market:          int32(ParseMarketID(marketCode)),
		BasePrice:       basePrice,
		ClosePrice:      closePrice,
		PriceChange:     priceChange,
		Volume:          volume,
		Value:           value,
		FluctuationRate: fluctuationRate,
		FluctuationType: fluctuationType,
	}, nil
}

// DecodeRows decodes every Record in the slice, failing fast on the
// first bad record (an ingestion batch with one malformed row is treated
// as fatal for that date; partial partitions are never published).
func DecodeRows(records []Record) ([]Row, error) {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row, err := DecodeRow(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

func stringField(rec Record, key string) (string, error) {
	v := rec[key]
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return fmt.Sprintf("%v", t), nil
	}
}

// intField coerces an upstream numeric field, which may be a JSON number,
// a plain numeric string, or a locale-formatted string with thousands
// separators (e.g. "1,234,567"), into a signed 64-bit integer.
func intField(rec Record, key string) (int64, error) {
	v := rec[key]
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if cleaned == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			return 0, krxerr.Wrap(krxerr.PayloadError, err, "could not coerce numeric field").WithField(key)
		}
		return n, nil
	default:
		return 0, krxerr.New(krxerr.PayloadError, "unsupported type for numeric field").WithField(key)
	}
}
