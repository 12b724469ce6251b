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

// Package schema defines the canonical columnar layout written inside
// every partition, and the typed-row codec that turns upstream records
// (untyped string/number maps) into it.
package schema

import "sort"

// MarketID enumerates the exchange tier a security trades on.
type MarketID int32

const (
	MarketUnknown MarketID = iota
	MarketPrimary
	MarketSecondary
	MarketTertiary
)

// ParseMarketID maps an upstream market code to the enumerated MarketID.
// Unrecognized codes come back as MarketUnknown rather than an error --
// the upstream catalog of market codes is outside this module's control.
func ParseMarketID(code string) MarketID {
	switch code {
	case "STK", "KOSPI", "primary":
		return MarketPrimary
	case "KSQ", "KOSDAQ", "secondary":
		return MarketSecondary
	case "KNX", "KONEX", "tertiary":
		return MarketTertiary
	default:
		return MarketUnknown
	}
}

func (m MarketID) String() string {
	switch m {
	case MarketPrimary:
		return "primary"
	case MarketSecondary:
		return "secondary"
	case MarketTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// Row is the full enriched schema written to every snapshot/enrichment
// partition. During stage S1 AdjustmentFactor and LiquidityRank are
// written as nil (the parquet OPTIONAL/null placeholder); S2 and S3 fill
// them in during their own atomic rewrites.
type Row struct {
	Symbol          string  `json:"symbol" parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Name            string  `json:"name" parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Market          int32   `json:"market" parquet:"name=market, type=INT32"`
	BasePrice       int64   `json:"base_price" parquet:"name=base_price, type=INT64"`
	ClosePrice      int64   `json:"close_price" parquet:"name=close_price, type=INT64"`
	PriceChange     int64   `json:"price_change" parquet:"name=price_change, type=INT64"`
	Volume          int64   `json:"volume" parquet:"name=volume, type=INT64"`
	Value           int64   `json:"value" parquet:"name=value, type=INT64"`
	FluctuationRate string  `json:"fluctuation_rate" parquet:"name=fluctuation_rate, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FluctuationType string  `json:"fluctuation_type" parquet:"name=fluctuation_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	AdjustmentFactor *float64 `json:"adjustment_factor,omitempty" parquet:"name=adjustment_factor, type=DOUBLE, repetitiontype=OPTIONAL"`
	LiquidityRank    *int32   `json:"liquidity_rank,omitempty" parquet:"name=liquidity_rank, type=INT32, repetitiontype=OPTIONAL"`
}

// SortBySymbol sorts rows ascending by Symbol in place. Every partition
// writer must call this before encoding so that per-row-group min/max
// statistics on the symbol column are actually useful for pruning --
// relying on upstream ordering is not safe.
func SortBySymbol(rows []Row) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
}
