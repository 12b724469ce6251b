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
package query

import "github.com/penny-vault/krxdata/schema"

// project narrows a decoded Row down to the requested columns. Decoding
// happens for the whole row regardless of colSet -- the parquet library
// used here does not expose cheap per-column decode within a kept row
// group -- so this is where the column-pruning guarantee is actually
// enforced: unrequested columns are simply never placed in the result.
func project(r schema.Row, colSet map[string]bool) map[string]any {
	cols := make(map[string]any, 12)

	if wants(colSet, "name") {
		cols["name"] = r.Name
	}
	if wants(colSet, "market") {
		cols["market"] = schema.MarketID(r.Market).String()
	}
	if wants(colSet, "base_price") {
		cols["base_price"] = r.BasePrice
	}
	if wants(colSet, "close_price") {
		cols["close_price"] = r.ClosePrice
	}
	if wants(colSet, "price_change") {
		cols["price_change"] = r.PriceChange
	}
	if wants(colSet, "volume") {
		cols["volume"] = r.Volume
	}
	if wants(colSet, "value") {
		cols["value"] = r.Value
	}
	if wants(colSet, "fluctuation_rate") {
		cols["fluctuation_rate"] = r.FluctuationRate
	}
	if wants(colSet, "fluctuation_type") {
		cols["fluctuation_type"] = r.FluctuationType
	}
	if wants(colSet, "adjustment_factor") && r.AdjustmentFactor != nil {
		cols["adjustment_factor"] = *r.AdjustmentFactor
	}
	if wants(colSet, "liquidity_rank") && r.LiquidityRank != nil {
		cols["liquidity_rank"] = *r.LiquidityRank
	}

	return cols
}
