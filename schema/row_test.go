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
package schema_test

import (
	"github.com/penny-vault/krxdata/schema"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MarketID", func() {
	It("round-trips known codes through Parse and String", func() {
		Expect(schema.ParseMarketID("KOSPI").String()).To(Equal("primary"))
		Expect(schema.ParseMarketID("KOSDAQ").String()).To(Equal("secondary"))
		Expect(schema.ParseMarketID("KONEX").String()).To(Equal("tertiary"))
	})

	It("falls back to MarketUnknown for anything else", func() {
		Expect(schema.ParseMarketID("???").String()).To(Equal("unknown"))
	})
})

var _ = Describe("SortBySymbol", func() {
	It("sorts rows ascending by symbol in place", func() {
		rows := []schema.Row{
			{Symbol: "005930"},
			{Symbol: "000020"},
			{Symbol: "066570"},
		}
		schema.SortBySymbol(rows)
		Expect(rows[0].Symbol).To(Equal("000020"))
		Expect(rows[1].Symbol).To(Equal("005930"))
		Expect(rows[2].Symbol).To(Equal("066570"))
	})
})
