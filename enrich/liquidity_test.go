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
package enrich_test

import (
	"github.com/penny-vault/krxdata/enrich"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/schema"
	"github.com/penny-vault/krxdata/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LiquidityRank", func() {
	It("assigns a dense rank by traded value descending, ties sharing a rank with no gaps", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		day := d("20240102")

		Expect(store.WritePartition(roots, day, []schema.Row{
			{Symbol: "A", Value: 1000},
			{Symbol: "B", Value: 900},
			{Symbol: "C", Value: 900}, // ties with B
			{Symbol: "D", Value: 100},
		})).To(Succeed())

		Expect(enrich.LiquidityRank(roots, query.Window{Start: day, End: day})).To(Succeed())

		rows, _, err := store.ReadPartition(root, day)
		Expect(err).NotTo(HaveOccurred())

		ranks := map[string]int32{}
		for _, r := range rows {
			ranks[r.Symbol] = *r.LiquidityRank
		}
		Expect(ranks["A"]).To(Equal(int32(1)))
		Expect(ranks["B"]).To(Equal(int32(2)))
		Expect(ranks["C"]).To(Equal(int32(2)))
		Expect(ranks["D"]).To(Equal(int32(3))) // next rank after the tie is +1, not +3
	})

	It("gives a halted symbol (traded_value zero) the worst rank of the day", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		day := d("20240102")

		Expect(store.WritePartition(roots, day, []schema.Row{
			{Symbol: "A", Value: 500},
			{Symbol: "B", Value: 200},
			{Symbol: "HALTED", Value: 0},
		})).To(Succeed())

		Expect(enrich.LiquidityRank(roots, query.Window{Start: day, End: day})).To(Succeed())

		rows, _, err := store.ReadPartition(root, day)
		Expect(err).NotTo(HaveOccurred())
		ranks := map[string]int32{}
		for _, r := range rows {
			ranks[r.Symbol] = *r.LiquidityRank
		}
		Expect(ranks["HALTED"]).To(Equal(int32(3)))
	})

	It("preserves a previously-written adjustment_factor column", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		day := d("20240102")

		factor := 0.5
		Expect(store.WritePartition(roots, day, []schema.Row{
			{Symbol: "A", Value: 100, AdjustmentFactor: &factor},
		})).To(Succeed())

		Expect(enrich.LiquidityRank(roots, query.Window{Start: day, End: day})).To(Succeed())

		rows, _, err := store.ReadPartition(root, day)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows[0].AdjustmentFactor).NotTo(BeNil())
		Expect(*rows[0].AdjustmentFactor).To(Equal(0.5))
	})
})
