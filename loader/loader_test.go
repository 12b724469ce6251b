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
package loader_test

import (
	"time"

	"github.com/penny-vault/krxdata/cumulative"
	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/loader"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/schema"
	"github.com/penny-vault/krxdata/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func d(s string) time.Time {
	t, err := time.Parse(store.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

var _ = Describe("DataLoader.Get", func() {
	It("rejects a sub-window that extends outside the loader window", func() {
		l := &loader.DataLoader{
			Window:   query.Window{Start: d("20240102"), End: d("20240110")},
			Registry: loader.DefaultRegistry(),
		}
		sub := query.Window{Start: d("20240101"), End: d("20240105")}
		_, err := l.Get("close", loader.Universe{}, &sub, false)
		Expect(err).To(HaveOccurred())
		kerr, ok := err.(*krxerr.Error)
		Expect(ok).To(BeTrue())
		Expect(kerr.Kind).To(Equal(krxerr.WindowError))
	})

	It("pivots a long scan into a wide date x symbol table", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		day := d("20240102")
		Expect(store.WritePartition(roots, day, []schema.Row{
			{Symbol: "A", ClosePrice: 100},
			{Symbol: "B", ClosePrice: 200},
		})).To(Succeed())

		l := &loader.DataLoader{
			Window:       query.Window{Start: day, End: day},
			SnapshotRoot: root,
			Registry:     loader.DefaultRegistry(),
		}

		table, err := l.Get("close", loader.Universe{}, nil, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Dates).To(HaveLen(1))
		Expect(table.Symbols).To(Equal([]string{"A", "B"}))
		v, ok := table.Value(day, "A")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(int64(100)))
	})

	It("restricts the result to an explicit symbol universe", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		day := d("20240102")
		Expect(store.WritePartition(roots, day, []schema.Row{
			{Symbol: "A", ClosePrice: 100},
			{Symbol: "B", ClosePrice: 200},
			{Symbol: "C", ClosePrice: 300},
		})).To(Succeed())

		l := &loader.DataLoader{
			Window:       query.Window{Start: day, End: day},
			SnapshotRoot: root,
			Registry:     loader.DefaultRegistry(),
		}

		table, err := l.Get("close", loader.Universe{Symbols: []string{"A", "C"}}, nil, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Symbols).To(Equal([]string{"A", "C"}))
	})

	It("leaves a symbol's later dates null once it stops appearing in the snapshot store (Scenario F)", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		d1, d2 := d("20240102"), d("20240103")

		// S2 is delisted after d1: it has no row at all on d2.
		Expect(store.WritePartition(roots, d1, []schema.Row{
			{Symbol: "S1", ClosePrice: 100},
			{Symbol: "S2", ClosePrice: 200},
			{Symbol: "S3", ClosePrice: 300},
		})).To(Succeed())
		Expect(store.WritePartition(roots, d2, []schema.Row{
			{Symbol: "S1", ClosePrice: 101},
			{Symbol: "S3", ClosePrice: 301},
		})).To(Succeed())

		l := &loader.DataLoader{
			Window:       query.Window{Start: d1, End: d2},
			SnapshotRoot: root,
			Registry:     loader.DefaultRegistry(),
		}

		table, err := l.Get("close", loader.Universe{Symbols: []string{"S1", "S2", "S3"}}, nil, false)
		Expect(err).NotTo(HaveOccurred())

		_, ok := table.Value(d1, "S2")
		Expect(ok).To(BeTrue())
		_, ok = table.Value(d2, "S2")
		Expect(ok).To(BeFalse()) // null after its last trading date
	})

	It("applies the cumulative adjustment to a price field with nearest-even rounding", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		day := d("20240102")
		Expect(store.WritePartition(roots, day, []schema.Row{
			{Symbol: "A", ClosePrice: 2520000},
		})).To(Succeed())

		cacheRoot := GinkgoT().TempDir()
		win := query.Window{Start: day, End: day}
		Expect(cumulative.Build(root, cacheRoot, win)).To(Succeed())

		l := &loader.DataLoader{
			Window:       win,
			SnapshotRoot: root,
			CacheRoot:    cacheRoot,
			Registry:     loader.DefaultRegistry(),
		}

		table, err := l.Get("close", loader.Universe{}, nil, true)
		Expect(err).NotTo(HaveOccurred())
		v, ok := table.Value(day, "A")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(int64(2520000))) // no factor written for A: cum multiplier is 1.0
	})

	It("never adjusts a non-price field even when adjusted is requested", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		day := d("20240102")
		Expect(store.WritePartition(roots, day, []schema.Row{
			{Symbol: "A", Volume: 5000},
		})).To(Succeed())

		cacheRoot := GinkgoT().TempDir()
		win := query.Window{Start: day, End: day}
		Expect(cumulative.Build(root, cacheRoot, win)).To(Succeed())

		l := &loader.DataLoader{
			Window:       win,
			SnapshotRoot: root,
			CacheRoot:    cacheRoot,
			Registry:     loader.DefaultRegistry(),
		}

		table, err := l.Get("volume", loader.Universe{}, nil, true)
		Expect(err).NotTo(HaveOccurred())
		v, ok := table.Value(day, "A")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(int64(5000)))
	})
})
