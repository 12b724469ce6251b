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

	"github.com/penny-vault/krxdata/loader"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/schema"
	"github.com/penny-vault/krxdata/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DataLoader.Summary", func() {
	It("reports the partition count in the loader's window and that it was never prepared", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		day := d("20240102")
		Expect(store.WritePartition(roots, day, []schema.Row{{Symbol: "A"}})).To(Succeed())

		l := &loader.DataLoader{
			Window:       query.Window{Start: day, End: day},
			SnapshotRoot: root,
			Registry:     loader.DefaultRegistry(),
		}

		out, err := l.Summary(time.Time{})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("partitions in window"))
		Expect(out).To(ContainSubstring("1"))
		Expect(out).To(ContainSubstring("never"))
	})

	It("reports a relative last-prepared time when one is given", func() {
		root := GinkgoT().TempDir()
		l := &loader.DataLoader{
			Window:       query.Window{Start: d("20240102"), End: d("20240102")},
			SnapshotRoot: root,
			Registry:     loader.DefaultRegistry(),
		}

		out, err := l.Summary(time.Now().Add(-2 * time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).NotTo(ContainSubstring("never"))
	})
})
