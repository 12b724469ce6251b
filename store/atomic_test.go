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
package store_test

import (
	"os"
	"path/filepath"

	"github.com/penny-vault/krxdata/schema"
	"github.com/penny-vault/krxdata/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func sampleRows() []schema.Row {
	return []schema.Row{
		{Symbol: "005930", Name: "A", BasePrice: 70000, ClosePrice: 71000, Value: 900},
		{Symbol: "000660", Name: "B", BasePrice: 120000, ClosePrice: 121000, Value: 500},
	}
}

var _ = Describe("WritePartition and ReadPartition", func() {
	It("publishes rows sorted by symbol regardless of input order", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		d := date("20240102")

		Expect(store.WritePartition(roots, d, sampleRows())).To(Succeed())

		rows, ok, err := store.ReadPartition(root, d)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Symbol).To(Equal("000660"))
		Expect(rows[1].Symbol).To(Equal("005930"))
	})

	It("is idempotent: republishing the same date replaces rather than appends", func() {
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, GinkgoT().TempDir(), "snapshots")
		d := date("20240102")

		Expect(store.WritePartition(roots, d, sampleRows())).To(Succeed())
		Expect(store.WritePartition(roots, d, sampleRows())).To(Succeed())

		rows, _, err := store.ReadPartition(root, d)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
	})

	It("leaves no staging or backup debris behind after a clean publish", func() {
		ephemeral := GinkgoT().TempDir()
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, ephemeral, "snapshots")
		d := date("20240102")

		Expect(store.WritePartition(roots, d, sampleRows())).To(Succeed())

		_, err := os.Stat(roots.Root)
		Expect(err).NotTo(HaveOccurred())
		_, err = os.Stat(filepath.Join(ephemeral, "staging", "snapshots", store.PartitionDirName(d)))
		Expect(os.IsNotExist(err)).To(BeTrue())
		_, err = os.Stat(filepath.Join(ephemeral, "backup", "snapshots", store.PartitionDirName(d)))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})

var _ = Describe("Reconcile", func() {
	It("deletes leftover staging debris from a crash between stage and publish", func() {
		ephemeral := GinkgoT().TempDir()
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, ephemeral, "snapshots")
		d := date("20240103")

		stagingDir := filepath.Join(ephemeral, "staging", "snapshots", store.PartitionDirName(d))
		Expect(os.MkdirAll(stagingDir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(stagingDir, store.DataFileName), []byte("partial"), 0o644)).To(Succeed())

		Expect(store.Reconcile(roots)).To(Succeed())

		_, err := os.Stat(stagingDir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("restores a backup partition whose publish rename never completed", func() {
		ephemeral := GinkgoT().TempDir()
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, ephemeral, "snapshots")
		d := date("20240104")

		Expect(store.WritePartition(roots, d, sampleRows())).To(Succeed())

		// Simulate a crash between step 2 (move to backup) and step 3
		// (publish): move the final partition aside into backup and leave
		// no final partition behind.
		finalDir := filepath.Join(root, store.PartitionDirName(d))
		backupDir := filepath.Join(ephemeral, "backup", "snapshots", store.PartitionDirName(d))
		Expect(os.MkdirAll(filepath.Dir(backupDir), 0o755)).To(Succeed())
		Expect(os.Rename(finalDir, backupDir)).To(Succeed())

		Expect(store.Reconcile(roots)).To(Succeed())

		Expect(store.HasPartition(root, d)).To(BeTrue())
		_, err := os.Stat(backupDir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("deletes a leftover backup whose final partition already committed", func() {
		ephemeral := GinkgoT().TempDir()
		root := GinkgoT().TempDir()
		roots := store.NewRoots(root, ephemeral, "snapshots")
		d := date("20240105")

		Expect(store.WritePartition(roots, d, sampleRows())).To(Succeed())

		backupDir := filepath.Join(ephemeral, "backup", "snapshots", store.PartitionDirName(d))
		Expect(os.MkdirAll(backupDir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(backupDir, store.DataFileName), []byte("stale"), 0o644)).To(Succeed())

		Expect(store.Reconcile(roots)).To(Succeed())

		Expect(store.HasPartition(root, d)).To(BeTrue())
		_, err := os.Stat(backupDir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
