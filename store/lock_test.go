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
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AcquireLock", func() {
	It("acquires and releases the lock on an empty root", func() {
		root := GinkgoT().TempDir()

		lock, err := store.AcquireLock(root)
		Expect(err).NotTo(HaveOccurred())
		Expect(lock.RunID()).NotTo(BeEmpty())

		_, statErr := os.Stat(filepath.Join(root, store.LockFileName))
		Expect(statErr).NotTo(HaveOccurred())

		Expect(lock.Release()).To(Succeed())
		_, statErr = os.Stat(filepath.Join(root, store.LockFileName))
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("refuses to acquire while a live process holds the lock", func() {
		root := GinkgoT().TempDir()

		first, err := store.AcquireLock(root)
		Expect(err).NotTo(HaveOccurred())
		defer first.Release()

		_, err = store.AcquireLock(root)
		Expect(err).To(HaveOccurred())
		kerr, ok := err.(*krxerr.Error)
		Expect(ok).To(BeTrue())
		Expect(kerr.Kind).To(Equal(krxerr.BusyError))
	})

	It("breaks a stale lock left by a process that no longer exists", func() {
		root := GinkgoT().TempDir()
		Expect(os.MkdirAll(root, 0o755)).To(Succeed())

		stale := store.LockInfo{RunID: "dead-run", PID: 999999, StartedAt: time.Now().UTC()}
		data, err := json.Marshal(stale)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(filepath.Join(root, store.LockFileName), data, 0o644)).To(Succeed())

		lock, err := store.AcquireLock(root)
		Expect(err).NotTo(HaveOccurred())
		Expect(lock.RunID()).NotTo(Equal("dead-run"))
		Expect(lock.Release()).To(Succeed())
	})
})
