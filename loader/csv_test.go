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
	"os"
	"path/filepath"
	"time"

	"github.com/penny-vault/krxdata/loader"
	"github.com/penny-vault/krxdata/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("WriteCSV", func() {
	It("writes one column per symbol and one row per date, leaving absent cells blank", func() {
		day1, day2 := d("20240102"), d("20240103")
		table := &loader.WideTable{
			Dates:   []time.Time{day1, day2},
			Symbols: []string{"A", "B"},
			Values: map[time.Time]map[string]any{
				day1: {"A": int64(100), "B": int64(200)},
				day2: {"A": int64(101)},
			},
		}

		path := filepath.Join(GinkgoT().TempDir(), "out.csv")
		Expect(loader.WriteCSV(table, path)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		content := string(data)
		Expect(content).To(ContainSubstring("date"))
		Expect(content).To(ContainSubstring("A"))
		Expect(content).To(ContainSubstring("B"))
		Expect(content).To(ContainSubstring(day1.Format(store.DateLayout)))
		Expect(content).To(ContainSubstring("100"))
		Expect(content).To(ContainSubstring("200"))
	})
})
