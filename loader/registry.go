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

// Package loader implements the query composer (C10) and field registry
// (C11): resolving a logical field name to a physical column, applying
// universe masking and adjustment, and pivoting the result to a wide
// table keyed by date x symbol.
package loader

import (
	"sort"
	"strings"

	"github.com/penny-vault/krxdata/krxerr"
)

// Field describes one logical field's physical location and whether
// price-adjustment applies to it.
type Field struct {
	Name       string
	Table      string // "snapshot" or "universe"
	Column     string
	Adjustable bool
}

// FieldRegistry is a declarative logical-name -> Field mapping, extensible
// without touching the query composer.
type FieldRegistry struct {
	fields map[string]Field
}

// DefaultRegistry returns the registry covering the snapshot table's
// standard columns. Only price fields are adjustable.
func DefaultRegistry() *FieldRegistry {
	r := &FieldRegistry{fields: make(map[string]Field)}
	r.Register(Field{Name: "base_price", Table: "snapshot", Column: "base_price", Adjustable: true})
	r.Register(Field{Name: "close", Table: "snapshot", Column: "close_price", Adjustable: true})
	r.Register(Field{Name: "open", Table: "snapshot", Column: "base_price", Adjustable: true})
	r.Register(Field{Name: "price_change", Table: "snapshot", Column: "price_change", Adjustable: false})
	r.Register(Field{Name: "volume", Table: "snapshot", Column: "volume", Adjustable: false})
	r.Register(Field{Name: "value", Table: "snapshot", Column: "value", Adjustable: false})
	r.Register(Field{Name: "fluctuation_rate", Table: "snapshot", Column: "fluctuation_rate", Adjustable: false})
	r.Register(Field{Name: "fluctuation_type", Table: "snapshot", Column: "fluctuation_type", Adjustable: false})
	r.Register(Field{Name: "liquidity_rank", Table: "snapshot", Column: "liquidity_rank", Adjustable: false})
	return r
}

// Register adds or replaces a field mapping.
func (r *FieldRegistry) Register(f Field) {
	r.fields[f.Name] = f
}

// Resolve looks up field, returning a RegistryError carrying the known
// field list when it is unrecognized.
func (r *FieldRegistry) Resolve(name string) (Field, error) {
	f, ok := r.fields[name]
	if !ok {
		return Field{}, krxerr.New(krxerr.RegistryError, "unknown field: known fields are "+r.knownFieldsList()).WithField(name)
	}
	return f, nil
}

func (r *FieldRegistry) knownFieldsList() string {
	names := make([]string, 0, len(r.fields))
	for n := range r.fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
