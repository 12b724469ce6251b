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

// Package krxerr defines the typed failure kinds a caller of krxdata can
// match on, and a structured error type carrying the context (partition
// path, stage, date, field) that a bare sentinel error can't.
package krxerr

import "fmt"

// Kind is the machine-matchable failure category.
type Kind int

const (
	// ConfigError indicates a malformed registry or field mapping.
	ConfigError Kind = iota
	// FetchError indicates the external fetcher failed for a date.
	FetchError
	// PayloadError indicates an upstream record was missing required
	// fields or failed numeric coercion.
	PayloadError
	// StoreError indicates a filesystem operation failed.
	StoreError
	// CorruptionError indicates a partition file exists but cannot be
	// decoded.
	CorruptionError
	// WindowError indicates a query sub-window fell outside the loader
	// window.
	WindowError
	// RegistryError indicates an unknown logical field name.
	RegistryError
	// BusyError indicates the advisory store lock is held elsewhere.
	BusyError
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case FetchError:
		return "FetchError"
	case PayloadError:
		return "PayloadError"
	case StoreError:
		return "StoreError"
	case CorruptionError:
		return "CorruptionError"
	case WindowError:
		return "WindowError"
	case RegistryError:
		return "RegistryError"
	case BusyError:
		return "BusyError"
	default:
		return "UnknownError"
	}
}

// Error is the error type returned by every exported krxdata operation.
type Error struct {
	Kind    Kind
	Message string

	Date  string
	Path  string
	Stage string
	Field string

	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Date != "" {
		msg += fmt.Sprintf(" [date=%s]", e.Date)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" [path=%s]", e.Path)
	}
	if e.Stage != "" {
		msg += fmt.Sprintf(" [stage=%s]", e.Stage)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" [field=%s]", e.Field)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so that
// errors.Is(err, krxerr.New(kind, "")) matches any error of that kind --
// callers should prefer errors.As and inspect Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDate returns a copy of e annotated with a date.
func (e *Error) WithDate(date string) *Error {
	c := *e
	c.Date = date
	return &c
}

// WithPath returns a copy of e annotated with a partition path.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// WithStage returns a copy of e annotated with a pipeline stage name.
func (e *Error) WithStage(stage string) *Error {
	c := *e
	c.Stage = stage
	return &c
}

// WithField returns a copy of e annotated with a logical field name.
func (e *Error) WithField(field string) *Error {
	c := *e
	c.Field = field
	return &c
}
