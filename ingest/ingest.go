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

// Package ingest implements stage S1: fetch one trading date, normalize
// it through the schema codec, and publish the raw snapshot partition.
package ingest

import (
	"context"
	"time"

	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/schema"
	"github.com/penny-vault/krxdata/store"
	"github.com/rs/zerolog"
)

// Fetcher is the external collaborator plugged into S1. FetchDay returns
// the upstream records for date, or an empty slice when date was not a
// trading day. It is the only place network I/O enters this package.
type Fetcher interface {
	FetchDay(ctx context.Context, date time.Time) ([]schema.Record, error)
}

// Policy controls S1's resume behaviour for a date that already has a
// committed partition.
type Policy struct {
	// ForceRefetch re-ingests a date even if a partition already exists.
	// The default (false) is skip-if-present.
	ForceRefetch bool
}

// Result reports the outcome of ingesting a single date.
type Result struct {
	Date         time.Time
	Skipped      bool // partition already present, Policy.ForceRefetch was false
	NonTrading   bool // fetcher returned zero records
	RowsWritten  int
}

// IngestDay runs S1 for a single date: skip if already present (unless
// forced), call the fetcher, treat an empty result as a non-trading day,
// otherwise decode, sort, and publish via the store's atomic pathway with
// enrichment columns left null.
func IngestDay(ctx context.Context, roots store.Roots, date time.Time, fetcher Fetcher, policy Policy) (Result, error) {
	logger := zerolog.Ctx(ctx).With().Time("date", date).Logger()

	if !policy.ForceRefetch && store.HasPartition(roots.Root, date) {
		logger.Debug().Msg("partition already present, skipping ingest")
		return Result{Date: date, Skipped: true}, nil
	}

	records, err := fetcher.FetchDay(ctx, date)
	if err != nil {
		return Result{Date: date}, krxerr.Wrap(krxerr.FetchError, err, "fetch day failed").WithDate(date.Format(store.DateLayout)).WithStage("S1")
	}

	if len(records) == 0 {
		logger.Debug().Msg("no records returned; treating as non-trading day")
		return Result{Date: date, NonTrading: true}, nil
	}

	rows, err := schema.DecodeRows(records)
	if err != nil {
		if kerr, ok := err.(*krxerr.Error); ok {
			return Result{Date: date}, kerr.WithDate(date.Format(store.DateLayout)).WithStage("S1")
		}
		return Result{Date: date}, krxerr.Wrap(krxerr.PayloadError, err, "decode upstream records").WithDate(date.Format(store.DateLayout)).WithStage("S1")
	}

	schema.SortBySymbol(rows)

	if err := store.WritePartition(roots, date, rows); err != nil {
		return Result{Date: date}, err
	}

	logger.Info().Int("rows", len(rows)).Msg("ingested partition")
	return Result{Date: date, RowsWritten: len(rows)}, nil
}
