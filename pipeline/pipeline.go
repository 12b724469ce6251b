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

// Package pipeline sequences the ingestion and enrichment stages (S1
// through S4b) over a date range under the store's single-writer
// discipline, and aggregates the per-date outcome into one summary.
package pipeline

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/penny-vault/krxdata/cumulative"
	"github.com/penny-vault/krxdata/enrich"
	"github.com/penny-vault/krxdata/ingest"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/store"
	"github.com/penny-vault/krxdata/universe"
	"github.com/rs/zerolog"
)

// Event is a progress notification emitted at stage boundaries and,
// during S1, per date.
type Event struct {
	Stage       string
	Date        time.Time
	RowsWritten int
	Elapsed     time.Duration
}

// Summary is the outcome of one Prepare call.
type Summary struct {
	Succeeded         []time.Time
	SkippedNonTrading []time.Time
	SkippedPresent    []time.Time
	Failed            map[string]error
	Events            []Event
	StartedAt         time.Time
	FinishedAt        time.Time
}

// Orchestrator drives stages S1-S4b over a store root, under the
// advisory single-writer lock.
type Orchestrator struct {
	Roots        store.Roots
	UniverseRoot string
	CacheRoot    string
	Fetcher      ingest.Fetcher
	Policy       ingest.Policy

	// Events, if non-nil, receives a copy of every emitted Event. It is
	// never closed by Prepare; the caller owns its lifecycle.
	Events chan<- Event
}

// Prepare runs S1 through S4b over win and returns an aggregated
// summary. A second Orchestrator attempting to prepare the same store
// root concurrently fails fast with a BusyError without running any
// stage.
func (o *Orchestrator) Prepare(ctx context.Context, win query.Window) (*Summary, error) {
	logger := zerolog.Ctx(ctx)

	lock, err := store.AcquireLock(o.Roots.Root)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			logger.Warn().Err(rerr).Msg("failed to release advisory lock")
		}
	}()

	if err := store.Reconcile(o.Roots); err != nil {
		return nil, err
	}

	summary := &Summary{
		Failed:    make(map[string]error),
		StartedAt: time.Now().UTC(),
	}

	var errs *multierror.Error

	for d := win.Start; !d.After(win.End); d = d.AddDate(0, 0, 1) {
		start := time.Now()
		result, ierr := ingest.IngestDay(ctx, o.Roots, d, o.Fetcher, o.Policy)
		elapsed := time.Since(start)

		o.emit(summary, Event{Stage: "S1", Date: d, RowsWritten: result.RowsWritten, Elapsed: elapsed})

		if ierr != nil {
			errs = multierror.Append(errs, ierr)
			summary.Failed[d.Format(store.DateLayout)] = ierr
			logger.Warn().Err(ierr).Time("date", d).Msg("S1 failed for date, continuing sweep")
			continue
		}
		switch {
		case result.NonTrading:
			summary.SkippedNonTrading = append(summary.SkippedNonTrading, d)
		case result.Skipped:
			summary.SkippedPresent = append(summary.SkippedPresent, d)
		default:
			summary.Succeeded = append(summary.Succeeded, d)
			logger.Info().Str("rows", humanize.Comma(int64(result.RowsWritten))).Time("date", d).Msg("ingested")
		}
	}

	stageStart := time.Now()
	if err := enrich.Adjustment(o.Roots, win); err != nil {
		return summary, multierror.Append(errs, err).ErrorOrNil()
	}
	o.emit(summary, Event{Stage: "S2", Date: win.End, Elapsed: time.Since(stageStart)})

	stageStart = time.Now()
	if err := enrich.LiquidityRank(o.Roots, win); err != nil {
		return summary, multierror.Append(errs, err).ErrorOrNil()
	}
	o.emit(summary, Event{Stage: "S3", Date: win.End, Elapsed: time.Since(stageStart)})

	stageStart = time.Now()
	if err := cumulative.Build(o.Roots.Root, o.CacheRoot, win); err != nil {
		return summary, multierror.Append(errs, err).ErrorOrNil()
	}
	o.emit(summary, Event{Stage: "S4a", Date: win.End, Elapsed: time.Since(stageStart)})

	stageStart = time.Now()
	if err := universe.Build(o.Roots.Root, o.UniverseRoot, win); err != nil {
		return summary, multierror.Append(errs, err).ErrorOrNil()
	}
	o.emit(summary, Event{Stage: "S4b", Date: win.End, Elapsed: time.Since(stageStart)})

	summary.FinishedAt = time.Now().UTC()
	return summary, errs.ErrorOrNil()
}

func (o *Orchestrator) emit(summary *Summary, e Event) {
	summary.Events = append(summary.Events, e)
	if o.Events == nil {
		return
	}
	select {
	case o.Events <- e:
	default:
	}
}
