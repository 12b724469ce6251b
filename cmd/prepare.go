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
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/penny-vault/krxdata/ingest"
	"github.com/penny-vault/krxdata/pipeline"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/schema"
	"github.com/penny-vault/krxdata/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	prepareFrom  string
	prepareTo    string
	prepareForce bool
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Ingest and enrich a date range of trading-day snapshots",
	Run: func(cmd *cobra.Command, args []string) {
		from, err := time.Parse(store.DateLayout, prepareFrom)
		cobra.CheckErr(err)
		to, err := time.Parse(store.DateLayout, prepareTo)
		cobra.CheckErr(err)

		root := viper.GetString("store")
		ephemeral := viper.GetString("ephemeral")
		universeRoot := viper.GetString("universe")

		roots := store.NewRoots(root, ephemeral, "snapshots")

		orch := &pipeline.Orchestrator{
			Roots:        roots,
			UniverseRoot: universeRoot,
			CacheRoot:    ephemeral + "/cumulative_adjustments",
			Fetcher:      noopFetcher{},
			Policy:       ingest.Policy{ForceRefetch: prepareForce},
		}

		ctx := log.Logger.WithContext(context.Background())
		summary, err := orch.Prepare(ctx, query.Window{Start: from, End: to})
		if err != nil {
			log.Error().Err(err).Msg("prepare completed with errors")
		}

		fmt.Println(headerStyle.Render("prepare summary"))
		fmt.Printf("  succeeded:  %s\n", humanize.Comma(int64(len(summary.Succeeded))))
		fmt.Printf("  non-trading: %s\n", humanize.Comma(int64(len(summary.SkippedNonTrading))))
		fmt.Printf("  skipped (already present): %s\n", humanize.Comma(int64(len(summary.SkippedPresent))))
		fmt.Printf("  failed:     %s\n", humanize.Comma(int64(len(summary.Failed))))
	},
}

// noopFetcher is the fetcher wired into the CLI by default; a real
// deployment replaces it with a collaborator that actually calls an
// upstream market-data source. The fetch-day contract consumed by the
// ingestion stage (C4) is the only thing krxdata's core depends on.
type noopFetcher struct{}

func (noopFetcher) FetchDay(ctx context.Context, date time.Time) ([]schema.Record, error) {
	return nil, nil
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.Flags().StringVar(&prepareFrom, "from", "", "start date (YYYYMMDD)")
	prepareCmd.Flags().StringVar(&prepareTo, "to", "", "end date (YYYYMMDD)")
	prepareCmd.Flags().BoolVar(&prepareForce, "force", false, "re-ingest dates that already have a partition")
	_ = prepareCmd.MarkFlagRequired("from")
	_ = prepareCmd.MarkFlagRequired("to")
}
