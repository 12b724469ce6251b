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
	"fmt"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/krxdata/loader"
	"github.com/penny-vault/krxdata/query"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about the snapshot store",
	Run: func(cmd *cobra.Command, args []string) {
		l := &loader.DataLoader{
			Window:       openEndedWindow(),
			SnapshotRoot: viper.GetString("store"),
			UniverseRoot: viper.GetString("universe"),
			CacheRoot:    viper.GetString("ephemeral"),
			Registry:     loader.DefaultRegistry(),
		}

		summary, err := l.Summary(time.Time{})
		if err != nil {
			log.Fatal().Err(err).Msg("could not build store summary")
		}

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(80),
		)

		out, err := r.Render(summary)
		if err != nil {
			log.Fatal().Err(err).Msg("could not render summary document")
		}

		fmt.Print(out)
	},
}

// openEndedWindow spans from the earliest representable date to today,
// used when a command needs a loader.DataLoader but is not scoped to a
// specific query window.
func openEndedWindow() query.Window {
	return query.Window{Start: time.Time{}, End: time.Now()}
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
