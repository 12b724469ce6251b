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

	"github.com/penny-vault/krxdata/loader"
	"github.com/penny-vault/krxdata/query"
	"github.com/penny-vault/krxdata/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	queryFrom     string
	queryTo       string
	queryUniverse string
	queryAdjusted bool
	queryCSVPath  string
)

var queryCmd = &cobra.Command{
	Use:   "query <field>",
	Short: "Query a field over a date range as a wide date x symbol table",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		field := args[0]

		from, err := time.Parse(store.DateLayout, queryFrom)
		cobra.CheckErr(err)
		to, err := time.Parse(store.DateLayout, queryTo)
		cobra.CheckErr(err)
		win := query.Window{Start: from, End: to}

		l := &loader.DataLoader{
			Window:       win,
			SnapshotRoot: viper.GetString("store"),
			UniverseRoot: viper.GetString("universe"),
			CacheRoot:    viper.GetString("ephemeral") + "/cumulative_adjustments",
			Registry:     loader.DefaultRegistry(),
		}

		table, err := l.Get(field, loader.Universe{Name: queryUniverse}, &win, queryAdjusted)
		if err != nil {
			log.Fatal().Err(err).Str("field", field).Msg("query failed")
		}

		if queryCSVPath != "" {
			if err := loader.WriteCSV(table, queryCSVPath); err != nil {
				log.Fatal().Err(err).Msg("could not write csv")
			}
			fmt.Printf("wrote %d dates x %d symbols to %s\n", len(table.Dates), len(table.Symbols), queryCSVPath)
			return
		}

		fmt.Printf("date\t%s\n", fmt.Sprint(table.Symbols))
		for _, d := range table.Dates {
			row := make([]any, 0, len(table.Symbols))
			for _, s := range table.Symbols {
				v, _ := table.Value(d, s)
				row = append(row, v)
			}
			fmt.Printf("%s\t%v\n", d.Format(store.DateLayout), row)
		}
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryFrom, "from", "", "start date (YYYYMMDD)")
	queryCmd.Flags().StringVar(&queryTo, "to", "", "end date (YYYYMMDD)")
	queryCmd.Flags().StringVar(&queryUniverse, "universe", "", "universe name (e.g. top_100)")
	queryCmd.Flags().BoolVar(&queryAdjusted, "adjusted", false, "apply the cumulative adjustment to price fields")
	queryCmd.Flags().StringVar(&queryCSVPath, "csv", "", "write the result to this CSV path instead of stdout")
	_ = queryCmd.MarkFlagRequired("from")
	_ = queryCmd.MarkFlagRequired("to")
}
