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
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "krxdata",
	Short: "krxdata maintains a partitioned historical database of Korean equities trading data",
	Long: `krxdata is a command line utility for building and querying a
partitioned, columnar database of daily Korean equities trading snapshots.

It ingests one partition per trading date, enriches it with a per-symbol
corporate-action adjustment factor and a per-date liquidity rank, and
materializes survivorship-bias-free universe membership flags
(in_top_100/200/500/1000). Queries compose these into wide tables --
date x symbol -- optionally adjusted for splits and other corporate
actions, and optionally restricted to one of the materialized universes.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.krxdata.toml)")
	rootCmd.PersistentFlags().String("store", "", "snapshot store root directory")
	rootCmd.PersistentFlags().String("ephemeral", "", "ephemeral root directory (staging, backup, cumulative cache)")
	rootCmd.PersistentFlags().String("universe", "", "universe table root directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	for _, flag := range []string{"store", "ephemeral", "universe", "log-level"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			log.Panic().Err(err).Str("flag", flag).Msg("BindPFlag failed")
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".krxdata" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".krxdata")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}

	if level, err := zerolog.ParseLevel(viper.GetString("log-level")); err == nil {
		zerolog.SetGlobalLevel(level)
	}
}
