// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd is the mount/format CLI's thin wiring layer: it resolves
// flags/config-file/env into a cfg.Config via viper and hands off to
// fs.Mount or fs.Mkfs. It carries no filesystem logic of its own
// (command-line parsing and mount orchestration are out of spec.md §1's
// scope, but the CLI shell itself is ambient, grounded on the teacher's
// cmd/root.go).
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/logfuse/cfg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	bindErr error

	mountConfig cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "logfuse",
	Short: "Mount or format a log-structured filesystem backed by a remote object store",
	Long: `logfuse mounts a POSIX-like filesystem whose persistent backing
store is a remote immutable-object store, using a log-structured layout:
append-only numbered segments, an in-memory inode map, and checkpoint
plus roll-forward crash recovery.`,
	SilenceUsage: true,
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file.")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(mkfsCmd)
}

func initConfig() {
	if cfgFile != "" {
		abs, err := filepath.Abs(cfgFile)
		if err != nil {
			bindErr = fmt.Errorf("resolving --config-file: %w", err)
			return
		}
		viper.SetConfigFile(abs)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			bindErr = fmt.Errorf("reading config file: %w", err)
			return
		}
	}
	if err := viper.Unmarshal(&mountConfig); err != nil {
		bindErr = fmt.Errorf("unmarshalling config: %w", err)
	}
}
