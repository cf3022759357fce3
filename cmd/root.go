// Copyright 2020 Fugue, Inc.
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

// Package cmd is the flowrun command line entry point: a thin cobra/viper
// driver over the sched/cache/events packages, grounded on the teacher's
// cmd/root.go and cmd/run.go.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logrus.StandardLogger()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "flowrun",
	Short:   "A resource-aware DAG job scheduler",
	Version: fmt.Sprintf("%s, build %s", Version, GitCommit),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringP("dir", "d", ".", "Working directory")
	rootCmd.PersistentFlags().IntP("jobs", "j", 1, "Concurrent jobs (local) or advisory cores (cluster)")
	rootCmd.PersistentFlags().Bool("cluster", false, "Submit jobs to a cluster instead of running them locally")
	rootCmd.PersistentFlags().String("submit-command", "", "Cluster submit command, e.g. qsub (cluster mode only)")
	rootCmd.PersistentFlags().String("cache", "read-write", "Cache mode (read-write | write-only | disabled)")
	rootCmd.PersistentFlags().String("cache-dir", "", "Cache storage directory, defaults to $XDG_CACHE_HOME/flowrun")
	rootCmd.PersistentFlags().String("queue-url", "", "SQS queue URL events are additionally published to")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress per-job description logging")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	viper.BindPFlag("jobs", rootCmd.PersistentFlags().Lookup("jobs"))
	viper.BindPFlag("cluster", rootCmd.PersistentFlags().Lookup("cluster"))
	viper.BindPFlag("submit-command", rootCmd.PersistentFlags().Lookup("submit-command"))
	viper.BindPFlag("cache", rootCmd.PersistentFlags().Lookup("cache"))
	viper.BindPFlag("cache-dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	viper.BindPFlag("queue-url", rootCmd.PersistentFlags().Lookup("queue-url"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("flowrun")

	home, err := os.UserHomeDir()
	if err != nil {
		fatal(err)
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".flowrun")

	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func initLogging() {
	if viper.GetBool("debug") {
		log.SetLevel(logrus.DebugLevel)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
