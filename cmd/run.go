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
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	uuid "github.com/satori/go.uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fugue/flowrun/cache"
	"github.com/fugue/flowrun/envsub"
	"github.com/fugue/flowrun/events"
	"github.com/fugue/flowrun/sched"
	"github.com/fugue/flowrun/sentinelstore"
)

// envParams builds the parameter set envsub resolves ${VAR} references
// against when expanding a config value: the process environment plus
// whatever is already known about this run.
func envParams(workDir, buildID string) map[string]interface{} {
	params := map[string]interface{}{
		"WORKDIR":  workDir,
		"BUILD_ID": buildID,
	}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			params[kv[:i]] = kv[i+1:]
		}
	}
	return params
}

func closeHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		fmt.Println("cleaning up before exiting...")
	}()
}

// NewRunCommand returns the "run" subcommand: build the job graph and hand
// it to a LocalScheduler or ClusterScheduler, mirroring the teacher's
// cmd/run.go wiring of project.RunnerBuilder middleware and sched.Scheduler.
func NewRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the job graph",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			closeHandler(cancel)

			workDir, err := filepath.Abs(viper.GetString("dir"))
			if err != nil {
				fatal(err)
			}

			jobs, err := buildDemoJobs(workDir)
			if err != nil {
				fatal(err)
			}

			cacheMode := viper.GetString("cache")
			if cacheMode != cache.Disabled {
				cacheDir := viper.GetString("cache-dir")
				if cacheDir == "" {
					cacheDir = XDGCache()
				}
				c := cache.New(cache.Opts{
					Store: sentinelstore.NewFilesystem(cacheDir),
					Mode:  cacheMode,
				})
				for _, j := range jobs {
					cache.WrapJob(c, j)
				}
			}

			publisher := events.Publisher(events.NewLogger(log))
			if queueURL := viper.GetString("queue-url"); queueURL != "" {
				sess, err := session.NewSession()
				if err != nil {
					log.WithError(err).Warn("failed to create AWS session, falling back to log-only events")
				} else {
					queue := events.NewQueue(sqs.New(sess), queueURL)
					publisher = events.Multi(publisher, queue)
				}
			}

			buildID := uuid.NewV4().String()
			jobCount := viper.GetInt("jobs")
			quiet := viper.GetBool("quiet")

			var runErr error
			if viper.GetBool("cluster") {
				var submitter sched.Submitter
				if cmdStr := viper.GetString("submit-command"); cmdStr != "" {
					expanded, err := envsub.EvalString(cmdStr, envParams(workDir, buildID))
					if err != nil {
						fatal(fmt.Errorf("resolving submit-command: %w", err))
					}
					submitter = sched.NewShellSubmitter(expanded)
				}
				scheduler := sched.NewCluster(sched.ClusterOptions{
					Cores:     jobCount,
					WorkDir:   workDir,
					Submitter: submitter,
					Quiet:     quiet,
					BuildID:   buildID,
					Publisher: publisher,
				})
				runErr = scheduler.Run(ctx, jobs)
			} else {
				scheduler := sched.NewLocal(sched.Options{
					MaxCores:  jobCount,
					Quiet:     quiet,
					BuildID:   buildID,
					Publisher: publisher,
				})
				runErr = scheduler.Run(ctx, jobs)
			}

			if runErr != nil {
				fatal(runErr)
			}
		},
	}

	return runCmd
}

func init() {
	rootCmd.AddCommand(NewRunCommand())
}
