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
package sched

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/fugue/flowrun/task"
)

// fargateRetries and fargateBackoff match the teacher's task/pool.go worker
// loop: up to three attempts at each ECS call, with a pause between them to
// ride out transient API throttling.
const (
	fargateRetries = 3
	fargateBackoff = 10 * time.Second
)

// FargateSubmitter is an alternative ClusterScheduler Submitter that runs
// the generated script as an ECS Fargate task instead of shelling out to a
// local batch-submit command. It is a synchronous Submitter: Submit blocks
// until the task stops, by which point the script running inside the
// container has already touched its own finished/failed sentinel against
// whatever shared sentinelstore.Store the container was configured with, so
// ClusterScheduler's next poll tick observes it immediately. Grounded on the
// teacher's task/fargate.go (ecsRunner.Run/WaitUntilStopped) and
// task/pool.go (the retry-with-backoff worker loop).
type FargateSubmitter struct {
	runner       task.Runner
	definition   string
	scriptEnvVar string
}

// NewFargateSubmitter returns a FargateSubmitter that runs definition as the
// ECS task definition for every submission, passing the generated script's
// path to the container via the environment variable named by scriptEnvVar.
func NewFargateSubmitter(runner task.Runner, definition, scriptEnvVar string) *FargateSubmitter {
	if scriptEnvVar == "" {
		scriptEnvVar = "FLOWRUN_SCRIPT_PATH"
	}
	return &FargateSubmitter{runner: runner, definition: definition, scriptEnvVar: scriptEnvVar}
}

func (f *FargateSubmitter) Submit(ctx context.Context, scriptPath string) error {
	opts := task.Options{
		Definition:  f.definition,
		Environment: map[string]string{f.scriptEnvVar: scriptPath},
	}

	var t *task.Task
	var err error
	for attempt := 0; attempt < fargateRetries; attempt++ {
		t, err = f.runner.Run(ctx, opts)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(fargateBackoff):
		}
	}
	if err != nil {
		return err
	}

	var result *multierror.Error
	for attempt := 0; attempt < fargateRetries; attempt++ {
		err = f.runner.WaitUntilStopped(ctx, t)
		if err == nil {
			return nil
		}
		result = multierror.Append(result, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(fargateBackoff):
		}
	}
	return result.ErrorOrNil()
}
