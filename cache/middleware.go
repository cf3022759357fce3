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

package cache

import (
	"context"

	"github.com/fugue/flowrun/iofile"
	"github.com/fugue/flowrun/job"
)

// WrapJob replaces j.Payload with one that consults c before falling back
// to the original payload, and writes back to c on a successful run.
// Payload carries no context.Context or *Job reference (spec 4.1's
// RunWrapper contract), so wrapping happens here at construction time
// rather than inside job.Run. Grounded on the teacher's cache/middleware.go
// RunnerBuilder, adapted from wrapping project.Runner to wrapping a single
// job's Payload func directly.
func WrapJob(c *Cache, j *job.Job) {
	if c == nil || c.mode == Disabled || len(j.Output) == 0 {
		return
	}
	original := j.Payload
	j.Payload = func(input, output []iofile.IOFile, wildcards map[string]string, threads int, log iofile.IOFile) error {
		ctx := context.Background()

		if c.mode != WriteOnly {
			if err := c.Read(ctx, j); err == nil {
				return nil // cache hit, original payload skipped
			} else if err != Miss {
				return err
			}
		}

		if original != nil {
			if err := original(input, output, wildcards, threads, log); err != nil {
				return err
			}
		}

		return c.Write(ctx, j)
	}
}
