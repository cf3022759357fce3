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

// Package events publishes job lifecycle notifications (started, finished,
// failed, plus a warning kind) to an external observer. This
// supplements spec.md, which only requires that warnings be logged: a
// scheduler embedded in a larger system benefits from the same events being
// visible outside the process. Grounded on the teacher's queue package,
// generalized from a raw Queue of arbitrary messages to a typed event bus
// a scheduler can publish to without knowing which backend subscribes.
package events

import "time"

// Kind identifies what happened to a job.
type Kind string

const (
	// Started fires when a scheduler dispatches a job for execution.
	Started Kind = "started"

	// Finished fires when a job completes successfully.
	Finished Kind = "finished"

	// Failed fires when a job's payload or dispatch returns an error.
	Failed Kind = "failed"

	// Warning marks a non-fatal condition. The schedulers and dynamic
	// expansion in this module print their warnings with
	// jobexc.PrintWarning and do not publish Warning events.
	Warning Kind = "warning"
)

// Event is one job-lifecycle notification.
type Event struct {
	Kind      Kind      `json:"kind"`
	BuildID   string    `json:"build_id"`
	Rule      string    `json:"rule"`
	JobID     int64     `json:"job_id"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is the capability a scheduler needs to emit events. Queue
// (queue.go) and the logging default (logger.go) both satisfy it.
type Publisher interface {
	Publish(e Event) error
}

// PublisherFunc adapts a plain function to the Publisher interface.
type PublisherFunc func(e Event) error

// Publish calls f.
func (f PublisherFunc) Publish(e Event) error { return f(e) }

// Multi fans a single event out to every publisher, continuing past errors
// so one broken subscriber does not silence the others; it returns the
// first error encountered, if any.
func Multi(publishers ...Publisher) Publisher {
	return PublisherFunc(func(e Event) error {
		var firstErr error
		for _, p := range publishers {
			if p == nil {
				continue
			}
			if err := p.Publish(e); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}
