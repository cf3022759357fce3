// Package task runs single-shot external compute tasks (currently ECS
// Fargate) on behalf of a cluster submitter that would rather hand a job off
// to a managed task runner than shell out to a local batch command. Grounded
// on the teacher's task package, carried over largely unchanged since it is
// a thin wrapper over the ECS API rather than scheduler logic.
package task

import (
	"context"
)

// Options configures a single task invocation.
type Options struct {
	Definition  string
	Environment map[string]string
	Memory      int64
	CPU         int64
}

// Task describes a task that was launched.
type Task struct {
	ARN       string `json:"arn"`
	ID        string `json:"id"`
	LogGroup  string `json:"log_group"`
	LogStream string `json:"log_stream"`
}

// Runner launches tasks and waits on their lifecycle transitions.
type Runner interface {
	Run(context.Context, Options) (*Task, error)
	WaitUntilRunning(context.Context, ...*Task) error
	WaitUntilStopped(context.Context, ...*Task) error
}
