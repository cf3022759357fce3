// Command lambdasubmit is an alternative ClusterScheduler execution backend:
// instead of running a submitted job's generated script via ECS Fargate
// (task/fargate.go) or a local shell submit command (sched's
// ShellSubmitter), it runs as an AWS Lambda function invoked once per job
// with the script to execute. Grounded on the teacher's signer/main.go and
// auth/main.go, both bare lambda.Start entrypoints with no HTTP server of
// their own.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var logger = logrus.StandardLogger()

// Event is the payload a Lambda-backed Submitter invokes this function
// with: the path to the cluster job script ClusterScheduler generated
// (spec 4.5), already containing the rule's shell command and sentinel
// bookkeeping.
type Event struct {
	ScriptPath string `json:"script_path"`
}

// Result reports the script's exit status, the same information a shell
// submit command's sentinel file records for ClusterScheduler's poll loop.
type Result struct {
	ExitCode int `json:"exit_code"`
}

func handleRequest(ctx context.Context, evt Event) (Result, error) {
	logger.WithField("script", evt.ScriptPath).Info("running cluster job script")

	if _, err := os.Stat(evt.ScriptPath); err != nil {
		return Result{}, fmt.Errorf("running %s: %w", evt.ScriptPath, err)
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", evt.ScriptPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return Result{ExitCode: exitErr.ExitCode()}, nil
		}
		return Result{}, fmt.Errorf("running %s: %w", evt.ScriptPath, err)
	}
	return Result{ExitCode: 0}, nil
}

func main() {
	lambda.Start(handleRequest)
}
