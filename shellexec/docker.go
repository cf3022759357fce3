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
package shellexec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// dockerExecutor runs a rule's command inside a container via the docker
// CLI, adapted from the teacher's project/exec_docker.go. It is an
// alternative Executor a rule payload can use when its command needs an
// image rather than the host's bash.
type dockerExecutor struct {
	MountDirectory string
	UserID         string
	GroupID        string
	images         *ImageResolver
}

// NewDocker returns an Executor that runs commands in containers, mounting
// mountDirectory into the container at /build. Images are resolved and
// pulled as needed via the Docker API client (ImageResolver); if the client
// cannot be constructed (no daemon reachable at setup time), Execute falls
// back to letting the docker CLI itself report a missing image.
func NewDocker(mountDirectory string) Executor {
	var userID, groupID string
	if me, err := user.Current(); err == nil {
		userID, groupID = me.Uid, me.Gid
	}
	images, _ := NewImageResolver()
	return &dockerExecutor{MountDirectory: mountDirectory, UserID: userID, GroupID: groupID, images: images}
}

func (e *dockerExecutor) Execute(ctx context.Context, opts Opts) error {
	if opts.Image == "" {
		return errors.New("docker image is not specified")
	}
	if e.images != nil {
		if err := e.images.Ensure(ctx, opts.Image, writerOrDefault(opts.Stdout, os.Stdout)); err != nil {
			return err
		}
	}
	mountDir, err := filepath.Abs(e.MountDirectory)
	if err != nil {
		return fmt.Errorf("invalid mount dir %s: %w", e.MountDirectory, err)
	}
	workingDir := opts.WorkingDirectory
	if workingDir == "" {
		workingDir = "."
	}
	workingAbsDir, err := filepath.Abs(workingDir)
	if err != nil {
		return fmt.Errorf("invalid working dir %s: %w", workingDir, err)
	}
	workingRelDir, err := filepath.Rel(mountDir, workingAbsDir)
	if err != nil {
		return fmt.Errorf("failed to get relative dir: %w", err)
	}

	commandText := strings.Join(strings.Split(strings.TrimSpace(opts.Command), "\n"), "; ")

	args := []string{
		"run", "--rm", "-t",
		"--volume", fmt.Sprintf("%s:/build", mountDir),
		"--workdir", path.Join("/build", workingRelDir),
		"-e", "HOME=/build",
	}
	if opts.Name != "" {
		args = append(args, "--name", opts.Name)
	}
	if e.UserID != "" && e.GroupID != "" {
		args = append(args, "--user", fmt.Sprintf("%s:%s", e.UserID, e.GroupID))
	}
	for _, envVar := range opts.Env {
		args = append(args, "-e", envVar)
	}
	args = append(args, opts.Image, "bash", "-e", "-c", commandText)

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = writerOrDefault(opts.Stdout, os.Stdout)
	cmd.Stderr = writerOrDefault(opts.Stderr, os.Stderr)

	cmdColor := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintln(cmd.Stdout, "cmd:", cmdColor(commandText))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			if opts.Name != "" {
				exec.Command("docker", "rm", "-f", opts.Name).Run()
			}
		}
	}()

	return cmd.Run()
}
