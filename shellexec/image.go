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
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// ImageResolver checks for and pulls Docker images ahead of a dockerExecutor
// run, so a rule whose image is missing fails with a clear pull error
// instead of a cryptic "Unable to find image" from the docker CLI. Grounded
// on the teacher's project/image.go Docker provider, narrowed from a full
// Resource/Provider implementation to the one capability dockerExecutor
// needs: "does this image exist, and if not, fetch it."
type ImageResolver struct {
	cli *client.Client
}

// NewImageResolver returns an ImageResolver using the Docker daemon
// referenced by the environment (DOCKER_HOST etc.), negotiating the API
// version the way project/image.go's NewDocker did.
func NewImageResolver() (*ImageResolver, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &ImageResolver{cli: cli}, nil
}

// Exists reports whether name (optionally tagged) matches a locally present
// image, the same repo-tag matching project/image.go's FindImages used.
func (r *ImageResolver) Exists(ctx context.Context, name string) (bool, error) {
	summaries, err := r.cli.ImageList(ctx, types.ImageListOptions{})
	if err != nil {
		return false, err
	}
	full := name
	if !strings.Contains(full, ":") {
		full = full + ":latest"
	}
	for _, summary := range summaries {
		for _, tag := range summary.RepoTags {
			if tag == full || tag == name {
				return true, nil
			}
		}
	}
	return false, nil
}

// Ensure pulls name if it is not already present locally.
func (r *ImageResolver) Ensure(ctx context.Context, name string, log io.Writer) error {
	exists, err := r.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check for image %s: %w", name, err)
	}
	if exists {
		return nil
	}
	if log != nil {
		fmt.Fprintf(log, "pulling image %s\n", name)
	}
	reader, err := r.cli.ImagePull(ctx, name, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", name, err)
	}
	defer reader.Close()
	if log != nil {
		_, err = io.Copy(log, reader)
	} else {
		_, err = io.Copy(ioutil.Discard, reader)
	}
	if err != nil {
		return fmt.Errorf("failed to read pull response for %s: %w", name, err)
	}
	return nil
}
