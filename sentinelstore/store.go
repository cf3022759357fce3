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

// Package sentinelstore backs ClusterScheduler's completion detection (spec
// section 4.5: a submitted job writes a sentinel object when it finishes;
// the scheduler polls for it rather than holding a connection open). Grounded
// on the teacher's store package (store/store.go's Store interface, adapted
// from a generic build-artifact cache to a narrower exists/read/write
// contract over job completion sentinels).
package sentinelstore

import "context"

// NotFound indicates a sentinel has not been written yet. ClusterScheduler's
// poll loop treats this as "still running", not an error.
type NotFound string

func (e NotFound) Error() string { return string(e) }

// ItemMeta carries the metadata attached to a sentinel when it was written,
// in this package's case a job's exit status and duration.
type ItemMeta struct {
	Meta map[string]string `json:"meta"`
}

// Store is a minimal object store keyed by sentinel name: every cluster
// submission writes exactly one sentinel when its wrapped command exits, and
// the scheduler polls Head until it appears.
type Store interface {
	// Get copies the object stored under key to dst.
	Get(ctx context.Context, key, dst string) error

	// Put stores src's contents and meta under key. The cluster submit
	// script creates its sentinels with a plain touch, not through Put; the
	// result cache uses Get and Put to store job outputs.
	Put(ctx context.Context, key, src string, meta map[string]string) error

	// Head reports whether the sentinel exists yet, and its metadata if so.
	// ClusterScheduler's poll loop calls this, not Get, since most polls
	// find nothing and a full object fetch would be wasted work.
	Head(ctx context.Context, key string) (ItemMeta, error)

	// Remove deletes the sentinel, called once ClusterScheduler has observed
	// it and acted on it, the equivalent of spec 4.5's "remove sentinel and
	// script". Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// ExitCode reads the exit-code metadata field a sentinel was written with,
// defaulting to -1 if absent or unparsable.
func (m ItemMeta) ExitCode() int {
	code, ok := m.Meta["exit_code"]
	if !ok || code == "" || code == "-" {
		return -1
	}
	n := 0
	neg := false
	for i, c := range code {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}
