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

// Package cache supplements the job model (SPEC_FULL section 3) with a
// result cache: a job whose key has already been written to the store can
// skip execution entirely and have its outputs downloaded instead. Grounded
// on the teacher's cache package, adapted from keying a Zim Component/Rule
// pair to keying a job.Job by its resolved inputs, wildcards, and shell
// command.
package cache

import (
	"context"
	"fmt"

	"github.com/fugue/flowrun/hash"
	"github.com/fugue/flowrun/job"
	"github.com/fugue/flowrun/sentinelstore"
)

const (
	// ReadWrite is the default cache mode.
	ReadWrite = "read-write"

	// WriteOnly mode writes to the cache but never reads from it.
	WriteOnly = "write-only"

	// Disabled mode bypasses the cache entirely.
	Disabled = "disabled"
)

// cacheVersion is bumped whenever Key's shape changes in a way that should
// invalidate every previously written entry.
const cacheVersion = "flowrun-1"

// Error reports a cache-specific condition distinct from a storage error.
type Error string

func (e Error) Error() string { return string(e) }

// Miss indicates the cache has no entry for a computed key.
const Miss = Error("item not found in cache")

// Opts configures a Cache.
type Opts struct {
	Store  sentinelstore.Store
	Hasher hash.Hasher
	User   string
	Mode   string
}

// Cache stores and retrieves a job's outputs keyed by its inputs.
type Cache struct {
	store  sentinelstore.Store
	hasher hash.Hasher
	user   string
	mode   string
}

// New returns a Cache.
func New(opts Opts) *Cache {
	if opts.Hasher == nil {
		opts.Hasher = hash.SHA1()
	}
	return &Cache{store: opts.Store, hasher: opts.Hasher, user: opts.User, mode: opts.Mode}
}

// Key returns the key that identifies j's current inputs and configuration,
// recursing into its dependencies so a change upstream invalidates it too.
func (c *Cache) Key(ctx context.Context, j *job.Job) (*Key, error) {
	ruleName := ""
	if j.Rule != nil {
		ruleName = j.Rule.Name()
	}

	key := &Key{
		Rule:        ruleName,
		Threads:     j.Threads,
		OutputCount: len(j.Output),
		ShellCmd:    j.ShellCmd,
		Version:     cacheVersion,
	}

	for _, in := range j.Input {
		h, err := c.hasher.File(in.Path())
		if err != nil {
			return nil, err
		}
		key.Inputs = append(key.Inputs, newEntry(in.Path(), h))
	}

	for _, name := range sortedKeys(j.Wildcards) {
		h, err := c.hasher.String(j.Wildcards[name])
		if err != nil {
			return nil, err
		}
		key.Wildcards = append(key.Wildcards, newEntry(name, h))
	}

	for _, dep := range j.Depends() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		depKey, err := c.Key(ctx, dep)
		if err != nil {
			return nil, err
		}
		key.Deps = append(key.Deps, newEntry(dep.NodeID(), depKey.String()))
	}
	// Depends() walks a map, so its order is not deterministic between runs;
	// sort so two jobs with the same dependency set always hash the same.
	sortEntries(key.Deps)

	if err := key.Compute(); err != nil {
		return nil, err
	}
	return key, nil
}

// Write uploads every output of j to the cache under its current key.
func (c *Cache) Write(ctx context.Context, j *job.Job) error {
	if len(j.Output) == 0 {
		return fmt.Errorf("job has no outputs: %s", j.NodeID())
	}
	key, err := c.Key(ctx, j)
	if err != nil {
		return err
	}
	for i, out := range j.Output {
		if err := c.put(ctx, storageKey(key, i, len(j.Output)), out.Path()); err != nil {
			return err
		}
	}
	return nil
}

// Read downloads every output of j from the cache, matching its current
// key, returning Miss if any output is absent from the cache.
func (c *Cache) Read(ctx context.Context, j *job.Job) error {
	if len(j.Output) == 0 {
		return fmt.Errorf("job has no outputs: %s", j.NodeID())
	}
	key, err := c.Key(ctx, j)
	if err != nil {
		return err
	}
	for i, out := range j.Output {
		if err := c.get(ctx, storageKey(key, i, len(j.Output)), out.Path()); err != nil {
			return err
		}
	}
	return nil
}

func storageKey(key *Key, index, count int) string {
	if count == 1 {
		return key.String()
	}
	return fmt.Sprintf("%s-%d", key.String(), index)
}

func (c *Cache) put(ctx context.Context, key, src string) error {
	h, err := c.hasher.File(src)
	if err != nil {
		return err
	}
	meta := map[string]string{"hash": h, "user": c.user}
	return c.store.Put(ctx, key, src, meta)
}

func (c *Cache) get(ctx context.Context, key, dst string) error {
	remote, err := c.store.Head(ctx, key)
	if err != nil {
		if _, ok := err.(sentinelstore.NotFound); ok {
			return Miss
		}
		return err
	}
	if localHash, err := c.hasher.File(dst); err == nil {
		if remote.Meta["hash"] == localHash {
			return nil
		}
	}
	return c.store.Get(ctx, key, dst)
}

func sortEntries(entries []*Entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].Name > entries[j].Name; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
