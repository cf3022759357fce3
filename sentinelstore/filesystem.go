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
package sentinelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

type fileStore struct {
	rootDirectory string
}

// NewFilesystem returns a Store backed by the local filesystem, rooted at
// rootDirectory. This is the default for a cluster submit command that runs
// on hosts sharing a network filesystem, grounded on the teacher's
// store/filesystem package, dropping its two-level key-prefix nesting since
// sentinel keys (per-job names derived from rule and outputs) are few and
// short-lived rather than a
// content-addressed cache's tens of thousands of entries.
func NewFilesystem(rootDirectory string) Store {
	return &fileStore{rootDirectory: rootDirectory}
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.rootDirectory, key)
}

func (s *fileStore) Get(ctx context.Context, key, dst string) error {
	path := s.path(key)
	srcFile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NotFound(fmt.Sprintf("not found: %s", key))
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer srcFile.Close()
	return copyFile(srcFile, dst)
}

func (s *fileStore) Put(ctx context.Context, key, src string, meta map[string]string) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()

	if err := copyFile(f, path); err != nil {
		return err
	}

	metaBytes, err := json.Marshal(ItemMeta{Meta: meta})
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for %s: %w", key, err)
	}
	return ioutil.WriteFile(path+".meta", metaBytes, 0644)
}

// Head reports whether key's file exists. Existence alone is the contract a
// cluster submit script fulfills with a plain `touch`; a sidecar .meta file
// written by Put is read opportunistically for callers that want it (e.g.
// an exit code), but its absence is not a NotFound condition.
func (s *fileStore) Head(ctx context.Context, key string) (ItemMeta, error) {
	if _, err := os.Stat(s.path(key)); err != nil {
		if os.IsNotExist(err) {
			return ItemMeta{}, NotFound(fmt.Sprintf("not found: %s", key))
		}
		return ItemMeta{}, err
	}

	metaBytes, err := ioutil.ReadFile(s.path(key) + ".meta")
	if err != nil {
		return ItemMeta{}, nil
	}
	var meta ItemMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return ItemMeta{}, nil
	}
	return meta, nil
}

func (s *fileStore) Remove(ctx context.Context, key string) error {
	path := s.path(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(path + ".meta"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func copyFile(src io.Reader, dstPath string) error {
	dstFile, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dstPath, err)
	}
	defer dstFile.Close()
	if _, err := io.Copy(dstFile, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", dstPath, err)
	}
	return nil
}
