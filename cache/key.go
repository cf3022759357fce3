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
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
)

// Entry is one named hash contributing to a Key, e.g. an input file's path
// and content hash, or a wildcard's name and value.
type Entry struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

func newEntry(name, hash string) *Entry {
	return &Entry{Name: name, Hash: hash}
}

// Key contains the information that uniquely identifies a job's cacheable
// outputs: its rule name, resolved wildcards, every input's content hash,
// and the same for every job it depends on, recursively. Grounded on the
// teacher's cache/key.go, narrowed from a Zim Component/Toolchain/Project
// key (those concepts have no flowrun equivalent) to what job.Job actually
// carries.
type Key struct {
	Rule        string   `json:"rule"`
	Threads     int      `json:"threads"`
	OutputCount int      `json:"output_count"`
	Inputs      []*Entry `json:"inputs"`
	Wildcards   []*Entry `json:"wildcards"`
	Deps        []*Entry `json:"deps"`
	ShellCmd    string   `json:"shellcmd"`
	Version     string   `json:"version"`
	hex         string
}

// String returns the key as a hexadecimal string.
func (k *Key) String() string {
	return k.hex
}

// Compute determines the hash for this key.
func (k *Key) Compute() error {
	h := sha1.New()
	if err := json.NewEncoder(h).Encode(k); err != nil {
		return err
	}
	k.hex = hex.EncodeToString(h.Sum(nil))
	return nil
}
