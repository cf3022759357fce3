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
package cmd

import (
	"os"
	"path"
)

// XDGCache returns the local cache directory, used as the default root for
// the result cache's sentinel store when --cache-dir is not set.
func XDGCache() string {
	if value := os.Getenv("XDG_CACHE_HOME"); value != "" {
		return path.Join(value, "flowrun")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path.Join(os.TempDir(), "flowrun-cache")
	}
	return path.Join(home, ".cache", "flowrun")
}
