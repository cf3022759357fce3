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
package jobexc

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// PrintException writes a colorized one-line rendering of err to w, mirroring
// the teacher's project/term.go palette and Snakemake's print_exception.
func PrintException(w io.Writer, err error) {
	fmt.Fprintln(w, red(err.Error()))
}

// PrintWarning writes a colorized warning line, used for the dynamic
// expansion "Dynamically adding N new jobs" message and knapsack
// thread-clamping warnings (spec sections 4.3 and 4.4).
func PrintWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, yellow(fmt.Sprintf(format, args...)))
}
