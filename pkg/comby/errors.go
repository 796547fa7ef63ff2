// Copyright 2025 walteh LLC
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

package comby

import (
	"fmt"
	"strings"
)

// 🚫 EnvironmentError reports that the comby binary could not be run at all:
// it is missing, not executable, or the process failed to start.
type EnvironmentError struct {
	Path string
	Err  error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("comby binary %q unavailable: %v", e.Path, e.Err)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// 💥 ExecutionError reports that comby ran and exited with a failure status.
// Stderr is comby's diagnostic output, unmodified.
type ExecutionError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExecutionError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "no diagnostic output"
	}
	return fmt.Sprintf("comby exited with code %d: %s", e.ExitCode, msg)
}

// 🧨 DecodeError reports output that does not have the expected shape.
// Raw holds the complete output for diagnostics.
type DecodeError struct {
	Line int
	Raw  string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("decoding comby output line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("decoding comby output: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
