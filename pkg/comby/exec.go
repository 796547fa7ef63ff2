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
	"bytes"
	"context"
	"io"
	"os/exec"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🚀 Invocation is a single process launch
type Invocation struct {
	Path  string
	Args  []string
	Stdin io.Reader
}

// 📤 Output is what a finished process left behind
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// 🔌 Executor launches a process and waits for it to exit.
//
// A non-zero exit is not an error: it is reported through Output.ExitCode.
// Errors are reserved for processes that could not be started, which
// implementations report as *EnvironmentError. When ctx is cancelled or its
// deadline passes the process is killed and the error wraps ctx.Err(), so
// callers test it with errors.Is(err, context.Canceled) or
// context.DeadlineExceeded rather than with one of the typed errors.
type Executor interface {
	Execute(ctx context.Context, inv Invocation) (*Output, error)
}

// ProcessExecutor runs invocations with os/exec
type ProcessExecutor struct{}

var _ Executor = ProcessExecutor{}

func (ProcessExecutor) Execute(ctx context.Context, inv Invocation) (*Output, error) {
	resolved, err := exec.LookPath(inv.Path)
	if err != nil {
		return nil, errors.WithStack(&EnvironmentError{Path: inv.Path, Err: err})
	}

	cmd := exec.CommandContext(ctx, resolved, inv.Args...)
	cmd.Stdin = inv.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zerolog.Ctx(ctx).Debug().
		Str("path", resolved).
		Strs("args", inv.Args).
		Msg("starting comby")

	if err := cmd.Start(); err != nil {
		return nil, errors.WithStack(&EnvironmentError{Path: inv.Path, Err: err})
	}

	waitErr := cmd.Wait()
	out := &Output{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Errorf("waiting for comby: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, errors.Errorf("waiting for comby: %w", waitErr)
		}
		out.ExitCode = exitErr.ExitCode()
	}

	zerolog.Ctx(ctx).Debug().
		Int("exit_code", out.ExitCode).
		Int("stdout_bytes", len(out.Stdout)).
		Int("stderr_bytes", len(out.Stderr)).
		Msg("comby finished")

	return out, nil
}
