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
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultPath is the binary looked up on PATH when Options.Path is empty
const DefaultPath = "comby"

// 🔧 Options configures a Binary
type Options struct {
	// Path is the comby binary, a name looked up on PATH or a file path
	Path string
	// Executor launches comby, ProcessExecutor when nil
	Executor Executor
}

// 🐪 Binary runs comby as a subprocess. It holds no per-call state and is
// safe for concurrent use.
type Binary struct {
	path     string
	executor Executor
}

// 🏭 NewBinary creates a Binary from options
func NewBinary(opts Options) *Binary {
	b := &Binary{
		path:     opts.Path,
		executor: opts.Executor,
	}
	if b.path == "" {
		b.path = DefaultPath
	}
	if b.executor == nil {
		b.executor = ProcessExecutor{}
	}
	return b
}

// Path returns the configured binary path
func (b *Binary) Path() string {
	return b.path
}

// 🏃 run launches comby once and returns its standard output
func (b *Binary) run(ctx context.Context, args []string, stdin io.Reader) ([]byte, error) {
	out, err := b.executor.Execute(ctx, Invocation{
		Path:  b.path,
		Args:  args,
		Stdin: stdin,
	})
	if err != nil {
		return nil, err
	}

	if len(out.Stderr) > 0 {
		zerolog.Ctx(ctx).Debug().Str("stderr", string(out.Stderr)).Msg("comby stderr")
	}

	if out.ExitCode != 0 {
		return nil, errors.WithStack(&ExecutionError{
			Args:     args,
			ExitCode: out.ExitCode,
			Stderr:   string(out.Stderr),
		})
	}
	return out.Stdout, nil
}

// 🏷️ Version returns the version string reported by comby -version
func (b *Binary) Version(ctx context.Context) (string, error) {
	out, err := b.run(ctx, []string{"-version"}, nil)
	if err != nil {
		return "", errors.Errorf("querying comby version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// 🔍 Match returns every match of template in source, in source order.
// No match is not an error: the result is empty.
func (b *Binary) Match(ctx context.Context, source, template string, cfg Config) ([]Match, error) {
	zerolog.Ctx(ctx).Debug().
		Str("template", template).
		Str("matcher", cfg.Matcher).
		Msg("finding matches")

	cl, cleanup, err := prepare(commandLine{
		cfg:           cfg,
		matchTemplate: template,
		input:         inputStdin,
		matchOnly:     true,
		jsonLines:     true,
	})
	if err != nil {
		return nil, err
	}
	defer cleanup()

	out, err := b.run(ctx, cl.args(), strings.NewReader(source))
	if err != nil {
		return nil, errors.Errorf("matching: %w", err)
	}

	records, err := decodeMatchLines(out)
	if err != nil {
		return nil, errors.Errorf("matching: %w", err)
	}

	matches := []Match{}
	for _, m := range records {
		matches = append(matches, m...)
	}
	return matches, nil
}

// ✏️ Rewrite replaces every match of matchTemplate in source with
// rewriteTemplate. When nothing matches the original source is returned.
func (b *Binary) Rewrite(ctx context.Context, source, matchTemplate, rewriteTemplate string, cfg Config) (*RewriteResult, error) {
	zerolog.Ctx(ctx).Debug().
		Str("match", matchTemplate).
		Str("rewrite", rewriteTemplate).
		Str("matcher", cfg.Matcher).
		Msg("rewriting source")

	cl, cleanup, err := prepare(commandLine{
		cfg:             cfg,
		matchTemplate:   matchTemplate,
		rewriteTemplate: rewriteTemplate,
		input:           inputStdin,
		jsonLines:       true,
	})
	if err != nil {
		return nil, err
	}
	defer cleanup()

	out, err := b.run(ctx, cl.args(), strings.NewReader(source))
	if err != nil {
		return nil, errors.Errorf("rewriting: %w", err)
	}

	records, err := decodeRewriteLines(out, cfg.Diff)
	if err != nil {
		return nil, errors.Errorf("rewriting: %w", err)
	}

	switch len(records) {
	case 0:
		return &RewriteResult{Text: source}, nil
	case 1:
		for _, res := range records {
			return res, nil
		}
	}
	return nil, errors.WithStack(&DecodeError{
		Raw: string(out),
		Err: errors.Errorf("expected one record for standard input, got %d", len(records)),
	})
}

// Do runs Rewrite for a prepared request
func (b *Binary) Do(ctx context.Context, req Request) (*RewriteResult, error) {
	return b.Rewrite(ctx, req.Source, req.Match, req.Rewrite, req.Config)
}

// 🧷 Substitute fills the holes of template with values
func (b *Binary) Substitute(ctx context.Context, template string, values map[string]string, cfg Config) (string, error) {
	type substitution struct {
		Variable string `json:"variable"`
		Value    string `json:"value"`
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	subs := make([]substitution, 0, len(names))
	for _, name := range names {
		subs = append(subs, substitution{Variable: name, Value: values[name]})
	}
	payload, err := json.Marshal(subs)
	if err != nil {
		return "", errors.Errorf("encoding substitutions: %w", err)
	}

	cl, cleanup, err := prepare(commandLine{
		cfg:             cfg,
		rewriteTemplate: template,
		substitutions:   string(payload),
	})
	if err != nil {
		return "", err
	}
	defer cleanup()

	out, err := b.run(ctx, cl.args(), nil)
	if err != nil {
		return "", errors.Errorf("substituting: %w", err)
	}

	return strings.TrimSuffix(string(out), "\n"), nil
}

// 🗂️ prepare writes custom matcher and metasyntax definitions to temporary
// files referenced by the command line. cleanup removes them.
func prepare(cl commandLine, ids ...string) (commandLine, func(), error) {
	cleanup := func() {}

	cm, err := cl.cfg.customMatcher(ids...)
	if err != nil {
		return cl, cleanup, err
	}
	if cm == nil && cl.cfg.CustomMetasyntax == "" {
		return cl, cleanup, nil
	}

	dir, err := os.MkdirTemp("", "gocomby-*")
	if err != nil {
		return cl, cleanup, errors.Errorf("creating temp dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	if cm != nil {
		cl.customMatcherPath = filepath.Join(dir, "matcher.json")
		if err := os.WriteFile(cl.customMatcherPath, []byte(cm.Definition), 0o600); err != nil {
			cleanup()
			return cl, func() {}, errors.Errorf("writing custom matcher: %w", err)
		}
	}
	if cl.cfg.CustomMetasyntax != "" {
		cl.metasyntaxPath = filepath.Join(dir, "metasyntax.json")
		if err := os.WriteFile(cl.metasyntaxPath, []byte(cl.cfg.CustomMetasyntax), 0o600); err != nil {
			cleanup()
			return cl, func() {}, errors.Errorf("writing custom metasyntax: %w", err)
		}
	}

	return cl, cleanup, nil
}
