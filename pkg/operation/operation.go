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

package operation

import (
	"context"
	"io/fs"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/gocomby/pkg/comby"
)

// 🔌 Engine runs batched comby calls. *comby.Binary implements it.
type Engine interface {
	Rewrites(ctx context.Context, sources map[string]string, matchTemplate, rewriteTemplate string, cfg comby.Config) (map[string]*comby.RewriteResult, error)
	Matches(ctx context.Context, sources map[string]string, template string, cfg comby.Config) (map[string][]comby.Match, error)
}

var _ Engine = (*comby.Binary)(nil)

// 🔧 Options contains configuration for the operator
type Options struct {
	// Engine runs comby
	Engine Engine
	// Root is the directory files are read from and written back to
	Root string
	// FS overrides os.DirFS(Root) for reading, used by tests
	FS fs.FS
	// Comby is passed to every call
	Comby comby.Config
	// BatchSize is the number of files per invocation, all files when zero
	BatchSize int
	// Parallel is the number of concurrent invocations
	Parallel int
	// Include and Exclude filter files found through directories and globs
	Include []string
	Exclude []string
}

// 🎮 Operator runs comby over files in batches
type Operator struct {
	engine  Engine
	root    string
	fsys    fs.FS
	cfg     comby.Config
	size    int
	runner  *BatchRunner
	include []string
	exclude []string
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (*Operator, error) {
	if opts.Engine == nil {
		return nil, errors.Errorf("engine is required")
	}
	if opts.BatchSize < 0 {
		return nil, errors.Errorf("batch size must not be negative")
	}
	root := opts.Root
	if root == "" {
		root = "."
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = os.DirFS(root)
	}
	return &Operator{
		engine:  opts.Engine,
		root:    root,
		fsys:    fsys,
		cfg:     opts.Comby,
		size:    opts.BatchSize,
		runner:  NewRunner(opts.Parallel),
		include: opts.Include,
		exclude: opts.Exclude,
	}, nil
}

// 🔍 Files resolves command line targets to the files an operation visits.
// Targets are absolute or relative to Root and must not leave Root.
func (o *Operator) Files(targets ...string) ([]string, error) {
	relative := make([]string, 0, len(targets))
	for _, target := range targets {
		rel, err := relativeTarget(o.root, target)
		if err != nil {
			return nil, err
		}
		relative = append(relative, rel)
	}
	return Expand(o.fsys, relative, o.include, o.exclude)
}

// ✏️ Rewrite rewrites every file with one comby invocation per batch.
// The result has an entry for every file.
func (o *Operator) Rewrite(ctx context.Context, files []string, matchTemplate, rewriteTemplate string) (map[string]*comby.RewriteResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Int("files", len(files)).Msg("rewriting files")

	var mu sync.Mutex
	results := make(map[string]*comby.RewriteResult, len(files))

	err := o.runner.Run(ctx, Chunk(files, o.size), func(ctx context.Context, batch []string) error {
		sources, err := o.read(batch)
		if err != nil {
			return err
		}
		res, err := o.engine.Rewrites(ctx, sources, matchTemplate, rewriteTemplate, o.cfg)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		for name, r := range res {
			results[name] = r
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("rewriting files: %w", err)
	}

	return results, nil
}

// 🔍 Match finds template in every file with one comby invocation per batch
func (o *Operator) Match(ctx context.Context, files []string, template string) (map[string][]comby.Match, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Int("files", len(files)).Msg("matching files")

	var mu sync.Mutex
	results := make(map[string][]comby.Match, len(files))

	err := o.runner.Run(ctx, Chunk(files, o.size), func(ctx context.Context, batch []string) error {
		sources, err := o.read(batch)
		if err != nil {
			return err
		}
		res, err := o.engine.Matches(ctx, sources, template, o.cfg)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		for name, m := range res {
			results[name] = m
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("matching files: %w", err)
	}

	return results, nil
}

// 📖 read loads a batch of files into the sources map comby expects
func (o *Operator) read(batch []string) (map[string]string, error) {
	sources := make(map[string]string, len(batch))
	for _, name := range batch {
		data, err := fs.ReadFile(o.fsys, name)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", name, err)
		}
		sources[name] = string(data)
	}
	return sources, nil
}
