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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏃 BatchRunner executes one function per batch
type BatchRunner struct {
	parallel int
}

// 🏗️ NewRunner creates a runner allowing up to parallel batches at once.
// Values below 2 run batches one after the other.
func NewRunner(parallel int) *BatchRunner {
	return &BatchRunner{parallel: parallel}
}

// 🏃 Run calls fn for every batch and returns the first error
func (r *BatchRunner) Run(ctx context.Context, batches [][]string, fn func(ctx context.Context, batch []string) error) error {
	if r.parallel < 2 {
		return r.runSync(ctx, batches, fn)
	}
	return r.runAsync(ctx, batches, fn)
}

// 🔄 runSync runs batches in order and stops at the first failure
func (r *BatchRunner) runSync(ctx context.Context, batches [][]string, fn func(ctx context.Context, batch []string) error) error {
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("operation cancelled: %w", err)
		}
		zerolog.Ctx(ctx).Debug().Int("batch", i).Int("files", len(batch)).Msg("running batch")
		if err := fn(ctx, batch); err != nil {
			return errors.Errorf("running batch %d: %w", i, err)
		}
	}
	return nil
}

// ⚡ runAsync runs batches concurrently, bounded by the parallel limit.
// The first failure cancels the context passed to the remaining batches.
func (r *BatchRunner) runAsync(ctx context.Context, batches [][]string, fn func(ctx context.Context, batch []string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.Errorf("operation cancelled: %w", err)
			}
			zerolog.Ctx(gctx).Debug().Int("batch", i).Int("files", len(batch)).Msg("running batch")
			if err := fn(gctx, batch); err != nil {
				return errors.Errorf("running batch %d: %w", i, err)
			}
			return nil
		})
	}

	return g.Wait()
}
