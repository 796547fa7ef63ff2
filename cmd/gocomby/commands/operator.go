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

package commands

import (
	"io"
	"sort"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/gocomby/cmd/gocomby/opts"
	"github.com/walteh/gocomby/pkg/comby"
	"github.com/walteh/gocomby/pkg/operation"
)

// stdinMatcher is used for standard input when neither the flag nor the
// config name a matcher, there is no file extension to infer one from
const stdinMatcher = ".generic"

func newOperator(root *opts.RootOpts, cfg comby.Config) (*operation.Operator, error) {
	op, err := operation.New(operation.Options{
		Engine:    root.Binary,
		Root:      root.Root,
		Comby:     cfg,
		BatchSize: root.Config.Batch.Size,
		Parallel:  root.Config.Batch.Parallel,
		Include:   root.Config.Batch.Include,
		Exclude:   root.Config.Batch.Exclude,
	})
	if err != nil {
		return nil, errors.Errorf("creating operator: %w", err)
	}
	return op, nil
}

func readStdin(r io.Reader, cfg comby.Config) (string, comby.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", cfg, errors.Errorf("reading standard input: %w", err)
	}
	if cfg.Matcher == "" {
		cfg.Matcher = stdinMatcher
	}
	return string(data), cfg, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
