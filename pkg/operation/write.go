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
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/gocomby/pkg/comby"
)

// 💾 Write stores every changed result back under Root and returns the
// names written, sorted. Unchanged files are not touched.
func (o *Operator) Write(ctx context.Context, results map[string]*comby.RewriteResult) ([]string, error) {
	names := make([]string, 0, len(results))
	for name, res := range results {
		if res != nil && res.Changed() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := o.writeFileAtomic(name, []byte(results[name].Text)); err != nil {
			return nil, err
		}
		zerolog.Ctx(ctx).Debug().Str("file", name).Msg("wrote rewritten file")
	}
	return names, nil
}

// writeFileAtomic replaces a file through a temporary sibling and a rename,
// keeping the original permissions
func (o *Operator) writeFileAtomic(name string, content []byte) error {
	absPath := filepath.Join(o.root, filepath.FromSlash(name))

	mode := os.FileMode(0o644)
	if info, err := os.Stat(absPath); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), "."+filepath.Base(absPath)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file for %s: %w", name, err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file for %s: %w", name, err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting mode for %s: %w", name, err)
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file for %s: %w", name, err)
	}
	return nil
}
