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
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// defaultInclude is used when no include pattern is configured
const defaultInclude = "**/*"

// 🔍 Expand resolves targets to a sorted, duplicate free list of files in fsys.
//
// A target is a glob, a directory or a file. Directories, and an empty target
// list, are expanded with include. Files found through a glob or a directory
// are dropped when they match exclude; files named explicitly are always kept.
func Expand(fsys fs.FS, targets, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = []string{defaultInclude}
	}
	if len(targets) == 0 {
		targets = []string{"."}
	}

	seen := map[string]struct{}{}
	add := func(name string) {
		seen[name] = struct{}{}
	}

	for _, target := range targets {
		target, err := cleanTarget(target)
		if err != nil {
			return nil, err
		}

		if hasMeta(target) {
			found, err := glob(fsys, target, exclude)
			if err != nil {
				return nil, err
			}
			for _, name := range found {
				add(name)
			}
			continue
		}

		info, err := fs.Stat(fsys, target)
		if err != nil {
			return nil, errors.Errorf("resolving %s: %w", target, err)
		}
		if !info.IsDir() {
			add(target)
			continue
		}

		for _, pattern := range include {
			found, err := glob(fsys, joinPattern(target, pattern), exclude)
			if err != nil {
				return nil, err
			}
			for _, name := range found {
				add(name)
			}
		}
	}

	files := make([]string, 0, len(seen))
	for name := range seen {
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

func glob(fsys fs.FS, pattern string, exclude []string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, errors.Errorf("expanding %s: %w", pattern, err)
	}

	kept := matches[:0]
	for _, name := range matches {
		excluded, err := isExcluded(name, exclude)
		if err != nil {
			return nil, err
		}
		if !excluded {
			kept = append(kept, name)
		}
	}
	return kept, nil
}

func isExcluded(name string, exclude []string) (bool, error) {
	for _, pattern := range exclude {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, errors.Errorf("matching exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// cleanTarget turns a slash separated relative path into an fs.FS name.
// Absolute paths and paths leaving the root are rejected, Operator.Files
// makes targets relative before they get here.
func cleanTarget(target string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(target, "\\", "/"))
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.Errorf("target %s is outside of the root", target)
	}
	return cleaned, nil
}

// relativeTarget resolves a target, absolute or relative to root, to a slash
// separated path relative to root
func relativeTarget(root, target string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Errorf("resolving root %s: %w", root, err)
	}
	abs := filepath.FromSlash(target)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(absRoot, abs)
	}
	rel, err := filepath.Rel(absRoot, filepath.Clean(abs))
	if err != nil {
		return "", errors.Errorf("target %s is outside of %s: %w", target, absRoot, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", errors.Errorf("target %s is outside of %s", target, absRoot)
	}
	return rel, nil
}

func joinPattern(dir, pattern string) string {
	if dir == "." {
		return pattern
	}
	return dir + "/" + pattern
}

func hasMeta(target string) bool {
	return strings.ContainsAny(target, "*?[{")
}

// ✂️ Chunk splits files into batches of at most size entries
func Chunk(files []string, size int) [][]string {
	if len(files) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(files)
	}

	batches := make([][]string, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		batches = append(batches, files[start:end])
	}
	return batches
}
