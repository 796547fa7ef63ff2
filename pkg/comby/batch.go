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
	"archive/tar"
	"bytes"
	"context"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📦 Rewrites rewrites a set of named sources with one comby invocation per
// selected matcher: sources picked up by different custom matchers never share
// an invocation. The result has exactly one entry per input name; sources
// comby left alone map to their original text.
func (b *Binary) Rewrites(ctx context.Context, sources map[string]string, matchTemplate, rewriteTemplate string, cfg Config) (map[string]*RewriteResult, error) {
	results := make(map[string]*RewriteResult, len(sources))
	if len(sources) == 0 {
		return results, nil
	}

	groups, err := groupByMatcher(cfg, sortedIDs(sources))
	if err != nil {
		return nil, err
	}
	for _, ids := range groups {
		if err := b.rewriteGroup(ctx, subset(sources, ids), ids, matchTemplate, rewriteTemplate, cfg, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (b *Binary) rewriteGroup(ctx context.Context, sources map[string]string, ids []string, matchTemplate, rewriteTemplate string, cfg Config, results map[string]*RewriteResult) error {
	zerolog.Ctx(ctx).Debug().
		Int("sources", len(ids)).
		Str("match", matchTemplate).
		Str("rewrite", rewriteTemplate).
		Msg("rewriting batch")

	archive, err := tarSources(ids, sources)
	if err != nil {
		return err
	}

	cl, cleanup, err := prepare(commandLine{
		cfg:              cfg,
		matchTemplate:    matchTemplate,
		rewriteTemplate:  rewriteTemplate,
		input:            inputTar,
		jsonLines:        true,
		omitEmptyMatcher: true,
	}, ids...)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := b.run(ctx, cl.args(), archive)
	if err != nil {
		return errors.Errorf("rewriting batch: %w", err)
	}

	records, err := decodeRewriteLines(out, cfg.Diff)
	if err != nil {
		return errors.Errorf("rewriting batch: %w", err)
	}

	for uri, res := range records {
		id, ok := resolveID(uri, sources)
		if !ok {
			return errors.WithStack(&DecodeError{
				Raw: string(out),
				Err: errors.Errorf("record for unknown source %q", uri),
			})
		}
		res.URI = id
		results[id] = res
	}

	for _, id := range ids {
		if _, ok := results[id]; !ok {
			results[id] = &RewriteResult{URI: id, Text: sources[id]}
		}
	}
	return nil
}

// 📦 Matches finds template in a set of named sources, grouped into comby
// invocations the same way as Rewrites. Every input name is present in the
// result.
func (b *Binary) Matches(ctx context.Context, sources map[string]string, template string, cfg Config) (map[string][]Match, error) {
	results := make(map[string][]Match, len(sources))
	if len(sources) == 0 {
		return results, nil
	}

	groups, err := groupByMatcher(cfg, sortedIDs(sources))
	if err != nil {
		return nil, err
	}
	for _, ids := range groups {
		if err := b.matchGroup(ctx, subset(sources, ids), ids, template, cfg, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (b *Binary) matchGroup(ctx context.Context, sources map[string]string, ids []string, template string, cfg Config, results map[string][]Match) error {
	zerolog.Ctx(ctx).Debug().
		Int("sources", len(ids)).
		Str("template", template).
		Msg("matching batch")

	archive, err := tarSources(ids, sources)
	if err != nil {
		return err
	}

	cl, cleanup, err := prepare(commandLine{
		cfg:              cfg,
		matchTemplate:    template,
		input:            inputTar,
		matchOnly:        true,
		jsonLines:        true,
		omitEmptyMatcher: true,
	}, ids...)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := b.run(ctx, cl.args(), archive)
	if err != nil {
		return errors.Errorf("matching batch: %w", err)
	}

	records, err := decodeMatchLines(out)
	if err != nil {
		return errors.Errorf("matching batch: %w", err)
	}

	for uri, matches := range records {
		id, ok := resolveID(uri, sources)
		if !ok {
			return errors.WithStack(&DecodeError{
				Raw: string(out),
				Err: errors.Errorf("record for unknown source %q", uri),
			})
		}
		results[id] = append(results[id], matches...)
	}

	for _, id := range ids {
		if _, ok := results[id]; !ok {
			results[id] = []Match{}
		}
	}
	return nil
}

// groupByMatcher splits ids by the custom matcher each one selects, keeping
// the order of ids within and across groups. Ids that select no custom
// matcher share one group.
func groupByMatcher(cfg Config, ids []string) ([][]string, error) {
	if len(cfg.CustomMatchers) == 0 {
		return [][]string{ids}, nil
	}

	index := map[*CustomMatcher]int{}
	var groups [][]string
	for _, id := range ids {
		cm, err := cfg.customMatcher(id)
		if err != nil {
			return nil, err
		}
		i, ok := index[cm]
		if !ok {
			i = len(groups)
			index[cm] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], id)
	}
	return groups, nil
}

func subset(sources map[string]string, ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		out[id] = sources[id]
	}
	return out
}

func sortedIDs(sources map[string]string) []string {
	ids := make([]string, 0, len(sources))
	for id := range sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// 🗜️ tarSources packs sources into a tar stream, one regular file per name
func tarSources(ids []string, sources map[string]string) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, id := range ids {
		content := sources[id]
		hdr := &tar.Header{
			Name:     id,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, errors.Errorf("writing tar header for %s: %w", id, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return nil, errors.Errorf("writing tar entry for %s: %w", id, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, errors.Errorf("closing tar stream: %w", err)
	}
	return &buf, nil
}

// resolveID maps a record uri back to the source name it was packed under.
// comby may report names with a leading ./ or in cleaned form.
func resolveID(uri string, sources map[string]string) (string, bool) {
	if _, ok := sources[uri]; ok {
		return uri, true
	}
	cleaned := path.Clean(strings.TrimPrefix(uri, "./"))
	for id := range sources {
		if path.Clean(strings.TrimPrefix(id, "./")) == cleaned {
			return id, true
		}
	}
	return "", false
}
