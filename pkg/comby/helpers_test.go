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
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 🔧 MockExecutor is a mock implementation of the Executor interface.
// Stdin is drained and passed to Called as a string.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, inv Invocation) (*Output, error) {
	var stdin string
	if inv.Stdin != nil {
		data, err := io.ReadAll(inv.Stdin)
		if err != nil {
			return nil, err
		}
		stdin = string(data)
	}
	result := m.Called(inv.Path, inv.Args, stdin)
	out, _ := result.Get(0).(*Output)
	return out, result.Error(1)
}

func stdout(lines ...string) *Output {
	if len(lines) == 0 {
		return &Output{}
	}
	return &Output{Stdout: []byte(strings.Join(lines, "\n") + "\n")}
}

// position computes comby's location record for a byte offset of src
func position(src string, offset int) map[string]any {
	line, col := 1, 1
	for _, r := range src[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return map[string]any{"offset": offset, "line": line, "column": col}
}

func span(src string, start, end int) map[string]any {
	return map[string]any{"start": position(src, start), "end": position(src, end)}
}

func term(src, name string, start, end int) map[string]any {
	return map[string]any{"variable": name, "value": src[start:end], "range": span(src, start, end)}
}

func match(src string, start, end int, terms ...map[string]any) map[string]any {
	if terms == nil {
		terms = []map[string]any{}
	}
	return map[string]any{"range": span(src, start, end), "environment": terms, "matched": src[start:end]}
}

func matchRecord(t *testing.T, uri any, matches ...map[string]any) string {
	t.Helper()
	if matches == nil {
		matches = []map[string]any{}
	}
	data, err := json.Marshal(map[string]any{"uri": uri, "matches": matches})
	require.NoError(t, err, "encoding match record")
	return string(data)
}

func substitution(src string, start, end int, replacement string, terms ...map[string]any) map[string]any {
	if terms == nil {
		terms = []map[string]any{}
	}
	return map[string]any{"range": span(src, start, end), "replacement_content": replacement, "environment": terms}
}

func rewriteRecord(t *testing.T, uri any, rewritten, diff string, subs ...map[string]any) string {
	t.Helper()
	if subs == nil {
		subs = []map[string]any{}
	}
	data, err := json.Marshal(map[string]any{
		"uri":                    uri,
		"rewritten_source":       rewritten,
		"in_place_substitutions": subs,
		"diff":                   diff,
	})
	require.NoError(t, err, "encoding rewrite record")
	return string(data)
}

// untar reads every regular file of a tar stream
func untar(t *testing.T, stream string) map[string]string {
	t.Helper()
	files := map[string]string{}
	tr := tar.NewReader(bytes.NewReader([]byte(stream)))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err, "reading tar header")
		data, err := io.ReadAll(tr)
		require.NoError(t, err, "reading tar entry")
		files[hdr.Name] = string(data)
	}
	return files
}
