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
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/gocomby/pkg/comby"
)

// 🔧 MockEngine is a mock implementation of the Engine interface
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Rewrites(ctx context.Context, sources map[string]string, matchTemplate, rewriteTemplate string, cfg comby.Config) (map[string]*comby.RewriteResult, error) {
	result := m.Called(ctx, sources, matchTemplate, rewriteTemplate, cfg)
	if fn, ok := result.Get(0).(func(context.Context, map[string]string, string, string, comby.Config) map[string]*comby.RewriteResult); ok {
		return fn(ctx, sources, matchTemplate, rewriteTemplate, cfg), result.Error(1)
	}
	out, _ := result.Get(0).(map[string]*comby.RewriteResult)
	return out, result.Error(1)
}

func (m *MockEngine) Matches(ctx context.Context, sources map[string]string, template string, cfg comby.Config) (map[string][]comby.Match, error) {
	result := m.Called(ctx, sources, template, cfg)
	out, _ := result.Get(0).(map[string][]comby.Match)
	return out, result.Error(1)
}

// upper is a stand-in engine that uppercases every source containing "x"
func upper(sources map[string]string) map[string]*comby.RewriteResult {
	out := map[string]*comby.RewriteResult{}
	for name, src := range sources {
		res := &comby.RewriteResult{URI: name, Text: src}
		if strings.Contains(src, "x") {
			res.Text = strings.ToUpper(src)
			res.Substitutions = []comby.Substitution{{Replacement: res.Text}}
		}
		out[name] = res
	}
	return out
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestOperatorRewrite(t *testing.T) {
	fsys := fstest.MapFS{
		"a.go":        {Data: []byte("x := 1")},
		"b.go":        {Data: []byte("y := 2")},
		"pkg/c.go":    {Data: []byte("x++")},
		"pkg/d.go":    {Data: []byte("z--")},
		"vendor/e.go": {Data: []byte("x")},
	}
	cfg := comby.Config{Matcher: ".go"}

	tests := []struct {
		name      string
		batchSize int
		parallel  int
		wantCalls int
	}{
		{name: "single_batch", batchSize: 0, parallel: 1, wantCalls: 1},
		{name: "sequential_batches", batchSize: 2, parallel: 1, wantCalls: 2},
		{name: "parallel_batches", batchSize: 1, parallel: 3, wantCalls: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &MockEngine{}
			engine.On("Rewrites", mock.Anything, mock.Anything, "x", "X", cfg).
				Return(func(_ context.Context, sources map[string]string, _, _ string, _ comby.Config) map[string]*comby.RewriteResult {
					return upper(sources)
				}, nil)

			op, err := New(Options{
				Engine:    engine,
				FS:        fsys,
				Comby:     cfg,
				BatchSize: tt.batchSize,
				Parallel:  tt.parallel,
				Exclude:   []string{"vendor/**"},
			})
			require.NoError(t, err)

			files, err := op.Files()
			require.NoError(t, err)
			assert.Equal(t, []string{"a.go", "b.go", "pkg/c.go", "pkg/d.go"}, files, "vendor should be excluded")

			results, err := op.Rewrite(testContext(t), files, "x", "X")
			require.NoError(t, err)
			engine.AssertNumberOfCalls(t, "Rewrites", tt.wantCalls)

			require.Len(t, results, 4, "every file should have a result")
			assert.Equal(t, "X := 1", results["a.go"].Text)
			assert.Equal(t, "y := 2", results["b.go"].Text)
			assert.Equal(t, "X++", results["pkg/c.go"].Text)
			assert.False(t, results["pkg/d.go"].Changed())
		})
	}
}

func TestOperatorRewriteError(t *testing.T) {
	fsys := fstest.MapFS{
		"a.go": {Data: []byte("a")},
		"b.go": {Data: []byte("b")},
	}

	engine := &MockEngine{}
	execErr := &comby.ExecutionError{ExitCode: 1, Stderr: "bad template"}
	engine.On("Rewrites", mock.Anything, mock.Anything, ":[", "x", mock.Anything).Return(nil, execErr)

	op, err := New(Options{Engine: engine, FS: fsys, BatchSize: 1, Parallel: 2})
	require.NoError(t, err)

	_, err = op.Rewrite(testContext(t), []string{"a.go", "b.go"}, ":[", "x")
	require.Error(t, err)

	var got *comby.ExecutionError
	require.True(t, errors.As(err, &got), "comby errors should be preserved: %v", err)
	assert.Equal(t, "bad template", got.Stderr)
}

func TestOperatorMatch(t *testing.T) {
	fsys := fstest.MapFS{
		"main.go": {Data: []byte("f(1)")},
		"util.go": {Data: []byte("g()")},
	}

	engine := &MockEngine{}
	engine.On("Matches", mock.Anything, map[string]string{"main.go": "f(1)", "util.go": "g()"}, "f(:[x])", comby.Config{}).
		Return(map[string][]comby.Match{
			"main.go": {{Matched: "f(1)"}},
			"util.go": {},
		}, nil).Once()

	op, err := New(Options{Engine: engine, FS: fsys})
	require.NoError(t, err)

	results, err := op.Match(testContext(t), []string{"main.go", "util.go"}, "f(:[x])")
	require.NoError(t, err)
	engine.AssertExpectations(t)

	require.Len(t, results["main.go"], 1)
	assert.Equal(t, "f(1)", results["main.go"][0].Matched)
	assert.Empty(t, results["util.go"])
}

func TestOperatorReadError(t *testing.T) {
	engine := &MockEngine{}
	op, err := New(Options{Engine: engine, FS: fstest.MapFS{}})
	require.NoError(t, err)

	_, err = op.Match(testContext(t), []string{"missing.go"}, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.go")
	engine.AssertNotCalled(t, "Matches", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNewRequiresEngine(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestOperatorFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "a.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("y"), 0o644))

	outside := filepath.Join(t.TempDir(), "c.go")
	require.NoError(t, os.WriteFile(outside, []byte("z"), 0o644))

	op, err := New(Options{Engine: &MockEngine{}, Root: root})
	require.NoError(t, err)

	t.Run("absolute_file_inside_root", func(t *testing.T) {
		files, err := op.Files(filepath.Join(root, "pkg", "a.go"))
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg/a.go"}, files)
	})

	t.Run("relative_to_root", func(t *testing.T) {
		files, err := op.Files("pkg", "b.go")
		require.NoError(t, err)
		assert.Equal(t, []string{"b.go", "pkg/a.go"}, files)
	})

	t.Run("absolute_file_outside_root", func(t *testing.T) {
		_, err := op.Files(outside)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside of")
	})

	t.Run("parent_target", func(t *testing.T) {
		_, err := op.Files("../c.go")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside of")
	})
}

func TestOperatorWrite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "b.go"), []byte("y"), 0o644))

	op, err := New(Options{Engine: &MockEngine{}, Root: root})
	require.NoError(t, err)

	written, err := op.Write(testContext(t), map[string]*comby.RewriteResult{
		"a.go":     {Text: "X", Substitutions: []comby.Substitution{{Replacement: "X"}}},
		"pkg/b.go": {Text: "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, written, "only changed files are written")

	data, err := os.ReadFile(filepath.Join(root, "a.go"))
	require.NoError(t, err)
	assert.Equal(t, "X", string(data))

	info, err := os.Stat(filepath.Join(root, "a.go"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "permissions should be kept")

	data, err = os.ReadFile(filepath.Join(root, "pkg", "b.go"))
	require.NoError(t, err)
	assert.Equal(t, "y", string(data))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp files should not be left behind")
	}
}
