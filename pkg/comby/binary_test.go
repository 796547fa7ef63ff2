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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestMatch(t *testing.T) {
	hi := `print "hi"`
	calls := "f(1); f(2); f(3)"

	tests := []struct {
		name     string
		source   string
		template string
		output   func(t *testing.T) *Output
		wantErr  any
		check    func(t *testing.T, matches []Match)
	}{
		{
			name:     "no_output_means_no_matches",
			source:   "foo",
			template: "bar",
			output:   func(t *testing.T) *Output { return stdout() },
			check: func(t *testing.T, matches []Match) {
				assert.NotNil(t, matches, "matches should be an empty slice, not nil")
				assert.Empty(t, matches, "there should be no matches")
			},
		},
		{
			name:     "empty_matches_record",
			source:   "foo",
			template: "bar",
			output:   func(t *testing.T) *Output { return stdout(matchRecord(t, nil)) },
			check: func(t *testing.T, matches []Match) {
				assert.Empty(t, matches, "there should be no matches")
			},
		},
		{
			name:     "single_match_with_capture",
			source:   hi,
			template: "print :[[1]]",
			output: func(t *testing.T) *Output {
				return stdout(matchRecord(t, nil, match(hi, 0, 10, term(hi, "1", 6, 10))))
			},
			check: func(t *testing.T, matches []Match) {
				require.Len(t, matches, 1, "there should be one match")
				m := matches[0]
				assert.Equal(t, hi, m.Matched, "match should span the input")
				assert.Equal(t, Range{
					Start: Location{Offset: 0, Line: 1, Column: 1},
					End:   Location{Offset: 10, Line: 1, Column: 11},
				}, m.Range)

				bound, ok := m.Get("1")
				require.True(t, ok, "hole 1 should be bound")
				assert.Equal(t, `"hi"`, bound.Value)
				assert.Equal(t, 6, bound.Range.Start.Offset)
				assert.Equal(t, []string{"1"}, m.Environment.Names())
			},
		},
		{
			name:     "matches_keep_source_order",
			source:   calls,
			template: "f(:[x])",
			output: func(t *testing.T) *Output {
				return stdout(matchRecord(t, nil,
					match(calls, 0, 4, term(calls, "x", 2, 3)),
					match(calls, 6, 10, term(calls, "x", 8, 9)),
					match(calls, 12, 16, term(calls, "x", 14, 15)),
				))
			},
			check: func(t *testing.T, matches []Match) {
				require.Len(t, matches, 3, "there should be three matches")
				prevEnd := 0
				for i, m := range matches {
					assert.GreaterOrEqual(t, m.Range.Start.Offset, prevEnd, "match %d should not overlap the previous one", i)
					assert.Equal(t, calls[m.Range.Start.Offset:m.Range.End.Offset], m.Matched, "match %d should be a substring of the source", i)
					prevEnd = m.Range.End.Offset
				}
				x, _ := matches[2].Get("x")
				assert.Equal(t, "3", x.Value)
			},
		},
		{
			name:     "non_zero_exit",
			source:   "foo",
			template: ":[",
			output: func(t *testing.T) *Output {
				return &Output{ExitCode: 1, Stderr: []byte("Error: bad template :[\n")}
			},
			wantErr: &ExecutionError{},
		},
		{
			name:     "malformed_json",
			source:   "foo",
			template: "foo",
			output:   func(t *testing.T) *Output { return stdout("not json") },
			wantErr:  &DecodeError{},
		},
		{
			name:     "missing_required_field",
			source:   "foo",
			template: "foo",
			output: func(t *testing.T) *Output {
				return stdout(`{"uri":null,"matches":[{"range":{"start":{"offset":0,"line":1,"column":1},"end":{"offset":3,"line":1,"column":4}},"environment":[]}]}`)
			},
			wantErr: &DecodeError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &MockExecutor{}
			cfg := Config{Matcher: ".generic"}
			wantArgs := []string{"-stdin", "-json-lines", "-match-only", "-matcher", ".generic", tt.template, ignoredRewriteTemplate}
			exec.On("Execute", "comby", wantArgs, tt.source).Return(tt.output(t), nil).Once()

			b := NewBinary(Options{Executor: exec})
			matches, err := b.Match(context.Background(), tt.source, tt.template, cfg)
			exec.AssertExpectations(t)

			switch want := tt.wantErr.(type) {
			case *ExecutionError:
				require.Error(t, err)
				require.True(t, errors.As(err, &want), "error should be an ExecutionError: %v", err)
				assert.Equal(t, 1, want.ExitCode)
				assert.Equal(t, "Error: bad template :[\n", want.Stderr, "stderr should be kept verbatim")
				return
			case *DecodeError:
				require.Error(t, err)
				require.True(t, errors.As(err, &want), "error should be a DecodeError: %v", err)
				assert.NotEmpty(t, want.Raw, "raw output should be kept")
				assert.Equal(t, 1, want.Line)
				return
			}

			require.NoError(t, err)
			tt.check(t, matches)
		})
	}
}

func TestRewrite(t *testing.T) {
	hi := `print "hi"`
	diff := "--- a\n+++ b\n@@ -1 +1 @@\n-print \"hi\"\n+print(\"hi\")\n"

	tests := []struct {
		name    string
		source  string
		match   string
		rewrite string
		cfg     Config
		output  func(t *testing.T) *Output
		want    *RewriteResult
	}{
		{
			name:    "rewrites_single_match",
			source:  hi,
			match:   "print :[[1]]",
			rewrite: "print(:[1])",
			cfg:     Config{Matcher: ".generic"},
			output: func(t *testing.T) *Output {
				return stdout(rewriteRecord(t, nil, `print("hi")`, diff, substitution(`print("hi")`, 0, 11, `print("hi")`)))
			},
			want: &RewriteResult{
				Text: `print("hi")`,
				Substitutions: []Substitution{{
					Range: Range{
						Start: Location{Offset: 0, Line: 1, Column: 1},
						End:   Location{Offset: 11, Line: 1, Column: 12},
					},
					Replacement: `print("hi")`,
				}},
			},
		},
		{
			name:    "keeps_diff_when_requested",
			source:  hi,
			match:   "print :[[1]]",
			rewrite: "print(:[1])",
			cfg:     Config{Matcher: ".generic", Diff: true},
			output: func(t *testing.T) *Output {
				return stdout(rewriteRecord(t, nil, `print("hi")`, diff, substitution(`print("hi")`, 0, 11, `print("hi")`)))
			},
			want: &RewriteResult{
				Text: `print("hi")`,
				Diff: diff,
				Substitutions: []Substitution{{
					Range: Range{
						Start: Location{Offset: 0, Line: 1, Column: 1},
						End:   Location{Offset: 11, Line: 1, Column: 12},
					},
					Replacement: `print("hi")`,
				}},
			},
		},
		{
			name:    "no_match_returns_original",
			source:  "foo",
			match:   "bar",
			rewrite: "baz",
			cfg:     Config{Matcher: ".generic"},
			output:  func(t *testing.T) *Output { return stdout() },
			want:    &RewriteResult{Text: "foo"},
		},
		{
			name:    "identity_rewrite",
			source:  hi,
			match:   "print :[[1]]",
			rewrite: "print :[1]",
			cfg:     Config{Matcher: ".generic"},
			output: func(t *testing.T) *Output {
				return stdout(rewriteRecord(t, nil, hi, "", substitution(hi, 0, 10, hi)))
			},
			want: &RewriteResult{
				Text: hi,
				Substitutions: []Substitution{{
					Range:       Range{Start: Location{0, 1, 1}, End: Location{10, 1, 11}},
					Replacement: hi,
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &MockExecutor{}
			wantArgs := []string{"-stdin", "-json-lines", "-matcher", tt.cfg.Matcher, tt.match, tt.rewrite}
			exec.On("Execute", "comby", wantArgs, tt.source).Return(tt.output(t), nil).Once()

			b := NewBinary(Options{Executor: exec})
			got, err := b.Rewrite(context.Background(), tt.source, tt.match, tt.rewrite, tt.cfg)
			require.NoError(t, err)
			exec.AssertExpectations(t)

			assert.Equal(t, tt.want.Text, got.Text)
			assert.Equal(t, tt.want.Diff, got.Diff)
			require.Len(t, got.Substitutions, len(tt.want.Substitutions))
			for i := range tt.want.Substitutions {
				assert.Equal(t, tt.want.Substitutions[i].Range, got.Substitutions[i].Range)
				assert.Equal(t, tt.want.Substitutions[i].Replacement, got.Substitutions[i].Replacement)
			}
			assert.Equal(t, len(tt.want.Substitutions) > 0, got.Changed())
		})
	}
}

func TestRewriteRejectsSeveralRecords(t *testing.T) {
	exec := &MockExecutor{}
	exec.On("Execute", "comby", mock.Anything, "x").Return(stdout(
		rewriteRecord(t, "a", "y", ""),
		rewriteRecord(t, "b", "y", ""),
	), nil)

	_, err := NewBinary(Options{Executor: exec}).Rewrite(context.Background(), "x", "x", "y", Config{Matcher: ".generic"})

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr), "error should be a DecodeError: %v", err)
	assert.Contains(t, decodeErr.Error(), "expected one record")
}

func TestSubstitute(t *testing.T) {
	exec := &MockExecutor{}
	wantArgs := []string{
		"-matcher", ".generic",
		"-substitute-only", `[{"variable":"1","value":"very secret"},{"variable":"2","value":"x"}]`,
		ignoredMatchTemplate, "my name is :[1] :[2]",
	}
	exec.On("Execute", "comby", wantArgs, "").Return(stdout("my name is very secret x"), nil).Once()

	got, err := NewBinary(Options{Executor: exec}).Substitute(
		context.Background(),
		"my name is :[1] :[2]",
		map[string]string{"2": "x", "1": "very secret"},
		Config{Matcher: ".generic"},
	)
	require.NoError(t, err)
	exec.AssertExpectations(t)
	assert.Equal(t, "my name is very secret x", got, "trailing newline should be removed")
}

func TestVersion(t *testing.T) {
	t.Run("trims_output", func(t *testing.T) {
		exec := &MockExecutor{}
		exec.On("Execute", "/opt/comby", []string{"-version"}, "").Return(stdout("1.8.1"), nil).Once()

		got, err := NewBinary(Options{Path: "/opt/comby", Executor: exec}).Version(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "1.8.1", got)
	})

	t.Run("environment_error_passes_through", func(t *testing.T) {
		exec := &MockExecutor{}
		envErr := &EnvironmentError{Path: "comby", Err: errors.New("not found")}
		exec.On("Execute", "comby", []string{"-version"}, "").Return(nil, envErr).Once()

		_, err := NewBinary(Options{Executor: exec}).Version(context.Background())
		var got *EnvironmentError
		require.True(t, errors.As(err, &got), "error should be an EnvironmentError: %v", err)
		assert.Equal(t, "comby", got.Path)
	})
}

func TestCustomMatcherIsWrittenToTempFile(t *testing.T) {
	definition := `{"user_defined_delimiters":[["(",")"]]}`
	cfg := Config{
		Matcher: ".foo",
		CustomMatchers: []CustomMatcher{
			{Pattern: "*.bar", Definition: `{}`},
			{Pattern: "*.{foo,baz}", Definition: definition},
		},
	}

	var seenPath string
	exec := &MockExecutor{}
	exec.On("Execute", "comby", mock.MatchedBy(func(args []string) bool {
		if len(args) < 5 || args[3] != "-custom-matcher" {
			return false
		}
		seenPath = args[4]
		return true
	}), "a").Return(stdout(), nil).Once()

	_, err := NewBinary(Options{Executor: exec}).Match(context.Background(), "a", "a", cfg)
	require.NoError(t, err)
	exec.AssertExpectations(t)

	assert.NotEmpty(t, seenPath, "custom matcher path should be passed")
	assert.NoFileExists(t, seenPath, "temporary matcher file should be removed after the call")
}

func TestDo(t *testing.T) {
	exec := &MockExecutor{}
	exec.On("Execute", "comby", []string{"-stdin", "-json-lines", "-matcher", ".go", "-rule", `where :[x] == "a"`, "f(:[x])", "g(:[x])"}, "f(a)").
		Return(stdout(rewriteRecord(t, nil, "g(a)", "", substitution("g(a)", 0, 4, "g(a)"))), nil).Once()

	res, err := NewBinary(Options{Executor: exec}).Do(context.Background(), Request{
		Source:  "f(a)",
		Match:   "f(:[x])",
		Rewrite: "g(:[x])",
		Config:  Config{Matcher: ".go", Rule: `where :[x] == "a"`},
	})
	require.NoError(t, err)
	exec.AssertExpectations(t)
	assert.Equal(t, "g(a)", res.Text)
}
