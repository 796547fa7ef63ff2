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
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"gitlab.com/tozd/go/errors"
)

// 📍 Location is a single position in a source text as reported by comby.
// Offset is a zero-based byte offset, Line and Column are one-based.
type Location struct {
	Offset int
	Line   int
	Column int
}

// String renders the location as line:column
func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// 📏 Range is a half-open span [Start, End) of a source text
type Range struct {
	Start Location
	End   Location
}

// String renders the range as start::end
func (r Range) String() string {
	return r.Start.String() + "::" + r.End.String()
}

// Len is the number of bytes covered by the range
func (r Range) Len() int {
	return r.End.Offset - r.Start.Offset
}

// 🔗 BoundTerm binds a named capture hole to a fragment of the source
type BoundTerm struct {
	Name  string
	Value string
	Range Range
}

// 🌿 Environment maps capture hole names to the terms they are bound to.
// Comby's ordering is preserved.
type Environment struct {
	terms []BoundTerm
}

// NewEnvironment builds an environment from bound terms.
// A later term replaces an earlier one with the same name.
func NewEnvironment(terms ...BoundTerm) Environment {
	env := Environment{}
	for _, t := range terms {
		if i := env.index(t.Name); i >= 0 {
			env.terms[i] = t
			continue
		}
		env.terms = append(env.terms, t)
	}
	return env
}

func (e Environment) index(name string) int {
	for i, t := range e.terms {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// Get returns the term bound to name
func (e Environment) Get(name string) (BoundTerm, bool) {
	if i := e.index(name); i >= 0 {
		return e.terms[i], true
	}
	return BoundTerm{}, false
}

// Names returns the bound hole names in comby's order
func (e Environment) Names() []string {
	names := make([]string, 0, len(e.terms))
	for _, t := range e.terms {
		names = append(names, t.Name)
	}
	return names
}

// Terms returns a copy of the bound terms
func (e Environment) Terms() []BoundTerm {
	return append([]BoundTerm(nil), e.terms...)
}

// Len is the number of bound holes
func (e Environment) Len() int {
	return len(e.terms)
}

// Values returns hole name to value, the shape Substitute expects
func (e Environment) Values() map[string]string {
	values := make(map[string]string, len(e.terms))
	for _, t := range e.terms {
		values[t.Name] = t.Value
	}
	return values
}

// 🎯 Match is one occurrence of a match template in a source text
type Match struct {
	Matched     string
	Range       Range
	Environment Environment
}

// Get returns the term bound to the named hole
func (m Match) Get(name string) (BoundTerm, bool) {
	return m.Environment.Get(name)
}

// 🔄 Substitution is one rewrite comby applied to the source
type Substitution struct {
	Range       Range
	Replacement string
	Environment Environment
}

// 📨 Request bundles the inputs of a single rewrite
type Request struct {
	Source  string
	Match   string
	Rewrite string
	Config  Config
}

// 📝 RewriteResult is the outcome of rewriting one source text
type RewriteResult struct {
	// URI identifies the source in batched calls, empty for single calls
	URI string
	// Text is the rewritten source, or the original when nothing matched
	Text string
	// Diff is the unified diff comby reported, set only when requested
	Diff string
	// Substitutions lists the rewrites comby applied
	Substitutions []Substitution
}

// Changed reports whether comby rewrote anything
func (r *RewriteResult) Changed() bool {
	return len(r.Substitutions) > 0
}

// 🧩 DiffFiles parses Diff into structured file diffs
func (r *RewriteResult) DiffFiles() ([]*gitdiff.File, error) {
	if strings.TrimSpace(r.Diff) == "" {
		return nil, nil
	}
	files, _, err := gitdiff.Parse(strings.NewReader(r.Diff))
	if err != nil {
		return nil, errors.Errorf("parsing diff: %w", err)
	}
	return files, nil
}
