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
	"path"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 🧬 CustomMatcher pairs a file extension glob with a comby matcher definition.
// Definition is the JSON comby accepts through -custom-matcher.
type CustomMatcher struct {
	Pattern    string
	Definition string
}

// 🔧 Config selects the matcher and the optional flags of one call.
// It is passed to every call; there are no package level defaults.
type Config struct {
	// Matcher is the language selector, e.g. ".go" or ".generic"
	Matcher string
	// CustomMatchers are consulted before Matcher, first match wins
	CustomMatchers []CustomMatcher
	// CustomMetasyntax is a JSON metasyntax definition
	CustomMetasyntax string
	// MatchNewlineAtToplevel lets holes match newlines outside of delimiters
	MatchNewlineAtToplevel bool
	// Rule is a comby rule, e.g. `where :[1] == "x"`
	Rule string
	// Diff asks for a unified diff alongside rewritten text
	Diff bool
	// Timeout is comby's own per-source timeout, rounded up to seconds
	Timeout time.Duration
	// Jobs is the number of comby worker processes for batched calls
	Jobs int
}

// customMatcher returns the first custom matcher whose pattern matches the
// matcher selector or, for batched calls, one of the source identifiers.
func (c Config) customMatcher(ids ...string) (*CustomMatcher, error) {
	candidates := make([]string, 0, 1+2*len(ids))
	if c.Matcher != "" {
		candidates = append(candidates, c.Matcher)
	}
	for _, id := range ids {
		candidates = append(candidates, id, path.Base(id))
	}

	for i := range c.CustomMatchers {
		cm := &c.CustomMatchers[i]
		for _, candidate := range candidates {
			ok, err := doublestar.Match(cm.Pattern, candidate)
			if err != nil {
				return nil, errors.Errorf("matching custom matcher pattern %q: %w", cm.Pattern, err)
			}
			if ok {
				return cm, nil
			}
		}
	}
	return nil, nil
}

func (c Config) timeoutSeconds() int {
	if c.Timeout <= 0 {
		return 0
	}
	secs := int(c.Timeout / time.Second)
	if c.Timeout%time.Second != 0 {
		secs++
	}
	return secs
}
