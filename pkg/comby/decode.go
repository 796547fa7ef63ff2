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
	"bufio"
	"bytes"
	"encoding/json"
	"strconv"

	"gitlab.com/tozd/go/errors"
)

// Wire records mirror comby's -json-lines output. Every required field is a
// pointer so that a missing field is detected at decode time.

type wireLocation struct {
	Offset *int `json:"offset"`
	Line   *int `json:"line"`
	Column *int `json:"column"`
}

type wireRange struct {
	Start *wireLocation `json:"start"`
	End   *wireLocation `json:"end"`
}

type wireTerm struct {
	Variable *string    `json:"variable"`
	Value    *string    `json:"value"`
	Range    *wireRange `json:"range"`
}

type wireMatch struct {
	Range       *wireRange  `json:"range"`
	Environment *[]wireTerm `json:"environment"`
	Matched     *string     `json:"matched"`
}

type wireSubstitution struct {
	Range              *wireRange  `json:"range"`
	ReplacementContent *string     `json:"replacement_content"`
	Environment        *[]wireTerm `json:"environment"`
}

// 📦 wireMatchRecord is one source's -match-only record
type wireMatchRecord struct {
	URI     *string      `json:"uri"`
	Matches *[]wireMatch `json:"matches"`
}

// 📦 wireRewriteRecord is one source's rewrite record
type wireRewriteRecord struct {
	URI                  *string             `json:"uri"`
	RewrittenSource      *string             `json:"rewritten_source"`
	InPlaceSubstitutions *[]wireSubstitution `json:"in_place_substitutions"`
	Diff                 *string             `json:"diff"`
}

func missing(field string) error {
	return errors.Errorf("missing required field %q", field)
}

func (w *wireLocation) decode(field string) (Location, error) {
	if w == nil {
		return Location{}, missing(field)
	}
	if w.Offset == nil {
		return Location{}, missing(field + ".offset")
	}
	if w.Line == nil {
		return Location{}, missing(field + ".line")
	}
	if w.Column == nil {
		return Location{}, missing(field + ".column")
	}
	return Location{Offset: *w.Offset, Line: *w.Line, Column: *w.Column}, nil
}

func (w *wireRange) decode(field string) (Range, error) {
	if w == nil {
		return Range{}, missing(field)
	}
	start, err := w.Start.decode(field + ".start")
	if err != nil {
		return Range{}, err
	}
	end, err := w.End.decode(field + ".end")
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

func decodeEnvironment(terms *[]wireTerm, field string) (Environment, error) {
	if terms == nil {
		return Environment{}, missing(field)
	}
	bound := make([]BoundTerm, 0, len(*terms))
	for i, t := range *terms {
		if t.Variable == nil {
			return Environment{}, missing(field + "[" + strconv.Itoa(i) + "].variable")
		}
		if t.Value == nil {
			return Environment{}, missing(field + "[" + strconv.Itoa(i) + "].value")
		}
		rng, err := t.Range.decode(field + "[" + strconv.Itoa(i) + "].range")
		if err != nil {
			return Environment{}, err
		}
		bound = append(bound, BoundTerm{Name: *t.Variable, Value: *t.Value, Range: rng})
	}
	return NewEnvironment(bound...), nil
}

func (w *wireMatchRecord) decode() (string, []Match, error) {
	if w.Matches == nil {
		return "", nil, missing("matches")
	}
	matches := make([]Match, 0, len(*w.Matches))
	for i, m := range *w.Matches {
		prefix := "matches[" + strconv.Itoa(i) + "]"
		if m.Matched == nil {
			return "", nil, missing(prefix + ".matched")
		}
		rng, err := m.Range.decode(prefix + ".range")
		if err != nil {
			return "", nil, err
		}
		env, err := decodeEnvironment(m.Environment, prefix+".environment")
		if err != nil {
			return "", nil, err
		}
		matches = append(matches, Match{Matched: *m.Matched, Range: rng, Environment: env})
	}
	return deref(w.URI), matches, nil
}

func (w *wireRewriteRecord) decode(keepDiff bool) (*RewriteResult, error) {
	if w.RewrittenSource == nil {
		return nil, missing("rewritten_source")
	}
	if w.InPlaceSubstitutions == nil {
		return nil, missing("in_place_substitutions")
	}
	subs := make([]Substitution, 0, len(*w.InPlaceSubstitutions))
	for i, s := range *w.InPlaceSubstitutions {
		prefix := "in_place_substitutions[" + strconv.Itoa(i) + "]"
		if s.ReplacementContent == nil {
			return nil, missing(prefix + ".replacement_content")
		}
		rng, err := s.Range.decode(prefix + ".range")
		if err != nil {
			return nil, err
		}
		env, err := decodeEnvironment(s.Environment, prefix+".environment")
		if err != nil {
			return nil, err
		}
		subs = append(subs, Substitution{Range: rng, Replacement: *s.ReplacementContent, Environment: env})
	}

	res := &RewriteResult{
		URI:           deref(w.URI),
		Text:          *w.RewrittenSource,
		Substitutions: subs,
	}
	if keepDiff {
		res.Diff = deref(w.Diff)
	}
	return res, nil
}

// 📜 eachLine calls fn with every non-blank line of a JSON lines payload.
// Errors from fn are wrapped in a *DecodeError carrying the raw payload.
func eachLine(raw []byte, fn func(line []byte) error) error {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	// records embed whole sources, so lines can be far larger than the default 64KB
	scanner.Buffer(make([]byte, 0, 64*1024), len(raw)+1)

	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return errors.WithStack(&DecodeError{Line: n, Raw: string(raw), Err: err})
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.WithStack(&DecodeError{Raw: string(raw), Err: err})
	}
	return nil
}

func decodeMatchLines(raw []byte) (map[string][]Match, error) {
	out := map[string][]Match{}
	err := eachLine(raw, func(line []byte) error {
		var rec wireMatchRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		uri, matches, err := rec.decode()
		if err != nil {
			return err
		}
		out[uri] = append(out[uri], matches...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeRewriteLines(raw []byte, keepDiff bool) (map[string]*RewriteResult, error) {
	out := map[string]*RewriteResult{}
	err := eachLine(raw, func(line []byte) error {
		var rec wireRewriteRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		res, err := rec.decode(keepDiff)
		if err != nil {
			return err
		}
		if _, seen := out[res.URI]; seen {
			return errors.Errorf("duplicate record for %q", res.URI)
		}
		out[res.URI] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
