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
	"strconv"
)

// Flag mapping, per `comby -help`:
//
//	-stdin                      source on standard input
//	-tar                        tar archive of sources on standard input
//	-json-lines                 one JSON record per source on standard output
//	-match-only                 report matches, do not rewrite
//	-matcher <ext>              language selector
//	-custom-matcher <file>      JSON matcher definition, replaces -matcher
//	-custom-metasyntax <file>   JSON metasyntax definition
//	-match-newline-at-toplevel  holes may match newlines at the top level
//	-rule <rule>                rule applied to every match
//	-timeout <seconds>          comby's per-source timeout
//	-jobs <n>                   comby worker processes
//	-substitute-only <json>     substitute JSON terms into the rewrite template
//	-version                    print the version
//
// In-place mode is never used: sources only travel over standard input.

const (
	ignoredMatchTemplate   = "IGNORE_MATCHED_TEMPLATE"
	ignoredRewriteTemplate = "IGNORE_REWRITE_TEMPLATE"
)

// 📥 inputMode is how sources reach comby
type inputMode int

const (
	inputNone inputMode = iota
	inputStdin
	inputTar
)

// 🏗️ commandLine describes one comby invocation before it becomes argv
type commandLine struct {
	cfg Config

	matchTemplate   string
	rewriteTemplate string

	input     inputMode
	matchOnly bool
	jsonLines bool

	// substitutions is the JSON payload of -substitute-only
	substitutions string

	// batched calls may leave the matcher to comby's extension inference
	omitEmptyMatcher bool

	customMatcherPath string
	metasyntaxPath    string
}

func (c commandLine) args() []string {
	var args []string

	switch c.input {
	case inputStdin:
		args = append(args, "-stdin")
	case inputTar:
		args = append(args, "-tar")
	}

	if c.jsonLines {
		args = append(args, "-json-lines")
	}
	if c.matchOnly {
		args = append(args, "-match-only")
	}

	switch {
	case c.customMatcherPath != "":
		args = append(args, "-custom-matcher", c.customMatcherPath)
	case c.cfg.Matcher != "" || !c.omitEmptyMatcher:
		args = append(args, "-matcher", c.cfg.Matcher)
	}

	if c.metasyntaxPath != "" {
		args = append(args, "-custom-metasyntax", c.metasyntaxPath)
	}
	if c.cfg.MatchNewlineAtToplevel {
		args = append(args, "-match-newline-at-toplevel")
	}
	if c.cfg.Rule != "" {
		args = append(args, "-rule", c.cfg.Rule)
	}
	if secs := c.cfg.timeoutSeconds(); secs > 0 {
		args = append(args, "-timeout", strconv.Itoa(secs))
	}
	if c.cfg.Jobs > 0 {
		args = append(args, "-jobs", strconv.Itoa(c.cfg.Jobs))
	}
	if c.substitutions != "" {
		args = append(args, "-substitute-only", c.substitutions)
	}

	match := c.matchTemplate
	if match == "" && c.substitutions != "" {
		match = ignoredMatchTemplate
	}
	rewrite := c.rewriteTemplate
	if c.matchOnly {
		rewrite = ignoredRewriteTemplate
	}

	return append(args, match, rewrite)
}
