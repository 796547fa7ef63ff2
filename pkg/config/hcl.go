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

package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files.
// Expressions may read environment variables as env.NAME.
type HCLParser struct {
	// Environ overrides os.Environ, used by tests
	Environ func() []string
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "gocomby.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": p.envObject(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Binary                 string `hcl:"binary,optional"`
		Matcher                string `hcl:"matcher,optional"`
		MatchNewlineAtToplevel bool   `hcl:"match_newline_at_toplevel,optional"`
		Rule                   string `hcl:"rule,optional"`
		Timeout                int    `hcl:"timeout,optional"`
		Jobs                   int    `hcl:"jobs,optional"`
		CustomMetasyntax       string `hcl:"custom_metasyntax,optional"`
		CustomMatchers         []struct {
			Pattern    string `hcl:"pattern,label"`
			Definition string `hcl:"definition"`
		} `hcl:"custom_matcher,block"`
		Batch *struct {
			Size     int      `hcl:"size,optional"`
			Parallel int      `hcl:"parallel,optional"`
			Include  []string `hcl:"include,optional"`
			Exclude  []string `hcl:"exclude,optional"`
		} `hcl:"batch,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Binary:                 hclCfg.Binary,
		Matcher:                hclCfg.Matcher,
		MatchNewlineAtToplevel: hclCfg.MatchNewlineAtToplevel,
		Rule:                   hclCfg.Rule,
		Timeout:                hclCfg.Timeout,
		Jobs:                   hclCfg.Jobs,
		CustomMetasyntax:       hclCfg.CustomMetasyntax,
	}
	for _, cm := range hclCfg.CustomMatchers {
		cfg.CustomMatchers = append(cfg.CustomMatchers, CustomMatcher{
			Pattern:    cm.Pattern,
			Definition: cm.Definition,
		})
	}
	if hclCfg.Batch != nil {
		cfg.Batch = Batch{
			Size:     hclCfg.Batch.Size,
			Parallel: hclCfg.Batch.Parallel,
			Include:  hclCfg.Batch.Include,
			Exclude:  hclCfg.Batch.Exclude,
		}
	}

	return cfg, nil
}

func (p *HCLParser) envObject() cty.Value {
	environ := os.Environ
	if p.Environ != nil {
		environ = p.Environ
	}

	vars := map[string]cty.Value{}
	for _, kv := range environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" || !validIdent(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	return cty.ObjectVal(vars)
}

// validIdent reports whether name can be used as an attribute after env.
func validIdent(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
