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
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/gocomby/pkg/comby"
)

const (
	// DefaultBatchSize is the number of files sent to one comby invocation
	DefaultBatchSize = 50
	// DefaultParallel is the number of concurrent comby invocations
	DefaultParallel = 1
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🧬 CustomMatcher is a matcher definition selected by extension glob
type CustomMatcher struct {
	Pattern    string `json:"pattern" yaml:"pattern"`
	Definition string `json:"definition" yaml:"definition"`
}

// 📦 Batch controls how files are grouped into comby invocations
type Batch struct {
	Size     int      `json:"size,omitempty" yaml:"size,omitempty"`         // Files per invocation
	Parallel int      `json:"parallel,omitempty" yaml:"parallel,omitempty"` // Concurrent invocations
	Include  []string `json:"include,omitempty" yaml:"include,omitempty"`   // Doublestar globs of files to visit
	Exclude  []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`   // Doublestar globs of files to skip
}

// 📚 Config represents the complete configuration
type Config struct {
	Binary                 string          `json:"binary,omitempty" yaml:"binary,omitempty"`
	Matcher                string          `json:"matcher,omitempty" yaml:"matcher,omitempty"`
	MatchNewlineAtToplevel bool            `json:"match_newline_at_toplevel,omitempty" yaml:"match_newline_at_toplevel,omitempty"`
	Rule                   string          `json:"rule,omitempty" yaml:"rule,omitempty"`
	Timeout                int             `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Seconds
	Jobs                   int             `json:"jobs,omitempty" yaml:"jobs,omitempty"`
	CustomMetasyntax       string          `json:"custom_metasyntax,omitempty" yaml:"custom_metasyntax,omitempty"`
	CustomMatchers         []CustomMatcher `json:"custom_matchers,omitempty" yaml:"custom_matchers,omitempty"`
	Batch                  Batch           `json:"batch,omitempty" yaml:"batch,omitempty"`
}

// 🏭 Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Validate()
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and fills defaults
func (cfg *Config) Validate() error {
	if cfg.Timeout < 0 {
		return errors.Errorf("timeout must not be negative")
	}
	if cfg.Jobs < 0 {
		return errors.Errorf("jobs must not be negative")
	}
	if cfg.Batch.Size < 0 {
		return errors.Errorf("batch.size must not be negative")
	}
	if cfg.Batch.Parallel < 0 {
		return errors.Errorf("batch.parallel must not be negative")
	}

	for i, cm := range cfg.CustomMatchers {
		if cm.Pattern == "" {
			return errors.Errorf("custom_matchers[%d].pattern is required", i)
		}
		if !doublestar.ValidatePattern(cm.Pattern) {
			return errors.Errorf("custom_matchers[%d].pattern %q is not a valid glob", i, cm.Pattern)
		}
		if cm.Definition == "" {
			return errors.Errorf("custom_matchers[%d].definition is required", i)
		}
	}
	for _, pattern := range append(append([]string{}, cfg.Batch.Include...), cfg.Batch.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("batch pattern %q is not a valid glob", pattern)
		}
	}

	if cfg.Binary == "" {
		cfg.Binary = comby.DefaultPath
	}
	if cfg.Batch.Size == 0 {
		cfg.Batch.Size = DefaultBatchSize
	}
	if cfg.Batch.Parallel == 0 {
		cfg.Batch.Parallel = DefaultParallel
	}

	return nil
}

// 🔄 Comby converts the file configuration into a per-call comby.Config
func (cfg *Config) Comby() comby.Config {
	out := comby.Config{
		Matcher:                cfg.Matcher,
		CustomMetasyntax:       cfg.CustomMetasyntax,
		MatchNewlineAtToplevel: cfg.MatchNewlineAtToplevel,
		Rule:                   cfg.Rule,
		Timeout:                time.Duration(cfg.Timeout) * time.Second,
		Jobs:                   cfg.Jobs,
	}
	for _, cm := range cfg.CustomMatchers {
		out.CustomMatchers = append(out.CustomMatchers, comby.CustomMatcher{
			Pattern:    cm.Pattern,
			Definition: cm.Definition,
		})
	}
	return out
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	matcher := cfg.Matcher
	if matcher == "" {
		matcher = "<inferred>"
	}
	return fmt.Sprintf("%s -matcher %s (batch %d x %d)", cfg.Binary, matcher, cfg.Batch.Size, cfg.Batch.Parallel)
}
