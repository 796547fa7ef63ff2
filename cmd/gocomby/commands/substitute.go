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

package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/gocomby/cmd/gocomby/opts"
)

// NewSubstituteCmd creates the substitute command
func NewSubstituteCmd(root *opts.RootOpts) *cobra.Command {
	var matcher string

	cmd := &cobra.Command{
		Use:   "substitute <template> [name=value...]",
		Short: "Fill the holes of a template",
		Long: `Substitute instantiates template with the given hole values, e.g.

  gocomby substitute 'fmt.Println(:[x])' x='"hi"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "substitute").Logger().WithContext(cmd.Context())

			values, err := parseBindings(args[1:])
			if err != nil {
				return err
			}

			cfg := root.CombyConfig(matcher)
			if cfg.Matcher == "" {
				cfg.Matcher = stdinMatcher
			}

			out, err := root.Binary.Substitute(ctx, args[0], values, cfg)
			if err != nil {
				return errors.Errorf("substituting: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&matcher, "matcher", "m", "", "comby matcher, e.g. .go (default from config)")

	return cmd
}

// parseBindings turns name=value arguments into hole values. A value may
// itself contain '='.
func parseBindings(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, errors.Errorf("invalid binding %q, expected name=value", arg)
		}
		values[name] = value
	}
	return values, nil
}
