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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/gocomby/cmd/gocomby/opts"
)

// NewMatchCmd creates the match command
func NewMatchCmd(root *opts.RootOpts) *cobra.Command {
	var matcher string

	cmd := &cobra.Command{
		Use:   "match <template> [paths...]",
		Short: "Find matches of a template",
		Long: `Match prints every match of template with its captured holes.
Without paths the source is read from standard input. Paths may be
files, directories or doublestar globs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "match").Logger().WithContext(cmd.Context())
			template := args[0]
			cfg := root.CombyConfig(matcher)

			if len(args) == 1 {
				source, cfg, err := readStdin(cmd.InOrStdin(), cfg)
				if err != nil {
					return err
				}
				matches, err := root.Binary.Match(ctx, source, template, cfg)
				if err != nil {
					return errors.Errorf("matching standard input: %w", err)
				}
				for _, m := range matches {
					root.Console.LogMatch("", cfg.Matcher, m)
				}
				if len(matches) == 0 {
					root.Console.Warning("No matches")
				}
				return nil
			}

			op, err := newOperator(root, cfg)
			if err != nil {
				return err
			}
			files, err := op.Files(args[1:]...)
			if err != nil {
				return errors.Errorf("resolving paths: %w", err)
			}
			root.Console.Header(fmt.Sprintf("matching %d %s", len(files), plural(len(files), "file")))
			results, err := op.Match(ctx, files, template)
			if err != nil {
				return err
			}

			total := 0
			for _, file := range sortedKeys(results) {
				for _, m := range results[file] {
					root.Console.LogMatch(file, cfg.Matcher, m)
					total++
				}
			}
			root.UserLogger.LogStatus(matchSummary(total, len(files)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&matcher, "matcher", "m", "", "comby matcher, e.g. .go (default from config)")

	return cmd
}

func matchSummary(matches, files int) string {
	return fmt.Sprintf("%d %s in %d %s", matches, plural(matches, "match"), files, plural(files, "file"))
}

func plural(n int, noun string) string {
	switch {
	case n == 1:
		return noun
	case noun == "match":
		return "matches"
	}
	return noun + "s"
}
