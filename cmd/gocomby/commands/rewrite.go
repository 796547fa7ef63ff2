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
	"github.com/walteh/gocomby/pkg/log"
)

// NewRewriteCmd creates the rewrite command
func NewRewriteCmd(root *opts.RootOpts) *cobra.Command {
	var (
		matcher string
		diff    bool
		write   bool
	)

	cmd := &cobra.Command{
		Use:   "rewrite <match> <rewrite> [paths...]",
		Short: "Rewrite matches of a template",
		Long: `Rewrite replaces every match of the match template with the rewrite
template. Without paths the source is read from standard input and the
rewritten text (or, with --diff, the diff) is printed. With paths a
summary line is printed per file and files are changed only with --write.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "rewrite").Logger().WithContext(cmd.Context())
			matchTemplate, rewriteTemplate := args[0], args[1]
			cfg := root.CombyConfig(matcher)
			cfg.Diff = diff

			if len(args) == 2 {
				if write {
					return errors.New("--write needs at least one path")
				}
				source, cfg, err := readStdin(cmd.InOrStdin(), cfg)
				if err != nil {
					return err
				}
				res, err := root.Binary.Rewrite(ctx, source, matchTemplate, rewriteTemplate, cfg)
				if err != nil {
					return errors.Errorf("rewriting standard input: %w", err)
				}
				if diff {
					root.Console.LogDiff(res.Diff)
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), res.Text)
				return nil
			}

			op, err := newOperator(root, cfg)
			if err != nil {
				return err
			}
			files, err := op.Files(args[2:]...)
			if err != nil {
				return errors.Errorf("resolving paths: %w", err)
			}

			root.Console.Header(fmt.Sprintf("rewriting %d %s", len(files), plural(len(files), "file")))
			results, err := op.Rewrite(ctx, files, matchTemplate, rewriteTemplate)
			if err != nil {
				return err
			}

			written := map[string]bool{}
			if write {
				names, err := op.Write(ctx, results)
				if err != nil {
					root.UserLogger.LogFileChange(log.FileChange{Type: log.FileError, Path: root.Root, Error: err})
					return errors.Errorf("writing files: %w", err)
				}
				for _, name := range names {
					written[name] = true
				}
			}

			var changed []string
			for _, file := range sortedKeys(results) {
				res := results[file]
				root.Console.LogRewrite(file, res, written[file])
				if !res.Changed() {
					continue
				}
				changed = append(changed, file)
				if diff {
					root.Console.LogDiff(res.Diff)
					root.Console.LogNewline()
				}
			}

			for _, file := range changed {
				change := log.FileChange{
					Type:        log.FileRewritten,
					Path:        file,
					Description: substitutionCount(len(results[file].Substitutions)),
				}
				if written[file] {
					change.Type = log.FileWritten
				}
				root.UserLogger.LogFileChange(change)
			}

			switch {
			case len(changed) == 0:
				root.Console.Warning("No files changed")
			case !write:
				root.Console.Infof("%d of %d files would change, use --write to apply", len(changed), len(files))
			default:
				root.Console.Successf("Wrote %d of %d files", len(written), len(files))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&matcher, "matcher", "m", "", "comby matcher, e.g. .go (default from config or file extension)")
	cmd.Flags().BoolVar(&diff, "diff", false, "print a unified diff for each rewrite")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write rewritten files back")

	return cmd
}

func substitutionCount(n int) string {
	if n == 1 {
		return "1 substitution"
	}
	return fmt.Sprintf("%d substitutions", n)
}
