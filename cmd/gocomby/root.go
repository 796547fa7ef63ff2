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

package main

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/gocomby/cmd/gocomby/commands"
	"github.com/walteh/gocomby/cmd/gocomby/opts"
	"github.com/walteh/gocomby/pkg/comby"
	"github.com/walteh/gocomby/pkg/config"
	"github.com/walteh/gocomby/pkg/log"
)

var (
	// Flags
	configFile string
	debug      bool
)

// defaultConfigFiles are looked up in the working directory when --config is not set
var defaultConfigFiles = []string{".gocomby.yaml", ".gocomby.yml", ".gocomby.hcl", ".gocomby.json"}

func newRootCmd() *cobra.Command {
	root := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "gocomby",
		Short: "Structural search and replace through comby",
		Long: `gocomby runs comby over source text and files and reports
matches, rewrites and diffs. Sources are always sent to comby over
standard input; files are only changed when --write is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return fillRootOpts(cmd.Context(), root)
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewMatchCmd(root),
		commands.NewRewriteCmd(root),
		commands.NewSubstituteCmd(root),
		commands.NewVersionCmd(root),
	)

	return rootCmd
}

func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default .gocomby.{yaml,yml,hcl,json} when present)")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

func fillRootOpts(ctx context.Context, root *opts.RootOpts) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return errors.Errorf("getting working directory: %w", err)
	}

	root.Config = cfg
	root.Root = wd
	root.Binary = comby.NewBinary(comby.Options{Path: cfg.Binary})
	root.Console = log.New(os.Stdout, *zerolog.Ctx(ctx))
	root.UserLogger = log.NewUserLogger(ctx)

	zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Msg("ready")
	return nil
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	if configFile != "" {
		cfg, err := config.Load(ctx, configFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	for _, name := range defaultConfigFiles {
		if _, err := os.Stat(name); err == nil {
			cfg, err := config.Load(ctx, filepath.Clean(name))
			if err != nil {
				return nil, errors.Errorf("loading config: %w", err)
			}
			return cfg, nil
		}
	}

	return config.Default(), nil
}

// setupLogging builds the root logger. Flags are not parsed yet, so --debug
// is read from the raw arguments.
func setupLogging(ctx context.Context, args []string) context.Context {
	level := zerolog.WarnLevel
	if slices.Contains(args, "--debug") || slices.Contains(args, "-d") {
		level = zerolog.DebugLevel
		pterm.EnableDebugMessages()
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}
