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
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/gocomby/cmd/gocomby/opts"
	"github.com/walteh/gocomby/pkg/release"
)

// VersionInfo represents the version information of the binary
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Revision  string `json:"revision"`
	Time      string `json:"time"`
	Modified  bool   `json:"modified"`
}

// GetVersionInfo returns the version information from build info
func GetVersionInfo() *VersionInfo {
	info := &VersionInfo{
		Version:   "dev",
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if buildInfo.Main.Version != "" {
			info.Version = buildInfo.Main.Version
		}
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.Revision = setting.Value
			case "vcs.time":
				info.Time = setting.Value
			case "vcs.modified":
				info.Modified = setting.Value == "true"
			}
		}
	}

	return info
}

// FormatVersion returns the version block printed by the version command
func FormatVersion(info *VersionInfo, comby string) string {
	modified := ""
	if info.Modified {
		modified = " (modified)"
	}
	return fmt.Sprintf(`🚀 gocomby version info:
Version:   %s
Revision:  %s%s
Built:     %s
Go:        %s
Platform:  %s
Comby:     %s
`, info.Version, info.Revision, modified, info.Time, info.GoVersion, info.Platform, comby)
}

// newChecker is replaced in tests
var newChecker = func() *release.Checker {
	return release.NewGitHubChecker(os.Getenv("GITHUB_TOKEN"))
}

// NewVersionCmd creates the version command
func NewVersionCmd(root *opts.RootOpts) *cobra.Command {
	var checkLatest bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print gocomby and comby versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			installed, err := root.Binary.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), FormatVersion(GetVersionInfo(), installed))

			if !checkLatest {
				return nil
			}

			status, err := newChecker().Check(ctx, installed)
			if err != nil {
				return errors.Errorf("checking latest release: %w", err)
			}
			if status.UpToDate {
				root.UserLogger.LogValidation(true, fmt.Sprintf("comby %s is up to date", status.Installed), nil)
				return nil
			}
			root.UserLogger.LogValidation(false, fmt.Sprintf("comby %s is available (installed %s): %s", status.Latest, status.Installed, status.URL), nil)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkLatest, "check-latest", false, "compare the installed comby with the latest GitHub release")

	return cmd
}
