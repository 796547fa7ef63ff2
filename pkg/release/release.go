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

// Package release compares the installed comby with its latest GitHub release.
package release

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// Owner and Repo locate comby on GitHub
	Owner = "comby-tools"
	Repo  = "comby"
)

// 🔌 RepositoriesClient is the part of the GitHub API the checker uses.
// *github.RepositoriesService implements it.
type RepositoriesClient interface {
	GetLatestRelease(ctx context.Context, owner, repo string) (*github.RepositoryRelease, *github.Response, error)
}

var _ RepositoriesClient = (*github.RepositoriesService)(nil)

// 📊 Status is the outcome of a version check
type Status struct {
	Installed string
	Latest    string
	URL       string
	UpToDate  bool
}

// 🔍 Checker looks up the latest comby release
type Checker struct {
	client RepositoriesClient
}

// 🏭 NewChecker creates a checker around a GitHub client
func NewChecker(client RepositoriesClient) *Checker {
	return &Checker{client: client}
}

// 🏭 NewGitHubChecker creates a checker for api.github.com, authenticated
// when token is not empty
func NewGitHubChecker(token string) *Checker {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return NewChecker(client.Repositories)
}

// 🏷️ Check compares installed, as printed by comby -version, with the
// latest published release
func (c *Checker) Check(ctx context.Context, installed string) (*Status, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("owner", Owner).Str("repo", Repo).Msg("fetching latest release")

	rel, _, err := c.client.GetLatestRelease(ctx, Owner, Repo)
	if err != nil {
		return nil, errors.Errorf("fetching latest comby release: %w", err)
	}

	latest := strings.TrimPrefix(rel.GetTagName(), "v")
	if latest == "" {
		return nil, errors.Errorf("latest comby release has no tag")
	}

	installed = Normalize(installed)
	status := &Status{
		Installed: installed,
		Latest:    latest,
		URL:       rel.GetHTMLURL(),
		UpToDate:  Compare(installed, latest) >= 0,
	}

	logger.Debug().
		Str("installed", status.Installed).
		Str("latest", status.Latest).
		Bool("up_to_date", status.UpToDate).
		Msg("compared comby versions")

	return status, nil
}

// Normalize extracts the dotted version number from comby -version output
func Normalize(version string) string {
	for _, field := range strings.Fields(version) {
		field = strings.TrimPrefix(field, "v")
		if field != "" && field[0] >= '0' && field[0] <= '9' {
			return field
		}
	}
	return strings.TrimSpace(version)
}

// ⚖️ Compare orders two dotted versions numerically. Missing components
// count as zero and a non numeric suffix such as -rc1 is ignored.
func Compare(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < max(len(as), len(bs)); i++ {
		x, y := component(as, i), component(bs, i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func component(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	digits := parts[i]
	if end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); end >= 0 {
		digits = digits[:end]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
