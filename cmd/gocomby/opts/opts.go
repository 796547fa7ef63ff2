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

package opts

import (
	"github.com/walteh/gocomby/pkg/comby"
	"github.com/walteh/gocomby/pkg/config"
	"github.com/walteh/gocomby/pkg/log"
)

// RootOpts is shared by every command. It is filled before a command runs.
type RootOpts struct {
	Config     *config.Config
	Binary     *comby.Binary
	Console    *log.Logger
	UserLogger *log.UserLogger
	// Root is the directory file arguments are resolved against
	Root string
}

// CombyConfig returns the per-call configuration, with matcher overriding
// the configured one when set
func (o *RootOpts) CombyConfig(matcher string) comby.Config {
	cfg := o.Config.Comby()
	if matcher != "" {
		cfg.Matcher = matcher
	}
	return cfg
}
