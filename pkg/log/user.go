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

package log

import (
	"context"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📢 UserLogger provides user-friendly status lines
type UserLogger struct {
	log    zerolog.Logger // for debug/error logging
	writer io.Writer      // pterm destination, stdout when nil
}

// 🎨 FileChangeType represents what happened to a file
type FileChangeType int

const (
	FileRewritten FileChangeType = iota
	FileWritten
	FileError
)

// 🖼️ FileChange represents a change to a file
type FileChange struct {
	Type        FileChangeType
	Path        string
	Description string
	Error       error
}

// 🎯 NewUserLogger creates a new user logger
func NewUserLogger(ctx context.Context) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
	}
}

// WithWriter sends pterm output to w
func (u *UserLogger) WithWriter(w io.Writer) *UserLogger {
	u.writer = w
	return u
}

func (u *UserLogger) printer(p pterm.PrefixPrinter, prefix string) *pterm.PrefixPrinter {
	out := p.WithPrefix(pterm.Prefix{Text: prefix, Style: p.Prefix.Style})
	if u.writer != nil {
		out = out.WithWriter(u.writer)
	}
	return out
}

// 📝 LogFileChange logs a file change with appropriate emoji and formatting
func (u *UserLogger) LogFileChange(change FileChange) {
	var prefix, action string
	var printer *pterm.PrefixPrinter
	switch change.Type {
	case FileRewritten:
		prefix = "🔄"
		action = "Rewrote"
		printer = u.printer(pterm.Info, prefix)
	case FileWritten:
		prefix = "✨"
		action = "Wrote"
		printer = u.printer(pterm.Success, prefix)
	default:
		prefix = "❌"
		action = "Failed"
		printer = u.printer(pterm.Error, prefix)
	}

	msg := fmt.Sprintf("%s %s", action, change.Path)
	if change.Description != "" {
		msg += fmt.Sprintf(" (%s)", change.Description)
	}

	printer.Println(msg)
	if change.Error != nil {
		u.printer(pterm.Error, "❌").Println(change.Error)
		u.log.Error().Err(change.Error).Msg(msg) // Also log to zerolog for debugging
		return
	}
	u.log.Info().Msg(msg) // Also log to zerolog for debugging
}

// 📊 LogStatus logs an overall status line
func (u *UserLogger) LogStatus(description string) {
	u.printer(pterm.Info, "📦").Println(description)
	u.log.Info().Msg(description)
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		u.printer(pterm.Success, "✅").Println(description)
		u.log.Info().Msg(description)
		return
	}
	if err != nil {
		u.printer(pterm.Error, "❌").Println(description)
		u.printer(pterm.Error, "❌").Println(err)
		u.log.Error().Err(err).Msg(description)
		return
	}
	u.printer(pterm.Warning, "⚠️").Println(description)
	u.log.Warn().Msg(description)
}
