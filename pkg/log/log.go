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
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/walteh/gocomby/pkg/comby"
)

// 🎨 Display configuration
const (
	fileIndent    = 4  // spaces to indent file entries
	captureIndent = 6  // spaces to indent captured holes
	nameWidth     = 35 // Base width for filename
	countWidth    = 18 // Width for the substitution count
)

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger. Every console line is mirrored to zlog.
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 🔍 LogMatch prints one match with its captured holes, highlighted for the
// language of file or, when file is empty, of matcher
func (l *Logger) LogMatch(file, matcher string, m comby.Match) {
	l.mu.Lock()
	defer l.mu.Unlock()

	hl := newHighlighter(file, matcher)

	location := m.Range.Start.String()
	if file != "" {
		location = file + ":" + location
	}
	fmt.Fprintf(l.console, "%s%s %s\n",
		strings.Repeat(" ", fileIndent),
		color.New(color.FgCyan).Sprint(location),
		hl.highlight(firstLine(m.Matched)))

	for _, term := range m.Environment.Terms() {
		fmt.Fprintf(l.console, "%s%s %s\n",
			strings.Repeat(" ", captureIndent),
			color.New(color.Faint).Sprintf(":[%s] =", term.Name),
			hl.highlight(term.Value))
	}

	l.zlog.Info().
		Str("file", file).
		Str("range", m.Range.String()).
		Str("matched", m.Matched).
		Interface("environment", m.Environment.Values()).
		Msg("match")
}

// 📝 formatRewrite formats a rewrite result for display
func (l *Logger) formatRewrite(file string, res *comby.RewriteResult, written bool) string {
	var symbol rune
	var symbolColor color.Attribute
	status := "unchanged"
	switch {
	case res.Changed() && written:
		symbol = '✓'
		symbolColor = color.FgGreen
		status = "written"
	case res.Changed():
		symbol = '⟳'
		symbolColor = color.FgBlue
		status = "rewritten"
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	count := fmt.Sprintf("%d substitutions", len(res.Substitutions))
	if len(res.Substitutions) == 1 {
		count = "1 substitution"
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, file),
		color.New(color.Faint).Sprint(fmt.Sprintf("%-*s", countWidth, count)),
		status)
}

// ✏️ LogRewrite prints a one line summary of a rewrite result
func (l *Logger) LogRewrite(file string, res *comby.RewriteResult, written bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatRewrite(file, res, written))

	l.zlog.Info().
		Str("file", file).
		Bool("changed", res.Changed()).
		Bool("written", written).
		Int("substitutions", len(res.Substitutions)).
		Msg("rewrite")
}

// 📄 LogDiff prints a unified diff with added and removed lines colored
func (l *Logger) LogDiff(diff string) {
	if strings.TrimSpace(diff) == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		var c *color.Color
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			c = color.New(color.Bold)
		case strings.HasPrefix(line, "@@"):
			c = color.New(color.FgCyan)
		case strings.HasPrefix(line, "+"):
			c = color.New(color.FgGreen)
		case strings.HasPrefix(line, "-"):
			c = color.New(color.FgRed)
		default:
			c = color.New(color.Reset)
		}
		fmt.Fprintln(l.console, c.Sprint(line))
	}

	l.zlog.Debug().Int("bytes", len(diff)).Msg("diff")
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	nameText := color.New(color.Bold, color.FgCyan).Sprint("gocomby")
	fmt.Fprintf(l.console, "\n%s %s\n\n", nameText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

// firstLine shortens multi line matches for the summary line
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
