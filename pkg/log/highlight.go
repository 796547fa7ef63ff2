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
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fatih/color"
)

// 🖍️ highlighter colors source fragments with a chroma lexer
type highlighter struct {
	lexer chroma.Lexer
}

// newHighlighter picks a lexer from the file name, then from the comby
// matcher extension. Unknown languages are printed as they are.
func newHighlighter(file, matcher string) *highlighter {
	var lexer chroma.Lexer
	if file != "" {
		lexer = lexers.Match(file)
	}
	if lexer == nil && strings.HasPrefix(matcher, ".") {
		lexer = lexers.Match("source" + matcher)
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	return &highlighter{lexer: lexer}
}

func (h *highlighter) highlight(text string) string {
	if h.lexer == nil || color.NoColor || text == "" {
		return text
	}

	it, err := h.lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}

	// lexers may append a newline, only the original bytes are printed
	remaining := len(text)
	var sb strings.Builder
	for _, tok := range it.Tokens() {
		if remaining <= 0 {
			break
		}
		value := tok.Value
		if len(value) > remaining {
			value = value[:remaining]
		}
		remaining -= len(value)

		if c := tokenColor(tok.Type); c != nil {
			sb.WriteString(c.Sprint(value))
		} else {
			sb.WriteString(value)
		}
	}
	return sb.String()
}

func tokenColor(t chroma.TokenType) *color.Color {
	switch {
	case t.InCategory(chroma.Keyword):
		return color.New(color.FgMagenta)
	case t.InSubCategory(chroma.LiteralString):
		return color.New(color.FgGreen)
	case t.InSubCategory(chroma.LiteralNumber):
		return color.New(color.FgCyan)
	case t.InCategory(chroma.Comment):
		return color.New(color.Faint)
	case t == chroma.NameFunction, t == chroma.NameBuiltin:
		return color.New(color.FgBlue)
	case t.InCategory(chroma.Operator):
		return color.New(color.FgYellow)
	}
	return nil
}
