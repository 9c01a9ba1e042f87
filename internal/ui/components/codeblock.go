// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock renders an answer verbatim, optionally highlighted as SQL.
type CodeBlock struct {
	Code        string
	MaxWidth    int
	Highlight   bool
	LineNumbers bool

	// ChromaStyle names the chroma style; empty means monokai.
	ChromaStyle string
}

// NewCodeBlock creates a highlighted code block without line numbers.
func NewCodeBlock(code string) CodeBlock {
	return CodeBlock{
		Code:      code,
		MaxWidth:  80,
		Highlight: true,
	}
}

// Render renders the code block. Line breaks in Code are preserved.
func (c CodeBlock) Render() string {
	code := strings.TrimRight(c.Code, "\n")
	if c.Highlight {
		code = HighlightSQL(code, c.ChromaStyle)
	}

	lines := strings.Split(code, "\n")
	if c.LineNumbers && len(lines) > 1 {
		lineNumStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Width(4).
			Align(lipgloss.Right).
			MarginRight(1)
		for i, line := range lines {
			lines[i] = lineNumStyle.Render(strconv.Itoa(i+1)) + line
		}
	}

	maxWidth := c.MaxWidth
	if maxWidth < 20 {
		maxWidth = 20
	}
	out := strings.Join(lines, "\n")
	if lipgloss.Width(out) <= maxWidth {
		return out
	}
	return lipgloss.NewStyle().MaxWidth(maxWidth).Render(out)
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// HighlightSQL applies SQL syntax highlighting for a 256-color terminal.
// It returns code unchanged when highlighting fails.
func HighlightSQL(code, style string) string {
	lexer := lexers.Get("sql")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	if style == "" {
		style = "monokai"
	}
	chromaStyle := chromaStyles.Get(style)
	if chromaStyle == nil {
		chromaStyle = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, chromaStyle, iterator); err != nil {
		return code
	}

	// Some lexers force a trailing newline; keep the line count stable.
	out := buf.String()
	if extra := strings.Count(out, "\n") - strings.Count(code, "\n"); extra > 0 {
		if i := strings.LastIndex(out, "\n"); i >= 0 {
			out = out[:i] + out[i+1:]
		}
	}
	return out
}
