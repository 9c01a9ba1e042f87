// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/storage"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports sessions to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a session to Markdown. Answers go in sql fences; entries
// still waiting for an answer show the placeholder in italics.
func (e *MarkdownExporter) Export(sess *storage.Session) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}
	if len(sess.Entries) == 0 {
		return nil, fmt.Errorf("session has no entries")
	}

	title := sess.Title
	if title == "" {
		title = "SQL chat session"
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(title))
		fmt.Fprintf(&sb, "session: %s\n", sess.ID)
		fmt.Fprintf(&sb, "source: %s\n", sess.Source)
		if !sess.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "date: %s\n", sess.CreatedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(&sb, "entries: %d\n", len(sess.Entries))
		fmt.Fprintf(&sb, "exported: %s\n", e.options.now().Format(time.RFC3339))
		sb.WriteString("generator: sqlchat\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	for i, entry := range sess.Entries {
		if e.options.IncludeTimestamps && !entry.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "### Query %d <sub>%s</sub>\n\n", i+1, entry.CreatedAt.Format("15:04:05"))
		} else {
			fmt.Fprintf(&sb, "### Query %d\n\n", i+1)
		}

		for _, line := range strings.Split(entry.UserQuery, "\n") {
			sb.WriteString("> " + line + "\n")
		}
		sb.WriteString("\n")

		if entry.Pending() {
			fmt.Fprintf(&sb, "*%s*\n\n", query.Placeholder)
		} else {
			sb.WriteString(fencedSQL(entry.BotReply))
			sb.WriteString("\n")
		}

		if i < len(sess.Entries)-1 {
			sb.WriteString("---\n\n")
		}
	}

	fmt.Fprintf(&sb, "\n*Exported from sqlchat on %s*\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// fencedSQL wraps s in a sql code fence longer than any backtick run in s.
func fencedSQL(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", max(3, longest+1))
	return fence + "sql\n" + strings.TrimRight(s, "\n") + "\n" + fence + "\n"
}

// escapeMarkdown escapes characters that would break formatting in headings.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("#", "\\#", "*", "\\*", "_", "\\_", "[", "\\[", "]", "\\]")
	return r.Replace(s)
}

// escapeYAML quotes values containing YAML special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
