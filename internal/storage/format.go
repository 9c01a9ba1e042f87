// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// SESSION LIST FORMATTING
// =============================================================================

// FormatSessionList formats sessions as a fixed-width table. Titles are
// padded and truncated by display width so CJK queries line up.
func FormatSessionList(sessions []SessionMeta) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}

	const (
		idWidth      = 8
		createdWidth = 16
		countWidth   = 7
		sourceWidth  = 6
		titleWidth   = 40
	)

	var sb strings.Builder
	header := runewidth.FillRight("ID", idWidth) + "  " +
		runewidth.FillRight("Updated", createdWidth) + "  " +
		runewidth.FillRight("Entries", countWidth) + "  " +
		runewidth.FillRight("Source", sourceWidth) + "  " +
		"Title"
	sb.WriteString(header + "\n")
	sb.WriteString(strings.Repeat("-", runewidth.StringWidth(header)+titleWidth-len("Title")) + "\n")

	for _, s := range sessions {
		id := s.ID
		if len(id) > idWidth {
			id = id[:idWidth]
		}
		count := strconv.Itoa(s.EntryCount)
		if s.Pending > 0 {
			count += "*"
		}
		title := runewidth.Truncate(s.Title, titleWidth, "...")

		sb.WriteString(runewidth.FillRight(id, idWidth) + "  " +
			runewidth.FillRight(s.UpdatedAt.Format("2006-01-02 15:04"), createdWidth) + "  " +
			runewidth.FillRight(count, countWidth) + "  " +
			runewidth.FillRight(s.Source, sourceWidth) + "  " +
			title + "\n")
	}
	return sb.String()
}
