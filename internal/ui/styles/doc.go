// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the sqlchat TUI.

# Color System (colors.go)

All colors are Lip Gloss AdaptiveColor values with a light and a dark
variant:

	Purple, Cyan, Emerald, Amber, Rose  - accents and semantic states
	UserBubble*, AnswerBubble*          - transcript bubbles
	Surface, SurfaceDim, Overlay        - layered backgrounds
	TextPrimary, TextSecondary, TextMuted

# Theme System (theme.go)

NewTheme resolves a theme name ("auto", "dark" or "light") against the
terminal. Auto asks termenv whether the background is dark; the explicit
names force the choice so adaptive colors resolve the same way everywhere.

	theme := styles.NewTheme("auto")
	header := theme.Header.Render("SQL Based Chatbot")

The theme also names the chroma style used for SQL highlighting.
*/
package styles
