// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the renderers the chat view is built from.

# Display Components

Header (header.go) - Title bar with the backend address.
StatusBar (statusbar.go) - Bottom bar with status, session counters and shortcuts.
EntryView (message.go) - One transcript entry: the query bubble and its answer.
CodeBlock (codeblock.go) - SQL answers highlighted with Chroma.

# Theme Integration

All components take a *styles.Theme:

	theme := styles.NewTheme("auto")
	header := components.NewHeader(theme)
	header.SetWidth(80)
	view := header.View()

Components are plain renderers. State lives in the chat model, which calls
View on every frame.
*/
package components
