// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the terminal chat view for sqlchat.

The Model is a Bubble Tea model around a *query.Client. Pressing Enter
appends the placeholder entry synchronously (query.Client.Begin) and then
resolves it in a tea.Cmd (query.Client.Resolve), so the transcript shows
"Generating" while the client submits and polls. The view renders from the
client's state snapshot on every frame.

# Keys

	enter        generate SQL for the input
	pgup/pgdown  scroll the transcript
	ctrl+y       copy the last answer
	ctrl+e       export the transcript to Markdown
	ctrl+l       clear the error line
	esc/ctrl+c   quit, cancelling any polling in flight

# Usage

	m := chat.New(chat.Options{Client: client, Theme: styles.NewTheme("auto")})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()

Config reloads are delivered with Model.ReloadChannel and applied between
submissions.
*/
package chat
