// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package query

import (
	"strings"
	"time"
)

// Placeholder is the reply shown while an answer is pending. An entry whose
// answer never arrives keeps it permanently.
const Placeholder = "Generating"

// Entry is one user query and the service's reply to it.
type Entry struct {
	ID         string    `json:"id"`
	UserQuery  string    `json:"user_query"`
	BotReply   string    `json:"bot_reply"`
	CreatedAt  time.Time `json:"created_at"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}

// Pending reports whether the entry is still waiting for its answer: it
// shows the placeholder and was never resolved.
func (e Entry) Pending() bool {
	return e.BotReply == Placeholder && e.ResolvedAt.IsZero()
}

// State is a point-in-time copy of everything a view needs to render.
type State struct {
	History    []Entry
	Loading    bool
	Error      string
	LastAnswer string
}

// Last returns the most recent entry, if any.
func (s State) Last() (Entry, bool) {
	if len(s.History) == 0 {
		return Entry{}, false
	}
	return s.History[len(s.History)-1], true
}

// Result describes how a resolved submission went.
type Result struct {
	EntryID  string
	Query    string
	Answer   string
	Attempts int

	// SubmitErr is set when the submission request failed. Polling still
	// ran, so a Result can carry both a SubmitErr and an Answer.
	SubmitErr error
}

// NormalizeAnswer turns the two-character sequence `\n` into a newline.
// The service escapes newlines in generated SQL this way.
func NormalizeAnswer(answer string) string {
	return strings.ReplaceAll(answer, `\n`, "\n")
}
