// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package query

// EventKind identifies what changed in a Client.
type EventKind int

const (
	// EventEntryAppended fires when Begin adds a placeholder entry.
	EventEntryAppended EventKind = iota
	// EventSubmitFailed fires when the submission request fails. Polling continues.
	EventSubmitFailed
	// EventAnswerAccepted fires when an entry receives its answer.
	EventAnswerAccepted
	// EventFailed fires when polling ends without an answer.
	EventFailed
	// EventSettled fires last for every resolved submission.
	EventSettled
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventEntryAppended:
		return "entry_appended"
	case EventSubmitFailed:
		return "submit_failed"
	case EventAnswerAccepted:
		return "answer_accepted"
	case EventFailed:
		return "failed"
	case EventSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after the client state has changed.
type Event struct {
	Kind  EventKind
	Entry Entry
	State State
	Err   error
}

// Observer receives client events. It runs on the goroutine that caused the
// change and must not call back into Begin or Resolve.
type Observer func(Event)
