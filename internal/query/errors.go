// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package query

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes query errors.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindEmptyQuery
	KindSubmissionInFlight
	KindNotPending
	KindSubmissionTransport
	KindResultTransport
	KindPollingExhausted
	KindCancelled
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindEmptyQuery:
		return "EmptyQuery"
	case KindSubmissionInFlight:
		return "SubmissionInFlight"
	case KindNotPending:
		return "NotPending"
	case KindSubmissionTransport:
		return "SubmissionTransportError"
	case KindResultTransport:
		return "ResultTransportError"
	case KindPollingExhausted:
		return "PollingExhausted"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is returned by Client operations.
// Two errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support by comparing kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for errors.Is checks.
var (
	ErrEmptyQuery          = &Error{Kind: KindEmptyQuery, Message: "query is empty"}
	ErrSubmissionInFlight  = &Error{Kind: KindSubmissionInFlight, Message: "a query is already being processed"}
	ErrNotPending          = &Error{Kind: KindNotPending, Message: "entry is not awaiting an answer"}
	ErrSubmissionTransport = &Error{Kind: KindSubmissionTransport, Message: "Network response was not ok"}
	ErrResultTransport     = &Error{Kind: KindResultTransport, Message: "Failed to fetch SQL query"}
	ErrPollingExhausted    = &Error{Kind: KindPollingExhausted, Message: "No new answer received after multiple attempts"}
	ErrCancelled           = &Error{Kind: KindCancelled, Message: "Query cancelled"}
)

// User-visible messages. Every failure collapses into one of these strings.
const (
	submitFailedMessage = "An error occurred while sending the query to the backend."
	processFailedPrefix = "An error occurred while processing your query: "
)

// userMessage renders a fatal error the way the transcript shows it.
func userMessage(err error) string {
	if qe, ok := err.(*Error); ok {
		return processFailedPrefix + qe.Message
	}
	return processFailedPrefix + err.Error()
}
