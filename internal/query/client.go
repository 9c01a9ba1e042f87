// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// TRANSPORT
// =============================================================================

// Transport reaches the SQL generation service.
type Transport interface {
	// SubmitQuery asks the service to start working on query.
	SubmitQuery(ctx context.Context, query string) error

	// FetchResult returns the service's latest answer, which may be stale.
	FetchResult(ctx context.Context) (string, error)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client owns the conversation history and runs submissions against a
// Transport. It is safe for concurrent use, but only one submission may be
// in flight at a time.
type Client struct {
	transport Transport
	sleeper   Sleeper
	logger    zerolog.Logger
	newID     func() string
	now       func() time.Time

	mu         sync.Mutex
	policy     RetryPolicy
	history    []Entry
	loading    bool
	errMsg     string
	lastAnswer string
	pendingID  string

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int
}

// Option configures a Client.
type Option func(*Client)

// WithPolicy sets the polling policy.
func WithPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.policy = p.normalized() }
}

// WithSleeper replaces the wall-clock sleeper.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleeper = s }
}

// WithLogger sets the logger used for submission and polling diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithIDGenerator replaces the UUID generator for entry IDs.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// WithClock replaces time.Now for entry timestamps.
func WithClock(fn func() time.Time) Option {
	return func(c *Client) { c.now = fn }
}

// NewClient creates a client with the default retry policy.
func NewClient(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		sleeper:   RealSleeper{},
		logger:    zerolog.Nop(),
		newID:     uuid.NewString,
		now:       time.Now,
		policy:    DefaultRetryPolicy(),
		history:   make([]Entry, 0),
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPolicy replaces the polling policy. A submission already in flight keeps
// the policy it started with.
func (c *Client) SetPolicy(p RetryPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = p.normalized()
}

// Policy returns the current polling policy.
func (c *Client) Policy() RetryPolicy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policy
}

// Snapshot returns a copy of the current state.
func (c *Client) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Client) snapshotLocked() State {
	history := make([]Entry, len(c.history))
	copy(history, c.history)
	return State{
		History:    history,
		Loading:    c.loading,
		Error:      c.errMsg,
		LastAnswer: c.lastAnswer,
	}
}

// Loading reports whether a submission is in flight.
func (c *Client) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ClearError drops the user-visible error message.
func (c *Client) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
}

// Subscribe registers an observer and returns a function that removes it.
func (c *Client) Subscribe(fn Observer) func() {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()

	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn

	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()
		delete(c.observers, id)
	}
}

func (c *Client) notify(ev Event) {
	c.obsMu.Lock()
	observers := make([]Observer, 0, len(c.observers))
	for id := 0; id < c.nextObsID; id++ {
		if fn, ok := c.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	c.obsMu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit appends an entry for query and resolves it. See Begin and Resolve.
func (c *Client) Submit(ctx context.Context, query string) (*Result, error) {
	entry, err := c.Begin(query)
	if err != nil {
		return nil, err
	}
	return c.Resolve(ctx, entry.ID)
}

// Begin validates query and appends a placeholder entry for it.
// Whitespace-only queries are ignored with ErrEmptyQuery, and a second call
// while a submission is in flight fails with ErrSubmissionInFlight. Neither
// case touches the history.
func (c *Client) Begin(query string) (Entry, error) {
	if strings.TrimSpace(query) == "" {
		return Entry{}, ErrEmptyQuery
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return Entry{}, ErrSubmissionInFlight
	}

	entry := Entry{
		ID:        c.newID(),
		UserQuery: query,
		BotReply:  Placeholder,
		CreatedAt: c.now(),
	}
	c.history = append(c.history, entry)
	c.loading = true
	c.errMsg = ""
	c.pendingID = entry.ID
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug().Str("entry_id", entry.ID).Str("query", query).Msg("query submitted")
	c.notify(Event{Kind: EventEntryAppended, Entry: entry, State: state})
	return entry, nil
}

// Resolve sends the pending entry's query to the service and polls for a new
// answer. A failed submission request is logged and recorded but does not
// stop polling. Polling stops at the first answer that differs from the last
// accepted one, at the first failed result request, when ctx is cancelled,
// or when the retry policy runs out. Loading is cleared on every path.
func (c *Client) Resolve(ctx context.Context, id string) (*Result, error) {
	c.mu.Lock()
	if !c.loading || c.pendingID != id {
		c.mu.Unlock()
		return nil, ErrNotPending
	}
	idx := c.indexLocked(id)
	query := c.history[idx].UserQuery
	policy := c.policy
	baseline := c.lastAnswer
	c.mu.Unlock()

	log := c.logger.With().Str("entry_id", id).Logger()
	res := &Result{EntryID: id, Query: query}

	if err := c.transport.SubmitQuery(ctx, query); err != nil {
		log.Error().Err(err).Msg("error sending query to backend")
		res.SubmitErr = &Error{Kind: KindSubmissionTransport, Message: ErrSubmissionTransport.Message, Cause: err}

		c.mu.Lock()
		c.errMsg = submitFailedMessage
		entry := c.history[idx]
		state := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(Event{Kind: EventSubmitFailed, Entry: entry, State: state, Err: res.SubmitErr})
	}

	var answer string
	attempts, err := policy.Do(ctx, c.sleeper, func(attempt int) (bool, error) {
		got, err := c.transport.FetchResult(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			return false, &Error{Kind: KindResultTransport, Message: ErrResultTransport.Message, Cause: err}
		}
		log.Debug().Int("attempt", attempt).Bool("changed", got != baseline).Msg("polled result")
		if got != baseline {
			answer = got
			return true, nil
		}
		return false, nil
	})
	res.Attempts = attempts

	if err != nil {
		err = classifyPollError(err)
		log.Warn().Err(err).Int("attempts", attempts).Msg("no answer for query")
		c.fail(idx, err)
		return res, err
	}

	res.Answer = NormalizeAnswer(answer)
	log.Info().Int("attempts", attempts).Msg("answer accepted")
	c.accept(idx, res.Answer)
	return res, nil
}

// classifyPollError maps loop termination reasons onto query errors.
func classifyPollError(err error) error {
	var qe *Error
	switch {
	case errors.As(err, &qe):
		return qe
	case errors.Is(err, errAttemptsExhausted):
		return &Error{Kind: KindPollingExhausted, Message: ErrPollingExhausted.Message}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindCancelled, Message: ErrCancelled.Message, Cause: err}
	default:
		return &Error{Kind: KindUnknown, Message: err.Error()}
	}
}

func (c *Client) accept(idx int, answer string) {
	c.mu.Lock()
	c.history[idx].BotReply = answer
	c.history[idx].ResolvedAt = c.now()
	c.lastAnswer = answer
	c.loading = false
	c.pendingID = ""
	entry := c.history[idx]
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(Event{Kind: EventAnswerAccepted, Entry: entry, State: state})
	c.notify(Event{Kind: EventSettled, Entry: entry, State: state})
}

func (c *Client) fail(idx int, err error) {
	c.mu.Lock()
	c.errMsg = userMessage(err)
	c.loading = false
	c.pendingID = ""
	entry := c.history[idx]
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(Event{Kind: EventFailed, Entry: entry, State: state, Err: err})
	c.notify(Event{Kind: EventSettled, Entry: entry, State: state, Err: err})
}

// indexLocked finds an entry by ID. The caller holds c.mu and has checked
// that id is the pending entry, which is always present.
func (c *Client) indexLocked(id string) int {
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].ID == id {
			return i
		}
	}
	return -1
}
