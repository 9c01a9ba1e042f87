// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package query

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeTransport replays scripted result responses and records every call.
type fakeTransport struct {
	mu sync.Mutex

	submitErr error
	results   []fakeResult

	submitted  []string
	fetchCalls int
	onFetch    func(call int)
}

type fakeResult struct {
	answer string
	err    error
}

func (f *fakeTransport) SubmitQuery(ctx context.Context, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, query)
	return f.submitErr
}

func (f *fakeTransport) FetchResult(ctx context.Context) (string, error) {
	f.mu.Lock()
	f.fetchCalls++
	call := f.fetchCalls
	var r fakeResult
	switch {
	case len(f.results) == 0:
		r = fakeResult{err: errors.New("no scripted result")}
	case call <= len(f.results):
		r = f.results[call-1]
	default:
		r = f.results[len(f.results)-1]
	}
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return r.answer, r.err
}

func (f *fakeTransport) calls() (submitted []string, fetches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...), f.fetchCalls
}

// fakeSleeper records requested waits without blocking.
type fakeSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *fakeSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func answers(values ...string) []fakeResult {
	out := make([]fakeResult, len(values))
	for i, v := range values {
		out[i] = fakeResult{answer: v}
	}
	return out
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "entry-" + string(rune('0'+n))
	}
}
