// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package query

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// RETRY POLICY
// =============================================================================

const (
	// DefaultMaxAttempts is the number of result polls per submission.
	DefaultMaxAttempts = 5

	// DefaultInterval is the wait after each poll that returned no new answer.
	DefaultInterval = 4000 * time.Millisecond
)

// errAttemptsExhausted is returned by RetryPolicy.Do when no attempt finished.
var errAttemptsExhausted = errors.New("attempts exhausted")

// RetryPolicy bounds a polling loop: at most MaxAttempts attempts, with a
// fixed Interval wait after every attempt that did not finish the loop.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultRetryPolicy returns five attempts, four seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
	}
}

// normalized fills zero or negative fields with defaults.
func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Interval < 0 {
		p.Interval = 0
	}
	return p
}

// WorstCase returns the longest time the loop can spend waiting.
func (p RetryPolicy) WorstCase() time.Duration {
	p = p.normalized()
	return time.Duration(p.MaxAttempts) * p.Interval
}

// Do runs fn until it reports done, returns an error, or the attempts run out.
// Attempts are numbered from 1. After each attempt that is neither done nor
// failed, Do sleeps for the interval, including after the final attempt.
// It returns the number of attempts made and errAttemptsExhausted when fn
// never finished.
func (p RetryPolicy) Do(ctx context.Context, sleeper Sleeper, fn func(attempt int) (done bool, err error)) (int, error) {
	p = p.normalized()
	if sleeper == nil {
		sleeper = RealSleeper{}
	}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		done, err := fn(attempt)
		if err != nil {
			return attempt, err
		}
		if done {
			return attempt, nil
		}
		if err := sleeper.Sleep(ctx, p.Interval); err != nil {
			return attempt, err
		}
	}
	return p.MaxAttempts, errAttemptsExhausted
}

// =============================================================================
// SLEEPER
// =============================================================================

// Sleeper waits between polling attempts. Tests substitute a fake clock.
type Sleeper interface {
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in that case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper sleeps on the wall clock.
type RealSleeper struct{}

// Sleep implements Sleeper.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
