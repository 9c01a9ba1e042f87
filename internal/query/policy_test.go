// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 4*time.Second, p.Interval)
	assert.Equal(t, 20*time.Second, p.WorstCase())
}

func TestRetryPolicy_Do(t *testing.T) {
	tests := []struct {
		name         string
		doneAt       int
		failAt       int
		wantAttempts int
		wantSleeps   int
		wantErr      error
	}{
		{name: "done first", doneAt: 1, wantAttempts: 1, wantSleeps: 0},
		{name: "done third", doneAt: 3, wantAttempts: 3, wantSleeps: 2},
		{name: "fail second", failAt: 2, wantAttempts: 2, wantSleeps: 1, wantErr: errors.New("fail")},
		{name: "exhausted", wantAttempts: 4, wantSleeps: 4, wantErr: errAttemptsExhausted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sl := &fakeSleeper{}
			p := RetryPolicy{MaxAttempts: 4, Interval: 10 * time.Millisecond}

			attempts, err := p.Do(context.Background(), sl, func(attempt int) (bool, error) {
				if attempt == tc.failAt {
					return false, errors.New("fail")
				}
				return attempt == tc.doneAt, nil
			})

			assert.Equal(t, tc.wantAttempts, attempts)
			assert.Len(t, sl.recorded(), tc.wantSleeps)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tc.wantErr.Error(), err.Error())
			}
		})
	}
}

func TestRetryPolicy_NormalizesZeroValues(t *testing.T) {
	p := RetryPolicy{}.normalized()
	assert.Equal(t, DefaultMaxAttempts, p.MaxAttempts)
	assert.Equal(t, time.Duration(0), p.Interval)

	p = RetryPolicy{MaxAttempts: 2, Interval: -time.Second}.normalized()
	assert.Equal(t, 2, p.MaxAttempts)
	assert.Equal(t, time.Duration(0), p.Interval)
}

func TestRealSleeper_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := RealSleeper{}.Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRealSleeper_Waits(t *testing.T) {
	start := time.Now()
	require.NoError(t, RealSleeper{}.Sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
