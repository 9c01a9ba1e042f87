// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sqlchat-tui/internal/query"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// steppingClock returns strictly increasing times so ordering by
// updated_at is deterministic.
func steppingClock() func() time.Time {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func entry(id, q, reply string, resolved bool) query.Entry {
	e := query.Entry{
		ID:        id,
		UserQuery: q,
		BotReply:  reply,
		CreatedAt: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
	}
	if resolved {
		e.ResolvedAt = e.CreatedAt.Add(8 * time.Second)
	}
	return e
}

// =============================================================================
// STORE TESTS
// =============================================================================

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := store.CreateSession(ctx, SourceTUI)
	require.NoError(t, err)

	require.NoError(t, store.SaveEntry(ctx, id, entry("e1", "show all users", query.Placeholder, false)))
	require.NoError(t, store.SaveEntry(ctx, id, entry("e2", "count orders", query.Placeholder, false)))

	sess, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "show all users", sess.Title)
	assert.Equal(t, SourceTUI, sess.Source)
	require.Len(t, sess.Entries, 2)
	assert.Equal(t, "e1", sess.Entries[0].ID)
	assert.Equal(t, "e2", sess.Entries[1].ID)
	assert.True(t, sess.Entries[0].Pending())
	assert.True(t, sess.Entries[0].CreatedAt.Equal(entry("", "", "", false).CreatedAt))
}

func TestStore_SaveEntryUpdatesReply(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := store.CreateSession(ctx, SourceAsk)
	require.NoError(t, err)

	require.NoError(t, store.SaveEntry(ctx, id, entry("e1", "show all users", query.Placeholder, false)))
	resolved := entry("e1", "show all users", "SELECT *\nFROM users", true)
	require.NoError(t, store.SaveEntry(ctx, id, resolved))

	sess, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, sess.Entries, 1, "upsert keeps one row per entry")
	assert.Equal(t, "SELECT *\nFROM users", sess.Entries[0].BotReply)
	assert.False(t, sess.Entries[0].Pending())
	assert.True(t, sess.Entries[0].ResolvedAt.Equal(resolved.ResolvedAt))
}

func TestStore_SaveEntryUnknownSession(t *testing.T) {
	store := openTestStore(t)

	err := store.SaveEntry(context.Background(), "missing", entry("e1", "q", query.Placeholder, false))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_ListOrderAndCounts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	store.now = steppingClock()

	a, _ := store.CreateSession(ctx, SourceTUI)
	b, _ := store.CreateSession(ctx, SourceChat)
	require.NoError(t, store.SaveEntry(ctx, b, entry("b1", "first", "SELECT 1", true)))
	require.NoError(t, store.SaveEntry(ctx, a, entry("a1", "second", query.Placeholder, false)))
	require.NoError(t, store.SaveEntry(ctx, a, entry("a2", "third", "SELECT 3", true)))

	metas, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, a, metas[0].ID, "most recently updated first")
	assert.Equal(t, 2, metas[0].EntryCount)
	assert.Equal(t, 1, metas[0].Pending)
	assert.Equal(t, b, metas[1].ID)
	assert.Equal(t, 0, metas[1].Pending)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_ListEmptySessionHasZeroCounts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.CreateSession(ctx, SourceTUI)
	require.NoError(t, err)

	metas, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Zero(t, metas[0].EntryCount)
	assert.Zero(t, metas[0].Pending)
}

func TestStore_PendingCountsPlaceholdersOnly(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := store.CreateSession(ctx, SourceChat)
	require.NoError(t, err)
	require.NoError(t, store.SaveEntry(ctx, id, entry("e1", "first", "SELECT 1", false)))
	require.NoError(t, store.SaveEntry(ctx, id, entry("e2", "second", query.Placeholder, false)))

	metas, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, 2, metas[0].EntryCount)
	assert.Equal(t, 1, metas[0].Pending)

	sess, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, sess.Entries[0].Pending())
	assert.True(t, sess.Entries[1].Pending())
}

func TestStore_Search(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	a, _ := store.CreateSession(ctx, SourceTUI)
	b, _ := store.CreateSession(ctx, SourceTUI)
	require.NoError(t, store.SaveEntry(ctx, a, entry("a1", "show all users", "SELECT * FROM users", true)))
	require.NoError(t, store.SaveEntry(ctx, b, entry("b1", "orders by 100% of customers", "SELECT * FROM orders", true)))

	tests := []struct {
		text string
		want []string
	}{
		{"USERS", []string{a}},
		{"from orders", []string{b}},
		{"100%", []string{b}},
		{"%", []string{b}},
		{"select", []string{a, b}},
		{"nothing here", nil},
	}
	for _, tt := range tests {
		metas, err := store.Search(ctx, tt.text)
		require.NoError(t, err)

		var ids []string
		for _, m := range metas {
			ids = append(ids, m.ID)
		}
		if tt.want == nil {
			assert.Empty(t, ids, "query %q", tt.text)
			continue
		}
		assert.ElementsMatch(t, tt.want, ids, "query %q", tt.text)
	}
}

func TestStore_ResolveIDPrefix(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := store.CreateSession(ctx, SourceTUI)
	require.NoError(t, err)

	got, err := store.ResolveID(ctx, id[:8])
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = store.ResolveID(ctx, "zzzz")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.ResolveID(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_ResolveIDAmbiguous(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, id := range []string{"abc-1", "abc-2"} {
		_, err := store.db.Exec(`INSERT INTO sessions (id, created_at, updated_at) VALUES (?, 1, 1)`, id)
		require.NoError(t, err)
	}

	_, err := store.ResolveID(ctx, "abc")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	got, err := store.ResolveID(ctx, "abc-2")
	require.NoError(t, err)
	assert.Equal(t, "abc-2", got)
}

func TestStore_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	a, _ := store.CreateSession(ctx, SourceTUI)
	b, _ := store.CreateSession(ctx, SourceTUI)
	require.NoError(t, store.SaveEntry(ctx, a, entry("a1", "q", "r", true)))

	require.NoError(t, store.Delete(ctx, a))
	_, err := store.Load(ctx, a)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	var orphans int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&orphans))
	assert.Zero(t, orphans)

	assert.ErrorIs(t, store.Delete(ctx, a), ErrSessionNotFound)

	n, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Load(ctx, b)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	store.now = steppingClock()

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := store.CreateSession(ctx, SourceAsk)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	n, err := store.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	metas, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, ids[4], metas[0].ID)
	assert.Equal(t, ids[3], metas[1].ID)
}

func TestStore_ReopenPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	id, err := store.CreateSession(ctx, SourceChat)
	require.NoError(t, err)
	require.NoError(t, store.SaveEntry(ctx, id, entry("e1", "q", "r", true)))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	sess, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, sess.Entries, 1)
}

// =============================================================================
// RECORDER TESTS
// =============================================================================

type scriptedTransport struct {
	answers []string
	calls   int
}

func (s *scriptedTransport) SubmitQuery(ctx context.Context, q string) error { return nil }

func (s *scriptedTransport) FetchResult(ctx context.Context) (string, error) {
	i := s.calls
	if i >= len(s.answers) {
		i = len(s.answers) - 1
	}
	s.calls++
	return s.answers[i], nil
}

func TestRecorder_PersistsClientHistory(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	client := query.NewClient(&scriptedTransport{answers: []string{"", `SELECT *\nFROM users`}},
		query.WithPolicy(query.RetryPolicy{MaxAttempts: 3, Interval: time.Millisecond}))
	rec := NewRecorder(store, SourceAsk, 10, zerolog.Nop())
	detach := rec.Attach(client)
	defer detach()

	assert.Empty(t, rec.SessionID(), "no session before the first entry")

	_, err := client.Submit(ctx, "show all users")
	require.NoError(t, err)

	sess, err := store.Load(ctx, rec.SessionID())
	require.NoError(t, err)
	assert.Equal(t, SourceAsk, sess.Source)
	require.Len(t, sess.Entries, 1)
	assert.Equal(t, "show all users", sess.Entries[0].UserQuery)
	assert.Equal(t, "SELECT *\nFROM users", sess.Entries[0].BotReply)
}

func TestRecorder_KeepsPlaceholderOnFailure(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	client := query.NewClient(&scriptedTransport{answers: []string{""}},
		query.WithPolicy(query.RetryPolicy{MaxAttempts: 2, Interval: time.Millisecond}))
	rec := NewRecorder(store, SourceTUI, 0, zerolog.Nop())
	rec.Attach(client)

	_, err := client.Submit(ctx, "show all users")
	require.ErrorIs(t, err, query.ErrPollingExhausted)

	sess, err := store.Load(ctx, rec.SessionID())
	require.NoError(t, err)
	require.Len(t, sess.Entries, 1)
	assert.Equal(t, query.Placeholder, sess.Entries[0].BotReply)
	assert.True(t, sess.Entries[0].Pending())
}

func TestRecorder_PrunesOnNewSession(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := store.CreateSession(ctx, SourceAsk)
		require.NoError(t, err)
	}

	rec := NewRecorder(store, SourceTUI, 2, zerolog.Nop())
	rec.Observe(query.Event{Kind: query.EventEntryAppended, Entry: entry("e1", "q", query.Placeholder, false)})

	metas, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, metas, 2)
	assert.Equal(t, rec.SessionID(), metas[0].ID)
}

// =============================================================================
// FORMAT TESTS
// =============================================================================

func TestFormatSessionList(t *testing.T) {
	assert.Equal(t, "No sessions found.", FormatSessionList(nil))

	out := FormatSessionList([]SessionMeta{
		{ID: "0123456789abcdef", Title: "show all users", Source: SourceTUI, EntryCount: 2, Pending: 1,
			UpdatedAt: time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)},
		{ID: "fedcba98", Title: strings.Repeat("表", 40), Source: SourceAsk, EntryCount: 1},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[2], "01234567  2025-03-01 12:30  2*"))
	assert.Contains(t, lines[2], "show all users")
	assert.Contains(t, lines[3], "...")
}

func TestSnapshotSession(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	history := []query.Entry{
		{ID: "a", UserQuery: "  show all users  ", BotReply: "SELECT * FROM users;", CreatedAt: t0, ResolvedAt: t0.Add(time.Second)},
		{ID: "b", UserQuery: "count them", BotReply: query.Placeholder, CreatedAt: t0.Add(time.Minute)},
	}

	sess := SnapshotSession("", SourceTUI, history)
	assert.Equal(t, "show all users", sess.Title)
	assert.Equal(t, t0, sess.CreatedAt)
	assert.Equal(t, t0.Add(time.Minute), sess.UpdatedAt)
	require.Len(t, sess.Entries, 2)

	history[0].BotReply = "changed"
	assert.Equal(t, "SELECT * FROM users;", sess.Entries[0].BotReply)

	empty := SnapshotSession("x", SourceChat, nil)
	assert.Empty(t, empty.Title)
	assert.Empty(t, empty.Entries)
}
