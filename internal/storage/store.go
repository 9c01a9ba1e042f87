// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// Session sources.
const (
	SourceTUI  = "tui"
	SourceChat = "chat"
	SourceAsk  = "ask"
)

// titleRunes bounds the session title taken from the first query.
const titleRunes = 60

// Session is a stored transcript.
type Session struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Source    string        `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Entries   []query.Entry `json:"entries"`
}

// SessionMeta contains metadata for listing sessions.
type SessionMeta struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	EntryCount int       `json:"entry_count"`
	Pending    int       `json:"pending"`
}

// =============================================================================
// ERRORS
// =============================================================================

// StoreError represents a lookup failure. It compares by Message with
// errors.Is, so wrapped instances carrying an ID still match the sentinels.
type StoreError struct {
	Message string
	ID      string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return e.Message + ": " + e.ID
	}
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrSessionNotFound is returned when no session matches an ID.
	ErrSessionNotFound = &StoreError{Message: "session not found"}

	// ErrAmbiguousID is returned when an ID prefix matches several sessions.
	ErrAmbiguousID = &StoreError{Message: "session id is ambiguous"}
)

// =============================================================================
// STORE
// =============================================================================

// Store persists sessions in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// CreateSession inserts an empty session and returns its ID.
func (s *Store) CreateSession(ctx context.Context, source string) (string, error) {
	id := uuid.NewString()
	now := s.now().UnixNano()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, source, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, source, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// SaveEntry inserts entry into the session, or updates its reply and
// resolution time if it is already stored. New entries are appended after
// the session's last entry. The session title is set from the first query.
func (s *Store) SaveEntry(ctx context.Context, sessionID string, entry query.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return &StoreError{Message: ErrSessionNotFound.Message, ID: sessionID}
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (id, session_id, seq, user_query, bot_reply, created_at, resolved_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM entries WHERE session_id = ?), ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			bot_reply = excluded.bot_reply,
			resolved_at = excluded.resolved_at
	`, entry.ID, sessionID, sessionID, entry.UserQuery, entry.BotReply,
		toNanos(entry.CreatedAt), toNanos(entry.ResolvedAt))
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}

	title := TitleFor(entry.UserQuery)
	_, err = tx.ExecContext(ctx, `
		UPDATE sessions
		SET updated_at = ?, title = CASE WHEN title = '' THEN ? ELSE title END
		WHERE id = ?
	`, s.now().UnixNano(), title, sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return tx.Commit()
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

const metaSelect = `
	SELECT s.id, s.title, s.source, s.created_at, s.updated_at,
		COUNT(e.id),
		COALESCE(SUM(CASE WHEN e.id IS NOT NULL AND e.resolved_at = 0
			AND e.bot_reply = '` + query.Placeholder + `' THEN 1 ELSE 0 END), 0)
	FROM sessions s
	LEFT JOIN entries e ON e.session_id = s.id
`

// List returns sessions, most recently updated first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]SessionMeta, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		metaSelect+` GROUP BY s.id ORDER BY s.updated_at DESC, s.id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanMetas(rows)
}

// Search returns sessions with an entry whose query or reply contains text,
// case-insensitively for ASCII.
func (s *Store) Search(ctx context.Context, text string) ([]SessionMeta, error) {
	pattern := "%" + escapeLike(text) + "%"
	rows, err := s.db.QueryContext(ctx, metaSelect+`
		WHERE s.id IN (
			SELECT session_id FROM entries
			WHERE user_query LIKE ? ESCAPE '\' OR bot_reply LIKE ? ESCAPE '\'
		)
		GROUP BY s.id ORDER BY s.updated_at DESC, s.id`, pattern, pattern)
	if err != nil {
		return nil, err
	}
	return scanMetas(rows)
}

// ResolveID expands a unique ID prefix to a full session ID.
func (s *Store) ResolveID(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", ErrSessionNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sessions WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
		prefix, escapeLike(prefix)+"%")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		if id == prefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", &StoreError{Message: ErrSessionNotFound.Message, ID: prefix}
	case 1:
		return ids[0], nil
	default:
		return "", &StoreError{Message: ErrAmbiguousID.Message, ID: prefix}
	}
}

// Load returns a session and its entries in order. id may be a unique prefix.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	fullID, err := s.ResolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	sess := &Session{ID: fullID, Entries: []query.Entry{}}
	var created, updated int64
	err = s.db.QueryRowContext(ctx,
		`SELECT title, source, created_at, updated_at FROM sessions WHERE id = ?`, fullID,
	).Scan(&sess.Title, &sess.Source, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &StoreError{Message: ErrSessionNotFound.Message, ID: id}
	}
	if err != nil {
		return nil, err
	}
	sess.CreatedAt = fromNanos(created)
	sess.UpdatedAt = fromNanos(updated)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_query, bot_reply, created_at, resolved_at
		FROM entries WHERE session_id = ? ORDER BY seq`, fullID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e query.Entry
		var c, r int64
		if err := rows.Scan(&e.ID, &e.UserQuery, &e.BotReply, &c, &r); err != nil {
			return nil, err
		}
		e.CreatedAt = fromNanos(c)
		e.ResolvedAt = fromNanos(r)
		sess.Entries = append(sess.Entries, e)
	}
	return sess, rows.Err()
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a session and its entries. id may be a unique prefix.
func (s *Store) Delete(ctx context.Context, id string) error {
	fullID, err := s.ResolveID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE session_id = ?`, fullID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, fullID); err != nil {
		return err
	}
	return tx.Commit()
}

// Clear removes every session and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

// Prune keeps the max most recently updated sessions and deletes the rest.
// max <= 0 keeps everything.
func (s *Store) Prune(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const stale = `SELECT id FROM sessions ORDER BY updated_at DESC, id LIMIT -1 OFFSET ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE session_id IN (`+stale+`)`, max); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id IN (`+stale+`)`, max)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func scanMetas(rows *sql.Rows) ([]SessionMeta, error) {
	defer rows.Close()

	metas := []SessionMeta{}
	for rows.Next() {
		var m SessionMeta
		var created, updated int64
		if err := rows.Scan(&m.ID, &m.Title, &m.Source, &created, &updated, &m.EntryCount, &m.Pending); err != nil {
			return nil, err
		}
		m.CreatedAt = fromNanos(created)
		m.UpdatedAt = fromNanos(updated)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// TitleFor derives a session title from a query.
func TitleFor(q string) string {
	return util.TruncateRunes(strings.TrimSpace(q), titleRunes)
}

// SnapshotSession builds an unsaved Session from in-memory history, for
// exporting a transcript that was never persisted.
func SnapshotSession(id, source string, history []query.Entry) *Session {
	sess := &Session{
		ID:      id,
		Source:  source,
		Entries: append([]query.Entry(nil), history...),
	}
	if len(history) > 0 {
		sess.Title = TitleFor(history[0].UserQuery)
		sess.CreatedAt = history[0].CreatedAt
		sess.UpdatedAt = history[len(history)-1].CreatedAt
		if last := history[len(history)-1].ResolvedAt; last.After(sess.UpdatedAt) {
			sess.UpdatedAt = last
		}
	}
	return sess
}
