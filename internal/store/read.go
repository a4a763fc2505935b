package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/edc/internal/session"
)

// SessionInfo summarizes one recorded session.
type SessionInfo struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Notices   int64     `json:"notices"`
}

// Sessions lists sessions newest first. A limit of 0 means no limit.
//
// Returns an empty slice (not nil) when nothing is recorded.
func (s *Store) Sessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.started_at, COUNT(n.id)
		FROM sessions s
		LEFT JOIN notices n ON n.session_id = s.id
		GROUP BY s.id
		ORDER BY s.id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []SessionInfo{}
	for rows.Next() {
		var (
			info    SessionInfo
			started string
		)
		if err := rows.Scan(&info.ID, &started, &info.Notices); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if info.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("session %s: bad started_at %q: %w", info.ID, started, err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// LatestSession returns the id of the newest session, or "" if none.
func (s *Store) LatestSession(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM sessions ORDER BY id COLLATE BINARY DESC LIMIT 1
	`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest session: %w", err)
	}
	return id, nil
}

// NoticeQuery filters Notices. Zero fields do not filter.
type NoticeQuery struct {
	SessionID string
	Kind      string
	// Contains matches a case-insensitive substring of the text.
	Contains string
	// Limit keeps the newest matching notices, still returned oldest first.
	Limit int
}

// Notices returns matching notices in insertion order.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Notices(ctx context.Context, q NoticeQuery) ([]session.Notice, error) {
	var (
		where []string
		args  []any
	)
	if q.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, q.SessionID)
	}
	if q.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, q.Kind)
	}
	if q.Contains != "" {
		where = append(where, "instr(lower(text), lower(?)) > 0")
		args = append(args, q.Contains)
	}

	query := "SELECT id, seq, at, kind, source, text FROM notices"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notices: %w", err)
	}
	defer rows.Close()

	out := []session.Notice{}
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notices: %w", err)
	}

	// Newest first so LIMIT keeps the tail; flip to oldest first.
	slices.Reverse(out)
	return out, nil
}

func scanNotice(rows *sql.Rows) (session.Notice, error) {
	var (
		n      session.Notice
		id     int64
		at     string
		source string
	)
	if err := rows.Scan(&id, &n.Seq, &at, &n.Kind, &source, &n.Text); err != nil {
		return session.Notice{}, fmt.Errorf("scan notice: %w", err)
	}
	t, err := time.Parse(timeLayout, at)
	if err != nil {
		return session.Notice{}, fmt.Errorf("notice %d: bad timestamp %q: %w", id, at, err)
	}
	n.At = t
	n.Source = session.Source(source)
	return n, nil
}
