package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/edc/internal/session"
)

const timeLayout = time.RFC3339Nano

// BeginSession registers a session. Uses ON CONFLICT(id) DO NOTHING, so a
// resumed session keeps its original start time.
func (s *Store) BeginSession(ctx context.Context, id string, started time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, started.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// RecordNotice appends one notice to a session.
//
// Note: the session must exist (foreign key constraint).
func (s *Store) RecordNotice(ctx context.Context, sessionID string, n session.Notice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notices (session_id, seq, at, kind, source, text)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		sessionID,
		n.Seq,
		n.At.UTC().Format(timeLayout),
		n.Kind,
		string(n.Source),
		n.Text,
	)
	if err != nil {
		return fmt.Errorf("record notice: %w", err)
	}
	return nil
}

// Prune deletes all but the newest keep sessions, with their notices.
// Returns the number of sessions removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE id NOT IN (
			SELECT id FROM sessions ORDER BY id COLLATE BINARY DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}

// compile-time check: *Store can back a session runner.
var _ session.History = (*Store)(nil)
