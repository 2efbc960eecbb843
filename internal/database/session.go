package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pbxgate/pbxgate/internal/database/models"
)

// callSessionRepo implements CallSessionRepository.
type callSessionRepo struct {
	db *DB
}

// NewCallSessionRepository creates a new CallSessionRepository.
func NewCallSessionRepository(db *DB) CallSessionRepository {
	return &callSessionRepo{db: db}
}

// Load returns the session for the given call key, creating an empty one
// on first reference. Consecutive events for the same call may arrive on
// different connections; the session row is the only shared state.
func (r *callSessionRepo) Load(ctx context.Context, id string) (*models.CallSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, data, created_at, updated_at FROM sessions WHERE id = ?`, id,
	)

	var (
		sess models.CallSession
		raw  string
	)
	err := row.Scan(&sess.ID, &raw, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		sess = models.CallSession{ID: id, Data: make(map[string]json.RawMessage)}
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO sessions (id, data, created_at, updated_at)
			 VALUES (?, '{}', datetime('now'), datetime('now'))
			 ON CONFLICT (id) DO NOTHING`, id,
		); err != nil {
			return nil, fmt.Errorf("creating session: %w", err)
		}
		return &sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &sess.Data); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	if sess.Data == nil {
		sess.Data = make(map[string]json.RawMessage)
	}
	return &sess, nil
}

// Save persists the session blob.
func (r *callSessionRepo) Save(ctx context.Context, sess *models.CallSession) error {
	raw, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE sessions SET data = ?, updated_at = datetime('now') WHERE id = ?`,
		string(raw), sess.ID,
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", sess.ID, err)
	}
	return nil
}

// Prune deletes sessions not touched within the retention window. Call
// legs end with an exiting event, but the switch gives no guarantee it
// arrives, so stale rows are collected by age instead.
func (r *callSessionRepo) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at < datetime('now', ?)`,
		fmt.Sprintf("-%d seconds", int64(olderThan.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return res.RowsAffected()
}
