package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

// callBlockRepo implements CallBlockRepository.
type callBlockRepo struct {
	db *DB
}

// NewCallBlockRepository creates a new CallBlockRepository.
func NewCallBlockRepository(db *DB) CallBlockRepository {
	return &callBlockRepo{db: db}
}

// Create inserts a new call block rule, generating its UUID if unset.
func (r *callBlockRepo) Create(ctx context.Context, cb *models.CallBlock) error {
	if cb.ID == "" {
		cb.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO call_blocks (id, domain_id, name, number, data, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, datetime('now'))`,
		cb.ID, cb.DomainID, cb.Name, cb.Number, cb.Data, cb.Enabled,
	)
	if err != nil {
		return fmt.Errorf("inserting call block: %w", err)
	}
	return nil
}

// FindMatch returns the first enabled rule for the domain matching the
// caller's name or number. A rule with an empty name (or number) matches
// any name (or number), but a rule must name at least one of the two.
func (r *callBlockRepo) FindMatch(ctx context.Context, domainID, callerName, callerNumber string) (*models.CallBlock, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, name, number, data, enabled, created_at
		 FROM call_blocks
		 WHERE domain_id = ? AND enabled = 1
		   AND (name = ? OR name = '')
		   AND (number = ? OR number = '')
		   AND NOT (name = '' AND number = '')
		 ORDER BY created_at
		 LIMIT 1`,
		domainID, callerName, callerNumber,
	)

	var cb models.CallBlock
	err := row.Scan(&cb.ID, &cb.DomainID, &cb.Name, &cb.Number, &cb.Data,
		&cb.Enabled, &cb.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning call block: %w", err)
	}
	return &cb, nil
}
