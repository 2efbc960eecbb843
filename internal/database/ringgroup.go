package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

// ringGroupRepo implements RingGroupRepository.
type ringGroupRepo struct {
	db *DB
}

// NewRingGroupRepository creates a new RingGroupRepository.
func NewRingGroupRepository(db *DB) RingGroupRepository {
	return &ringGroupRepo{db: db}
}

// Create inserts a new ring group, generating its UUID if unset.
func (r *ringGroupRepo) Create(ctx context.Context, rg *models.RingGroup) error {
	if rg.ID == "" {
		rg.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ring_groups (id, domain_id, name, extension, strategy, members,
		 ring_timeout, timeout_app, timeout_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
		rg.ID, rg.DomainID, rg.Name, rg.Extension, rg.Strategy, rg.Members,
		rg.RingTimeout, rg.TimeoutApp, rg.TimeoutData,
	)
	if err != nil {
		return fmt.Errorf("inserting ring group: %w", err)
	}
	return nil
}

// GetByID returns a ring group by UUID.
func (r *ringGroupRepo) GetByID(ctx context.Context, id string) (*models.RingGroup, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, name, extension, strategy, members, ring_timeout,
		 timeout_app, timeout_data, created_at, updated_at
		 FROM ring_groups WHERE id = ?`, id,
	)

	var rg models.RingGroup
	err := row.Scan(&rg.ID, &rg.DomainID, &rg.Name, &rg.Extension, &rg.Strategy,
		&rg.Members, &rg.RingTimeout, &rg.TimeoutApp, &rg.TimeoutData,
		&rg.CreatedAt, &rg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning ring group: %w", err)
	}
	return &rg, nil
}
