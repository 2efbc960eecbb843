package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

// extensionRepo implements ExtensionRepository.
type extensionRepo struct {
	db *DB
}

// NewExtensionRepository creates a new ExtensionRepository.
func NewExtensionRepository(db *DB) ExtensionRepository {
	return &extensionRepo{db: db}
}

// Create inserts a new extension, generating its UUID if unset.
func (r *extensionRepo) Create(ctx context.Context, ext *models.Extension) error {
	if ext.ID == "" {
		ext.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extensions (id, domain_id, extension, name, follow_me_enabled,
		 created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
		ext.ID, ext.DomainID, ext.Extension, ext.Name, ext.FollowMeEnabled,
	)
	if err != nil {
		return fmt.Errorf("inserting extension: %w", err)
	}
	return nil
}

// GetByID returns an extension by UUID.
func (r *extensionRepo) GetByID(ctx context.Context, id string) (*models.Extension, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, extension, name, follow_me_enabled, created_at, updated_at
		 FROM extensions WHERE id = ?`, id,
	))
}

// GetByNumber returns an extension by its dialable number within a domain.
func (r *extensionRepo) GetByNumber(ctx context.Context, domainID, number string) (*models.Extension, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, extension, name, follow_me_enabled, created_at, updated_at
		 FROM extensions WHERE domain_id = ? AND extension = ?`, domainID, number,
	))
}

// Update modifies an existing extension.
func (r *extensionRepo) Update(ctx context.Context, ext *models.Extension) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE extensions SET extension = ?, name = ?, follow_me_enabled = ?,
		 updated_at = datetime('now')
		 WHERE id = ?`,
		ext.Extension, ext.Name, ext.FollowMeEnabled, ext.ID,
	)
	if err != nil {
		return fmt.Errorf("updating extension: %w", err)
	}
	return nil
}

func (r *extensionRepo) scanOne(row *sql.Row) (*models.Extension, error) {
	var e models.Extension
	err := row.Scan(&e.ID, &e.DomainID, &e.Extension, &e.Name, &e.FollowMeEnabled,
		&e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning extension: %w", err)
	}
	return &e, nil
}
