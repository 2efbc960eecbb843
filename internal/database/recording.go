package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

// recordingRepo implements RecordingRepository.
type recordingRepo struct {
	db *DB
}

// NewRecordingRepository creates a new RecordingRepository.
func NewRecordingRepository(db *DB) RecordingRepository {
	return &recordingRepo{db: db}
}

// Create inserts a new recording, generating its UUID if unset.
func (r *recordingRepo) Create(ctx context.Context, rec *models.Recording) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recordings (id, domain_id, name, filename, description,
		 created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
		rec.ID, rec.DomainID, rec.Name, rec.Filename, rec.Description,
	)
	if err != nil {
		return fmt.Errorf("inserting recording: %w", err)
	}
	return nil
}

// GetByName returns a recording by its canonical name within a domain.
func (r *recordingRepo) GetByName(ctx context.Context, domainID, name string) (*models.Recording, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, name, filename, description, created_at, updated_at
		 FROM recordings WHERE domain_id = ? AND name = ?`, domainID, name,
	)

	var rec models.Recording
	err := row.Scan(&rec.ID, &rec.DomainID, &rec.Name, &rec.Filename,
		&rec.Description, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning recording: %w", err)
	}
	return &rec, nil
}

// Update modifies an existing recording.
func (r *recordingRepo) Update(ctx context.Context, rec *models.Recording) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recordings SET name = ?, filename = ?, description = ?,
		 updated_at = datetime('now')
		 WHERE id = ?`,
		rec.Name, rec.Filename, rec.Description, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating recording: %w", err)
	}
	return nil
}
