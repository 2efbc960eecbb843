package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

// callFlowRepo implements CallFlowRepository.
type callFlowRepo struct {
	db *DB
}

// NewCallFlowRepository creates a new CallFlowRepository.
func NewCallFlowRepository(db *DB) CallFlowRepository {
	return &callFlowRepo{db: db}
}

// Create inserts a new call flow, generating its UUID if unset.
func (r *callFlowRepo) Create(ctx context.Context, flow *models.CallFlow) error {
	if flow.ID == "" {
		flow.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO call_flows (id, domain_id, name, extension, context,
		 feature_code, status, destination, alternate_destination,
		 dialplan_xml, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
		flow.ID, flow.DomainID, flow.Name, flow.Extension, flow.Context,
		flow.FeatureCode, flow.Status, flow.Destination, flow.AlternateDestination,
		flow.DialplanXML,
	)
	if err != nil {
		return fmt.Errorf("inserting call flow: %w", err)
	}
	return nil
}

// GetByID returns a call flow by UUID.
func (r *callFlowRepo) GetByID(ctx context.Context, id string) (*models.CallFlow, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, name, extension, context, feature_code, status,
		 destination, alternate_destination, dialplan_xml, created_at, updated_at
		 FROM call_flows WHERE id = ?`, id,
	))
}

// Update modifies an existing call flow.
func (r *callFlowRepo) Update(ctx context.Context, flow *models.CallFlow) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE call_flows SET name = ?, extension = ?, context = ?,
		 feature_code = ?, status = ?, destination = ?,
		 alternate_destination = ?, dialplan_xml = ?,
		 updated_at = datetime('now')
		 WHERE id = ?`,
		flow.Name, flow.Extension, flow.Context, flow.FeatureCode, flow.Status,
		flow.Destination, flow.AlternateDestination, flow.DialplanXML, flow.ID,
	)
	if err != nil {
		return fmt.Errorf("updating call flow: %w", err)
	}
	return nil
}

func (r *callFlowRepo) scanOne(row *sql.Row) (*models.CallFlow, error) {
	var f models.CallFlow
	err := row.Scan(&f.ID, &f.DomainID, &f.Name, &f.Extension, &f.Context,
		&f.FeatureCode, &f.Status, &f.Destination, &f.AlternateDestination,
		&f.DialplanXML, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning call flow: %w", err)
	}
	return &f, nil
}
