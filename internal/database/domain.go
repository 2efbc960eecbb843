package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

// domainRepo implements DomainRepository.
type domainRepo struct {
	db *DB
}

// NewDomainRepository creates a new DomainRepository.
func NewDomainRepository(db *DB) DomainRepository {
	return &domainRepo{db: db}
}

// Create inserts a new domain, generating its UUID if unset.
func (r *domainRepo) Create(ctx context.Context, d *models.Domain) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO domains (id, name, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, datetime('now'), datetime('now'))`,
		d.ID, d.Name, d.Enabled,
	)
	if err != nil {
		return fmt.Errorf("inserting domain: %w", err)
	}
	return nil
}

// GetByID returns a domain by UUID.
func (r *domainRepo) GetByID(ctx context.Context, id string) (*models.Domain, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, enabled, created_at, updated_at
		 FROM domains WHERE id = ?`, id,
	))
}

// GetByName returns a domain by its fully qualified name.
func (r *domainRepo) GetByName(ctx context.Context, name string) (*models.Domain, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, enabled, created_at, updated_at
		 FROM domains WHERE name = ?`, name,
	))
}

// List returns all domains ordered by name.
func (r *domainRepo) List(ctx context.Context) ([]models.Domain, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, enabled, created_at, updated_at
		 FROM domains ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying domains: %w", err)
	}
	defer rows.Close()

	var domains []models.Domain
	for rows.Next() {
		var d models.Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.Enabled, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning domain row: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (r *domainRepo) scanOne(row *sql.Row) (*models.Domain, error) {
	var d models.Domain
	err := row.Scan(&d.ID, &d.Name, &d.Enabled, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning domain: %w", err)
	}
	return &d, nil
}

// domainSettingRepo implements DomainSettingRepository.
type domainSettingRepo struct {
	db *DB
}

// NewDomainSettingRepository creates a new DomainSettingRepository.
func NewDomainSettingRepository(db *DB) DomainSettingRepository {
	return &domainSettingRepo{db: db}
}

// Set inserts or replaces a setting for a domain.
func (r *domainSettingRepo) Set(ctx context.Context, domainID, name, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO domain_settings (id, domain_id, name, value)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (domain_id, name) DO UPDATE SET value = excluded.value`,
		uuid.NewString(), domainID, name, value,
	)
	if err != nil {
		return fmt.Errorf("setting domain setting %s: %w", name, err)
	}
	return nil
}

// MapForDomain returns all settings for a domain name as a flat map.
func (r *domainSettingRepo) MapForDomain(ctx context.Context, domainName string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.name, s.value
		 FROM domain_settings s
		 JOIN domains d ON d.id = s.domain_id
		 WHERE d.name = ?`, domainName)
	if err != nil {
		return nil, fmt.Errorf("querying domain settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning domain setting row: %w", err)
		}
		settings[name] = value
	}
	return settings, rows.Err()
}
