package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pbxgate/pbxgate/internal/database/models"
)

// emailTemplateRepo implements EmailTemplateRepository.
type emailTemplateRepo struct {
	db *DB
}

// NewEmailTemplateRepository creates a new EmailTemplateRepository.
func NewEmailTemplateRepository(db *DB) EmailTemplateRepository {
	return &emailTemplateRepo{db: db}
}

// Get resolves a template by domain, language and category, falling back
// to the global template (empty domain id) when the domain has none.
func (r *emailTemplateRepo) Get(ctx context.Context, domainID, language, category, subcategory string) (*models.EmailTemplate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, domain_id, language, category, subcategory, subject, body, type
		 FROM email_templates
		 WHERE (domain_id = ? OR domain_id = '')
		   AND language = ? AND category = ? AND subcategory = ?
		 ORDER BY domain_id DESC
		 LIMIT 1`,
		domainID, language, category, subcategory,
	)

	var t models.EmailTemplate
	err := row.Scan(&t.ID, &t.DomainID, &t.Language, &t.Category, &t.Subcategory,
		&t.Subject, &t.Body, &t.Type)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning email template: %w", err)
	}
	return &t, nil
}
