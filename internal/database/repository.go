package database

import (
	"context"
	"time"

	"github.com/pbxgate/pbxgate/internal/database/models"
)

// DomainRepository manages tenant domains.
type DomainRepository interface {
	Create(ctx context.Context, d *models.Domain) error
	GetByID(ctx context.Context, id string) (*models.Domain, error)
	GetByName(ctx context.Context, name string) (*models.Domain, error)
	List(ctx context.Context) ([]models.Domain, error)
}

// DomainSettingRepository manages per-domain settings consumed by the
// variable resolver.
type DomainSettingRepository interface {
	Set(ctx context.Context, domainID, name, value string) error
	// MapForDomain returns all settings for a domain name as a flat map.
	MapForDomain(ctx context.Context, domainName string) (map[string]string, error)
}

// ExtensionRepository manages subscriber extensions.
type ExtensionRepository interface {
	Create(ctx context.Context, ext *models.Extension) error
	GetByID(ctx context.Context, id string) (*models.Extension, error)
	GetByNumber(ctx context.Context, domainID, number string) (*models.Extension, error)
	Update(ctx context.Context, ext *models.Extension) error
}

// RingGroupRepository manages ring groups.
type RingGroupRepository interface {
	Create(ctx context.Context, rg *models.RingGroup) error
	GetByID(ctx context.Context, id string) (*models.RingGroup, error)
}

// CallFlowRepository manages day/night call flows.
type CallFlowRepository interface {
	Create(ctx context.Context, flow *models.CallFlow) error
	GetByID(ctx context.Context, id string) (*models.CallFlow, error)
	Update(ctx context.Context, flow *models.CallFlow) error
}

// CallBlockRepository manages caller screening rules.
type CallBlockRepository interface {
	Create(ctx context.Context, cb *models.CallBlock) error
	// FindMatch returns the first enabled rule for the domain whose name or
	// number pattern matches the caller, or nil when none match.
	FindMatch(ctx context.Context, domainID, callerName, callerNumber string) (*models.CallBlock, error)
}

// RecordingRepository manages stored recordings.
type RecordingRepository interface {
	Create(ctx context.Context, rec *models.Recording) error
	GetByName(ctx context.Context, domainID, name string) (*models.Recording, error)
	Update(ctx context.Context, rec *models.Recording) error
}

// ConferenceCentreRepository manages conference centres.
type ConferenceCentreRepository interface {
	Create(ctx context.Context, c *models.ConferenceCentre) error
	GetByID(ctx context.Context, id string) (*models.ConferenceCentre, error)
}

// ConferenceRoomRepository manages rooms within a centre.
type ConferenceRoomRepository interface {
	Create(ctx context.Context, room *models.ConferenceRoom) error
	GetByID(ctx context.Context, id string) (*models.ConferenceRoom, error)
	// MatchPIN returns the first enabled room in the centre whose
	// participant or moderator PIN equals pin, or nil when none match.
	MatchPIN(ctx context.Context, centreID, pin string) (*models.ConferenceRoom, error)
}

// ConferenceSessionRepository tracks live conference participation.
type ConferenceSessionRepository interface {
	Create(ctx context.Context, sess *models.ConferenceSession) error
	GetByID(ctx context.Context, id string) (*models.ConferenceSession, error)
	Update(ctx context.Context, sess *models.ConferenceSession) error
	CountLive(ctx context.Context, roomID string) (int64, error)
	CountAllLive(ctx context.Context) (int64, error)
}

// IPRegisterRepository deduplicates device IPs from registration events.
type IPRegisterRepository interface {
	// Ensure records the address if not already known. Returns true when
	// the address was newly inserted.
	Ensure(ctx context.Context, address string) (bool, error)
}

// EmailTemplateRepository resolves templated messages. Lookup falls back
// from the domain-specific template to the global one (empty domain id).
type EmailTemplateRepository interface {
	Get(ctx context.Context, domainID, language, category, subcategory string) (*models.EmailTemplate, error)
}

// CallSessionRepository persists the per-call-leg state blob between
// switch events.
type CallSessionRepository interface {
	// Load returns the session, creating an empty one on first reference.
	Load(ctx context.Context, id string) (*models.CallSession, error)
	Save(ctx context.Context, sess *models.CallSession) error
	// Prune deletes sessions whose last update is older than the window.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
