package httapi

import (
	"context"
	"fmt"

	"github.com/pbxgate/pbxgate/internal/cache"
	"github.com/pbxgate/pbxgate/internal/database"
)

// Hard fallbacks when neither the event nor the domain settings carry a
// value.
const (
	fallbackLanguage = "en"
	fallbackDialect  = "us"
	fallbackVoice    = "callie"
)

// Variables holds the per-event resolved fields every handler can rely
// on. Resolution is idempotent: resolving twice within one event yields
// identical values.
type Variables struct {
	DomainID        string
	DomainName      string
	DefaultLanguage string
	DefaultDialect  string
	DefaultVoice    string
	RecordingsDir   string
}

// Resolver merges event fields, cached per-domain settings and hard
// defaults, in that priority order.
type Resolver struct {
	domains       database.DomainRepository
	settings      database.DomainSettingRepository
	cache         *cache.Cache
	recordingsDir string // config fallback
}

// NewResolver creates a Resolver. recordingsDir is the configured
// fallback when a domain has no recordings_dir setting.
func NewResolver(domains database.DomainRepository, settings database.DomainSettingRepository, c *cache.Cache, recordingsDir string) *Resolver {
	return &Resolver{
		domains:       domains,
		settings:      settings,
		cache:         c,
		recordingsDir: recordingsDir,
	}
}

// Resolve derives the domain from the event and merges the three value
// sources. The domain name comes from the explicit domain_name field,
// else the Caller-Context field; with neither, resolution fails with
// ErrDomainNotFound.
func (r *Resolver) Resolve(ctx context.Context, ev *Event) (*Variables, error) {
	domainName := ev.Get("domain_name")
	if domainName == "" {
		domainName = ev.Get("Caller-Context")
	}
	if domainName == "" {
		return nil, ErrDomainNotFound
	}

	domain, err := r.domains.GetByName(ctx, domainName)
	if err != nil {
		return nil, fmt.Errorf("looking up domain %s: %w", domainName, err)
	}
	if domain == nil {
		return nil, fmt.Errorf("%w: %s", ErrDomainNotFound, domainName)
	}

	settings, err := r.domainSettings(ctx, domainName)
	if err != nil {
		return nil, err
	}

	pick := func(field, setting, fallback string) string {
		if v := ev.Get(field); v != "" {
			return v
		}
		if v := settings[setting]; v != "" {
			return v
		}
		return fallback
	}

	return &Variables{
		DomainID:        domain.ID,
		DomainName:      domainName,
		DefaultLanguage: pick("default_language", "default_language", fallbackLanguage),
		DefaultDialect:  pick("default_dialect", "default_dialect", fallbackDialect),
		DefaultVoice:    pick("default_voice", "default_voice", fallbackVoice),
		RecordingsDir:   pick("recordings_dir", "recordings_dir", r.recordingsDir),
	}, nil
}

// domainSettings fetches the settings map through the cache. Mutation
// handlers invalidate the settings:<domain> key after changes.
func (r *Resolver) domainSettings(ctx context.Context, domainName string) (map[string]string, error) {
	key := "settings:" + domainName
	if v, ok := r.cache.Get(key); ok {
		if m, ok := v.(map[string]string); ok {
			return m, nil
		}
	}

	m, err := r.settings.MapForDomain(ctx, domainName)
	if err != nil {
		return nil, fmt.Errorf("loading settings for %s: %w", domainName, err)
	}
	r.cache.Set(key, m)
	return m, nil
}
