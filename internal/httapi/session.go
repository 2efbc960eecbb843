package httapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pbxgate/pbxgate/internal/database"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

// Session wraps the persisted per-call state blob with typed access to
// each handler's sub-object. Handlers mutate their state and call Save
// before emitting the blocking instruction that triggers the next event.
type Session struct {
	model *models.CallSession
	repo  database.CallSessionRepository
}

// LoadSession fetches (or creates) the session for a call key.
func LoadSession(ctx context.Context, repo database.CallSessionRepository, id string) (*Session, error) {
	model, err := repo.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return &Session{model: model, repo: repo}, nil
}

// ID returns the call/session key.
func (s *Session) ID() string {
	return s.model.ID
}

// State unmarshals the named handler's sub-object into v. Returns false
// when the handler has no stored state yet.
func (s *Session) State(handler string, v any) (bool, error) {
	raw, ok := s.model.Data[handler]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decoding %s state: %w", handler, err)
	}
	return true, nil
}

// SetState replaces the named handler's sub-object.
func (s *Session) SetState(handler string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s state: %w", handler, err)
	}
	s.model.Data[handler] = raw
	return nil
}

// ClearState removes the named handler's sub-object.
func (s *Session) ClearState(handler string) {
	delete(s.model.Data, handler)
}

// Save persists the session blob.
func (s *Session) Save(ctx context.Context) error {
	return s.repo.Save(ctx, s.model)
}
