package httapi

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pbxgate/pbxgate/internal/cache"
	"github.com/pbxgate/pbxgate/internal/database"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

// testEnv wires real repositories over a temp database so handler tests
// exercise the same paths as production dispatch.
type testEnv struct {
	db           *database.DB
	domains      database.DomainRepository
	settings     database.DomainSettingRepository
	extensions   database.ExtensionRepository
	ringGroups   database.RingGroupRepository
	callFlows    database.CallFlowRepository
	callBlocks   database.CallBlockRepository
	recordings   database.RecordingRepository
	centres      database.ConferenceCentreRepository
	rooms        database.ConferenceRoomRepository
	confSessions database.ConferenceSessionRepository
	ipRegisters  database.IPRegisterRepository
	callSessions database.CallSessionRepository
	cache        *cache.Cache
	resolver     *Resolver

	domain *models.Domain
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:           db,
		domains:      database.NewDomainRepository(db),
		settings:     database.NewDomainSettingRepository(db),
		extensions:   database.NewExtensionRepository(db),
		ringGroups:   database.NewRingGroupRepository(db),
		callFlows:    database.NewCallFlowRepository(db),
		callBlocks:   database.NewCallBlockRepository(db),
		recordings:   database.NewRecordingRepository(db),
		centres:      database.NewConferenceCentreRepository(db),
		rooms:        database.NewConferenceRoomRepository(db),
		confSessions: database.NewConferenceSessionRepository(db),
		ipRegisters:  database.NewIPRegisterRepository(db),
		callSessions: database.NewCallSessionRepository(db),
		cache:        cache.New(5 * time.Minute),
	}
	env.resolver = NewResolver(env.domains, env.settings, env.cache, "/var/lib/freeswitch/recordings")

	env.domain = &models.Domain{Name: "pbx.example.com", Enabled: true}
	if err := env.domains.Create(context.Background(), env.domain); err != nil {
		t.Fatalf("creating test domain: %v", err)
	}

	return env
}

// request builds a dispatch-shaped Request for a handler test. fields is
// the raw event map; sessionID keys the persisted call session.
func (e *testEnv) request(t *testing.T, sessionID string, fields map[string]string) *Request {
	t.Helper()

	if fields == nil {
		fields = make(map[string]string)
	}
	if _, ok := fields["domain_name"]; !ok {
		fields["domain_name"] = e.domain.Name
	}
	ev := &Event{fields: fields}
	ev.Exiting = ev.Get("exiting") == "true"
	ev.SessionID = sessionID

	session, err := LoadSession(context.Background(), e.callSessions, sessionID)
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}

	return &Request{
		Event:    ev,
		Session:  session,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		resolver: e.resolver,
	}
}

func mustHandle(t *testing.T, h Handler, req *Request) *Response {
	t.Helper()
	resp, err := h.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("%s handler: %v", h.Name(), err)
	}
	return resp
}

func docBody(t *testing.T, resp *Response) string {
	t.Helper()
	body, contentType := resp.Body()
	if contentType != "text/xml" {
		t.Fatalf("expected xml response, got %s: %q", contentType, body)
	}
	return body
}

func ackedBody(t *testing.T, resp *Response) {
	t.Helper()
	body, contentType := resp.Body()
	if contentType != "text/plain" || body != "Ok\n" {
		t.Fatalf("expected Ok ack, got %s: %q", contentType, body)
	}
}
