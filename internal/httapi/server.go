package httapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/pbxgate/pbxgate/internal/database"
)

// EventObserver receives a tick per dispatched event, keyed by handler
// name. Implemented by the metrics collector.
type EventObserver interface {
	ObserveEvent(handler string)
}

// Server dispatches switch callback events to registered workflow
// handlers and renders their responses.
type Server struct {
	router   *chi.Mux
	handlers map[string]Handler
	sessions database.CallSessionRepository
	resolver *Resolver
	observer EventObserver
	logger   *slog.Logger
}

// NewServer creates the HTTP handler. metricsHandler, when non-nil, is
// mounted at /metrics. observer may be nil.
func NewServer(sessions database.CallSessionRepository, resolver *Resolver, observer EventObserver, metricsHandler http.Handler, logger *slog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		handlers: make(map[string]Handler),
		sessions: sessions,
		resolver: resolver,
		observer: observer,
		logger:   logger.With("component", "httapi"),
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/httapi/{handler}", s.handleEvent)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	return s
}

// Register adds a workflow handler to the dispatch table.
func (s *Server) Register(h Handler) {
	s.handlers[h.Name()] = h
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok\n"))
}

// handleEvent runs one switch callback through dispatch. Every path ends
// in a 200 with a well-formed body; a transport-level error could crash
// the switch dialplan mid-call.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "handler")

	ev, err := ParseEvent(r)
	if err != nil {
		s.logger.Warn("unparseable event", "handler", name, "error", err)
		writeResponse(w, Ack())
		return
	}
	defer ev.CloseUpload()

	if s.observer != nil {
		s.observer.ObserveEvent(name)
	}

	h, ok := s.handlers[name]
	if !ok {
		s.logger.Debug("no handler registered", "handler", name)
		writeResponse(w, Ack())
		return
	}

	// Guarantee every declared variable exists in the event map.
	for _, v := range h.VarList() {
		if !ev.Has(v) {
			ev.Set(v, "")
		}
	}

	sessionID := ev.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	session, err := LoadSession(r.Context(), s.sessions, sessionID)
	if err != nil {
		s.logger.Error("session load failed", "handler", name, "session_id", sessionID, "error", err)
		writeResponse(w, Ack())
		return
	}

	req := &Request{
		Event:    ev,
		Session:  session,
		Log:      s.logger.With("handler", name, "session_id", sessionID),
		resolver: s.resolver,
	}

	resp, err := h.Handle(r.Context(), req)
	if err != nil {
		s.logger.Error("handler failed", "handler", name, "session_id", sessionID, "error", err)
		code := CodeInternalFailure
		if errors.Is(err, ErrDomainNotFound) {
			code = CodeDomainNotFound
		}
		writeResponse(w, Doc(errorHangup(code)))
		return
	}

	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	body, contentType := resp.Body()
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
