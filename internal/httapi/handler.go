package httapi

import (
	"context"
	"log/slog"
)

// ackBody is the plain-text acknowledgment returned when a handler has
// nothing to instruct (post-hangup cleanup, unknown handler names).
const ackBody = "Ok\n"

// Response is what a handler returns: either an XML instruction document
// or the plain-text acknowledgment. Never an HTTP error; an unexpected
// response can leave a live call in an undefined state.
type Response struct {
	doc  *Document
	text string
}

// Ack is the plain "Ok" response.
func Ack() *Response {
	return &Response{text: ackBody}
}

// Doc wraps an instruction document response.
func Doc(d *Document) *Response {
	return &Response{doc: d}
}

// Body returns the serialized response body and its content type.
func (r *Response) Body() (body, contentType string) {
	if r.doc != nil {
		return r.doc.Render(), "text/xml"
	}
	return r.text, "text/plain"
}

// Request carries everything a handler needs for one event: the parsed
// event, the per-call session, lazily resolved variables and a logger.
type Request struct {
	Event   *Event
	Session *Session
	Log     *slog.Logger

	resolver *Resolver
	vars     *Variables
}

// Vars resolves the event's domain-scoped variables on first use and
// caches them for the rest of the request.
func (r *Request) Vars(ctx context.Context) (*Variables, error) {
	if r.vars != nil {
		return r.vars, nil
	}
	vars, err := r.resolver.Resolve(ctx, r.Event)
	if err != nil {
		return nil, err
	}
	r.vars = vars
	return vars, nil
}

// Handler is one named workflow. VarList declares the event fields the
// dispatch layer must guarantee exist (empty-string default) before
// Handle runs; the switch dialplan is told to post them, so a missing
// name is a configuration mismatch, not a hard failure.
type Handler interface {
	Name() string
	VarList() []string
	Handle(ctx context.Context, req *Request) (*Response, error)
}
