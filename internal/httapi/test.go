package httapi

import "context"

// TestHandler answers the call, logs a greeting on the switch and hangs
// up. Used to verify end to end connectivity from the dialplan.
type TestHandler struct{}

func NewTestHandler() *TestHandler { return &TestHandler{} }

func (h *TestHandler) Name() string { return "test" }

func (h *TestHandler) VarList() []string { return nil }

func (h *TestHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Event.Exiting {
		return Ack(), nil
	}
	doc := NewDocument()
	doc.Add(Execute{Application: "answer"})
	doc.Add(Log{Level: "NOTICE", Text: "Hello World"})
	doc.Add(Playback{File: "ivr/ivr-stay_on_line_call_answered_momentarily.wav"})
	doc.Add(Hangup{})
	return Doc(doc), nil
}
