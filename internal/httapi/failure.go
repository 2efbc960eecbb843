package httapi

import (
	"context"
	"fmt"
)

// noBusyTarget is the sentinel compared against the dialed extension when
// no busy-forward hop has happened yet on this call.
const noBusyTarget = "~None~"

// FailureHandler runs when an originate leg fails. Depending on the
// hangup cause and the callee's forwarding settings it either transfers
// the call onward or hangs up with a cause mirroring the failure. A
// forward-on-busy hop is taken at most once per call: the dialed
// extension is recorded in last_busy_dialed_extension and a second busy
// on the same target hangs up instead of looping.
type FailureHandler struct{}

func NewFailureHandler() *FailureHandler { return &FailureHandler{} }

func (h *FailureHandler) Name() string { return "failure" }

func (h *FailureHandler) VarList() []string {
	return []string{
		"originate_disposition",
		"dialed_extension",
		"last_busy_dialed_extension",
		"forward_busy_enabled",
		"forward_busy_destination",
		"forward_no_answer_enabled",
		"forward_no_answer_destination",
		"forward_user_not_registered_enabled",
		"forward_user_not_registered_destination",
	}
}

func (h *FailureHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Event.Exiting {
		return Ack(), nil
	}

	ev := req.Event
	cause := ev.Get("originate_disposition")
	dialed := ev.Get("dialed_extension")
	callContext := ev.Get("Caller-Context")
	if callContext == "" {
		if vars, err := req.Vars(ctx); err == nil {
			callContext = vars.DomainName
		}
	}

	doc := NewDocument()
	switch cause {
	case "USER_BUSY":
		lastBusy := ev.GetDefault("last_busy_dialed_extension", noBusyTarget)
		req.Log.Debug("busy failure", "dialed", dialed, "last_busy", lastBusy)
		if dialed != "" && dialed != lastBusy &&
			ev.GetDefault("forward_busy_enabled", "false") == "true" {
			if dest := ev.Get("forward_busy_destination"); dest != "" {
				doc.Add(Execute{Application: "set", Data: "last_busy_dialed_extension=" + dialed})
				doc.Add(Log{Level: "NOTICE", Text: fmt.Sprintf("forwarding on busy to: %s", dest)})
				doc.Add(Execute{Application: "transfer", Data: fmt.Sprintf("%s XML %s", dest, callContext)})
			} else {
				doc.Add(Log{Level: "NOTICE", Text: "forwarding on busy with empty destination: hangup(USER_BUSY)"})
				doc.Add(Hangup{Cause: "USER_BUSY"})
			}
		} else {
			doc.Add(Hangup{Cause: "USER_BUSY"})
		}
	case "NO_ANSWER":
		if ev.Get("forward_no_answer_enabled") == "true" {
			if dest := ev.Get("forward_no_answer_destination"); dest != "" {
				doc.Add(Log{Level: "NOTICE", Text: fmt.Sprintf("forwarding on no answer to: %s", dest)})
				doc.Add(Execute{Application: "transfer", Data: fmt.Sprintf("%s XML %s", dest, callContext)})
			} else {
				doc.Add(Log{Level: "NOTICE", Text: "forwarding on no answer with empty destination: hangup(NO_ANSWER)"})
				doc.Add(Hangup{Cause: "NO_ANSWER"})
			}
		} else {
			doc.Add(Hangup{Cause: "NO_ANSWER"})
		}
	case "USER_NOT_REGISTERED":
		if ev.Get("forward_user_not_registered_enabled") == "true" {
			if dest := ev.Get("forward_user_not_registered_destination"); dest != "" {
				doc.Add(Log{Level: "NOTICE", Text: fmt.Sprintf("forwarding on not registered to: %s", dest)})
				doc.Add(Execute{Application: "transfer", Data: fmt.Sprintf("%s XML %s", dest, callContext)})
			} else {
				doc.Add(Log{Level: "NOTICE", Text: "forwarding on user not registered with empty destination: hangup(NO_ANSWER)"})
				doc.Add(Hangup{Cause: "NO_ANSWER"})
			}
		} else {
			doc.Add(Hangup{Cause: "NO_ANSWER"})
		}
	case "SUBSCRIBER_ABSENT":
		doc.Add(Log{Level: "NOTICE", Text: fmt.Sprintf("subscriber absent: %s", dialed)})
		doc.Add(Hangup{Cause: "UNALLOCATED_NUMBER"})
	case "CALL_REJECTED":
		doc.Add(Log{Level: "NOTICE", Text: "call rejected"})
		doc.Add(Hangup{})
	default:
		doc.Add(Hangup{})
	}
	return Doc(doc), nil
}
