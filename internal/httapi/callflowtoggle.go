package httapi

import (
	"context"

	"github.com/pbxgate/pbxgate/internal/cache"
	"github.com/pbxgate/pbxgate/internal/database"
)

type callFlowToggleState struct {
	NextAction string `json:"next_action,omitempty"`
	PINNumber  string `json:"pin_number,omitempty"`
}

const toggleActionCheckPIN = "chk-pin"

// CallFlowToggleHandler flips a call flow between day and night mode from
// its feature code, gated by the flow's PIN. On a successful toggle the
// derived dialplan is regenerated, the domain's dialplan cache entry is
// dropped and the new status is broadcast to presence subscribers so
// feature-code BLF lamps follow the mode.
type CallFlowToggleHandler struct {
	callflows database.CallFlowRepository
	dialplan  DialplanGenerator
	cache     cache.Invalidator
	presence  PresenceNotifier
}

func NewCallFlowToggleHandler(callflows database.CallFlowRepository, dialplan DialplanGenerator, c cache.Invalidator, presence PresenceNotifier) *CallFlowToggleHandler {
	return &CallFlowToggleHandler{callflows: callflows, dialplan: dialplan, cache: c, presence: presence}
}

func (h *CallFlowToggleHandler) Name() string { return "callflowtoggle" }

func (h *CallFlowToggleHandler) VarList() []string {
	return []string{"callflow_uuid", "callflow_pin"}
}

func (h *CallFlowToggleHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Event.Exiting {
		return Ack(), nil
	}
	vars, err := req.Vars(ctx)
	if err != nil {
		return nil, err
	}

	flow, err := h.callflows.GetByID(ctx, req.Event.Get("callflow_uuid"))
	if err != nil {
		return nil, err
	}
	if flow == nil {
		req.Log.Debug("call flow toggle: call flow uuid not found")
		return Doc(errorHangup(CodeCallFlowNotFound)), nil
	}

	var st callFlowToggleState
	if _, err := req.Session.State(h.Name(), &st); err != nil {
		return nil, err
	}

	doc := NewDocument()
	if st.NextAction == toggleActionCheckPIN {
		if st.PINNumber != req.Event.Get(PlaybackInputField) {
			doc.Add(Playback{File: "phrase:voicemail_fail_auth:#"})
			doc.Add(Hangup{})
			return Doc(doc), nil
		}

		doc.Add(Pause{Milliseconds: 1000})
		if flow.Status {
			doc.Add(Playback{File: "ivr/ivr-night_mode.wav"})
			flow.Status = false
		} else {
			doc.Add(Playback{File: "ivr/ivr-day_mode.wav"})
			flow.Status = true
		}

		xml, err := h.dialplan.Generate(flow, vars.DomainName)
		if err != nil {
			return nil, err
		}
		flow.DialplanXML = xml
		if err := h.callflows.Update(ctx, flow); err != nil {
			return nil, err
		}
		h.cache.Delete("dialplan:" + vars.DomainName)

		doc.Add(Pause{Milliseconds: 1000})
		doc.Add(Playback{File: "voicemail/vm-goodbye.wav"})
		doc.Add(Hangup{})

		if err := h.presence.CallFlowStatus(ctx, flow.ID, flow.Status, flow.FeatureCode, vars.DomainName); err != nil {
			req.Log.Warn("presence broadcast failed", "call_flow", flow.ID, "error", err)
		}
		return Doc(doc), nil
	}

	pin := req.Event.Get("callflow_pin")
	if pin == "" {
		return Doc(errorHangup(CodePINMissing)), nil
	}
	st = callFlowToggleState{NextAction: toggleActionCheckPIN, PINNumber: pin}
	if err := req.Session.SetState(h.Name(), st); err != nil {
		return nil, err
	}
	if err := req.Session.Save(ctx); err != nil {
		return nil, err
	}
	doc.Add(PlaybackCollect{File: "phrase:voicemail_enter_pass:#"})
	return Doc(doc), nil
}
