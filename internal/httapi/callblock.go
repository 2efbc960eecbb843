package httapi

import (
	"context"
	"strings"

	"github.com/pbxgate/pbxgate/internal/database"
)

type callBlockState struct {
	Run bool `json:"run"`
}

// CallBlockHandler screens a call against the domain's block rules. The
// lookup happens once per call leg (tracked in session state); a matched
// rule runs its configured app:data action, and in every case a break
// hands control back to the dialplan.
type CallBlockHandler struct {
	callblocks database.CallBlockRepository
}

func NewCallBlockHandler(callblocks database.CallBlockRepository) *CallBlockHandler {
	return &CallBlockHandler{callblocks: callblocks}
}

func (h *CallBlockHandler) Name() string { return "callblock" }

func (h *CallBlockHandler) VarList() []string { return nil }

func (h *CallBlockHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Event.Exiting {
		return Ack(), nil
	}
	vars, err := req.Vars(ctx)
	if err != nil {
		return nil, err
	}

	doc := NewDocument()
	var st callBlockState
	ran, err := req.Session.State(h.Name(), &st)
	if err != nil {
		return nil, err
	}
	if !ran {
		st.Run = true
		if err := req.Session.SetState(h.Name(), st); err != nil {
			return nil, err
		}
		if err := req.Session.Save(ctx); err != nil {
			return nil, err
		}

		callerName := req.Event.GetDefault("Caller-Orig-Caller-ID-Name", "None")
		callerNumber := req.Event.GetDefault("Caller-Orig-Caller-ID-Number", "None")
		cb, err := h.callblocks.FindMatch(ctx, vars.DomainID, callerName, callerNumber)
		if err != nil {
			return nil, err
		}
		if cb == nil {
			req.Log.Debug("no call block records found")
		} else {
			app, data, _ := strings.Cut(cb.Data, ":")
			doc.Add(Execute{Application: app, Data: data})
		}
	}
	doc.Add(Break{})
	return Doc(doc), nil
}
