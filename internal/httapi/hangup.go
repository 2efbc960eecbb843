package httapi

import "context"

// HangupHandler runs on call teardown. When the dialplan marked the call
// as a missed one (missed_call_app=email with a recipient), it sends the
// templated missed-call notice. The response is always the plain ack;
// nothing here can instruct an already-dead call.
type HangupHandler struct {
	mailer MissedCallMailer
}

func NewHangupHandler(mailer MissedCallMailer) *HangupHandler {
	return &HangupHandler{mailer: mailer}
}

func (h *HangupHandler) Name() string { return "hangup" }

func (h *HangupHandler) VarList() []string {
	return []string{
		"missed_call_app",
		"missed_call_data",
		"caller_id_name",
		"caller_id_number",
		"sip_to_user",
		"dialed_user",
	}
}

func (h *HangupHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	ev := req.Event
	if ev.Get("missed_call_app") != "email" || ev.Get("missed_call_data") == "" {
		return Ack(), nil
	}

	vars, err := req.Vars(ctx)
	if err != nil {
		return nil, err
	}

	mc := MissedCall{
		DomainID:       vars.DomainID,
		Language:       vars.DefaultLanguage + "-" + vars.DefaultDialect,
		To:             ev.Get("missed_call_data"),
		CallerIDName:   ev.GetDefault("caller_id_name", " "),
		CallerIDNumber: ev.GetDefault("caller_id_number", " "),
		SIPToUser:      ev.GetDefault("sip_to_user", " "),
		DialedUser:     ev.GetDefault("dialed_user", " "),
	}
	if err := h.mailer.SendMissedCall(ctx, mc); err != nil {
		req.Log.Warn("missed call notice failed", "error", err)
	}
	return Ack(), nil
}
