package httapi

import (
	"fmt"
	"strings"
	"testing"
)

func TestFailureBusyForwards(t *testing.T) {
	env := newTestEnv(t)
	h := NewFailureHandler()

	req := env.request(t, "f1", map[string]string{
		"originate_disposition":    "USER_BUSY",
		"dialed_extension":         "201",
		"forward_busy_enabled":     "true",
		"forward_busy_destination": "300",
		"Caller-Context":           "pbx.example.com",
	})
	body := docBody(t, mustHandle(t, h, req))

	if !strings.Contains(body, `data="last_busy_dialed_extension=201"`) {
		t.Errorf("missing loop guard set: %s", body)
	}
	if !strings.Contains(body, `application="transfer"`) || !strings.Contains(body, `data="300 XML pbx.example.com"`) {
		t.Errorf("missing transfer: %s", body)
	}
	if strings.Contains(body, "<hangup") {
		t.Errorf("forwarding response must not hang up: %s", body)
	}
}

func TestFailureBusySecondHopHangsUp(t *testing.T) {
	env := newTestEnv(t)
	h := NewFailureHandler()

	// The forwarded leg is busy too and the guard matches the dialed
	// extension, so no second hop happens.
	req := env.request(t, "f2", map[string]string{
		"originate_disposition":      "USER_BUSY",
		"dialed_extension":           "300",
		"last_busy_dialed_extension": "300",
		"forward_busy_enabled":       "true",
		"forward_busy_destination":   "201",
	})
	body := docBody(t, mustHandle(t, h, req))

	if strings.Contains(body, "transfer") {
		t.Errorf("must not forward twice: %s", body)
	}
	if !strings.Contains(body, `<hangup cause="USER_BUSY">`) {
		t.Errorf("expected USER_BUSY hangup: %s", body)
	}
}

func TestFailureBusyEmptyDestination(t *testing.T) {
	env := newTestEnv(t)
	h := NewFailureHandler()

	req := env.request(t, "f3", map[string]string{
		"originate_disposition": "USER_BUSY",
		"dialed_extension":      "201",
		"forward_busy_enabled":  "true",
	})
	body := docBody(t, mustHandle(t, h, req))

	if strings.Contains(body, "transfer") {
		t.Errorf("no destination, no transfer: %s", body)
	}
	if !strings.Contains(body, `<hangup cause="USER_BUSY">`) {
		t.Errorf("expected USER_BUSY hangup: %s", body)
	}
}

func TestFailureDispositions(t *testing.T) {
	env := newTestEnv(t)
	h := NewFailureHandler()

	tests := []struct {
		name   string
		fields map[string]string
		want   []string
		not    []string
	}{
		{
			name: "no answer forwards",
			fields: map[string]string{
				"originate_disposition":         "NO_ANSWER",
				"forward_no_answer_enabled":     "true",
				"forward_no_answer_destination": "400",
				"Caller-Context":                "pbx.example.com",
			},
			want: []string{`data="400 XML pbx.example.com"`},
			not:  []string{"<hangup"},
		},
		{
			name: "no answer without forwarding",
			fields: map[string]string{
				"originate_disposition": "NO_ANSWER",
			},
			want: []string{`<hangup cause="NO_ANSWER">`},
		},
		{
			name: "not registered hangs up with no answer cause",
			fields: map[string]string{
				"originate_disposition": "USER_NOT_REGISTERED",
			},
			want: []string{`<hangup cause="NO_ANSWER">`},
		},
		{
			name: "subscriber absent",
			fields: map[string]string{
				"originate_disposition": "SUBSCRIBER_ABSENT",
				"dialed_extension":      "999",
			},
			want: []string{"subscriber absent: 999", `<hangup cause="UNALLOCATED_NUMBER">`},
		},
		{
			name: "call rejected",
			fields: map[string]string{
				"originate_disposition": "CALL_REJECTED",
			},
			want: []string{"call rejected", "<hangup></hangup>"},
		},
		{
			name: "unhandled disposition",
			fields: map[string]string{
				"originate_disposition": "SOMETHING_ELSE",
			},
			want: []string{"<hangup></hangup>"},
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.request(t, fmt.Sprintf("fd%d", i), tt.fields)
			body := docBody(t, mustHandle(t, h, req))
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("missing %q in:\n%s", want, body)
				}
			}
			for _, not := range tt.not {
				if strings.Contains(body, not) {
					t.Errorf("unexpected %q in:\n%s", not, body)
				}
			}
		})
	}
}

func TestFailureExiting(t *testing.T) {
	env := newTestEnv(t)
	h := NewFailureHandler()

	req := env.request(t, "f4", map[string]string{"exiting": "true"})
	ackedBody(t, mustHandle(t, h, req))
}
