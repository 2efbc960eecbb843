package httapi

import "errors"

// ErrDomainNotFound is returned when no domain can be derived from the
// event (no domain_name field, no Caller-Context, or unknown domain).
var ErrDomainNotFound = errors.New("domain not found")

// Error codes spoken to the caller when a required identifier cannot be
// resolved. The switch always receives a 200 with a well-formed document;
// these codes only appear in the log line and the spoken-error sequence.
const (
	CodeExtensionNotFound  = "E1001"
	CodeRingGroupNotFound  = "R1001"
	CodePINMissing         = "R2001"
	CodeCallFlowNotFound   = "D1001"
	CodeConferenceNotFound = "C0001"
	CodeDomainNotFound     = "S1001"
	CodeInternalFailure    = "S2001"
)

const errorPromptFile = "ivr/ivr-call_cannot_be_completed_as_dialed.wav"

// errorHangup builds the coded spoken-error response: a log line carrying
// the code, the error prompt, and a hangup.
func errorHangup(code string) *Document {
	doc := NewDocument()
	doc.Add(
		Log{Level: "NOTICE", Text: "error " + code},
		Playback{File: errorPromptFile},
		Hangup{},
	)
	return doc
}
