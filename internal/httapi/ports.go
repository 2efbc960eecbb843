package httapi

import (
	"context"

	"github.com/pbxgate/pbxgate/internal/database/models"
)

// PresenceNotifier broadcasts a call flow's new status to presence
// subscribers. Fire and forget: failures are logged by the caller, never
// surfaced to the switch.
type PresenceNotifier interface {
	CallFlowStatus(ctx context.Context, flowID string, status bool, featureCode, domainName string) error
}

// FirewallAllower adds a newly seen device address to the SIP allow list.
type FirewallAllower interface {
	AddAllowed(ctx context.Context, address string) error
}

// MissedCall describes a missed-call notice to render and send.
type MissedCall struct {
	DomainID       string
	Language       string // e.g. "en-us"
	To             string
	CallerIDName   string
	CallerIDNumber string
	SIPToUser      string
	DialedUser     string
}

// MissedCallMailer renders the templated missed-call notice and sends it.
type MissedCallMailer interface {
	SendMissedCall(ctx context.Context, mc MissedCall) error
}

// DialplanGenerator regenerates the derived dialplan artifact for a call
// flow after its status changes.
type DialplanGenerator interface {
	Generate(flow *models.CallFlow, domainName string) (string, error)
}
