package httapi

import (
	"context"
	"strings"

	"github.com/pbxgate/pbxgate/internal/database"
)

// RegisterHandler records device IP addresses from registration events
// and opens the SIP firewall for addresses seen for the first time. The
// insert is idempotent, so the allow-list script runs once per address.
type RegisterHandler struct {
	ipregisters database.IPRegisterRepository
	firewall    FirewallAllower
}

func NewRegisterHandler(ipregisters database.IPRegisterRepository, firewall FirewallAllower) *RegisterHandler {
	return &RegisterHandler{ipregisters: ipregisters, firewall: firewall}
}

func (h *RegisterHandler) Name() string { return "register" }

func (h *RegisterHandler) VarList() []string { return nil }

func (h *RegisterHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	address := req.Event.GetDefault("network-ip", "192.168.42.1")
	status := req.Event.GetDefault("status", "N/A")
	if !strings.HasPrefix(status, "Registered") {
		return Ack(), nil
	}

	created, err := h.ipregisters.Ensure(ctx, address)
	if err != nil {
		return nil, err
	}
	if created {
		if err := h.firewall.AddAllowed(ctx, address); err != nil {
			req.Log.Warn("firewall allow failed", "address", address, "error", err)
		}
	}
	return Ack(), nil
}
