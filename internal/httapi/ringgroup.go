package httapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbxgate/pbxgate/internal/database"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

// RingGroupHandler bridges a call to all (or each in turn of) a ring
// group's members, then runs the group's configured timeout action when
// nobody answers.
type RingGroupHandler struct {
	ringgroups database.RingGroupRepository
}

func NewRingGroupHandler(ringgroups database.RingGroupRepository) *RingGroupHandler {
	return &RingGroupHandler{ringgroups: ringgroups}
}

func (h *RingGroupHandler) Name() string { return "ringgroup" }

func (h *RingGroupHandler) VarList() []string {
	return []string{"ring_group_uuid"}
}

func (h *RingGroupHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Event.Exiting {
		return Ack(), nil
	}
	vars, err := req.Vars(ctx)
	if err != nil {
		return nil, err
	}

	rg, err := h.ringgroups.GetByID(ctx, req.Event.Get("ring_group_uuid"))
	if err != nil {
		return nil, err
	}
	if rg == nil {
		req.Log.Debug("ring group uuid not found")
		return Doc(errorHangup(CodeRingGroupNotFound)), nil
	}

	bridge, err := ringGroupBridge(rg, vars.DomainName)
	if err != nil {
		return nil, fmt.Errorf("building bridge for ring group %s: %w", rg.ID, err)
	}

	doc := NewDocument()
	doc.Add(Execute{Application: "bridge", Data: bridge})
	if rg.TimeoutApp == "" || rg.TimeoutApp == "hangup" {
		doc.Add(Hangup{})
	} else {
		doc.Add(Execute{Application: rg.TimeoutApp, Data: rg.TimeoutData})
	}
	return Doc(doc), nil
}

// ringGroupBridge expands the member list into a bridge string. Bare
// extension numbers become user/<ext>@<domain> targets; members already
// containing a slash are taken as literal dial strings. Simultaneous
// groups ring every leg at once, sequence groups one after another.
func ringGroupBridge(rg *models.RingGroup, domainName string) (string, error) {
	members, err := rg.MemberList()
	if err != nil {
		return "", err
	}
	targets := make([]string, 0, len(members))
	for _, m := range members {
		if strings.Contains(m, "/") {
			targets = append(targets, m)
		} else {
			targets = append(targets, fmt.Sprintf("user/%s@%s", m, domainName))
		}
	}
	sep := ","
	if rg.Strategy == "sequence" {
		sep = "|"
	}
	bridge := strings.Join(targets, sep)
	if rg.RingTimeout > 0 {
		bridge = fmt.Sprintf("{call_timeout=%d}%s", rg.RingTimeout, bridge)
	}
	return bridge, nil
}
