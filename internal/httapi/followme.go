package httapi

import (
	"context"
	"fmt"

	"github.com/pbxgate/pbxgate/internal/cache"
	"github.com/pbxgate/pbxgate/internal/database"
)

// FollowMeToggleHandler flips an extension's follow-me flag from a
// feature code call, confirms the new state to the caller and drops the
// extension's cached directory entry so the switch sees the change.
type FollowMeToggleHandler struct {
	extensions database.ExtensionRepository
	cache      cache.Invalidator
}

func NewFollowMeToggleHandler(extensions database.ExtensionRepository, c cache.Invalidator) *FollowMeToggleHandler {
	return &FollowMeToggleHandler{extensions: extensions, cache: c}
}

func (h *FollowMeToggleHandler) Name() string { return "followmetoggle" }

func (h *FollowMeToggleHandler) VarList() []string {
	return []string{"extension_uuid"}
}

func (h *FollowMeToggleHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Event.Exiting {
		return Ack(), nil
	}
	vars, err := req.Vars(ctx)
	if err != nil {
		return nil, err
	}

	ext, err := h.extensions.GetByID(ctx, req.Event.Get("extension_uuid"))
	if err != nil {
		return nil, err
	}
	if ext == nil {
		req.Log.Debug("follow me toggle: extension uuid not found")
		return Doc(errorHangup(CodeExtensionNotFound)), nil
	}

	doc := NewDocument()
	doc.Add(Execute{Application: "sleep", Data: "2000"})
	if ext.FollowMeEnabled {
		doc.Add(Playback{File: "ivr/ivr-call_forwarding_has_been_cancelled.wav"})
		ext.FollowMeEnabled = false
	} else {
		doc.Add(Playback{File: "ivr/ivr-call_forwarding_has_been_set.wav"})
		ext.FollowMeEnabled = true
	}
	if err := h.extensions.Update(ctx, ext); err != nil {
		return nil, err
	}
	h.cache.Delete(fmt.Sprintf("directory:%s@%s", ext.Extension, vars.DomainName))
	doc.Add(Hangup{})
	return Doc(doc), nil
}

// FollowMeHandler bridges an inbound call to the dialed extension's
// registered endpoint.
type FollowMeHandler struct {
	extensions database.ExtensionRepository
}

func NewFollowMeHandler(extensions database.ExtensionRepository) *FollowMeHandler {
	return &FollowMeHandler{extensions: extensions}
}

func (h *FollowMeHandler) Name() string { return "followme" }

func (h *FollowMeHandler) VarList() []string {
	return []string{"call_direction", "extension_uuid"}
}

func (h *FollowMeHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Event.Exiting {
		return Ack(), nil
	}
	vars, err := req.Vars(ctx)
	if err != nil {
		return nil, err
	}

	ext, err := h.extensions.GetByID(ctx, req.Event.Get("extension_uuid"))
	if err != nil {
		return nil, err
	}
	if ext == nil {
		req.Log.Debug("follow me: extension uuid not found")
		return Doc(errorHangup(CodeExtensionNotFound)), nil
	}

	doc := NewDocument()
	doc.Add(Execute{Application: "set", Data: "hangup_after_bridge=true"})
	doc.Add(Execute{
		Application: "bridge",
		Data:        fmt.Sprintf("user/%s@%s", ext.Extension, vars.DomainName),
	})
	return Doc(doc), nil
}
