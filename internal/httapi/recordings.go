package httapi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pbxgate/pbxgate/internal/database"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

type recordingAction string

const (
	recActionCheckPIN recordingAction = "chk-pin"
	recActionRecord   recordingAction = "record"
	recActionReview   recordingAction = "review"
	recActionRerecord recordingAction = "rerecord"
)

type recordingState struct {
	NextAction recordingAction `json:"next_action,omitempty"`
	PINNumber  string          `json:"pin_number,omitempty"`
	RecFile    string          `json:"rec_file,omitempty"`
}

// RecordingsHandler is the PIN-gated record/review/re-record workflow
// behind the recordings feature code. Recorded audio arrives as an upload
// on the event following each record instruction and is persisted under
// the domain's recordings directory with a row in the recordings table.
type RecordingsHandler struct {
	recordings    database.RecordingRepository
	recordingsDir string
}

func NewRecordingsHandler(recordings database.RecordingRepository, recordingsDir string) *RecordingsHandler {
	return &RecordingsHandler{recordings: recordings, recordingsDir: recordingsDir}
}

func (h *RecordingsHandler) Name() string { return "recordings" }

func (h *RecordingsHandler) VarList() []string {
	return []string{"pin_number", "recording_prefix"}
}

func (h *RecordingsHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	vars, err := req.Vars(ctx)
	if err != nil {
		return nil, err
	}

	if req.Event.Upload != nil {
		if err := h.saveUpload(ctx, req, vars); err != nil {
			return nil, err
		}
	}
	if req.Event.Exiting {
		return Ack(), nil
	}

	var st recordingState
	if _, err := req.Session.State(h.Name(), &st); err != nil {
		return nil, err
	}

	doc := NewDocument()
	switch st.NextAction {
	case recActionCheckPIN:
		if st.PINNumber == req.Event.Get(PlaybackInputField) {
			st.NextAction = recActionRecord
			if err := h.saveState(ctx, req, st); err != nil {
				return nil, err
			}
			doc.Add(PlaybackCollect{File: "ivr/ivr-id_number.wav"})
		} else {
			doc.Add(Playback{File: "phrase:voicemail_fail_auth:#"})
			doc.Add(Hangup{})
		}

	case recActionRecord:
		recNo := req.Event.Get(PlaybackInputField)
		prefix := req.Event.GetDefault("recording_prefix", "recording")
		recFile := fmt.Sprintf("%s%s.wav", prefix, recNo)
		st.RecFile = filepath.Join(vars.RecordingsDir, vars.DomainName, recFile)
		st.NextAction = recActionReview
		if err := h.saveState(ctx, req, st); err != nil {
			return nil, err
		}
		doc.Add(Playback{File: "ivr/ivr-recording_started.wav"})
		doc.Add(RecordCollect{File: recFile})

	case recActionReview:
		st.NextAction = recActionRerecord
		if err := h.saveState(ctx, req, st); err != nil {
			return nil, err
		}
		doc.Add(Pause{Milliseconds: 1000})
		doc.Add(Playback{File: st.RecFile})
		doc.Add(Pause{Milliseconds: 500})
		doc.Add(Playback{File: "voicemail/vm-press.wav"})
		doc.Add(Playback{File: "digits/1.wav"})
		doc.Add(PlaybackCollect{File: "voicemail/vm-rerecord.wav", Mask: `~\d{1}`})

	case recActionRerecord:
		if req.Event.Get(PlaybackInputField) == "1" {
			st.NextAction = recActionRecord
			if err := h.saveState(ctx, req, st); err != nil {
				return nil, err
			}
			doc.Add(Continue{})
		} else {
			doc.Add(Playback{File: "ivr/ivr-recording_saved.wav"})
			doc.Add(Hangup{})
		}

	default:
		pin := req.Event.Get("pin_number")
		if pin == "" {
			return Doc(errorHangup(CodePINMissing)), nil
		}
		st = recordingState{NextAction: recActionCheckPIN, PINNumber: pin}
		if err := h.saveState(ctx, req, st); err != nil {
			return nil, err
		}
		doc.Add(PlaybackCollect{File: "phrase:voicemail_enter_pass:#"})
	}
	return Doc(doc), nil
}

func (h *RecordingsHandler) saveState(ctx context.Context, req *Request, st recordingState) error {
	if err := req.Session.SetState(h.Name(), st); err != nil {
		return err
	}
	return req.Session.Save(ctx)
}

// saveUpload persists a recorded file posted back by the switch. The
// switch prepends a UUID to the file name, so the canonical name is
// recovered from the known "recording" stem before lookup.
func (h *RecordingsHandler) saveUpload(ctx context.Context, req *Request, vars *Variables) error {
	name := req.Event.Upload.Filename
	if i := strings.LastIndex(name, "recording"); i >= 0 {
		name = name[i:]
	}

	rec, err := h.recordings.GetByName(ctx, vars.DomainID, name)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &models.Recording{
			DomainID:    vars.DomainID,
			Name:        name,
			Description: fmt.Sprintf("via recordings (%s)", req.Event.Get("Caller-Destination-Number")),
		}
		if err := h.recordings.Create(ctx, rec); err != nil {
			return err
		}
	} else if rec.Filename != "" {
		// replace the previous take
		os.Remove(rec.Filename)
	}

	dir := filepath.Join(vars.RecordingsDir, vars.DomainName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating recordings dir: %w", err)
	}
	path := filepath.Join(dir, name)
	audio, err := req.Event.ReadUpload()
	if err != nil {
		return fmt.Errorf("reading uploaded recording: %w", err)
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return fmt.Errorf("writing recording %s: %w", path, err)
	}

	rec.Filename = path
	return h.recordings.Update(ctx, rec)
}
