package httapi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pbxgate/pbxgate/internal/database"
	"github.com/pbxgate/pbxgate/internal/database/models"
)

const (
	confActionCheckPIN = "chk-pin"
	confActionJoin     = "join-conf"

	// confMaxPINRetries is the submission ceiling: the fourth consecutive
	// bad PIN plays the failure phrase and hangs up.
	confMaxPINRetries = 4
)

type conferenceState struct {
	NextAction    string `json:"next_action,omitempty"`
	RoomID        string `json:"conf_uuid,omitempty"`
	SessUUID      string `json:"sess_uuid,omitempty"`
	RoomName      string `json:"name,omitempty"`
	Profile       string `json:"profile,omitempty"`
	MaxMembers    int    `json:"max_members,omitempty"`
	Record        bool   `json:"record,omitempty"`
	WaitMod       bool   `json:"wait_mod,omitempty"`
	Announce      bool   `json:"announce,omitempty"`
	Sounds        bool   `json:"sounds,omitempty"`
	Mute          bool   `json:"mute,omitempty"`
	Flags         string `json:"flags,omitempty"`
	Moderator     bool   `json:"moderator,omitempty"`
	PINRetries    int    `json:"pin_retries,omitempty"`
	NameRecording string `json:"name_recording,omitempty"`
	RecMarkerFile string `json:"rec_marker_file,omitempty"`
}

// ConferenceHandler joins callers into PIN-protected conference rooms.
// The PIN maps the caller to a room and a member type (participant or
// moderator). Room recording is scheduled once per conference instance:
// the first joiner writes a marker file holding the archive path and
// issues the deferred record command, later joiners read the path from
// the marker. The last leaver removes the marker so the next conference
// records to a fresh path.
type ConferenceHandler struct {
	centres  database.ConferenceCentreRepository
	rooms    database.ConferenceRoomRepository
	sessions database.ConferenceSessionRepository
	tempDir  string
	now      func() time.Time
}

func NewConferenceHandler(centres database.ConferenceCentreRepository, rooms database.ConferenceRoomRepository, sessions database.ConferenceSessionRepository, tempDir string) *ConferenceHandler {
	return &ConferenceHandler{
		centres:  centres,
		rooms:    rooms,
		sessions: sessions,
		tempDir:  tempDir,
		now:      time.Now,
	}
}

func (h *ConferenceHandler) Name() string { return "conference" }

func (h *ConferenceHandler) VarList() []string {
	return []string{"conference_uuid"}
}

func (h *ConferenceHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	var st conferenceState
	if _, err := req.Session.State(h.Name(), &st); err != nil {
		return nil, err
	}

	if req.Event.Upload != nil {
		if err := h.saveNameClip(ctx, req, &st); err != nil {
			return nil, err
		}
	}
	if req.Event.Exiting {
		return h.leave(ctx, req, &st)
	}

	vars, err := req.Vars(ctx)
	if err != nil {
		return nil, err
	}

	var centre *models.ConferenceCentre
	if st.RoomID == "" {
		centre, err = h.centres.GetByID(ctx, req.Event.Get("conference_uuid"))
		if err != nil {
			return nil, err
		}
		if centre == nil {
			req.Log.Debug("conference uuid not found")
			return Doc(errorHangup(CodeConferenceNotFound)), nil
		}
	}

	switch st.NextAction {
	case confActionCheckPIN:
		return h.checkPIN(ctx, req, &st, centre)
	case confActionJoin:
		return h.join(ctx, req, &st, vars)
	default:
		st.NextAction = confActionCheckPIN
		if err := h.saveState(ctx, req, st); err != nil {
			return nil, err
		}
		doc := NewDocument()
		doc.Add(PlaybackCollect{File: "conference/conf-enter_conf_pin.wav"})
		return Doc(doc), nil
	}
}

func (h *ConferenceHandler) checkPIN(ctx context.Context, req *Request, st *conferenceState, centre *models.ConferenceCentre) (*Response, error) {
	pin := req.Event.Get(PlaybackInputField)
	room, err := h.rooms.MatchPIN(ctx, centre.ID, pin)
	if err != nil {
		return nil, err
	}

	doc := NewDocument()
	if room == nil {
		st.NextAction = ""
		st.PINRetries++
		if st.PINRetries < confMaxPINRetries {
			doc.Add(Playback{File: "conference/conf-bad-pin.wav"})
		} else {
			doc.Add(Playback{File: "phrase:voicemail_fail_auth:#"})
			doc.Add(Hangup{})
		}
		if err := h.saveState(ctx, req, *st); err != nil {
			return nil, err
		}
		return Doc(doc), nil
	}

	sess, err := h.confSession(ctx, st, room.ID, room.Profile)
	if err != nil {
		return nil, err
	}

	moderator := pin != room.ParticipantPIN
	var flagList []string
	if room.WaitMod && !moderator {
		flagList = append(flagList, "wait-mod")
	}
	if room.Mute && !moderator {
		flagList = append(flagList, "mute")
	}
	if moderator {
		flagList = append(flagList, "moderator")
	}

	st.RoomID = room.ID
	st.SessUUID = sess.ID
	st.RoomName = room.Name
	st.Profile = room.Profile
	st.MaxMembers = room.MaxMembers
	st.Record = room.Record
	st.WaitMod = room.WaitMod
	st.Announce = room.Announce
	st.Sounds = room.Sounds
	st.Mute = room.Mute
	st.Flags = strings.Join(flagList, "|")
	st.Moderator = moderator

	if room.Announce {
		doc.Add(Playback{File: "ivr/ivr-say_name.wav"})
		doc.Add(RecordCollect{File: req.Session.ID() + ".wav"})
	}
	if room.Record {
		doc.Add(Pause{Milliseconds: 500})
		doc.Add(Playback{File: "ivr/ivr-recording_started.wav"})
	}

	st.NextAction = confActionJoin
	if err := h.saveState(ctx, req, *st); err != nil {
		return nil, err
	}
	return Doc(doc), nil
}

func (h *ConferenceHandler) join(ctx context.Context, req *Request, st *conferenceState, vars *Variables) (*Response, error) {
	sess, err := h.confSession(ctx, st, st.RoomID, st.Profile)
	if err != nil {
		return nil, err
	}

	doc := NewDocument()
	if st.Record {
		dt := h.now()
		recPath := filepath.Join(
			vars.RecordingsDir, vars.DomainName, "archive",
			dt.Format("2006"), dt.Format("Jan"), dt.Format("02"),
			st.SessUUID+".wav",
		)
		marker := filepath.Join(h.tempDir, st.RoomID+"-recording")
		if existing, err := os.ReadFile(marker); err == nil {
			// another leg already scheduled the recording
			recPath = string(existing)
		} else {
			if err := os.WriteFile(marker, []byte(recPath), 0o644); err != nil {
				return nil, fmt.Errorf("writing recording marker: %w", err)
			}
			doc.Add(Execute{
				Application: "set",
				Data:        fmt.Sprintf("res=${sched_api +6 none conference %s record %s}", st.RoomID, recPath),
			})
		}
		st.RecMarkerFile = marker
		if err := h.saveState(ctx, req, *st); err != nil {
			return nil, err
		}

		sess.Recording = recPath
		sess.CallerIDName = req.Event.GetDefault("Caller-Orig-Caller-ID-Name", "None")
		sess.CallerIDNumber = req.Event.GetDefault("Caller-Orig-Caller-ID-Number", "None")
		if err := h.sessions.Update(ctx, sess); err != nil {
			return nil, err
		}
	}

	if st.Announce && st.NameRecording != "" {
		doc.Add(Execute{
			Application: "set",
			Data: fmt.Sprintf("res=${sched_api +1 none conference %s play file_string://%s!conference/conf-has_joined.wav}",
				st.RoomID, st.NameRecording),
		})
	}
	doc.Add(Conference{Room: st.RoomID, Profile: st.Profile, Flags: st.Flags})
	return Doc(doc), nil
}

// leave marks the conference session dead and releases per-call temp
// files. The recording marker is removed only by the last live leg.
func (h *ConferenceHandler) leave(ctx context.Context, req *Request, st *conferenceState) (*Response, error) {
	if st.SessUUID != "" {
		sess, err := h.sessions.GetByID(ctx, st.SessUUID)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			sess.Live = false
			if err := h.sessions.Update(ctx, sess); err != nil {
				return nil, err
			}
			if st.RecMarkerFile != "" {
				live, err := h.sessions.CountLive(ctx, sess.RoomID)
				if err != nil {
					return nil, err
				}
				if live < 1 {
					os.Remove(st.RecMarkerFile)
				}
			}
		}
	}
	if st.NameRecording != "" {
		os.Remove(st.NameRecording)
	}
	return Ack(), nil
}

// confSession returns the tracked conference session, creating one when
// the state does not reference a live row yet.
func (h *ConferenceHandler) confSession(ctx context.Context, st *conferenceState, roomID, profile string) (*models.ConferenceSession, error) {
	if st.SessUUID != "" {
		sess, err := h.sessions.GetByID(ctx, st.SessUUID)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			return sess, nil
		}
	}
	sess := &models.ConferenceSession{RoomID: roomID, Profile: profile, Live: true}
	if err := h.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	st.SessUUID = sess.ID
	return sess, nil
}

func (h *ConferenceHandler) saveState(ctx context.Context, req *Request, st conferenceState) error {
	if err := req.Session.SetState(h.Name(), st); err != nil {
		return err
	}
	return req.Session.Save(ctx)
}

// saveNameClip stores the caller's recorded name announcement in the
// temp directory for playback when they join.
func (h *ConferenceHandler) saveNameClip(ctx context.Context, req *Request, st *conferenceState) error {
	clip, err := req.Event.ReadUpload()
	if err != nil {
		return fmt.Errorf("reading name clip: %w", err)
	}
	path := filepath.Join(h.tempDir, "conference-"+filepath.Base(req.Event.Upload.Filename))
	if err := os.WriteFile(path, clip, 0o644); err != nil {
		return fmt.Errorf("writing name clip %s: %w", path, err)
	}
	st.NameRecording = path
	return h.saveState(ctx, req, *st)
}
