package httapi

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func recordingsEnv(t *testing.T) (*testEnv, *RecordingsHandler) {
	env := newTestEnv(t)
	return env, NewRecordingsHandler(env.recordings, t.TempDir())
}

func TestRecordingsMissingPIN(t *testing.T) {
	env, h := recordingsEnv(t)

	req := env.request(t, "r1", map[string]string{"pin_number": ""})
	body := docBody(t, mustHandle(t, h, req))

	if !strings.Contains(body, "error R2001") {
		t.Errorf("expected R2001 spoken error: %s", body)
	}
	if !strings.Contains(body, "<hangup></hangup>") {
		t.Errorf("expected hangup: %s", body)
	}
}

func TestRecordingsPINFlow(t *testing.T) {
	env, h := recordingsEnv(t)

	// First event stores the PIN and prompts for it.
	req := env.request(t, "r2", map[string]string{"pin_number": "4711"})
	body := docBody(t, mustHandle(t, h, req))
	if !strings.Contains(body, "phrase:voicemail_enter_pass:#") {
		t.Fatalf("expected PIN prompt: %s", body)
	}

	// Wrong digits fail authentication and hang up.
	req = env.request(t, "r2", map[string]string{PlaybackInputField: "0000"})
	body = docBody(t, mustHandle(t, h, req))
	if !strings.Contains(body, "phrase:voicemail_fail_auth:#") || !strings.Contains(body, "<hangup") {
		t.Fatalf("expected auth failure: %s", body)
	}

	// State was not advanced; the correct PIN still authenticates.
	req = env.request(t, "r2", map[string]string{PlaybackInputField: "4711"})
	body = docBody(t, mustHandle(t, h, req))
	if !strings.Contains(body, "ivr/ivr-id_number.wav") {
		t.Fatalf("expected recording id prompt: %s", body)
	}

	// The recording number produces the record instruction.
	req = env.request(t, "r2", map[string]string{PlaybackInputField: "7"})
	body = docBody(t, mustHandle(t, h, req))
	if !strings.Contains(body, "ivr/ivr-recording_started.wav") {
		t.Fatalf("expected recording started prompt: %s", body)
	}
	if !strings.Contains(body, `file="recording7.wav"`) {
		t.Fatalf("expected record element for recording7.wav: %s", body)
	}

	// Review plays the take back and offers re-recording.
	req = env.request(t, "r2", nil)
	body = docBody(t, mustHandle(t, h, req))
	if !strings.Contains(body, "voicemail/vm-rerecord.wav") {
		t.Fatalf("expected rerecord prompt: %s", body)
	}

	// Pressing 1 loops back to record.
	req = env.request(t, "r2", map[string]string{PlaybackInputField: "1"})
	body = docBody(t, mustHandle(t, h, req))
	if !strings.Contains(body, "<continue>") {
		t.Fatalf("expected continue for re-record: %s", body)
	}

	var st recordingState
	session, _ := LoadSession(context.Background(), env.callSessions, "r2")
	if _, err := session.State("recordings", &st); err != nil {
		t.Fatal(err)
	}
	if st.NextAction != recActionRecord {
		t.Errorf("NextAction = %q, want record", st.NextAction)
	}

	// Record and review again, then anything but 1 saves and hangs up.
	req = env.request(t, "r2", map[string]string{PlaybackInputField: "7"})
	docBody(t, mustHandle(t, h, req))
	req = env.request(t, "r2", nil)
	docBody(t, mustHandle(t, h, req))
	req = env.request(t, "r2", map[string]string{PlaybackInputField: "2"})
	body = docBody(t, mustHandle(t, h, req))
	if !strings.Contains(body, "ivr/ivr-recording_saved.wav") || !strings.Contains(body, "<hangup") {
		t.Fatalf("expected saved prompt and hangup: %s", body)
	}
}

func TestRecordingsCustomPrefix(t *testing.T) {
	env, h := recordingsEnv(t)

	req := env.request(t, "r3", map[string]string{"pin_number": "1"})
	mustHandle(t, h, req)
	req = env.request(t, "r3", map[string]string{PlaybackInputField: "1"})
	mustHandle(t, h, req)

	req = env.request(t, "r3", map[string]string{
		PlaybackInputField: "5",
		"recording_prefix": "greeting",
	})
	body := docBody(t, mustHandle(t, h, req))
	if !strings.Contains(body, `file="greeting5.wav"`) {
		t.Errorf("expected prefixed file name: %s", body)
	}
}

type fakeUploadFile struct {
	*bytes.Reader
}

func (fakeUploadFile) Close() error { return nil }

func TestRecordingsUpload(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	h := NewRecordingsHandler(env.recordings, dir)

	req := env.request(t, "r4", map[string]string{
		"exiting":                   "true",
		"recordings_dir":            dir,
		"Caller-Destination-Number": "732",
	})
	req.Event.Upload = &Upload{
		Filename: "9a1b-recording7.wav",
		File:     fakeUploadFile{bytes.NewReader([]byte("RIFFtake1"))},
	}
	ackedBody(t, mustHandle(t, h, req))

	rec, err := env.recordings.GetByName(context.Background(), env.domain.ID, "recording7.wav")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("recording row not created")
	}
	if rec.Filename != filepath.Join(dir, env.domain.Name, "recording7.wav") {
		t.Errorf("Filename = %q", rec.Filename)
	}
	if !strings.Contains(rec.Description, "732") {
		t.Errorf("Description = %q", rec.Description)
	}
	audio, err := os.ReadFile(rec.Filename)
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "RIFFtake1" {
		t.Errorf("stored audio = %q", audio)
	}

	// A second take for the same name replaces the file in place.
	req = env.request(t, "r4", map[string]string{
		"exiting":        "true",
		"recordings_dir": dir,
	})
	req.Event.Upload = &Upload{
		Filename: "77cc-recording7.wav",
		File:     fakeUploadFile{bytes.NewReader([]byte("RIFFtake2"))},
	}
	ackedBody(t, mustHandle(t, h, req))

	audio, err = os.ReadFile(rec.Filename)
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "RIFFtake2" {
		t.Errorf("replacement audio = %q", audio)
	}
}
