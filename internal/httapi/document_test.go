package httapi

import (
	"strings"
	"testing"
)

func TestDocumentRender(t *testing.T) {
	doc := NewDocument()
	doc.Add(Execute{Application: "answer"})
	doc.Add(Log{Level: "NOTICE", Text: "Hello World"})
	doc.Add(Playback{File: "ivr/ivr-welcome.wav"})
	doc.Add(Hangup{Cause: "USER_BUSY"})

	got := doc.Render()

	want := `<document type="xml/freeswitch-httapi">
  <params></params>
  <work>
    <execute application="answer"></execute>
    <log level="NOTICE">Hello World</log>
    <playback file="ivr/ivr-welcome.wav"></playback>
    <hangup cause="USER_BUSY"></hangup>
  </work>
</document>
`
	if got != want {
		t.Errorf("rendered document mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestDocumentRenderDeterministic(t *testing.T) {
	build := func() string {
		doc := NewDocument()
		doc.Add(PlaybackCollect{File: "conference/conf-enter_conf_pin.wav"})
		doc.Add(Pause{Milliseconds: 500})
		doc.Add(Conference{Room: "room-1", Profile: "default", Flags: "moderator"})
		return doc.Render()
	}
	first := build()
	for i := 0; i < 10; i++ {
		if got := build(); got != first {
			t.Fatalf("render not deterministic on iteration %d:\n%s\nvs\n%s", i, got, first)
		}
	}
}

func TestDocumentEmptyStillValid(t *testing.T) {
	doc := NewDocument()
	if !doc.Empty() {
		t.Fatal("new document should be empty")
	}
	got := doc.Render()
	if !strings.Contains(got, `<document type="xml/freeswitch-httapi">`) {
		t.Errorf("missing root element: %s", got)
	}
	if !strings.Contains(got, "<work></work>") {
		t.Errorf("empty document should render an empty work block: %s", got)
	}
}

func TestPlaybackCollectDefaults(t *testing.T) {
	doc := NewDocument()
	doc.Add(PlaybackCollect{File: "phrase:voicemail_enter_pass:#"})
	got := doc.Render()

	for _, want := range []string{
		`name="pb_input"`,
		`file="phrase:voicemail_enter_pass:#"`,
		`error-file="ivr/ivr-that_was_an_invalid_entry.wav"`,
		`input-timeout="10000"`,
		`loops="3"`,
		`<bind strip="#">~\d+</bind>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %s in:\n%s", want, got)
		}
	}
}

func TestRecordCollect(t *testing.T) {
	doc := NewDocument()
	doc.Add(RecordCollect{File: "recording7.wav"})
	got := doc.Render()

	for _, want := range []string{
		`name="rd_input"`,
		`file="recording7.wav"`,
		`beep-file="tone_stream://%(500,0,640)"`,
		`limit="300"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %s in:\n%s", want, got)
		}
	}
}

func TestErrorHangupDocument(t *testing.T) {
	got := errorHangup(CodePINMissing).Render()

	if !strings.Contains(got, "error R2001") {
		t.Errorf("missing coded log line: %s", got)
	}
	if !strings.Contains(got, `file="ivr/ivr-call_cannot_be_completed_as_dialed.wav"`) {
		t.Errorf("missing spoken error prompt: %s", got)
	}
	if !strings.Contains(got, "<hangup></hangup>") {
		t.Errorf("missing hangup: %s", got)
	}
}
