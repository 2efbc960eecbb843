package httapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing;
// larger recordings spill to temp files.
const maxUploadMemory = 10 << 20

// Upload is a recorded-audio file posted by the switch alongside an event.
type Upload struct {
	Filename string
	File     multipart.File
}

// Event is one inbound switch callback: a flat field map, an optional
// uploaded recording, and the exiting flag marking the final event for
// the call leg.
type Event struct {
	fields    map[string]string
	Upload    *Upload
	Exiting   bool
	SessionID string
}

// ParseEvent decodes a switch callback request (form or multipart).
func ParseEvent(r *http.Request) (*Event, error) {
	ev := &Event{fields: make(map[string]string)}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return nil, fmt.Errorf("parsing multipart event: %w", err)
		}
		if file, header, err := r.FormFile(RecordInputField); err == nil {
			ev.Upload = &Upload{Filename: header.Filename, File: file}
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parsing event form: %w", err)
		}
	}

	for name, values := range r.Form {
		if len(values) > 0 {
			ev.fields[name] = values[0]
		}
	}

	ev.Exiting = ev.Get("exiting") == "true"
	ev.SessionID = ev.Get("session_id")
	if ev.SessionID == "" {
		ev.SessionID = ev.Get("Caller-Unique-ID")
	}

	return ev, nil
}

// Get returns the named field, or empty string when absent.
func (e *Event) Get(name string) string {
	return e.fields[name]
}

// GetDefault returns the named field, or def when absent or empty.
func (e *Event) GetDefault(name, def string) string {
	if v := e.fields[name]; v != "" {
		return v
	}
	return def
}

// Has reports whether the field is present (possibly empty).
func (e *Event) Has(name string) bool {
	_, ok := e.fields[name]
	return ok
}

// Set stores a field value. Dispatch uses this to guarantee every
// declared variable exists before a handler runs.
func (e *Event) Set(name, value string) {
	e.fields[name] = value
}

// CloseUpload releases the uploaded file, if any.
func (e *Event) CloseUpload() {
	if e.Upload != nil {
		e.Upload.File.Close()
	}
}

// ReadUpload drains the uploaded file into memory.
func (e *Event) ReadUpload() ([]byte, error) {
	if e.Upload == nil {
		return nil, fmt.Errorf("event has no upload")
	}
	return io.ReadAll(e.Upload.File)
}
