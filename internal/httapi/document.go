package httapi

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Field names the switch posts collected input under. The dialplan binds
// digit input to PlaybackInputField and uploaded audio to RecordInputField.
const (
	PlaybackInputField = "pb_input"
	RecordInputField   = "rd_input"
)

// Canonical digit-collection settings shared by every PIN and menu prompt.
const (
	digitMask        = `~\d+`
	digitTerminator  = "#"
	digitTimeoutMs   = 10000
	digitLoops       = 3
	invalidEntryFile = "ivr/ivr-that_was_an_invalid_entry.wav"
	recordLimitSec   = 300
	recordBeepFile   = "tone_stream://%(500,0,640)"
)

// Instruction is one element of the work block. The switch executes
// instructions top to bottom and stops at the first terminal one.
type Instruction interface {
	node() element
}

// element is the serialization form of an instruction.
type element struct {
	name     string
	attrs    []xml.Attr
	text     string
	children []element
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// Execute runs a dialplan application with optional data.
type Execute struct {
	Application string
	Data        string
}

func (e Execute) node() element {
	attrs := []xml.Attr{attr("application", e.Application)}
	if e.Data != "" {
		attrs = append(attrs, attr("data", e.Data))
	}
	return element{name: "execute", attrs: attrs}
}

// Playback plays an audio file or phrase macro.
type Playback struct {
	File string
}

func (p Playback) node() element {
	return element{name: "playback", attrs: []xml.Attr{attr("file", p.File)}}
}

// Pause waits for the given number of milliseconds.
type Pause struct {
	Milliseconds int
}

func (p Pause) node() element {
	return element{name: "pause", attrs: []xml.Attr{attr("milliseconds", strconv.Itoa(p.Milliseconds))}}
}

// Log writes a line into the switch log.
type Log struct {
	Level string
	Text  string
}

func (l Log) node() element {
	return element{name: "log", attrs: []xml.Attr{attr("level", l.Level)}, text: l.Text}
}

// Hangup ends the call, optionally with a specific cause. Terminal.
type Hangup struct {
	Cause string
}

func (h Hangup) node() element {
	var attrs []xml.Attr
	if h.Cause != "" {
		attrs = append(attrs, attr("cause", h.Cause))
	}
	return element{name: "hangup", attrs: attrs}
}

// Break stops work-block execution and resumes the dialplan. Terminal.
type Break struct{}

func (Break) node() element { return element{name: "break"} }

// Continue resumes the dialplan without waiting for further input.
type Continue struct{}

func (Continue) node() element { return element{name: "continue"} }

// Conference bridges the caller into a named conference room. Terminal
// for the workflow: subsequent events are in-room events.
type Conference struct {
	Room    string
	Profile string
	Flags   string
}

func (c Conference) node() element {
	attrs := []xml.Attr{attr("profile", c.Profile)}
	if c.Flags != "" {
		attrs = append(attrs, attr("flags", c.Flags))
	}
	return element{name: "conference", attrs: attrs, text: c.Room}
}

// PlaybackCollect plays a prompt and collects DTMF digits into a named
// field the switch posts back on the next event. Blocking.
type PlaybackCollect struct {
	File string
	Name string // target field; defaults to PlaybackInputField
	Mask string // digit validation pattern; defaults to digitMask
}

func (p PlaybackCollect) node() element {
	name := p.Name
	if name == "" {
		name = PlaybackInputField
	}
	mask := p.Mask
	if mask == "" {
		mask = digitMask
	}
	return element{
		name: "playback",
		attrs: []xml.Attr{
			attr("name", name),
			attr("file", p.File),
			attr("error-file", invalidEntryFile),
			attr("input-timeout", strconv.Itoa(digitTimeoutMs)),
			attr("loops", strconv.Itoa(digitLoops)),
		},
		children: []element{{
			name:  "bind",
			attrs: []xml.Attr{attr("strip", digitTerminator)},
			text:  mask,
		}},
	}
}

// RecordCollect records the caller's audio into a file, stopping on DTMF
// or timeout. The switch uploads the audio with the next event. Blocking.
type RecordCollect struct {
	File string
}

func (r RecordCollect) node() element {
	return element{
		name: "record",
		attrs: []xml.Attr{
			attr("name", RecordInputField),
			attr("file", r.File),
			attr("error-file", invalidEntryFile),
			attr("input-timeout", strconv.Itoa(digitTimeoutMs)),
			attr("beep-file", recordBeepFile),
			attr("limit", strconv.Itoa(recordLimitSec)),
		},
		children: []element{{
			name:  "bind",
			attrs: []xml.Attr{attr("strip", digitTerminator)},
			text:  digitMask,
		}},
	}
}

// Document is the XML response returned to the switch: an empty params
// element plus an ordered work block. A document with no instructions is
// still valid and means "do nothing, wait".
type Document struct {
	work []Instruction
}

// NewDocument creates an empty response document.
func NewDocument() *Document {
	return &Document{}
}

// Add appends instructions to the work block in order.
func (d *Document) Add(instructions ...Instruction) {
	d.work = append(d.work, instructions...)
}

// Empty reports whether the work block has no instructions.
func (d *Document) Empty() bool {
	return len(d.work) == 0
}

// Render serializes the document as indented UTF-8 XML. Output is
// deterministic: identical instruction sequences produce identical bytes.
func (d *Document) Render() string {
	var sb strings.Builder
	enc := xml.NewEncoder(&sb)
	enc.Indent("", "  ")

	root := element{
		name:  "document",
		attrs: []xml.Attr{attr("type", "xml/freeswitch-httapi")},
		children: []element{
			{name: "params"},
			workElement(d.work),
		},
	}
	encodeElement(enc, root)
	enc.Flush()
	sb.WriteString("\n")
	return sb.String()
}

func workElement(work []Instruction) element {
	el := element{name: "work"}
	for _, in := range work {
		el.children = append(el.children, in.node())
	}
	return el
}

func encodeElement(enc *xml.Encoder, el element) {
	start := xml.StartElement{Name: xml.Name{Local: el.name}, Attr: el.attrs}
	enc.EncodeToken(start)
	if el.text != "" {
		enc.EncodeToken(xml.CharData(el.text))
	}
	for _, child := range el.children {
		encodeElement(enc, child)
	}
	enc.EncodeToken(start.End())
}
