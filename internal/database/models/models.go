package models

import (
	"encoding/json"
	"time"
)

// Domain represents a tenant domain served by the switch.
type Domain struct {
	ID        string // UUID
	Name      string // e.g. "pbx.example.com"
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DomainSetting is a per-domain key-value setting (default language,
// recordings directory, etc.) consumed by the variable resolver.
type DomainSetting struct {
	ID       string // UUID
	DomainID string
	Name     string
	Value    string
}

// Extension represents a subscriber extension.
type Extension struct {
	ID              string // UUID
	DomainID        string
	Extension       string // dialable number
	Name            string
	FollowMeEnabled bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RingGroup represents a ring group and its timeout behaviour.
type RingGroup struct {
	ID          string // UUID
	DomainID    string
	Name        string
	Extension   string
	Strategy    string // "simultaneous" | "sequence"
	Members     string // JSON array of dial targets
	RingTimeout int
	TimeoutApp  string // application to run when nobody answers
	TimeoutData string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MemberList decodes the JSON members column.
func (r *RingGroup) MemberList() ([]string, error) {
	if r.Members == "" {
		return nil, nil
	}
	var members []string
	if err := json.Unmarshal([]byte(r.Members), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CallFlow represents a day/night call flow. Status true means day mode.
// Destination and AlternateDestination are "app:data" switch actions for
// day and night mode respectively.
type CallFlow struct {
	ID                   string // UUID
	DomainID             string
	Name                 string
	Extension            string // dialable number routed by the flow
	Context              string // dialplan context, empty means domain name
	FeatureCode          string
	Status               bool
	Destination          string
	AlternateDestination string
	DialplanXML          string // derived dialplan artifact, regenerated on toggle
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CallBlock is a caller screening rule. Name and Number are match
// patterns; Data is the switch action as "app:data".
type CallBlock struct {
	ID        string // UUID
	DomainID  string
	Name      string // caller id name to match, empty matches any
	Number    string // caller id number to match, empty matches any
	Data      string
	Enabled   bool
	CreatedAt time.Time
}

// Recording is a stored audio recording owned by a domain.
type Recording struct {
	ID          string // UUID
	DomainID    string
	Name        string // canonical file name, e.g. "recording3.wav"
	Filename    string // absolute path on disk
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ConferenceCentre groups conference rooms for a domain.
type ConferenceCentre struct {
	ID        string // UUID
	DomainID  string
	Name      string
	Extension string
	Enabled   bool
	CreatedAt time.Time
}

// ConferenceRoom is a PIN-protected room within a centre.
type ConferenceRoom struct {
	ID             string // UUID
	CentreID       string
	Name           string
	Profile        string
	ParticipantPIN string
	ModeratorPIN   string
	MaxMembers     int
	Record         bool
	WaitMod        bool
	Announce       bool
	Sounds         bool
	Mute           bool
	Enabled        bool
	CreatedAt      time.Time
}

// ConferenceSession tracks one caller's presence in a conference room.
type ConferenceSession struct {
	ID             string // UUID
	RoomID         string
	Profile        string
	Live           bool
	Recording      string // archive path once recording is scheduled
	CallerIDName   string
	CallerIDNumber string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IPRegister deduplicates device IPs seen in registration events.
type IPRegister struct {
	ID        string // UUID
	Address   string // unique
	CreatedAt time.Time
}

// EmailTemplate is a templated message (missed-call notice etc.) keyed by
// domain, language and category.
type EmailTemplate struct {
	ID          string // UUID
	DomainID    string // empty means any domain
	Language    string // e.g. "en-us"
	Category    string // e.g. "missed"
	Subcategory string // e.g. "default"
	Subject     string
	Body        string
	Type        string // "text" | "html"
}

// CallSession is the per-call-leg state blob persisted between switch
// events. Data maps handler name to that handler's JSON state.
type CallSession struct {
	ID        string // call/session UUID from the switch
	Data      map[string]json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}
