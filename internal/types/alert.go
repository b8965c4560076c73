package types

import (
	"strings"
	"time"
)

// LocationUID is the raw location identifier as sent by the alerts API.
// The live API sends it as a string, older payloads as a number; both decode.
type LocationUID string

// UnmarshalJSON accepts a JSON string or a bare number. Anything else is kept
// verbatim so the filter can reject the single alert instead of the snapshot.
func (u *LocationUID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*u = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*u = LocationUID(s)
	return nil
}

// RawAlert is one entry of the remote snapshot
type RawAlert struct {
	LocationUID LocationUID `json:"location_uid"`
	AlertType   string      `json:"alert_type"`
	Notes       string      `json:"notes"`
	StartedAt   string      `json:"started_at"`
	FinishedAt  *string     `json:"finished_at"`
}

// Snapshot is the decoded body of the active alerts endpoint.
// Entries that could not be decoded are left out of Alerts and reported
// in Rejected, one error per entry.
type Snapshot struct {
	Alerts   []RawAlert `json:"alerts"`
	Rejected []error    `json:"-"`
}

// FilteredAlert is a RawAlert that passed the region and category allow-lists
type FilteredAlert struct {
	LocationID   int
	LocationName string
	AlertType    string
	Notes        string
	StartedAt    time.Time
	FinishedAt   *time.Time
	IsActive     bool
}

// EventKind distinguishes the two transition directions
type EventKind string

const (
	EventStarted EventKind = "started"
	EventEnded   EventKind = "ended"
)

// TransitionEvent is emitted when a region's alert status changes
type TransitionEvent struct {
	LocationID   int
	LocationName string
	Kind         EventKind
	AlertType    string
	Notes        string // only set for EventStarted
	DetectedAt   time.Time
}
