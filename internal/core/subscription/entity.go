package subscription

import (
	"encoding/json"
	"time"
)

// Subscription represents a user's weather notification subscription
type Subscription struct {
	ID               uint
	Email            string
	City             string
	Frequency        Frequency
	Confirmed        bool
	ConfirmToken     string
	UnsubscribeToken string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// State is the lifecycle position of a subscription record
type State int

const (
	StateCreated State = iota
	StateActive
)

// String returns the string representation of state
func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "created"
}

// Frequency represents subscription frequency options
type Frequency int

const (
	FrequencyUnknown Frequency = iota
	FrequencyHourly
	FrequencyDaily
)

// Frequencies lists every valid delivery class
var Frequencies = []Frequency{FrequencyHourly, FrequencyDaily}

// String returns the string representation of frequency
func (f Frequency) String() string {
	switch f {
	case FrequencyHourly:
		return "hourly"
	case FrequencyDaily:
		return "daily"
	default:
		return "unknown"
	}
}

// IsValid checks if the frequency value is valid
func (f Frequency) IsValid() bool {
	return f == FrequencyHourly || f == FrequencyDaily
}

// FrequencyFromString converts string to Frequency enum
func FrequencyFromString(s string) Frequency {
	switch s {
	case "hourly":
		return FrequencyHourly
	case "daily":
		return FrequencyDaily
	default:
		return FrequencyUnknown
	}
}

// UnmarshalJSON implements json.Unmarshaler interface
func (f *Frequency) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = FrequencyFromString(s)
	return nil
}

// MarshalJSON implements json.Marshaler interface
func (f Frequency) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalText implements encoding.TextUnmarshaler for form parsing
func (f *Frequency) UnmarshalText(text []byte) error {
	*f = FrequencyFromString(string(text))
	return nil
}

// MarshalText implements encoding.TextMarshaler for form parsing
func (f Frequency) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// State reports where the record is in its lifecycle. Deleted records no longer exist,
// so there is no deleted state to report.
func (s *Subscription) State() State {
	if s.Confirmed {
		return StateActive
	}
	return StateCreated
}

// IsConfirmed checks if subscription is confirmed
func (s *Subscription) IsConfirmed() bool {
	return s.Confirmed
}
