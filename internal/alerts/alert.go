// Package alerts holds market alerts and the bounded buffer the dashboard
// renders them from.
package alerts

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity is the alert level. It never affects ordering or eviction.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ParseSeverity accepts high, medium or low in any case.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityLow:
		return SeverityLow, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Alert is an immutable market alert. Pass it by value.
type Alert struct {
	ID        uuid.UUID `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Icon      string    `json:"icon"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAlert builds an alert with a fresh ID. A zero timestamp means now.
func NewAlert(severity Severity, message, icon string, ts time.Time) Alert {
	if ts.IsZero() {
		ts = time.Now()
	}
	return Alert{
		ID:        uuid.New(),
		Severity:  severity,
		Message:   message,
		Icon:      icon,
		Timestamp: ts,
	}
}

// alertWire is the push payload for an alert frame.
type alertWire struct {
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Icon      string    `json:"icon"`
	Timestamp time.Time `json:"timestamp"`
}

// Decode parses an alert payload. receivedAt stands in for a missing
// timestamp.
func Decode(data []byte, receivedAt time.Time) (Alert, error) {
	var wire alertWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Alert{}, err
	}
	if wire.Severity == "" {
		return Alert{}, fmt.Errorf("alert severity is required")
	}
	ts := wire.Timestamp
	if ts.IsZero() {
		ts = receivedAt
	}
	return NewAlert(wire.Severity, wire.Message, wire.Icon, ts), nil
}
