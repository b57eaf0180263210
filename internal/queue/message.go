package queue

import (
	"fmt"
	"strings"

	"github.com/tnrbusiness/outreach/internal/domain"
)

// EventMessage is the broker payload for notification delivery. The event row
// itself stays in the database; the message only carries the id and kind.
type EventMessage struct {
	EventID       string           `json:"eventId"`
	Kind          domain.EventKind `json:"kind"`
	CorrelationID string           `json:"correlationId,omitempty"`
}

func (m EventMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return fmt.Errorf("eventId is required")
	}
	if !m.Kind.IsValid() {
		return fmt.Errorf("invalid event kind %q", m.Kind)
	}
	return nil
}
