package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventKind identifies a best-effort notification trigger.
type EventKind string

const (
	EventNewLead        EventKind = "NEW_LEAD"
	EventOrderConfirmed EventKind = "ORDER_CONFIRMED"
	EventCampaignSent   EventKind = "CAMPAIGN_SENT"
)

func (k EventKind) String() string { return string(k) }

func (k EventKind) IsValid() bool {
	switch k {
	case EventNewLead, EventOrderConfirmed, EventCampaignSent:
		return true
	}
	return false
}

func ParseEventKindFromString(s string) (EventKind, error) {
	k := EventKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: invalid event kind %q", ErrValidation, s)
	}
	return k, nil
}

// Event is a fire-and-forget notification. Delivery failure is logged and
// recorded, never escalated to the caller of the triggering operation.
type Event struct {
	ID          string
	Kind        EventKind
	Payload     map[string]any
	AttemptedAt *time.Time
	Delivered   bool
	CreatedAt   time.Time
}

func (e Event) Validate() error {
	if !e.Kind.IsValid() {
		return fmt.Errorf("%w: invalid event kind %q", ErrValidation, e.Kind)
	}
	return nil
}
