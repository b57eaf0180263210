package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntityKind distinguishes the CRM record collections.
type EntityKind string

const (
	KindClient EntityKind = "CLIENT"
	KindLead   EntityKind = "LEAD"
	KindOrder  EntityKind = "ORDER"
)

func (k EntityKind) String() string { return string(k) }

func (k EntityKind) IsValid() bool {
	switch k {
	case KindClient, KindLead, KindOrder:
		return true
	}
	return false
}

func ParseEntityKindFromString(s string) (EntityKind, error) {
	k := EntityKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: invalid entity kind %q", ErrValidation, s)
	}
	return k, nil
}

// Source identifies which persistence path produced a record.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

func (s Source) String() string { return string(s) }

// Record is a CRM entity (client, lead or order). ID is generated at creation
// and never changes, regardless of which persistence path committed it or any
// later reconciliation from the local cache into the remote store.
type Record struct {
	ID        string
	Kind      EntityKind
	Fields    map[string]any
	Source    Source
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Record) Validate() error {
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: invalid entity kind %q", ErrValidation, r.Kind)
	}
	if len(r.Fields) == 0 {
		return fmt.Errorf("%w: record fields are required", ErrValidation)
	}
	return nil
}

// Field returns a string field value, empty when missing or non-string.
func (r Record) Field(key string) string {
	if r.Fields == nil {
		return ""
	}
	v, ok := r.Fields[key].(string)
	if !ok {
		return ""
	}
	return v
}

// Matches reports whether every filter entry equals the record's field value.
// An empty filter matches everything.
func (r Record) Matches(filter map[string]any) bool {
	for key, want := range filter {
		got, ok := r.Fields[key]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
