package repository

import (
	"encoding/json"
	"time"

	"github.com/tnrbusiness/outreach/internal/domain"
	"gorm.io/datatypes"
)

// CredentialModel is the persistence model for platform credentials. The
// platform is the primary key: at most one active credential per platform.
type CredentialModel struct {
	Platform     domain.Platform   `gorm:"type:varchar(20);primaryKey"`
	AccessToken  string            `gorm:"type:text;not null"`
	RefreshToken string            `gorm:"type:text"`
	ExpiresAt    *time.Time        `gorm:"type:timestamptz"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CredentialModel) TableName() string {
	return "credentials"
}

// RecordModel is the persistence model for CRM entity records. The same
// schema backs the remote store and the sqlite fallback.
type RecordModel struct {
	ID        string            `gorm:"type:uuid;primaryKey"`
	Kind      domain.EntityKind `gorm:"type:varchar(10);not null;index"`
	Fields    datatypes.JSONMap `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RecordModel) TableName() string {
	return "records"
}

// PostModel is the persistence model for dispatch history.
type PostModel struct {
	ID          string            `gorm:"type:uuid;primaryKey"`
	Platforms   datatypes.JSON    `gorm:"type:jsonb;not null"`
	Content     string            `gorm:"type:text;not null"`
	Media       datatypes.JSON    `gorm:"type:jsonb"`
	Status      domain.PostStatus `gorm:"type:varchar(20);not null"`
	ScheduledAt *time.Time        `gorm:"type:timestamptz"`
	Results     datatypes.JSON    `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PostModel) TableName() string {
	return "posts"
}

// EventModel is the persistence model for notification delivery outcomes.
type EventModel struct {
	ID          string            `gorm:"type:uuid;primaryKey"`
	Kind        domain.EventKind  `gorm:"type:varchar(20);not null"`
	Payload     datatypes.JSONMap `gorm:"type:jsonb"`
	AttemptedAt *time.Time        `gorm:"type:timestamptz"`
	Delivered   bool              `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

func (EventModel) TableName() string {
	return "notification_events"
}

func credentialModelFromDomain(c *domain.Credential) *CredentialModel {
	if c == nil {
		return nil
	}

	metadata := make(datatypes.JSONMap, len(c.Metadata))
	for k, v := range c.Metadata {
		metadata[k] = v
	}

	return &CredentialModel{
		Platform:     c.Platform,
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt,
		Metadata:     metadata,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func credentialModelToDomain(m *CredentialModel) *domain.Credential {
	if m == nil {
		return nil
	}

	metadata := make(map[string]string, len(m.Metadata))
	for k, v := range m.Metadata {
		if s, ok := v.(string); ok {
			metadata[k] = s
		}
	}

	return &domain.Credential{
		Platform:     m.Platform,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		ExpiresAt:    m.ExpiresAt,
		Metadata:     metadata,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func recordModelFromDomain(r *domain.Record) *RecordModel {
	if r == nil {
		return nil
	}

	return &RecordModel{
		ID:        r.ID,
		Kind:      r.Kind,
		Fields:    datatypes.JSONMap(r.Fields),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func recordModelToDomain(m *RecordModel, source domain.Source) *domain.Record {
	if m == nil {
		return nil
	}

	return &domain.Record{
		ID:        m.ID,
		Kind:      m.Kind,
		Fields:    map[string]any(m.Fields),
		Source:    source,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func postModelFromDomain(p *domain.Post) (*PostModel, error) {
	if p == nil {
		return nil, nil
	}

	platforms, err := json.Marshal(p.Platforms)
	if err != nil {
		return nil, err
	}
	media, err := json.Marshal(p.Media)
	if err != nil {
		return nil, err
	}
	results, err := json.Marshal(p.Results)
	if err != nil {
		return nil, err
	}

	return &PostModel{
		ID:          p.ID,
		Platforms:   platforms,
		Content:     p.Content,
		Media:       media,
		Status:      p.Status,
		ScheduledAt: p.ScheduledAt,
		Results:     results,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func postModelToDomain(m *PostModel) (*domain.Post, error) {
	if m == nil {
		return nil, nil
	}

	post := &domain.Post{
		ID:          m.ID,
		Content:     m.Content,
		Status:      m.Status,
		ScheduledAt: m.ScheduledAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	if len(m.Platforms) > 0 {
		if err := json.Unmarshal(m.Platforms, &post.Platforms); err != nil {
			return nil, err
		}
	}
	if len(m.Media) > 0 {
		if err := json.Unmarshal(m.Media, &post.Media); err != nil {
			return nil, err
		}
	}
	if len(m.Results) > 0 {
		if err := json.Unmarshal(m.Results, &post.Results); err != nil {
			return nil, err
		}
	}

	return post, nil
}

func eventModelFromDomain(e *domain.Event) *EventModel {
	if e == nil {
		return nil
	}

	return &EventModel{
		ID:          e.ID,
		Kind:        e.Kind,
		Payload:     datatypes.JSONMap(e.Payload),
		AttemptedAt: e.AttemptedAt,
		Delivered:   e.Delivered,
		CreatedAt:   e.CreatedAt,
	}
}

func eventModelToDomain(m *EventModel) *domain.Event {
	if m == nil {
		return nil
	}

	return &domain.Event{
		ID:          m.ID,
		Kind:        m.Kind,
		Payload:     map[string]any(m.Payload),
		AttemptedAt: m.AttemptedAt,
		Delivered:   m.Delivered,
		CreatedAt:   m.CreatedAt,
	}
}
