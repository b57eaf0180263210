package repository

import (
	"context"
	"errors"

	"github.com/tnrbusiness/outreach/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordStore is one persistence path of the facade. Both the remote
// (postgres) and the local fallback (sqlite) store implement it.
type RecordStore interface {
	Create(ctx context.Context, record *domain.Record) error
	Upsert(ctx context.Context, record *domain.Record) error
	GetByID(ctx context.Context, kind domain.EntityKind, id string) (*domain.Record, error)
	List(ctx context.Context, kind domain.EntityKind, filter map[string]any) ([]domain.Record, error)
	Delete(ctx context.Context, kind domain.EntityKind, id string) error
	All(ctx context.Context) ([]domain.Record, error)
	Ping(ctx context.Context) error
}

type GormRecordStore struct {
	db     *gorm.DB
	source domain.Source
}

// NewGormRecordStore wraps a gorm DB as one persistence path. The source tag
// is stamped onto every record the store returns.
func NewGormRecordStore(db *gorm.DB, source domain.Source) *GormRecordStore {
	return &GormRecordStore{db: db, source: source}
}

func (s *GormRecordStore) Source() domain.Source { return s.source }

func (s *GormRecordStore) Create(ctx context.Context, record *domain.Record) error {
	model := recordModelFromDomain(record)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if record != nil {
		*record = *recordModelToDomain(model, s.source)
	}
	return nil
}

// Upsert writes a record keeping its id. Used by reconciliation to migrate
// fallback records into the remote store without changing identity.
func (s *GormRecordStore) Upsert(ctx context.Context, record *domain.Record) error {
	model := recordModelFromDomain(record)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "fields", "updated_at"}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}
	if record != nil {
		*record = *recordModelToDomain(model, s.source)
	}
	return nil
}

func (s *GormRecordStore) GetByID(ctx context.Context, kind domain.EntityKind, id string) (*domain.Record, error) {
	var model RecordModel
	err := s.db.WithContext(ctx).First(&model, "kind = ? AND id = ?", kind, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return recordModelToDomain(&model, s.source), nil
}

// List fetches a kind and applies the field filter in memory, so the same
// filter semantics hold on postgres and sqlite.
func (s *GormRecordStore) List(ctx context.Context, kind domain.EntityKind, filter map[string]any) ([]domain.Record, error) {
	var models []RecordModel
	err := s.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(models))
	for i := range models {
		record := recordModelToDomain(&models[i], s.source)
		if record.Matches(filter) {
			records = append(records, *record)
		}
	}
	return records, nil
}

func (s *GormRecordStore) Delete(ctx context.Context, kind domain.EntityKind, id string) error {
	result := s.db.WithContext(ctx).Delete(&RecordModel{}, "kind = ? AND id = ?", kind, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *GormRecordStore) All(ctx context.Context) ([]domain.Record, error) {
	var models []RecordModel
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(models))
	for i := range models {
		records = append(records, *recordModelToDomain(&models[i], s.source))
	}
	return records, nil
}

func (s *GormRecordStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
