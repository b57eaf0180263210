package repository

import (
	"context"
	"errors"

	"github.com/tnrbusiness/outreach/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CredentialRepository interface {
	Get(ctx context.Context, platform domain.Platform) (*domain.Credential, error)
	Upsert(ctx context.Context, cred *domain.Credential) error
	Delete(ctx context.Context, platform domain.Platform) error
	List(ctx context.Context) ([]domain.Credential, error)
}

type GormCredentialRepo struct {
	db *gorm.DB
}

func NewGormCredentialRepo(db *gorm.DB) *GormCredentialRepo {
	return &GormCredentialRepo{db: db}
}

func (r *GormCredentialRepo) Get(ctx context.Context, platform domain.Platform) (*domain.Credential, error) {
	var model CredentialModel
	err := r.db.WithContext(ctx).First(&model, "platform = ?", platform).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return credentialModelToDomain(&model), nil
}

// Upsert persists the credential durably before returning. Callers must not
// treat the credential as stored when this errors.
func (r *GormCredentialRepo) Upsert(ctx context.Context, cred *domain.Credential) error {
	model := credentialModelFromDomain(cred)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "platform"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_token", "refresh_token", "expires_at", "metadata", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}
	if cred != nil {
		*cred = *credentialModelToDomain(model)
	}
	return nil
}

func (r *GormCredentialRepo) Delete(ctx context.Context, platform domain.Platform) error {
	result := r.db.WithContext(ctx).Delete(&CredentialModel{}, "platform = ?", platform)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormCredentialRepo) List(ctx context.Context) ([]domain.Credential, error) {
	var models []CredentialModel
	if err := r.db.WithContext(ctx).Order("platform ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	creds := make([]domain.Credential, 0, len(models))
	for i := range models {
		creds = append(creds, *credentialModelToDomain(&models[i]))
	}
	return creds, nil
}
