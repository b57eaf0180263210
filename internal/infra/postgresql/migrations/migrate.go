package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/tnrbusiness/outreach/internal/repository"
	"gorm.io/gorm"
)

// Migrate applies the remote store schema.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_credentials",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.CredentialModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.CredentialModel{})
			},
		},
		{
			ID: "000002_create_records",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.RecordModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_records_kind_created ON records (kind, created_at)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.RecordModel{})
			},
		},
		{
			ID: "000003_create_posts",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.PostModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_posts_status_created ON posts (status, created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_posts_scheduled ON posts (scheduled_at) WHERE status = 'SCHEDULED'`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.PostModel{})
			},
		},
		{
			ID: "000004_create_notification_events",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.EventModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.EventModel{})
			},
		},
	})

	return m.Migrate()
}
