// SPDX-License-Identifier: GPL-3.0-only

package migrations

import (
	"errors"
	"fmt"

	"admindesk-server/commons"
	"admindesk-server/crypto"
	"admindesk-server/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			// Seeds the first admin account so the console is reachable on a
			// fresh database. Skipped when ADMIN_EMAIL is unset or the
			// account already exists.
			ID: "001_seed_admin_account",
			Migrate: func(tx *gorm.DB) error {
				adminEmail := commons.GetEnv("ADMIN_EMAIL")
				if adminEmail == "" {
					commons.Logger.Debug("ADMIN_EMAIL not set, skipping admin seed")
					return nil
				}
				adminPassword := commons.GetEnv("ADMIN_PASSWORD")
				if adminPassword == "" {
					return fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
				}

				var existing models.User
				err := tx.Where("email = ?", adminEmail).First(&existing).Error
				if err == nil {
					commons.Logger.Debugf("Admin account %s already exists, skipping seed", adminEmail)
					return nil
				}
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("failed to check for existing admin: %w", err)
				}

				hash, err := crypto.NewCrypto().HashPassword(adminPassword)
				if err != nil {
					return fmt.Errorf("failed to hash admin password: %w", err)
				}

				admin := models.User{
					Email:           adminEmail,
					Password:        hash,
					Role:            models.RoleAdmin,
					IsEmailVerified: true,
				}
				if err := tx.Create(&admin).Error; err != nil {
					return fmt.Errorf("failed to seed admin account: %w", err)
				}
				commons.Logger.Infof("Seeded admin account %s", adminEmail)
				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
		{
			// Action tokens from before the signed-payload codec are opaque
			// random strings that can no longer verify; drop them.
			ID: "002_purge_legacy_action_tokens",
			Migrate: func(tx *gorm.DB) error {
				if !tx.Migrator().HasTable(&models.ActionToken{}) {
					return nil
				}
				if err := tx.Where("token NOT LIKE ?", "ey%").Delete(&models.ActionToken{}).Error; err != nil {
					return fmt.Errorf("failed to purge legacy action tokens: %w", err)
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
	}
}
