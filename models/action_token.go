// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"
)

// ActionToken is the persisted half of a single-use account action
// credential. The row is never updated: it is created at issuance and hard
// deleted when a consumption attempt resolves, so no soft-delete column.
type ActionToken struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"size:512;not null;uniqueIndex"`
	Action    string `gorm:"size:64;not null"`
	ExpiresAt time.Time
	CreatedBy *uint `gorm:"default:null"`
	CreatedAt time.Time
}

func init() {
	AllModels = append(AllModels, &ActionToken{})
}
