// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

var AllModels []any

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID              uint    `gorm:"primaryKey"`
	Email           string  `gorm:"not null;uniqueIndex"`
	Password        string  `gorm:"not null"`
	FullName        *string `gorm:"default:null"`
	Role            string  `gorm:"not null;default:user"`
	Disabled        bool    `gorm:"not null;default:false"`
	IsEmailVerified bool    `gorm:"not null;default:false"`
	AvatarKey       *string `gorm:"default:null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func init() {
	AllModels = append(AllModels, &User{})
}
