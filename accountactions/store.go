// SPDX-License-Identifier: GPL-3.0-only

package accountactions

import (
	"errors"
	"fmt"
	"time"

	"admindesk-server/commons"
	"admindesk-server/models"

	"gorm.io/gorm"
)

// ErrDuplicateToken means a token string collided on the unique index. The
// codec's signature space makes this effectively impossible, so it is a hard
// error rather than something to retry or ignore.
var ErrDuplicateToken = errors.New("action token string already exists")

type TokenStore struct {
	DB *gorm.DB
}

func NewTokenStore(conn *gorm.DB) *TokenStore {
	return &TokenStore{DB: conn}
}

func (s *TokenStore) Create(tokenString, action string, expiresAt time.Time, createdBy *uint) (*models.ActionToken, error) {
	if !expiresAt.After(time.Now()) {
		return nil, fmt.Errorf("action token expiry must be in the future")
	}

	record := models.ActionToken{
		Token:     tokenString,
		Action:    action,
		ExpiresAt: expiresAt,
		CreatedBy: createdBy,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateToken
		}
		var existing models.ActionToken
		if lookupErr := s.DB.Where("token = ?", tokenString).First(&existing).Error; lookupErr == nil {
			return nil, ErrDuplicateToken
		}
		return nil, err
	}
	return &record, nil
}

func (s *TokenStore) FindByToken(tokenString string) (*models.ActionToken, error) {
	var record models.ActionToken
	err := s.DB.Where("token = ?", tokenString).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteByID is idempotent; deleting an id that is already gone is fine,
// which keeps failure-path cleanup safe to run twice.
func (s *TokenStore) DeleteByID(id uint) error {
	return s.DB.Delete(&models.ActionToken{}, id).Error
}

// FindAndDelete atomically claims a token row. The delete is the
// serialization point: of two racing consumers only one sees RowsAffected=1
// and gets the record back, the other observes the row gone.
func (s *TokenStore) FindAndDelete(tokenString string) (*models.ActionToken, error) {
	var record models.ActionToken
	err := s.DB.Where("token = ?", tokenString).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res := s.DB.Delete(&models.ActionToken{}, record.ID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		commons.Logger.Debugf("Action token %d was consumed concurrently", record.ID)
		return nil, nil
	}
	return &record, nil
}

// PurgeExpired removes tokens whose window has lapsed without consumption.
func (s *TokenStore) PurgeExpired() (int64, error) {
	res := s.DB.Where("expires_at < ?", time.Now()).Delete(&models.ActionToken{})
	return res.RowsAffected, res.Error
}
