// SPDX-License-Identifier: GPL-3.0-only

// Package accountactions implements the token-mediated account workflows:
// password reset and email verification. A workflow invocation runs to a
// single terminal outcome; issuance persists a single-use token row plus a
// signed payload inside the token string, consumption requires both halves
// to agree before any effect is applied.
package accountactions

import (
	"errors"
	"net/http"
	"time"

	"admindesk-server/apperrors"
	"admindesk-server/commons"
	"admindesk-server/crypto"
	"admindesk-server/models"
	"admindesk-server/notifications"

	"gorm.io/gorm"
)

type Workflow struct {
	DB       *gorm.DB
	Store    *TokenStore
	Dispatch func(data notifications.NotificationData) error
}

func NewWorkflow(conn *gorm.DB) *Workflow {
	return &Workflow{
		DB:    conn,
		Store: NewTokenStore(conn),
		Dispatch: func(data notifications.NotificationData) error {
			return notifications.DispatchNotification(notifications.Email, notifications.DefaultEmailProvider(), data)
		},
	}
}

// RequestAction mints a signed token, persists its single-use record, then
// emails the subject a deep link. A dispatch failure is returned to the
// caller but the token stays valid; a re-request simply issues a fresh one.
func (w *Workflow) RequestAction(email, action string, createdBy *uint) error {
	window, err := windowFor(action)
	if err != nil {
		commons.Logger.Errorf("Rejecting action request: %v", err)
		return apperrors.InvalidInput("Unknown account action")
	}

	var user models.User
	err = w.DB.Where("email = ?", commons.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.UserNotFound()
	}
	if err != nil {
		commons.Logger.Errorf("Failed to look up account for %s: %v", action, err)
		return apperrors.Internal()
	}

	expiresAt := time.Now().Add(window)
	tokenString, err := crypto.MintActionToken(user.Email, expiresAt, action)
	if err != nil {
		commons.Logger.Errorf("Failed to mint action token: %v", err)
		return apperrors.Internal()
	}

	if _, err := w.Store.Create(tokenString, action, expiresAt, createdBy); err != nil {
		commons.Logger.Errorf("Failed to persist action token: %v", err)
		return apperrors.Internal()
	}

	if err := w.Dispatch(actionNotification(&user, action, tokenString, window)); err != nil {
		// The token record is already valid and intentionally stays; the
		// user can retry the request and supersede it with a fresh token.
		commons.Logger.Errorf("Failed to dispatch %s notification: %v", action, err)
		return apperrors.New(apperrors.CodeError, http.StatusInternalServerError, "The email could not be sent, please try again")
	}
	return nil
}

type ConsumeParams struct {
	TokenString string
	Action      string
	// Identity is the authenticated caller, when there is one. Consuming a
	// verification link while logged in as someone else is rejected; with no
	// session the signed token alone is trusted.
	Identity    *models.User
	NewPassword string
}

// ConsumeAction redeems a token exactly once. The store's FindAndDelete is
// the serialization point, so every terminal outcome past the lookup leaves
// no consumable row behind.
func (w *Workflow) ConsumeAction(params ConsumeParams) (*models.User, error) {
	record, err := w.Store.FindAndDelete(params.TokenString)
	if err != nil {
		commons.Logger.Errorf("Failed to claim action token: %v", err)
		return nil, apperrors.Internal()
	}
	if record == nil {
		return nil, apperrors.TokenNotFound()
	}

	claims, err := crypto.VerifyActionToken(params.TokenString)
	if err != nil {
		commons.Logger.Warnf("Claimed action token %d failed verification", record.ID)
		return nil, apperrors.InvalidToken()
	}

	// A valid-looking token must not be redeemable for an action other than
	// the one it was minted for.
	if claims.Action != record.Action || record.Action != params.Action {
		return nil, apperrors.InvalidToken()
	}

	// The persisted record is authoritative for expiry, not the claim.
	if time.Now().After(record.ExpiresAt) {
		return nil, apperrors.TokenExpired()
	}

	var user models.User
	err = w.DB.Where("email = ?", commons.NormalizeEmail(claims.SubjectEmail)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.UserNotFound()
	}
	if err != nil {
		commons.Logger.Errorf("Failed to resolve token subject: %v", err)
		return nil, apperrors.Internal()
	}

	switch params.Action {
	case ActionEmailVerification:
		if params.Identity != nil && params.Identity.ID != user.ID {
			return nil, apperrors.WrongToken()
		}
		if user.IsEmailVerified {
			return nil, apperrors.AlreadyVerified()
		}
		if err := w.DB.Model(&user).Update("is_email_verified", true).Error; err != nil {
			commons.Logger.Errorf("Failed to mark email verified: %v", err)
			return nil, apperrors.Internal()
		}
		user.IsEmailVerified = true

	case ActionPasswordReset:
		hash, err := crypto.NewCrypto().HashPassword(params.NewPassword)
		if err != nil {
			commons.Logger.Errorf("Failed to hash new password: %v", err)
			return nil, apperrors.Internal()
		}
		if err := w.DB.Model(&user).Update("password", hash).Error; err != nil {
			commons.Logger.Errorf("Failed to update password: %v", err)
			return nil, apperrors.Internal()
		}
		user.Password = hash
		// A reset revokes every live session for the account.
		if err := w.DB.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			commons.Logger.Errorf("Failed to revoke sessions after reset: %v", err)
		}

	default:
		return nil, apperrors.InvalidInput("Unknown account action")
	}

	commons.Logger.Infof("Action %s consumed for user %d", params.Action, user.ID)
	return &user, nil
}

func actionNotification(user *models.User, action, tokenString string, window time.Duration) notifications.NotificationData {
	appURL := commons.GetEnv("APP_URL", "http://localhost:3000")
	baseURL := appURL
	if user.Role == models.RoleAdmin {
		baseURL = commons.GetEnv("ADMIN_APP_URL", appURL+"/admin")
	}

	vars := map[string]any{
		"username":         user.Email,
		"product_name":     "AdminDesk",
		"base_url":         appURL,
		"expiration_hours": int(window.Hours()),
	}
	if user.FullName != nil && *user.FullName != "" {
		vars["name"] = *user.FullName
	}

	data := notifications.NotificationData{
		To:        user.Email,
		ToName:    user.FullName,
		Variables: vars,
	}

	switch action {
	case ActionPasswordReset:
		vars["reset_link"] = baseURL + "/forget-password?token=" + tokenString
		data.Subject = "AdminDesk Password Reset"
		data.Template = "password-reset"
	case ActionEmailVerification:
		vars["verification_link"] = baseURL + "/verify-email?token=" + tokenString
		data.Subject = "AdminDesk Email Verification"
		data.Template = "verify-email"
	}
	return data
}
