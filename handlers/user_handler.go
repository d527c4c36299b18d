// SPX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"
	"time"

	"admindesk-server/apperrors"
	"admindesk-server/crypto"
	"admindesk-server/db"
	"admindesk-server/middlewares"
	"admindesk-server/models"
	"admindesk-server/passwordcheck"
	"admindesk-server/storage"

	"github.com/labstack/echo/v4"
)

// userDetails builds the client view of an account. The password hash never
// leaves the server; the avatar key is exchanged for a short-lived URL.
func userDetails(c echo.Context, user *models.User) UserDetails {
	details := UserDetails{
		ID:              user.ID,
		Email:           user.Email,
		FullName:        user.FullName,
		Role:            user.Role,
		Disabled:        user.Disabled,
		IsEmailVerified: user.IsEmailVerified,
		CreatedAt:       user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       user.UpdatedAt.Format(time.RFC3339),
	}

	if user.AvatarKey != nil {
		store, err := storage.NewAvatarStore()
		if err == nil {
			if url, err := store.PresignedURL(c.Request().Context(), *user.AvatarKey, 15*time.Minute); err == nil {
				details.AvatarURL = &url
			} else {
				c.Logger().Warnf("Failed to presign avatar for user %d: %v", user.ID, err)
			}
		}
	}
	return details
}

// GetMeHandler godoc
// @Summary      Get own profile
// @Description  Retrieves the details of the authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Success      200 {object} UserResponse    "User retrieved successfully"
// @Failure      401 {object} GenericResponse "Unauthorized, invalid or expired session token"
// @Router       /v1/users/me [get]
func GetMeHandler(c echo.Context) error {
	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		c.Logger().Error("Failed to get authenticated user:", err)
		return apperrors.Unauthorized("Invalid or expired authentication token, please login again")
	}

	return c.JSON(http.StatusOK, UserResponse{
		User:    userDetails(c, user),
		Message: "User retrieved successfully",
	})
}

// UpdateMeHandler godoc
// @Summary      Update own profile
// @Description  Updates the authenticated user's profile fields.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        updateProfileRequest  body  UpdateProfileRequest  true  "Profile update payload"
// @Success      200 {object} UserResponse    "Profile updated successfully"
// @Failure      400 {object} GenericResponse "Bad request"
// @Failure      401 {object} GenericResponse "Unauthorized"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users/me [put]
func UpdateMeHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return apperrors.Unauthorized("Invalid or expired authentication token, please login again")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid profile update payload:", err)
		return apperrors.InvalidInput("Invalid request payload")
	}

	if req.FullName != nil {
		if err := db.Conn.Model(user).Update("full_name", req.FullName).Error; err != nil {
			logger.Errorf("Failed to update profile: %v", err)
			return apperrors.Internal()
		}
		user.FullName = req.FullName
	}

	return c.JSON(http.StatusOK, UserResponse{
		User:    userDetails(c, user),
		Message: "Profile updated successfully",
	})
}

// ChangePasswordHandler godoc
// @Summary      Change own password
// @Description  Changes the authenticated user's password after verifying the current one. All other sessions are revoked.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        changePasswordRequest  body  ChangePasswordRequest  true  "Password change payload"
// @Success      200 {object} GenericResponse "Password changed successfully"
// @Failure      400 {object} GenericResponse "Bad request"
// @Failure      401 {object} GenericResponse "Unauthorized or wrong current password"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users/me/password [put]
func ChangePasswordHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return apperrors.Unauthorized("Invalid or expired authentication token, please login again")
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid change password payload:", err)
		return apperrors.InvalidInput("Invalid request payload")
	}

	if req.CurrentPassword == "" {
		return apperrors.InvalidInput("current_password field is required")
	}
	if req.NewPassword == "" {
		return apperrors.InvalidInput("new_password field is required")
	}

	newCrypto := crypto.NewCrypto()
	if err := newCrypto.VerifyPassword(req.CurrentPassword, user.Password); err != nil {
		logger.Error("Current password verification failed.")
		return apperrors.WrongPassword()
	}

	if err := passwordcheck.ValidatePassword(c.Request().Context(), req.NewPassword); err != nil {
		logger.Error("New password validation failed: ", err)
		return apperrors.InvalidInput("Invalid new password: " + err.Error())
	}

	if err := newCrypto.VerifyPassword(req.NewPassword, user.Password); err == nil {
		return apperrors.InvalidInput("New password must be different from the current password")
	}

	hash, err := newCrypto.HashPassword(req.NewPassword)
	if err != nil {
		logger.Errorf("Failed to hash new password: %v", err)
		return apperrors.Internal()
	}

	if err := db.Conn.Model(user).Update("password", hash).Error; err != nil {
		logger.Errorf("Failed to update password: %v", err)
		return apperrors.Internal()
	}

	// Revoke every session except the one making this change.
	currentSession, _ := c.Get("session").(models.Session)
	if err := db.Conn.Unscoped().
		Where("user_id = ? AND id != ?", user.ID, currentSession.ID).
		Delete(&models.Session{}).Error; err != nil {
		logger.Errorf("Failed to revoke other sessions: %v", err)
	}

	logger.Infof("Password changed successfully for user %d", user.ID)
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Password changed successfully",
	})
}
