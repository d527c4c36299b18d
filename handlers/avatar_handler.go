// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"admindesk-server/apperrors"
	"admindesk-server/db"
	"admindesk-server/middlewares"
	"admindesk-server/models"
	"admindesk-server/storage"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxAvatarSize = 5 << 20

var avatarContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func storeAvatar(c echo.Context, user *models.User) error {
	logger := c.Logger()

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		logger.Error("Missing avatar form file:", err)
		return apperrors.InvalidInput("avatar file is required")
	}

	if fileHeader.Size > maxAvatarSize {
		return apperrors.InvalidInput("Avatar must not exceed 5MB")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	ext, ok := avatarContentTypes[contentType]
	if !ok {
		return apperrors.InvalidInput("Avatar must be a JPEG, PNG, GIF or WebP image")
	}
	if declared := strings.ToLower(filepath.Ext(fileHeader.Filename)); declared == ".jpeg" && ext == ".jpg" {
		ext = ".jpeg"
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Errorf("Failed to open uploaded avatar: %v", err)
		return apperrors.Internal()
	}
	defer file.Close()

	store, err := storage.NewAvatarStore()
	if err != nil {
		logger.Errorf("Object storage unavailable: %v", err)
		return apperrors.Internal()
	}

	key := "avatars/" + uuid.NewString() + ext
	ctx := c.Request().Context()
	if err := store.Upload(ctx, key, file, fileHeader.Size, contentType); err != nil {
		logger.Errorf("Failed to upload avatar: %v", err)
		return apperrors.Internal()
	}

	oldKey := user.AvatarKey
	if err := db.Conn.Model(user).Update("avatar_key", key).Error; err != nil {
		logger.Errorf("Failed to save avatar key: %v", err)
		if cleanupErr := store.Delete(ctx, key); cleanupErr != nil {
			logger.Warnf("Failed to clean up orphaned avatar %s: %v", key, cleanupErr)
		}
		return apperrors.Internal()
	}
	user.AvatarKey = &key

	if oldKey != nil {
		if err := store.Delete(ctx, *oldKey); err != nil {
			logger.Warnf("Failed to delete previous avatar %s: %v", *oldKey, err)
		}
	}

	logger.Infof("Avatar updated for user %d", user.ID)
	return c.JSON(http.StatusOK, UserResponse{
		User:    userDetails(c, user),
		Message: "Avatar uploaded successfully",
	})
}

func removeAvatar(c echo.Context, user *models.User) error {
	logger := c.Logger()

	if user.AvatarKey == nil {
		return c.NoContent(http.StatusNoContent)
	}

	store, err := storage.NewAvatarStore()
	if err != nil {
		logger.Errorf("Object storage unavailable: %v", err)
		return apperrors.Internal()
	}

	if err := store.Delete(c.Request().Context(), *user.AvatarKey); err != nil {
		logger.Warnf("Failed to delete avatar object %s: %v", *user.AvatarKey, err)
	}

	if err := db.Conn.Model(user).Update("avatar_key", nil).Error; err != nil {
		logger.Errorf("Failed to clear avatar key: %v", err)
		return apperrors.Internal()
	}
	user.AvatarKey = nil

	logger.Infof("Avatar removed for user %d", user.ID)
	return c.NoContent(http.StatusNoContent)
}

// UploadMyAvatarHandler godoc
// @Summary      Upload own avatar
// @Description  Uploads a profile picture for the authenticated user. Replaces any previous avatar.
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        avatar  formData  file  true  "Avatar image (JPEG, PNG, GIF or WebP, max 5MB)"
// @Success      200 {object} UserResponse    "Avatar uploaded successfully"
// @Failure      400 {object} GenericResponse "Bad request"
// @Failure      401 {object} GenericResponse "Unauthorized"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users/me/avatar [post]
func UploadMyAvatarHandler(c echo.Context) error {
	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return apperrors.Unauthorized("Invalid or expired authentication token, please login again")
	}
	return storeAvatar(c, user)
}

// DeleteMyAvatarHandler godoc
// @Summary      Delete own avatar
// @Description  Removes the authenticated user's profile picture.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Success      204 "Avatar deleted successfully"
// @Failure      401 {object} GenericResponse "Unauthorized"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users/me/avatar [delete]
func DeleteMyAvatarHandler(c echo.Context) error {
	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return apperrors.Unauthorized("Invalid or expired authentication token, please login again")
	}
	return removeAvatar(c, user)
}

// UploadUserAvatarHandler godoc
// @Summary      Upload a user's avatar
// @Description  Uploads a profile picture for the given account. Admin only.
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        user_id  path  int  true  "User id"
// @Param        avatar  formData  file  true  "Avatar image (JPEG, PNG, GIF or WebP, max 5MB)"
// @Success      200 {object} UserResponse    "Avatar uploaded successfully"
// @Failure      400 {object} GenericResponse "Bad request"
// @Failure      404 {object} GenericResponse "User not found"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users/{user_id}/avatar [post]
func UploadUserAvatarHandler(c echo.Context) error {
	user, err := findUserByParam(c)
	if err != nil {
		return err
	}
	return storeAvatar(c, user)
}

// DeleteUserAvatarHandler godoc
// @Summary      Delete a user's avatar
// @Description  Removes the given account's profile picture. Admin only.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        user_id  path  int  true  "User id"
// @Success      204 "Avatar deleted successfully"
// @Failure      404 {object} GenericResponse "User not found"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users/{user_id}/avatar [delete]
func DeleteUserAvatarHandler(c echo.Context) error {
	user, err := findUserByParam(c)
	if err != nil {
		return err
	}
	return removeAvatar(c, user)
}
