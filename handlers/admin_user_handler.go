// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"admindesk-server/accountactions"
	"admindesk-server/apperrors"
	"admindesk-server/commons"
	"admindesk-server/crypto"
	"admindesk-server/db"
	"admindesk-server/middlewares"
	"admindesk-server/models"
	"admindesk-server/storage"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Whitelisted sort columns for the user list; anything else falls back to
// creation order.
var userSortColumns = map[string]string{
	"email":      "email",
	"full_name":  "full_name",
	"role":       "role",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func findUserByParam(c echo.Context) (*models.User, error) {
	var user models.User
	err := db.Conn.Where("id = ?", c.Param("user_id")).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.UserNotFound()
	}
	if err != nil {
		c.Logger().Errorf("Failed to find user: %v", err)
		return nil, apperrors.Internal()
	}
	return &user, nil
}

// ListUsersHandler godoc
// @Summary      List users
// @Description  Retrieves a paginated, sortable, searchable list of user accounts. Admin only.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        page_size query  int     false  "Page size (default 10, max 100)"
// @Param        sort      query  string  false  "Sort column (email, full_name, role, created_at, updated_at)"
// @Param        order     query  string  false  "Sort order (asc or desc)"
// @Param        search    query  string  false  "Substring match on email or full name"
// @Success      200 {object} UserListResponse "Users retrieved successfully"
// @Failure      401 {object} GenericResponse  "Unauthorized"
// @Failure      403 {object} GenericResponse  "Forbidden"
// @Failure      500 {object} GenericResponse  "Internal server error"
// @Router       /v1/users [get]
func ListUsersHandler(c echo.Context) error {
	logger := c.Logger()

	page := 1
	pageSize := 10
	if p := c.QueryParam("page"); p != "" {
		if _, err := fmt.Sscanf(p, "%d", &page); err != nil || page < 1 {
			page = 1
		}
	}
	if ps := c.QueryParam("page_size"); ps != "" {
		if _, err := fmt.Sscanf(ps, "%d", &pageSize); err != nil || pageSize < 1 {
			pageSize = 10
		}
	}
	if pageSize > 100 {
		pageSize = 100
	}

	orderBy := "created_at"
	if col, ok := userSortColumns[c.QueryParam("sort")]; ok {
		orderBy = col
	}
	direction := "ASC"
	if c.QueryParam("order") == "desc" {
		direction = "DESC"
	}

	query := db.Conn.Model(&models.User{})
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("email LIKE ? OR full_name LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Errorf("Failed to count users: %v", err)
		return apperrors.Internal()
	}

	offset := (page - 1) * pageSize
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	var users []models.User
	if err := query.Order(orderBy + " " + direction).
		Limit(pageSize).
		Offset(offset).
		Find(&users).Error; err != nil {
		logger.Errorf("Failed to fetch users: %v", err)
		return apperrors.Internal()
	}

	data := make([]UserDetails, 0, len(users))
	for i := range users {
		data = append(data, userDetails(c, &users[i]))
	}

	return c.JSON(http.StatusOK, UserListResponse{
		Data: data,
		Pagination: PaginationDetails{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
		Message: "Users retrieved successfully",
	})
}

// CreateUserHandler godoc
// @Summary      Create a user
// @Description  Creates a user account with a random password and emails the account owner an admin-issued password reset link. Admin only.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        createUserRequest  body  CreateUserRequest  true  "User creation payload"
// @Success      201 {object} UserResponse    "User created successfully"
// @Failure      400 {object} GenericResponse "Bad request"
// @Failure      409 {object} GenericResponse "Email already in use"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users [post]
func CreateUserHandler(c echo.Context) error {
	logger := c.Logger()

	admin, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return apperrors.Unauthorized("Invalid or expired authentication token, please login again")
	}

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid create user payload:", err)
		return apperrors.InvalidInput("Invalid request payload")
	}

	if req.Email == "" {
		return apperrors.InvalidInput("email field is required")
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return apperrors.InvalidInput("role must be either 'user' or 'admin'")
	}

	email := commons.NormalizeEmail(req.Email)
	if count := db.Conn.Where("email = ?", email).First(&models.User{}).RowsAffected; count > 0 {
		return apperrors.EmailInUse()
	}

	// The account starts with a random password nobody knows; the owner
	// sets their own through the admin-issued reset link.
	randomPassword, err := crypto.GenerateRandomString("", 32, "hex")
	if err != nil {
		logger.Errorf("Failed to generate initial password: %v", err)
		return apperrors.Internal()
	}
	hash, err := crypto.NewCrypto().HashPassword(randomPassword)
	if err != nil {
		logger.Errorf("Failed to hash initial password: %v", err)
		return apperrors.Internal()
	}

	user := models.User{
		Email:    email,
		Password: hash,
		FullName: req.FullName,
		Role:     role,
	}
	if err := db.Conn.Create(&user).Error; err != nil {
		logger.Errorf("Failed to create user: %v", err)
		return apperrors.EmailInUse()
	}

	workflow := accountactions.NewWorkflow(db.Conn)
	if err := workflow.RequestAction(user.Email, accountactions.ActionPasswordReset, &admin.ID); err != nil {
		logger.Warnf("Failed to send password setup email for new user %d: %v", user.ID, err)
	}

	logger.Infof("User %d created by admin %d", user.ID, admin.ID)
	return c.JSON(http.StatusCreated, UserResponse{
		User:    userDetails(c, &user),
		Message: "User created successfully",
	})
}

// GetUserHandler godoc
// @Summary      Get a user
// @Description  Retrieves a single user account by id. Admin only.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        user_id  path  int  true  "User id"
// @Success      200 {object} UserResponse    "User retrieved successfully"
// @Failure      404 {object} GenericResponse "User not found"
// @Router       /v1/users/{user_id} [get]
func GetUserHandler(c echo.Context) error {
	user, err := findUserByParam(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UserResponse{
		User:    userDetails(c, user),
		Message: "User retrieved successfully",
	})
}

// UpdateUserHandler godoc
// @Summary      Update a user
// @Description  Updates a user's email, full name or role. Changing the email clears the verified flag until the new address is verified. Admin only.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        user_id  path  int  true  "User id"
// @Param        updateUserRequest  body  UpdateUserRequest  true  "User update payload"
// @Success      200 {object} UserResponse    "User updated successfully"
// @Failure      400 {object} GenericResponse "Bad request"
// @Failure      404 {object} GenericResponse "User not found"
// @Failure      409 {object} GenericResponse "Email already in use"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users/{user_id} [put]
func UpdateUserHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := findUserByParam(c)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid update user payload:", err)
		return apperrors.InvalidInput("Invalid request payload")
	}

	updates := map[string]any{}

	if req.Email != nil {
		email := commons.NormalizeEmail(*req.Email)
		if email == "" {
			return apperrors.InvalidInput("email must not be empty")
		}
		if email != user.Email {
			var existing models.User
			if err := db.Conn.Where("email = ? AND id != ?", email, user.ID).First(&existing).Error; err == nil {
				return apperrors.EmailInUse()
			}
			updates["email"] = email
			updates["is_email_verified"] = false
		}
	}

	if req.FullName != nil {
		updates["full_name"] = req.FullName
	}

	if req.Role != nil {
		if *req.Role != models.RoleUser && *req.Role != models.RoleAdmin {
			return apperrors.InvalidInput("role must be either 'user' or 'admin'")
		}
		updates["role"] = *req.Role
	}

	if len(updates) > 0 {
		if err := db.Conn.Model(user).Updates(updates).Error; err != nil {
			logger.Errorf("Failed to update user %d: %v", user.ID, err)
			return apperrors.Internal()
		}
		if err := db.Conn.First(user, user.ID).Error; err != nil {
			logger.Errorf("Failed to reload user %d: %v", user.ID, err)
			return apperrors.Internal()
		}
	}

	logger.Infof("User %d updated", user.ID)
	return c.JSON(http.StatusOK, UserResponse{
		User:    userDetails(c, user),
		Message: "User updated successfully",
	})
}

// ToggleDisableUserHandler godoc
// @Summary      Disable or enable a user
// @Description  Flips the disabled flag. Disabling also revokes every live session. Admin only.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        user_id  path  int  true  "User id"
// @Success      200 {object} UserResponse    "User state updated"
// @Failure      400 {object} GenericResponse "Cannot disable own account"
// @Failure      404 {object} GenericResponse "User not found"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users/{user_id}/disable [put]
func ToggleDisableUserHandler(c echo.Context) error {
	logger := c.Logger()

	admin, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return apperrors.Unauthorized("Invalid or expired authentication token, please login again")
	}

	user, err := findUserByParam(c)
	if err != nil {
		return err
	}

	if user.ID == admin.ID {
		return apperrors.InvalidInput("You cannot disable your own account")
	}

	disabled := !user.Disabled
	if err := db.Conn.Model(user).Update("disabled", disabled).Error; err != nil {
		logger.Errorf("Failed to toggle disabled for user %d: %v", user.ID, err)
		return apperrors.Internal()
	}
	user.Disabled = disabled

	if disabled {
		if err := db.Conn.Unscoped().Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			logger.Errorf("Failed to revoke sessions for disabled user %d: %v", user.ID, err)
		}
	}

	state := "enabled"
	if disabled {
		state = "disabled"
	}
	logger.Infof("User %d %s by admin %d", user.ID, state, admin.ID)
	return c.JSON(http.StatusOK, UserResponse{
		User:    userDetails(c, user),
		Message: "User " + state + " successfully",
	})
}

// DeleteUserHandler godoc
// @Summary      Delete a user
// @Description  Deletes a user account along with its sessions and stored avatar. Admin only.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        user_id  path  int  true  "User id"
// @Success      204 "User deleted successfully"
// @Failure      400 {object} GenericResponse "Cannot delete own account"
// @Failure      404 {object} GenericResponse "User not found"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users/{user_id} [delete]
func DeleteUserHandler(c echo.Context) error {
	logger := c.Logger()

	admin, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return apperrors.Unauthorized("Invalid or expired authentication token, please login again")
	}

	user, err := findUserByParam(c)
	if err != nil {
		return err
	}

	if user.ID == admin.ID {
		return apperrors.InvalidInput("You cannot delete your own account")
	}

	if user.AvatarKey != nil {
		if store, err := storage.NewAvatarStore(); err == nil {
			if err := store.Delete(c.Request().Context(), *user.AvatarKey); err != nil {
				logger.Warnf("Failed to delete avatar for user %d: %v", user.ID, err)
			}
		}
	}

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return apperrors.Internal()
	}

	if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to delete sessions for user %d: %v", user.ID, err)
		return apperrors.Internal()
	}

	if err := tx.Unscoped().Delete(user).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to delete user %d: %v", user.ID, err)
		return apperrors.Internal()
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return apperrors.Internal()
	}

	logger.Infof("User %d deleted by admin %d", user.ID, admin.ID)
	return c.NoContent(http.StatusNoContent)
}

// AdminRequestPasswordResetHandler godoc
// @Summary      Send password reset on behalf of a user
// @Description  Issues a password reset token for the given account, recorded as created by the acting admin. Admin only.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        user_id  path  int  true  "User id"
// @Success      200 {object} GenericResponse "Password reset email sent successfully"
// @Failure      404 {object} GenericResponse "User not found"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/users/{user_id}/password-reset [post]
func AdminRequestPasswordResetHandler(c echo.Context) error {
	logger := c.Logger()

	admin, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return apperrors.Unauthorized("Invalid or expired authentication token, please login again")
	}

	user, err := findUserByParam(c)
	if err != nil {
		return err
	}

	workflow := accountactions.NewWorkflow(db.Conn)
	if err := workflow.RequestAction(user.Email, accountactions.ActionPasswordReset, &admin.ID); err != nil {
		return err
	}

	logger.Infof("Password reset for user %d requested by admin %d", user.ID, admin.ID)
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Password reset email sent successfully",
	})
}
