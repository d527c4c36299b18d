// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"

	"admindesk-server/accountactions"
	"admindesk-server/apperrors"
	"admindesk-server/commons"
	"admindesk-server/crypto"
	"admindesk-server/db"
	"admindesk-server/models"
	"admindesk-server/passwordcheck"

	"github.com/labstack/echo/v4"
)

// SignupHandler godoc
// @Summary      Register a new user
// @Description  Creates a new user account and sends a verification email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        signupRequest  body  SignupRequest  true  "Signup request payload"
// @Success      201 {object} UserResponse    "Signup successful"
// @Failure      400 {object} GenericResponse "Bad request, missing required fields"
// @Failure      409 {object} GenericResponse "Duplicate user"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/auth/signup [post]
func SignupHandler(c echo.Context) error {
	logger := c.Logger()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid signup request payload:", err)
		return apperrors.InvalidInput("Invalid request payload")
	}

	if req.Email == "" {
		logger.Error("Email is required.")
		return apperrors.InvalidInput("email field is required")
	}

	if req.Password == "" {
		logger.Error("Password is required.")
		return apperrors.InvalidInput("password field is required")
	}

	if err := passwordcheck.ValidatePassword(c.Request().Context(), req.Password); err != nil {
		logger.Error("Password validation failed: ", err)
		return apperrors.InvalidInput("Invalid password: " + err.Error())
	}

	email := commons.NormalizeEmail(req.Email)
	count := db.Conn.Where("email = ?", email).First(&models.User{}).RowsAffected
	if count > 0 {
		logger.Errorf("This email is already registered.")
		return apperrors.EmailInUse()
	}

	newCrypto := crypto.NewCrypto()
	hash, err := newCrypto.HashPassword(req.Password)
	if err != nil {
		logger.Errorf("Failed to hash password: %v", err)
		return apperrors.Internal()
	}

	user := models.User{
		Email:    email,
		Password: hash,
		FullName: req.FullName,
		Role:     models.RoleUser,
	}

	if err := db.Conn.Create(&user).Error; err != nil {
		logger.Errorf("Failed to create user: %v", err)
		return apperrors.EmailInUse()
	}

	// A failed verification email never undoes the signup; the user can
	// re-request the link once logged in.
	workflow := accountactions.NewWorkflow(db.Conn)
	if err := workflow.RequestAction(user.Email, accountactions.ActionEmailVerification, nil); err != nil {
		logger.Warnf("Failed to send verification email after signup: %v", err)
	}

	logger.Infof("User signed up successfully")
	return c.JSON(http.StatusCreated, UserResponse{
		User:    userDetails(c, &user),
		Message: "Signup successful",
	})
}
