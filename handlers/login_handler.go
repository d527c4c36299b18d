// SPX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"net/http"
	"time"

	"admindesk-server/apperrors"
	"admindesk-server/commons"
	"admindesk-server/crypto"
	"admindesk-server/db"
	"admindesk-server/middlewares"
	"admindesk-server/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func generateSessionToken(c echo.Context, user *models.User) (string, string, error) {
	logger := c.Logger()

	sessionToken, err := crypto.GenerateRandomString("st_long_", 32, "hex")
	if err != nil {
		logger.Errorf("Failed to generate session token: %v", err)
		return "", "", err
	}

	sessionExp := time.Now().Add(30 * 24 * time.Hour)
	sessionLastUsed := time.Now()
	userAgent := c.Request().Header.Get("User-Agent")
	ipAddress := c.RealIP()

	session := models.Session{}
	if err := db.Conn.Where("user_id = ?", user.ID).Assign(models.Session{
		Token:      sessionToken,
		IPAddress:  &ipAddress,
		UserAgent:  &userAgent,
		LastUsedAt: &sessionLastUsed,
		ExpiresAt:  &sessionExp,
	}).FirstOrCreate(&session).Error; err != nil {
		logger.Errorf("Failed to create session: %v", err)
		return "", "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "https://admindesk-server.com",
		"iat": time.Now().Unix(),
		"sub": user.Email,
		"jti": sessionToken,
		"sid": session.ID,
		"uid": user.ID,
		"exp": session.ExpiresAt.Unix(),
	})
	tokenString, err := token.SignedString([]byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key")))
	if err != nil {
		logger.Errorf("Failed to sign token: %v", err)
		return "", "", err
	}

	return tokenString, middlewares.IssueAntiForgeryTicket(sessionToken), nil
}

// LoginHandler godoc
// @Summary      Login a user
// @Description  Authenticates a user and returns a session token plus the anti-forgery ticket.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body  LoginRequest  true  "Login request payload"
// @Success      200 {object} AuthResponse    "Login successful"
// @Failure      400 {object} GenericResponse "Bad request, missing required fields"
// @Failure      401 {object} GenericResponse "Unauthorized"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/auth/login [post]
func LoginHandler(c echo.Context) error {
	logger := c.Logger()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid login request payload:", err)
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

	newCrypto := crypto.NewCrypto()
	user := models.User{}
	err := db.Conn.Where("email = ?", commons.NormalizeEmail(req.Email)).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("User not found.")
			return apperrors.UserNotFound()
		}

		logger.Errorf("Failed to find user: %v", err)
		return apperrors.Internal()
	}

	if err := newCrypto.VerifyPassword(req.Password, user.Password); err != nil {
		logger.Error("Password verification failed.")
		return apperrors.WrongPassword()
	}

	if user.Disabled {
		logger.Warnf("Disabled account %d attempted login", user.ID)
		return apperrors.Forbidden("This account has been disabled")
	}

	tokenString, csrfToken, err := generateSessionToken(c, &user)
	if err != nil {
		return apperrors.Internal()
	}

	return c.JSON(http.StatusOK, AuthResponse{
		SessionToken: tokenString,
		CSRFToken:    csrfToken,
		User:         userDetails(c, &user),
		Message:      "Login successful",
	})
}

// LogoutHandler godoc
// @Summary      Logout a user
// @Description  Logs out a user and invalidates the session.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Success      204 "Logout successful"
// @Failure      401 {object} GenericResponse "Unauthorized"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/auth/logout [post]
func LogoutHandler(c echo.Context) error {
	logger := c.Logger()

	session, ok := c.Get("session").(models.Session)
	if !ok {
		logger.Error("Session not found in context.")
		return apperrors.Unauthorized("Invalid or expired session token, please login again")
	}

	if err := db.Conn.Unscoped().Delete(&session).Error; err != nil {
		logger.Errorf("Failed to delete session: %v", err)
		return apperrors.Internal()
	}

	logger.Infof("User logged out successfully")
	return c.NoContent(http.StatusNoContent)
}

// GetCSRFHandler godoc
// @Summary      Get anti-forgery ticket
// @Description  Re-issues the anti-forgery ticket for the current session.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Success      200 {object} CSRFTicketResponse "Ticket issued successfully"
// @Failure      401 {object} GenericResponse    "Unauthorized"
// @Router       /v1/auth/csrf [get]
func GetCSRFHandler(c echo.Context) error {
	session, ok := c.Get("session").(models.Session)
	if !ok {
		return apperrors.Unauthorized("Invalid or expired session token, please login again")
	}

	return c.JSON(http.StatusOK, CSRFTicketResponse{
		CSRFToken: middlewares.IssueAntiForgeryTicket(session.Token),
		Message:   "Ticket issued successfully",
	})
}
