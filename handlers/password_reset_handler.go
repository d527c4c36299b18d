// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"

	"admindesk-server/accountactions"
	"admindesk-server/apperrors"
	"admindesk-server/db"
	"admindesk-server/passwordcheck"

	"github.com/labstack/echo/v4"
)

// RequestPasswordResetHandler godoc
// @Summary      Request password reset
// @Description  Sends a password reset email with a single-use, time-boxed token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        forgotPasswordRequest  body  ForgotPasswordRequest  true  "Forgot password request"
// @Success      200 {object} GenericResponse "Password reset email sent successfully"
// @Failure      400 {object} GenericResponse "Bad request"
// @Failure      404 {object} GenericResponse "User not found"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/auth/password-reset [post]
func RequestPasswordResetHandler(c echo.Context) error {
	logger := c.Logger()

	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid forgot password request payload:", err)
		return apperrors.InvalidInput("Invalid request payload")
	}

	if req.Email == "" {
		logger.Error("Email is required.")
		return apperrors.InvalidInput("email field is required")
	}

	workflow := accountactions.NewWorkflow(db.Conn)
	if err := workflow.RequestAction(req.Email, accountactions.ActionPasswordReset, nil); err != nil {
		return err
	}

	logger.Infof("Password reset email sent successfully.")
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Password reset instructions have been sent, be sure to check your inbox and spam folder.",
	})
}

// ConfirmPasswordResetHandler godoc
// @Summary      Reset password
// @Description  Redeems a password reset token and sets the new password. The token is single-use.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        resetPasswordRequest  body  ResetPasswordRequest  true  "Password reset request"
// @Success      200 {object} UserResponse    "Password reset successfully"
// @Failure      400 {object} GenericResponse "Bad request or invalid token"
// @Failure      404 {object} GenericResponse "Token not found"
// @Failure      410 {object} GenericResponse "Token expired"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/auth/password-reset [put]
func ConfirmPasswordResetHandler(c echo.Context) error {
	logger := c.Logger()

	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid password reset request payload:", err)
		return apperrors.InvalidInput("Invalid request payload")
	}

	if req.Token == "" {
		logger.Error("Password reset token is required")
		return apperrors.InvalidInput("token field is required")
	}

	if req.NewPassword == "" {
		logger.Error("New password is required")
		return apperrors.InvalidInput("new_password field is required")
	}

	if err := passwordcheck.ValidatePassword(c.Request().Context(), req.NewPassword); err != nil {
		logger.Error("New password validation failed: ", err)
		return apperrors.InvalidInput("Invalid new password: " + err.Error())
	}

	workflow := accountactions.NewWorkflow(db.Conn)
	user, err := workflow.ConsumeAction(accountactions.ConsumeParams{
		TokenString: req.Token,
		Action:      accountactions.ActionPasswordReset,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}

	logger.Infof("Password reset successful for user ID: %d", user.ID)
	return c.JSON(http.StatusOK, UserResponse{
		User:    userDetails(c, user),
		Message: "Password reset successfully. Please log in with your new password.",
	})
}
