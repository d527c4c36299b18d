// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"

	"admindesk-server/accountactions"
	"admindesk-server/apperrors"
	"admindesk-server/db"
	"admindesk-server/middlewares"

	"github.com/labstack/echo/v4"
)

// SendVerificationEmailHandler godoc
// @Summary      Send verification email
// @Description  Issues a fresh verification token for the authenticated account and emails the link. Re-requesting supersedes nothing; each link is independently single-use.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Success      200 {object} GenericResponse "Verification email sent successfully"
// @Failure      401 {object} GenericResponse "Unauthorized"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/auth/verify-email [get]
func SendVerificationEmailHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return apperrors.Unauthorized("Invalid or expired authentication token, please login again")
	}

	// Issuing for an already-verified account is allowed; consumption is
	// what rejects it. Keeps issuance idempotent from the UI's viewpoint.
	workflow := accountactions.NewWorkflow(db.Conn)
	if err := workflow.RequestAction(user.Email, accountactions.ActionEmailVerification, &user.ID); err != nil {
		return err
	}

	logger.Infof("Verification email sent successfully.")
	return c.JSON(http.StatusOK, GenericResponse{
		Message: "Verification email sent successfully",
	})
}

// VerifyEmailHandler godoc
// @Summary      Verify email address
// @Description  Redeems a verification token. When called with a session, the token subject must match the logged-in account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        verifyEmailRequest  body  VerifyEmailRequest  true  "Email verification request"
// @Success      200 {object} UserResponse    "Email verified successfully"
// @Failure      400 {object} GenericResponse "Bad request or invalid token"
// @Failure      403 {object} GenericResponse "Token issued for a different account"
// @Failure      404 {object} GenericResponse "Token not found"
// @Failure      409 {object} GenericResponse "Email already verified"
// @Failure      410 {object} GenericResponse "Token expired"
// @Failure      500 {object} GenericResponse "Internal server error"
// @Router       /v1/auth/verify-email [put]
func VerifyEmailHandler(c echo.Context) error {
	logger := c.Logger()

	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid verification request payload:", err)
		return apperrors.InvalidInput("Invalid request payload")
	}

	if req.Token == "" {
		logger.Error("Verification token is required")
		return apperrors.InvalidInput("token field is required")
	}

	// Identity is optional here: the route is reachable from a logged-out
	// browser following the email link.
	identity, _ := middlewares.GetAuthenticatedUser(c)

	workflow := accountactions.NewWorkflow(db.Conn)
	user, err := workflow.ConsumeAction(accountactions.ConsumeParams{
		TokenString: req.Token,
		Action:      accountactions.ActionEmailVerification,
		Identity:    identity,
	})
	if err != nil {
		return err
	}

	logger.Infof("Email verified successfully for user %d", user.ID)
	return c.JSON(http.StatusOK, UserResponse{
		User:    userDetails(c, user),
		Message: "Email verified successfully",
	})
}
