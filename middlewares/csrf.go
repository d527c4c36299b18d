// SPX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"admindesk-server/apperrors"
	"admindesk-server/commons"

	"github.com/labstack/echo/v4"
)

const AntiForgeryHeader = "X-CSRF-Token"

// IssueAntiForgeryTicket derives the ticket for a session token id. The
// ticket is handed out at login and via GET /v1/auth/csrf, and must accompany
// every session-bound mutation.
func IssueAntiForgeryTicket(sessionTokenID string) string {
	secret := commons.GetEnv("JWT_SECRET", "default_very_secret_key")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("csrf:" + sessionTokenID))
	return hex.EncodeToString(mac.Sum(nil))
}

// AntiForgeryMiddleware verifies the ticket before any business logic or
// database lookup runs. It only inspects the bearer JWT's signed claims, so
// the check stays cheap; the authentication middleware behind it still
// decides whether the session itself is alive.
func AntiForgeryMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := c.Logger()

		ticket := c.Request().Header.Get(AntiForgeryHeader)
		if ticket == "" {
			logger.Error("Anti-forgery ticket missing.")
			return apperrors.Forbidden("Anti-forgery ticket is required")
		}

		claims := parseSessionToken(c)
		if claims == nil {
			logger.Error("Anti-forgery check without a valid session token.")
			return apperrors.Forbidden("Anti-forgery ticket is required")
		}

		tokenID, ok := claims.TokenID.(string)
		if !ok || tokenID == "" {
			logger.Error("Session token carries no token id.")
			return apperrors.Forbidden("Anti-forgery ticket is required")
		}

		expected := IssueAntiForgeryTicket(tokenID)
		if !hmac.Equal([]byte(ticket), []byte(expected)) {
			logger.Error("Anti-forgery ticket mismatch.")
			return apperrors.Forbidden("Anti-forgery ticket is invalid")
		}

		return next(c)
	}
}
