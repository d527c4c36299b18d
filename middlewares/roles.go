// SPX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"admindesk-server/apperrors"

	"github.com/labstack/echo/v4"
)

// RequireRoleMiddleware gates an operation behind a role allow-set. Runs
// after VerifyAuthMiddleware; a valid session outside the allow-set gets a
// 403, distinct from the 401 for no session at all.
func RequireRoleMiddleware(roles ...string) func(echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := GetAuthenticatedUser(c)
			if err != nil {
				c.Logger().Error("Role check without authenticated user: ", err)
				return apperrors.Unauthorized("Authentication required")
			}

			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}

			c.Logger().Warnf("User %d with role %q denied access", user.ID, user.Role)
			return apperrors.Forbidden("You do not have permission to perform this action")
		}
	}
}
