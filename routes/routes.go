// SPDX-License-Identifier: GPL-3.0-only

package routes

import (
	"admindesk-server/commons"
	"admindesk-server/handlers"
	"admindesk-server/middlewares"
	"admindesk-server/models"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	commons.Logger.Debug("Registering v1 routes")

	// Session-bound mutations carry the anti-forgery ticket in front of
	// authentication; reads and token-authorized routes do not.
	guarded := []echo.MiddlewareFunc{
		middlewares.AntiForgeryMiddleware,
		middlewares.VerifyAuthMiddleware,
	}
	adminGuarded := []echo.MiddlewareFunc{
		middlewares.AntiForgeryMiddleware,
		middlewares.VerifyAuthMiddleware,
		middlewares.RequireRoleMiddleware(models.RoleAdmin),
	}
	adminRead := []echo.MiddlewareFunc{
		middlewares.VerifyAuthMiddleware,
		middlewares.RequireRoleMiddleware(models.RoleAdmin),
	}

	api_v1 := e.Group("/v1")

	api_v1.POST("/auth/signup", handlers.SignupHandler)
	api_v1.POST("/auth/login", handlers.LoginHandler)
	api_v1.POST("/auth/logout", handlers.LogoutHandler, guarded...)
	api_v1.GET("/auth/csrf", handlers.GetCSRFHandler, middlewares.VerifyAuthMiddleware)

	// The reset token itself authorizes these two, so they stay public.
	api_v1.POST("/auth/password-reset", handlers.RequestPasswordResetHandler)
	api_v1.PUT("/auth/password-reset", handlers.ConfirmPasswordResetHandler)

	api_v1.GET("/auth/verify-email", handlers.SendVerificationEmailHandler, middlewares.VerifyAuthMiddleware)
	api_v1.PUT("/auth/verify-email", handlers.VerifyEmailHandler, middlewares.AuthenticateIfPresent)

	api_v1.GET("/users/me", handlers.GetMeHandler, middlewares.VerifyAuthMiddleware)
	api_v1.PUT("/users/me", handlers.UpdateMeHandler, guarded...)
	api_v1.PUT("/users/me/password", handlers.ChangePasswordHandler, guarded...)
	api_v1.POST("/users/me/avatar", handlers.UploadMyAvatarHandler, guarded...)
	api_v1.DELETE("/users/me/avatar", handlers.DeleteMyAvatarHandler, guarded...)

	api_v1.GET("/users", handlers.ListUsersHandler, adminRead...)
	api_v1.POST("/users", handlers.CreateUserHandler, adminGuarded...)
	api_v1.GET("/users/:user_id", handlers.GetUserHandler, adminRead...)
	api_v1.PUT("/users/:user_id", handlers.UpdateUserHandler, adminGuarded...)
	api_v1.DELETE("/users/:user_id", handlers.DeleteUserHandler, adminGuarded...)
	api_v1.PUT("/users/:user_id/disable", handlers.ToggleDisableUserHandler, adminGuarded...)
	api_v1.POST("/users/:user_id/password-reset", handlers.AdminRequestPasswordResetHandler, adminGuarded...)
	api_v1.POST("/users/:user_id/avatar", handlers.UploadUserAvatarHandler, adminGuarded...)
	api_v1.DELETE("/users/:user_id/avatar", handlers.DeleteUserAvatarHandler, adminGuarded...)

	e.GET("/static/*", handlers.ServeStaticFile)

	commons.Logger.Info("v1 routes registered successfully")
}
