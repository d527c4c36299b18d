// SPDX-License-Identifier: GPL-3.0-only

// Package apperrors defines the namespaced error codes returned to API
// clients. Every failure crossing the HTTP boundary is one of these codes;
// anything unclassified is collapsed into auth/error.
package apperrors

import (
	"errors"
	"net/http"

	"admindesk-server/commons"

	"github.com/labstack/echo/v4"
)

type Code string

const (
	CodeInvalidInput    Code = "auth/invalid-input"
	CodeWrongPassword   Code = "auth/wrong-password"
	CodeInvalidToken    Code = "auth/invalid-token"
	CodeWrongToken      Code = "auth/wrong-token"
	CodeUserNotFound    Code = "auth/user-not-found"
	CodeTokenNotFound   Code = "auth/token-not-found"
	CodeUnauthorized    Code = "auth/unauthorized"
	CodeEmailInUse      Code = "auth/email-already-in-use"
	CodeAlreadyVerified Code = "auth/user-already-verified"
	CodeError           Code = "auth/error"
	CodeWrongMethod     Code = "auth/wrong-method"
)

type AuthError struct {
	Code    Code   `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *AuthError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func New(code Code, status int, message string) *AuthError {
	return &AuthError{Code: code, Status: status, Message: message}
}

func InvalidInput(message string) *AuthError {
	return New(CodeInvalidInput, http.StatusBadRequest, message)
}

func WrongPassword() *AuthError {
	return New(CodeWrongPassword, http.StatusUnauthorized, "The password you entered is incorrect")
}

func InvalidToken() *AuthError {
	return New(CodeInvalidToken, http.StatusBadRequest, "This token is invalid")
}

// TokenExpired shares the invalid-token wire code; the contract has no
// separate expired key. The 410 status disambiguates for the UI.
func TokenExpired() *AuthError {
	return New(CodeInvalidToken, http.StatusGone, "This token has expired, please request a new one")
}

func WrongToken() *AuthError {
	return New(CodeWrongToken, http.StatusForbidden, "This token was issued for a different account")
}

func UserNotFound() *AuthError {
	return New(CodeUserNotFound, http.StatusNotFound, "No account matches this email address")
}

func TokenNotFound() *AuthError {
	return New(CodeTokenNotFound, http.StatusNotFound, "This token is not valid anymore")
}

func Unauthorized(message string) *AuthError {
	return New(CodeUnauthorized, http.StatusUnauthorized, message)
}

func Forbidden(message string) *AuthError {
	return New(CodeUnauthorized, http.StatusForbidden, message)
}

func EmailInUse() *AuthError {
	return New(CodeEmailInUse, http.StatusConflict, "This email address is already registered")
}

func AlreadyVerified() *AuthError {
	return New(CodeAlreadyVerified, http.StatusConflict, "This email address is already verified")
}

func Internal() *AuthError {
	return New(CodeError, http.StatusInternalServerError, "Something went wrong, please try again later")
}

type errorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// HTTPErrorHandler renders every error as {code, message}. Stack traces and
// internal identifiers never reach the response body.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.Code {
			case http.StatusNotFound:
				authErr = New(CodeError, http.StatusNotFound, "Resource not found")
			case http.StatusMethodNotAllowed:
				authErr = New(CodeWrongMethod, http.StatusMethodNotAllowed, "Method not allowed")
			case http.StatusBadRequest:
				authErr = InvalidInput("Invalid request payload")
			case http.StatusUnauthorized:
				authErr = Unauthorized("Authentication required")
			default:
				commons.Logger.Errorf("Unclassified HTTP error: %v", err)
				authErr = Internal()
			}
		} else {
			commons.Logger.Errorf("Unclassified error: %v", err)
			authErr = Internal()
		}
	}

	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(authErr.Status); err != nil {
			c.Logger().Error(err)
		}
		return
	}
	if err := c.JSON(authErr.Status, errorBody{Code: authErr.Code, Message: authErr.Message}); err != nil {
		c.Logger().Error(err)
	}
}
