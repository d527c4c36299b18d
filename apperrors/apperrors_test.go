// SPDX-License-Identifier: GPL-3.0-only

package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestConstructorsCarryCodeAndStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    *AuthError
		code   Code
		status int
	}{
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"wrong password", WrongPassword(), CodeWrongPassword, http.StatusUnauthorized},
		{"invalid token", InvalidToken(), CodeInvalidToken, http.StatusBadRequest},
		{"token expired", TokenExpired(), CodeInvalidToken, http.StatusGone},
		{"wrong token", WrongToken(), CodeWrongToken, http.StatusForbidden},
		{"user not found", UserNotFound(), CodeUserNotFound, http.StatusNotFound},
		{"token not found", TokenNotFound(), CodeTokenNotFound, http.StatusNotFound},
		{"unauthorized", Unauthorized("no"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), CodeUnauthorized, http.StatusForbidden},
		{"email in use", EmailInUse(), CodeEmailInUse, http.StatusConflict},
		{"already verified", AlreadyVerified(), CodeAlreadyVerified, http.StatusConflict},
		{"internal", Internal(), CodeError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("Expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Status != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, tc.err.Status)
			}
			if tc.err.Message == "" {
				t.Error("Expected a non-empty message")
			}
		})
	}
}

func renderError(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(err, c)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response body is not JSON: %v", err)
	}
	return rec, body
}

func TestHTTPErrorHandlerRendersAuthError(t *testing.T) {
	rec, body := renderError(t, TokenExpired())

	if rec.Code != http.StatusGone {
		t.Errorf("Expected status 410, got %d", rec.Code)
	}
	if body["code"] != string(CodeInvalidToken) {
		t.Errorf("Expected code %s, got %s", CodeInvalidToken, body["code"])
	}
	if body["message"] == "" {
		t.Error("Expected a message field")
	}
	if _, leaked := body["status"]; leaked {
		t.Error("Status must not appear in the body")
	}
}

func TestHTTPErrorHandlerMapsEchoErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   Code
	}{
		{"not found", echo.NewHTTPError(http.StatusNotFound), http.StatusNotFound, CodeError},
		{"method not allowed", echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed, CodeWrongMethod},
		{"bad request", echo.NewHTTPError(http.StatusBadRequest), http.StatusBadRequest, CodeInvalidInput},
		{"unauthorized", echo.NewHTTPError(http.StatusUnauthorized), http.StatusUnauthorized, CodeUnauthorized},
		{"teapot", echo.NewHTTPError(http.StatusTeapot), http.StatusInternalServerError, CodeError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := renderError(t, tc.err)
			if rec.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if body["code"] != string(tc.wantCode) {
				t.Errorf("Expected code %s, got %s", tc.wantCode, body["code"])
			}
		})
	}
}

func TestHTTPErrorHandlerHidesUnclassifiedErrors(t *testing.T) {
	rec, body := renderError(t, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
	if body["code"] != string(CodeError) {
		t.Errorf("Expected code %s, got %s", CodeError, body["code"])
	}
	if body["message"] == "pq: connection refused" {
		t.Error("Internal error details must not reach the client")
	}
}
