// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"admindesk-server/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signedSessionToken(t *testing.T, secret, tokenID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"sub": "alice@example.com",
		"jti": tokenID,
		"sid": 1,
		"uid": 1,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign session token: %v", err)
	}
	return signed
}

func runAntiForgery(t *testing.T, bearer, ticket string) (error, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/users/me", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if ticket != "" {
		req.Header.Set(AntiForgeryHeader, ticket)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	nextCalled := false
	handler := AntiForgeryMiddleware(func(c echo.Context) error {
		nextCalled = true
		return c.NoContent(http.StatusOK)
	})
	return handler(c), nextCalled
}

func TestIssueAntiForgeryTicketIsDeterministic(t *testing.T) {
	t.Setenv("JWT_SECRET", "csrf-test-secret")

	a := IssueAntiForgeryTicket("st_long_abc")
	b := IssueAntiForgeryTicket("st_long_abc")
	if a != b {
		t.Error("Expected the same ticket for the same session token id")
	}
	if a == IssueAntiForgeryTicket("st_long_other") {
		t.Error("Expected different tickets for different session token ids")
	}
}

func TestAntiForgeryMiddlewareAcceptsMatchingTicket(t *testing.T) {
	t.Setenv("JWT_SECRET", "csrf-test-secret")

	bearer := signedSessionToken(t, "csrf-test-secret", "st_long_abc")
	err, nextCalled := runAntiForgery(t, bearer, IssueAntiForgeryTicket("st_long_abc"))
	if err != nil {
		t.Fatalf("Expected the request to pass, got %v", err)
	}
	if !nextCalled {
		t.Error("Expected the next handler to run")
	}
}

func TestAntiForgeryMiddlewareRejectsMissingTicket(t *testing.T) {
	t.Setenv("JWT_SECRET", "csrf-test-secret")

	bearer := signedSessionToken(t, "csrf-test-secret", "st_long_abc")
	err, nextCalled := runAntiForgery(t, bearer, "")
	if nextCalled {
		t.Fatal("Expected the request to be blocked")
	}
	authErr, ok := err.(*apperrors.AuthError)
	if !ok {
		t.Fatalf("Expected *apperrors.AuthError, got %T", err)
	}
	if authErr.Status != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", authErr.Status)
	}
}

func TestAntiForgeryMiddlewareRejectsForeignTicket(t *testing.T) {
	t.Setenv("JWT_SECRET", "csrf-test-secret")

	// A ticket minted for a different session must not authorize this one.
	bearer := signedSessionToken(t, "csrf-test-secret", "st_long_abc")
	err, nextCalled := runAntiForgery(t, bearer, IssueAntiForgeryTicket("st_long_other"))
	if nextCalled {
		t.Fatal("Expected the request to be blocked")
	}
	authErr, ok := err.(*apperrors.AuthError)
	if !ok {
		t.Fatalf("Expected *apperrors.AuthError, got %T", err)
	}
	if authErr.Status != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", authErr.Status)
	}
}

func TestAntiForgeryMiddlewareRejectsTicketWithoutSession(t *testing.T) {
	t.Setenv("JWT_SECRET", "csrf-test-secret")

	err, nextCalled := runAntiForgery(t, "", IssueAntiForgeryTicket("st_long_abc"))
	if nextCalled {
		t.Fatal("Expected the request to be blocked")
	}
	if err == nil {
		t.Fatal("Expected an error without a bearer token")
	}
}

func TestAntiForgeryMiddlewareRejectsForgedBearer(t *testing.T) {
	t.Setenv("JWT_SECRET", "csrf-test-secret")

	// Bearer signed with the wrong key carries no trustworthy jti.
	bearer := signedSessionToken(t, "some-other-secret", "st_long_abc")
	err, nextCalled := runAntiForgery(t, bearer, IssueAntiForgeryTicket("st_long_abc"))
	if nextCalled {
		t.Fatal("Expected the request to be blocked")
	}
	if err == nil {
		t.Fatal("Expected an error for a forged bearer token")
	}
}
