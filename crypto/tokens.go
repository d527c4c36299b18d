// SPDX-License-Identifier: GPL-3.0-only

package crypto

import (
	"errors"
	"fmt"
	"time"

	"admindesk-server/commons"

	"github.com/golang-jwt/jwt/v5"
)

// ActionClaims is the stateless half of an action token: who the action
// applies to, which action, and until when. Authenticity comes from the
// HS256 signature; the persisted row stays authoritative for expiry.
type ActionClaims struct {
	SubjectEmail string
	Action       string
	ExpiresAt    time.Time
}

var ErrInvalidActionToken = errors.New("action token signature or payload is invalid")

func actionTokenSecret() string {
	return commons.GetEnv("ACTION_TOKEN_SECRET", commons.GetEnv("JWT_SECRET"))
}

// RequireActionTokenSecret aborts the process when no signing secret is
// configured. Called once at startup; absence is never a per-request error.
func RequireActionTokenSecret() {
	if actionTokenSecret() == "" {
		commons.Logger.Fatal("ACTION_TOKEN_SECRET or JWT_SECRET environment variable is required")
	}
}

func MintActionToken(subjectEmail string, expiresAt time.Time, action string) (string, error) {
	secret := actionTokenSecret()
	if secret == "" {
		return "", fmt.Errorf("action token secret is not configured")
	}

	// The jti nonce keeps back-to-back mints for the same subject and action
	// distinct; without it two requests within the same second would collide
	// on the persisted token's unique index.
	nonce, err := GenerateRandomString("", 16, "hex")
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subjectEmail,
		"act": action,
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
		"jti": nonce,
	})
	return token.SignedString([]byte(secret))
}

// VerifyActionToken checks signature and shape only. Expiry enforcement is
// the caller's job, so the parser runs with claims validation disabled.
func VerifyActionToken(tokenString string) (*ActionClaims, error) {
	secret := actionTokenSecret()
	if secret == "" {
		return nil, fmt.Errorf("action token secret is not configured")
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidActionToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidActionToken
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return nil, ErrInvalidActionToken
	}
	action, ok := claims["act"].(string)
	if !ok || action == "" {
		return nil, ErrInvalidActionToken
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidActionToken
	}

	return &ActionClaims{
		SubjectEmail: subject,
		Action:       action,
		ExpiresAt:    time.Unix(int64(exp), 0),
	}, nil
}
