// SPDX-License-Identifier: GPL-3.0-only

package accountactions

import (
	"path/filepath"
	"testing"
	"time"

	"admindesk-server/apperrors"
	"admindesk-server/crypto"
	"admindesk-server/models"
	"admindesk-server/notifications"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := conn.AutoMigrate(models.AllModels...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return conn
}

func newTestWorkflow(t *testing.T, conn *gorm.DB) (*Workflow, *[]notifications.NotificationData) {
	t.Helper()
	t.Setenv("JWT_SECRET", "workflow-test-secret")
	sent := &[]notifications.NotificationData{}
	w := &Workflow{
		DB:    conn,
		Store: NewTokenStore(conn),
		Dispatch: func(data notifications.NotificationData) error {
			*sent = append(*sent, data)
			return nil
		},
	}
	return w, sent
}

func createTestUser(t *testing.T, conn *gorm.DB, email string, verified bool) *models.User {
	t.Helper()
	hash, err := crypto.NewCrypto().HashPassword("Origin4l-password!")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{Email: email, Password: hash, IsEmailVerified: verified}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func authCode(t *testing.T, err error) *apperrors.AuthError {
	t.Helper()
	authErr, ok := err.(*apperrors.AuthError)
	if !ok {
		t.Fatalf("Expected *apperrors.AuthError, got %T: %v", err, err)
	}
	return authErr
}

func issuedToken(t *testing.T, conn *gorm.DB) string {
	t.Helper()
	var record models.ActionToken
	if err := conn.Order("id desc").First(&record).Error; err != nil {
		t.Fatalf("Expected a persisted action token: %v", err)
	}
	return record.Token
}

func TestRequestActionUnknownUser(t *testing.T) {
	conn := newTestDB(t)
	w, sent := newTestWorkflow(t, conn)

	err := w.RequestAction("nobody@example.com", ActionPasswordReset, nil)
	if authErr := authCode(t, err); authErr.Code != apperrors.CodeUserNotFound {
		t.Errorf("Expected %s, got %s", apperrors.CodeUserNotFound, authErr.Code)
	}
	if len(*sent) != 0 {
		t.Errorf("Expected no notification, got %d", len(*sent))
	}
}

func TestRequestActionUnknownAction(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)
	createTestUser(t, conn, "alice@example.com", false)

	err := w.RequestAction("alice@example.com", "account_takeover", nil)
	if authErr := authCode(t, err); authErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("Expected %s, got %s", apperrors.CodeInvalidInput, authErr.Code)
	}
}

func TestRequestActionIssuesTokenAndNotifies(t *testing.T) {
	conn := newTestDB(t)
	w, sent := newTestWorkflow(t, conn)
	createTestUser(t, conn, "alice@example.com", false)

	if err := w.RequestAction("Alice@Example.COM", ActionPasswordReset, nil); err != nil {
		t.Fatalf("RequestAction failed: %v", err)
	}

	if len(*sent) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(*sent))
	}
	data := (*sent)[0]
	if data.To != "alice@example.com" {
		t.Errorf("Expected notification to alice@example.com, got %s", data.To)
	}
	if data.Template != "password-reset" {
		t.Errorf("Expected password-reset template, got %s", data.Template)
	}
	if _, ok := data.Variables["reset_link"]; !ok {
		t.Error("Expected a reset_link variable")
	}

	var record models.ActionToken
	if err := conn.First(&record).Error; err != nil {
		t.Fatalf("Expected a persisted action token: %v", err)
	}
	if record.Action != ActionPasswordReset {
		t.Errorf("Expected action %s, got %s", ActionPasswordReset, record.Action)
	}
	if !record.ExpiresAt.After(time.Now()) {
		t.Error("Expected a future expiry")
	}
}

func TestRequestActionDispatchFailureKeepsToken(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)
	createTestUser(t, conn, "alice@example.com", false)

	w.Dispatch = func(notifications.NotificationData) error {
		return gorm.ErrInvalidData
	}

	err := w.RequestAction("alice@example.com", ActionEmailVerification, nil)
	if authErr := authCode(t, err); authErr.Code != apperrors.CodeError {
		t.Errorf("Expected %s, got %s", apperrors.CodeError, authErr.Code)
	}

	var count int64
	conn.Model(&models.ActionToken{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected token to survive dispatch failure, got %d rows", count)
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)
	user := createTestUser(t, conn, "alice@example.com", true)

	session := models.Session{UserID: user.ID, Token: "st_long_roundtrip"}
	if err := conn.Create(&session).Error; err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if err := w.RequestAction(user.Email, ActionPasswordReset, nil); err != nil {
		t.Fatalf("RequestAction failed: %v", err)
	}
	token := issuedToken(t, conn)

	updated, err := w.ConsumeAction(ConsumeParams{
		TokenString: token,
		Action:      ActionPasswordReset,
		NewPassword: "N3w-password!",
	})
	if err != nil {
		t.Fatalf("ConsumeAction failed: %v", err)
	}

	if err := crypto.NewCrypto().VerifyPassword("N3w-password!", updated.Password); err != nil {
		t.Errorf("New password does not verify: %v", err)
	}
	if err := crypto.NewCrypto().VerifyPassword("Origin4l-password!", updated.Password); err == nil {
		t.Error("Old password still verifies after reset")
	}

	var sessions int64
	conn.Model(&models.Session{}).Where("user_id = ?", user.ID).Count(&sessions)
	if sessions != 0 {
		t.Errorf("Expected all sessions revoked, %d remain", sessions)
	}
}

func TestConsumeActionSingleUse(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)
	user := createTestUser(t, conn, "alice@example.com", false)

	if err := w.RequestAction(user.Email, ActionEmailVerification, nil); err != nil {
		t.Fatalf("RequestAction failed: %v", err)
	}
	token := issuedToken(t, conn)
	params := ConsumeParams{TokenString: token, Action: ActionEmailVerification}

	updated, err := w.ConsumeAction(params)
	if err != nil {
		t.Fatalf("First consumption failed: %v", err)
	}
	if !updated.IsEmailVerified {
		t.Error("Expected email to be verified")
	}

	_, err = w.ConsumeAction(params)
	if authErr := authCode(t, err); authErr.Code != apperrors.CodeTokenNotFound {
		t.Errorf("Expected %s on reuse, got %s", apperrors.CodeTokenNotFound, authErr.Code)
	}
}

func TestConsumeActionUnknownToken(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)

	_, err := w.ConsumeAction(ConsumeParams{TokenString: "never-issued", Action: ActionPasswordReset})
	if authErr := authCode(t, err); authErr.Code != apperrors.CodeTokenNotFound {
		t.Errorf("Expected %s, got %s", apperrors.CodeTokenNotFound, authErr.Code)
	}
}

func TestConsumeActionRejectsUnsignedToken(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)
	createTestUser(t, conn, "alice@example.com", false)

	// A row whose token string was never minted by the codec. The lookup
	// succeeds but the signature check must fail, and the row is consumed.
	record := models.ActionToken{
		Token:     "not-a-signed-token",
		Action:    ActionPasswordReset,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := conn.Create(&record).Error; err != nil {
		t.Fatalf("Failed to insert token row: %v", err)
	}

	_, err := w.ConsumeAction(ConsumeParams{TokenString: record.Token, Action: ActionPasswordReset})
	if authErr := authCode(t, err); authErr.Code != apperrors.CodeInvalidToken {
		t.Errorf("Expected %s, got %s", apperrors.CodeInvalidToken, authErr.Code)
	}

	var count int64
	conn.Model(&models.ActionToken{}).Count(&count)
	if count != 0 {
		t.Error("Expected rejected token row to be consumed")
	}
}

func TestConsumeActionRejectsActionMismatch(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)
	user := createTestUser(t, conn, "alice@example.com", false)

	if err := w.RequestAction(user.Email, ActionEmailVerification, nil); err != nil {
		t.Fatalf("RequestAction failed: %v", err)
	}
	token := issuedToken(t, conn)

	_, err := w.ConsumeAction(ConsumeParams{
		TokenString: token,
		Action:      ActionPasswordReset,
		NewPassword: "N3w-password!",
	})
	if authErr := authCode(t, err); authErr.Code != apperrors.CodeInvalidToken {
		t.Errorf("Expected %s, got %s", apperrors.CodeInvalidToken, authErr.Code)
	}

	var reloaded models.User
	conn.First(&reloaded, user.ID)
	if reloaded.IsEmailVerified {
		t.Error("Verification token redeemed as a reset must not verify the email")
	}
}

func TestConsumeActionExpired(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)
	user := createTestUser(t, conn, "alice@example.com", false)

	if err := w.RequestAction(user.Email, ActionEmailVerification, nil); err != nil {
		t.Fatalf("RequestAction failed: %v", err)
	}
	token := issuedToken(t, conn)

	if err := conn.Model(&models.ActionToken{}).
		Where("token = ?", token).
		Update("expires_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("Failed to backdate expiry: %v", err)
	}

	_, err := w.ConsumeAction(ConsumeParams{TokenString: token, Action: ActionEmailVerification})
	authErr := authCode(t, err)
	if authErr.Code != apperrors.CodeInvalidToken {
		t.Errorf("Expected %s, got %s", apperrors.CodeInvalidToken, authErr.Code)
	}
	if authErr.Status != 410 {
		t.Errorf("Expected status 410, got %d", authErr.Status)
	}

	// Expired tokens are consumed on the failed attempt too.
	var count int64
	conn.Model(&models.ActionToken{}).Count(&count)
	if count != 0 {
		t.Error("Expected expired token row to be consumed")
	}
}

func TestConsumeActionWrongIdentity(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)
	alice := createTestUser(t, conn, "alice@example.com", false)
	bob := createTestUser(t, conn, "bob@example.com", false)

	if err := w.RequestAction(alice.Email, ActionEmailVerification, nil); err != nil {
		t.Fatalf("RequestAction failed: %v", err)
	}
	token := issuedToken(t, conn)

	_, err := w.ConsumeAction(ConsumeParams{
		TokenString: token,
		Action:      ActionEmailVerification,
		Identity:    bob,
	})
	if authErr := authCode(t, err); authErr.Code != apperrors.CodeWrongToken {
		t.Errorf("Expected %s, got %s", apperrors.CodeWrongToken, authErr.Code)
	}

	var reloaded models.User
	conn.First(&reloaded, alice.ID)
	if reloaded.IsEmailVerified {
		t.Error("Email must not be verified by a different account's session")
	}
}

func TestConsumeActionAlreadyVerified(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)
	user := createTestUser(t, conn, "alice@example.com", true)

	// Issuance for a verified account is allowed; consumption rejects it.
	if err := w.RequestAction(user.Email, ActionEmailVerification, nil); err != nil {
		t.Fatalf("RequestAction failed: %v", err)
	}
	token := issuedToken(t, conn)

	_, err := w.ConsumeAction(ConsumeParams{TokenString: token, Action: ActionEmailVerification})
	if authErr := authCode(t, err); authErr.Code != apperrors.CodeAlreadyVerified {
		t.Errorf("Expected %s, got %s", apperrors.CodeAlreadyVerified, authErr.Code)
	}
}

func TestRepeatedRequestsIssueIndependentTokens(t *testing.T) {
	conn := newTestDB(t)
	w, _ := newTestWorkflow(t, conn)
	user := createTestUser(t, conn, "alice@example.com", false)

	// Back-to-back requests within the same second, as a double-submitted
	// form produces. Each must issue its own token.
	if err := w.RequestAction(user.Email, ActionPasswordReset, nil); err != nil {
		t.Fatalf("First RequestAction failed: %v", err)
	}
	first := issuedToken(t, conn)
	if err := w.RequestAction(user.Email, ActionPasswordReset, nil); err != nil {
		t.Fatalf("Second RequestAction failed: %v", err)
	}
	second := issuedToken(t, conn)

	if first == second {
		t.Fatal("Expected distinct token strings")
	}

	// Consuming the newer token leaves the older one redeemable.
	if _, err := w.ConsumeAction(ConsumeParams{
		TokenString: second,
		Action:      ActionPasswordReset,
		NewPassword: "N3w-password!",
	}); err != nil {
		t.Fatalf("Consuming second token failed: %v", err)
	}
	if _, err := w.ConsumeAction(ConsumeParams{
		TokenString: first,
		Action:      ActionPasswordReset,
		NewPassword: "An0ther-password!",
	}); err != nil {
		t.Fatalf("Consuming first token failed: %v", err)
	}
}
