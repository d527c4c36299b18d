// SPDX-License-Identifier: GPL-3.0-only

package accountactions

import (
	"testing"
	"time"

	"admindesk-server/models"
)

func TestStoreCreateRejectsPastExpiry(t *testing.T) {
	store := NewTokenStore(newTestDB(t))

	_, err := store.Create("tok-past", ActionPasswordReset, time.Now().Add(-time.Minute), nil)
	if err == nil {
		t.Fatal("Expected an error for a past expiry")
	}
}

func TestStoreCreateRejectsDuplicateToken(t *testing.T) {
	store := NewTokenStore(newTestDB(t))
	expiry := time.Now().Add(time.Hour)

	if _, err := store.Create("tok-dup", ActionPasswordReset, expiry, nil); err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	_, err := store.Create("tok-dup", ActionPasswordReset, expiry, nil)
	if err != ErrDuplicateToken {
		t.Errorf("Expected ErrDuplicateToken, got %v", err)
	}
}

func TestStoreFindByToken(t *testing.T) {
	store := NewTokenStore(newTestDB(t))
	creator := uint(42)

	created, err := store.Create("tok-find", ActionEmailVerification, time.Now().Add(time.Hour), &creator)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := store.FindByToken("tok-find")
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatal("Expected to find the created token")
	}
	if found.CreatedBy == nil || *found.CreatedBy != creator {
		t.Error("Expected CreatedBy to round-trip")
	}

	missing, err := store.FindByToken("tok-absent")
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for an absent token")
	}
}

func TestStoreFindAndDeleteClaimsOnce(t *testing.T) {
	store := NewTokenStore(newTestDB(t))

	if _, err := store.Create("tok-claim", ActionPasswordReset, time.Now().Add(time.Hour), nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, err := store.FindAndDelete("tok-claim")
	if err != nil {
		t.Fatalf("FindAndDelete failed: %v", err)
	}
	if first == nil {
		t.Fatal("Expected the first claim to win")
	}

	second, err := store.FindAndDelete("tok-claim")
	if err != nil {
		t.Fatalf("FindAndDelete failed: %v", err)
	}
	if second != nil {
		t.Error("Expected the second claim to lose")
	}
}

func TestStoreDeleteByIDIsIdempotent(t *testing.T) {
	store := NewTokenStore(newTestDB(t))

	created, err := store.Create("tok-del", ActionPasswordReset, time.Now().Add(time.Hour), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.DeleteByID(created.ID); err != nil {
		t.Fatalf("First delete failed: %v", err)
	}
	if err := store.DeleteByID(created.ID); err != nil {
		t.Fatalf("Second delete failed: %v", err)
	}
}

func TestStorePurgeExpired(t *testing.T) {
	conn := newTestDB(t)
	store := NewTokenStore(conn)

	if _, err := store.Create("tok-live", ActionPasswordReset, time.Now().Add(time.Hour), nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	stale := models.ActionToken{
		Token:     "tok-stale",
		Action:    ActionPasswordReset,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := conn.Create(&stale).Error; err != nil {
		t.Fatalf("Failed to insert stale token: %v", err)
	}

	purged, err := store.PurgeExpired()
	if err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("Expected 1 purged token, got %d", purged)
	}

	live, err := store.FindByToken("tok-live")
	if err != nil || live == nil {
		t.Error("Expected the live token to survive the purge")
	}
}
