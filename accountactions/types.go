// SPDX-License-Identifier: GPL-3.0-only

package accountactions

import (
	"fmt"
	"time"
)

const (
	ActionPasswordReset     = "password_reset"
	ActionEmailVerification = "email_verification"
)

// Validity windows are per-action constants, not tunable per call.
const (
	passwordResetWindow     = 2 * time.Hour
	emailVerificationWindow = 24 * time.Hour
)

func windowFor(action string) (time.Duration, error) {
	switch action {
	case ActionPasswordReset:
		return passwordResetWindow, nil
	case ActionEmailVerification:
		return emailVerificationWindow, nil
	default:
		return 0, fmt.Errorf("unsupported account action: %s", action)
	}
}
