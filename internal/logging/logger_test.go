// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"
)

func TestDebugLogger(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("DEBUG")
	}()
}

func TestInvalidLevel(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("invalid")
	}()
}

func TestNoopLoggerSecurityChannel(t *testing.T) {
	logger := NewNoopLogger()

	if logger.Security() == nil {
		t.Fatal("expected a security logger")
	}

	// must not panic on a nop core
	logger.Security().SystemStartup()
	logger.Security().SelfElevationBlocked("principal-123")
	logger.Security().AuthzFailure("principal-123", "token.issue")
}
