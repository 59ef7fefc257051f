// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

var _ SecurityLoggerInterface = (*SecurityLogger)(nil)

// SecurityLogger emits structured audit events. Every event carries an
// "event" field with a stable machine-readable name.
type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Info("system startup", zap.String("event", "system.startup"))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Info("system shutdown", zap.String("event", "system.shutdown"))
}

func (s *SecurityLogger) AuthzFailure(subject, action string) {
	s.l.Warn("authorization failure",
		zap.String("event", "authz.failure"),
		zap.String("subject", subject),
		zap.String("action", action),
	)
}

func (s *SecurityLogger) SelfElevationBlocked(principalID string) {
	s.l.Warn("self elevation blocked",
		zap.String("event", "privilege.self_elevation_blocked"),
		zap.String("principal_id", principalID),
	)
}

func (s *SecurityLogger) AdminGranted(actor, target string) {
	s.l.Info("admin privilege granted",
		zap.String("event", "privilege.admin_granted"),
		zap.String("actor", actor),
		zap.String("target", target),
	)
}

func (s *SecurityLogger) AdminRevoked(actor, target string) {
	s.l.Info("admin privilege revoked",
		zap.String("event", "privilege.admin_revoked"),
		zap.String("actor", actor),
		zap.String("target", target),
	)
}

func (s *SecurityLogger) GrantFailure(principalID, tokenValue string) {
	s.l.Error("grant failed after token consumption",
		zap.String("event", "privilege.grant_after_consume_failed"),
		zap.String("principal_id", principalID),
		zap.String("token_value", tokenValue),
	)
}
