// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

// RegistrationEvent is the payload Kratos posts from the
// after-registration hook. The invitation token is optional and present
// only when the signup flow carried one.
type RegistrationEvent struct {
	Identity        KratosIdentity `json:"identity"`
	InvitationToken string         `json:"invitation_token,omitempty"`
}

type KratosIdentity struct {
	ID     string       `json:"id"`
	Traits KratosTraits `json:"traits"`
}

type KratosTraits struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
