// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

const (
	ADMIN_RELATION = "admin"

	// DEFAULT_PLATFORM is the single platform object admin tuples attach to.
	DEFAULT_PLATFORM = "default"
)

func UserTuple(userId string) string {
	return "user:" + userId
}

func PlatformTuple(platformId string) string {
	return "platform:" + platformId
}
