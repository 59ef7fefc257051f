// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in error payloads so clients can branch without
// parsing messages.
const (
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeInvalidEmail           = "INVALID_EMAIL"
	CodeTokenNotFound          = "TOKEN_NOT_FOUND"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeTokenAlreadyUsed       = "TOKEN_ALREADY_USED"
	CodeEmailMismatch          = "EMAIL_MISMATCH"
	CodeSelfElevationForbidden = "SELF_ELEVATION_FORBIDDEN"
	CodeNotAuthorized          = "NOT_AUTHORIZED"
	CodeGrantAfterConsume      = "GRANT_AFTER_CONSUME_FAILED"
	CodeDuplicateValue         = "DUPLICATE_VALUE"
	CodeNotFound               = "NOT_FOUND"
	CodeInternal               = "INTERNAL"
)

// ErrorResponse is the standard json response for errors.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, &ErrorResponse{
		Status:  status,
		Code:    code,
		Message: message,
	})
}
