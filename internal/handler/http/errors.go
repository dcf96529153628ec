// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package http

import "errors"

// Sentinel errors used by the authentication middleware when parsing the
// "Authorization" HTTP header. Callers can match against them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
	// incoming request does not include an "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader is returned when the "Authorization"
	// header is present but does not carry a two-part bearer scheme with a
	// non-empty token value.
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")
)
