// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package server

import "errors"

var (
	errNoListenAddress = errors.New("no http listen address configured")
)
