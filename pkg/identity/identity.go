// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package identity resolves the default identity of the current user.
package identity

import (
	"errors"
	"os"
)

// Environment variables holding the login name, in the order of precedence.
const (
	LognameEnvVar = "LOGNAME"
	UserEnvVar    = "USER"
)

// ErrNoDefault is returned when no default identity can be found.
var ErrNoDefault = errors.New("no default identity found")

// Default returns the login name of the current user, to be used as the identity when none is given.
func Default() (string, error) {
	for _, name := range []string{LognameEnvVar, UserEnvVar} {
		if value := os.Getenv(name); value != "" {
			return value, nil
		}
	}

	return "", ErrNoDefault
}
