// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package keystore

import "errors"

var (
	// ErrGenerationFailed is returned when a key can't be generated or inserted.
	ErrGenerationFailed = errors.New("key generation failed")

	// ErrLoadFailed is returned when the persisted keyring can't be loaded.
	ErrLoadFailed = errors.New("keyring load failed")

	// ErrSaveFailed is returned when the keyring can't be persisted.
	ErrSaveFailed = errors.New("keyring save failed")

	// ErrDuplicateIdentity is returned when the identity is already bound to a key and unique identities are enforced.
	ErrDuplicateIdentity = errors.New("identity already exists")

	// ErrClosed is returned on any use of a closed store.
	ErrClosed = errors.New("store is closed")
)
