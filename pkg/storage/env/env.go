// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package env implements a read-only keyring storage backed by a key bundle in the environment.
package env

import (
	"fmt"

	"github.com/siderolabs/go-pgp-keystore/pkg/bundle"
	"github.com/siderolabs/go-pgp-keystore/pkg/keystore"
)

// Storage reads a single key from a bundle in the first set environment variable.
type Storage struct {
	names []string
}

// New creates a storage reading the given environment variables, bundle.DefaultEnvVar if none are given.
func New(names ...string) *Storage {
	return &Storage{
		names: names,
	}
}

// Load implements keystore.Storage.
//
// If none of the variables is set, the keyring is empty.
func (s *Storage) Load() (*keystore.Keyring, error) {
	envKey, valueBase64 := bundle.GetFromEnv(s.names...)
	if envKey == "" {
		return &keystore.Keyring{}, nil
	}

	b, err := bundle.Decode(valueBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key bundle from env var %q: %w", envKey, err)
	}

	public, err := b.Key.SerializePublic()
	if err != nil {
		return nil, err
	}

	keyring := &keystore.Keyring{
		Public: []keystore.Record{{Fingerprint: b.Key.Fingerprint(), Data: public}},
	}

	if b.Key.IsPrivate() {
		secret, err := b.Key.Serialize()
		if err != nil {
			return nil, err
		}

		keyring.Secret = []keystore.Record{{Fingerprint: b.Key.Fingerprint(), Data: secret}}

		b.Key.ClearPrivateParams()
	}

	return keyring, nil
}

// Save implements keystore.Storage.
func (s *Storage) Save(*keystore.Keyring) error {
	return keystore.ErrReadOnly
}
