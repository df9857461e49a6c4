// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package memory implements an in-process keyring storage.
package memory

import (
	"bytes"

	"github.com/siderolabs/go-pgp-keystore/pkg/keystore"
)

// Storage keeps a copy of the last saved keyring in memory.
type Storage struct {
	keyring keystore.Keyring
}

// New creates a new Storage, optionally pre-populated with the given keyring.
func New(keyring *keystore.Keyring) *Storage {
	s := &Storage{}

	if keyring != nil {
		s.keyring = clone(keyring)
	}

	return s
}

// Load implements keystore.Storage.
func (s *Storage) Load() (*keystore.Keyring, error) {
	keyring := clone(&s.keyring)

	return &keyring, nil
}

// Save implements keystore.Storage.
func (s *Storage) Save(keyring *keystore.Keyring) error {
	s.keyring = clone(keyring)

	return nil
}

func clone(keyring *keystore.Keyring) keystore.Keyring {
	cloneRecords := func(records []keystore.Record) []keystore.Record {
		if records == nil {
			return nil
		}

		out := make([]keystore.Record, 0, len(records))

		for _, r := range records {
			out = append(out, keystore.Record{
				Fingerprint: r.Fingerprint,
				Data:        bytes.Clone(r.Data),
			})
		}

		return out
	}

	return keystore.Keyring{
		Public: cloneRecords(keyring.Public),
		Secret: cloneRecords(keyring.Secret),
	}
}
