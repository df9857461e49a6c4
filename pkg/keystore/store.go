// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package keystore contains the in-memory OpenPGP keyring.
//
// A Store keeps two collections: secret keys and public keys. Keys generated by the store are
// inserted into both collections, linked by the fingerprint. Keys can be loaded from and saved to a Storage,
// resolved by identity and exported in the armored format.
//
// The Store is not safe for concurrent use.
package keystore

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/siderolabs/go-pgp-keystore/pkg/pgp"
)

// Store is an OpenPGP keyring session.
type Store struct {
	logger  *logrus.Entry
	storage Storage

	secret []*pgp.Key
	public []*pgp.Key

	// fingerprint of the key exported when no identity is given
	defaultFingerprint string

	options options

	loaded bool
	closed bool
}

// New creates an empty store.
func New(opt ...Option) *Store {
	options := newDefaultOptions()

	for _, o := range opt {
		o(&options)
	}

	return &Store{
		logger:  options.logger.WithField("subsystem", "keystore"),
		storage: options.storage,
		options: options,
	}
}

// SecretCount returns the number of keys in the secret collection.
func (s *Store) SecretCount() int {
	return len(s.secret)
}

// PublicCount returns the number of keys in the public collection.
func (s *Store) PublicCount() int {
	return len(s.public)
}

// SecretKeys returns the keys of the secret collection in insertion order.
func (s *Store) SecretKeys() []*pgp.Key {
	return append([]*pgp.Key(nil), s.secret...)
}

// PublicKeys returns the keys of the public collection in insertion order.
func (s *Store) PublicKeys() []*pgp.Key {
	return append([]*pgp.Key(nil), s.public...)
}

// Close zeroes the private material of all secret keys and releases the storage.
//
// The store can't be used afterwards. Closing a closed store returns ErrClosed.
func (s *Store) Close() error {
	if s.closed {
		return ErrClosed
	}

	s.closed = true

	cleared := 0

	for _, key := range s.secret {
		if key.ClearPrivateParams() {
			cleared++
		}
	}

	s.logger.WithField("cleared", cleared).Debug("store closed")

	s.secret = nil
	s.public = nil
	s.defaultFingerprint = ""

	if closer, ok := s.storage.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

func (s *Store) total() int {
	return len(s.secret) + len(s.public)
}

func (s *Store) contains(collection []*pgp.Key, fingerprint string) bool {
	for _, key := range collection {
		if key.Fingerprint() == fingerprint {
			return true
		}
	}

	return false
}

func (s *Store) checkOpen() error {
	if s.closed {
		return ErrClosed
	}

	return nil
}

// releaseAll zeroes the private material of keys which were never inserted into the store.
func releaseAll(keys ...*pgp.Key) {
	for _, key := range keys {
		if key != nil {
			key.ClearPrivateParams()
		}
	}
}
