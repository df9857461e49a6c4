// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package keystore

import "github.com/siderolabs/go-pgp-keystore/pkg/pgp"

// Find returns true if a key in the store is bound to exactly the given identity.
func (s *Store) Find(identity string) bool {
	_, found := s.Lookup(identity)

	return found
}

// Lookup resolves the identity to a key.
//
// Secret keys are scanned before public keys. A key matches if any of its user IDs is byte-for-byte equal
// to the identity. When several keys match, the store ResolvePolicy picks one.
func (s *Store) Lookup(identity string) (*pgp.Key, bool) {
	if s.closed || identity == "" {
		return nil, false
	}

	for _, collection := range [][]*pgp.Key{s.secret, s.public} {
		if key := s.scan(collection, identity); key != nil {
			return key, true
		}
	}

	return nil, false
}

// LookupFingerprint returns the key with the given fingerprint, preferring the secret collection.
func (s *Store) LookupFingerprint(fingerprint string) (*pgp.Key, bool) {
	if s.closed || fingerprint == "" {
		return nil, false
	}

	for _, collection := range [][]*pgp.Key{s.secret, s.public} {
		for _, key := range collection {
			if key.Fingerprint() == fingerprint {
				return key, true
			}
		}
	}

	return nil, false
}

func (s *Store) scan(collection []*pgp.Key, identity string) *pgp.Key {
	if s.options.resolvePolicy == LastMatch {
		for i := len(collection) - 1; i >= 0; i-- {
			if collection[i].HasIdentity(identity) {
				return collection[i]
			}
		}

		return nil
	}

	for _, key := range collection {
		if key.HasIdentity(identity) {
			return key
		}
	}

	return nil
}
