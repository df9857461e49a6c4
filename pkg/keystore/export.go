// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package keystore

import "github.com/siderolabs/go-pgp-keystore/pkg/pgp"

// Export returns the public material of a key as an armored PGP public key block.
//
// With an empty identity the default key is exported: the most recently generated or loaded secret key,
// or the most recently loaded public key if the store has no secret keys.
// Otherwise the identity is resolved with Lookup. The second return value is false when there is nothing to export.
func (s *Store) Export(identity string) (string, bool) {
	var (
		key   *pgp.Key
		found bool
	)

	if identity == "" {
		key, found = s.DefaultKey()
	} else {
		key, found = s.Lookup(identity)
	}

	if !found {
		return "", false
	}

	armored, err := key.ArmorPublic()
	if err != nil {
		s.logger.WithError(err).WithField("fingerprint", key.Fingerprint()).Warn("failed to armor public key")

		return "", false
	}

	return armored, true
}

// DefaultKey returns the key exported when no identity is given.
func (s *Store) DefaultKey() (*pgp.Key, bool) {
	if s.closed {
		return nil, false
	}

	if key, found := s.LookupFingerprint(s.defaultFingerprint); found {
		return key, true
	}

	if len(s.secret) > 0 {
		return s.secret[len(s.secret)-1], true
	}

	if len(s.public) > 0 {
		return s.public[len(s.public)-1], true
	}

	return nil, false
}
