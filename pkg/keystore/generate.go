// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package keystore

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/siderolabs/go-pgp-keystore/pkg/pgp"
)

// Generate generates a new key pair bound to the identity and inserts it into the store.
//
// On success both the secret and the public collections gain exactly one entry, and the new key becomes the default key.
// On failure the store is unchanged.
func (s *Store) Generate(desc pgp.Descriptor, identity string) (*pgp.Key, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	logger := s.logger.WithField("identity", identity)

	if identity == "" {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, pgp.ErrInvalidIdentity)
	}

	if s.options.uniqueIdentities {
		if _, found := s.Lookup(identity); found {
			return nil, fmt.Errorf("%w: %w: %s", ErrGenerationFailed, ErrDuplicateIdentity, identity)
		}
	}

	secret, err := pgp.GenerateKey(desc, identity)
	if err != nil {
		logger.WithError(err).Error("failed to generate key")

		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	public, err := secret.Public()
	if err != nil {
		releaseAll(secret)

		return nil, fmt.Errorf("%w: failed to derive public key: %w", ErrGenerationFailed, err)
	}

	s.secret = append(s.secret, secret)
	s.public = append(s.public, public)
	s.defaultFingerprint = secret.Fingerprint()

	logger.WithFields(logrus.Fields{
		"fingerprint": secret.Fingerprint(),
		"algorithm":   desc.Algorithm.String(),
		"bits":        desc.Bits,
		"hash":        desc.Hash.String(),
	}).Debug("generated key")

	return secret, nil
}
