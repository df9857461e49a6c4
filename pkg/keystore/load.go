// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package keystore

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/hashicorp/go-multierror"

	"github.com/siderolabs/go-pgp-keystore/pkg/pgp"
)

var armorHeader = []byte("-----BEGIN ")

// Load reads the keyrings from the storage and merges them into the store.
//
// Keys already in the store (by fingerprint) are kept as is, new keys are appended.
// Unless force is set, Load does nothing once the store has been loaded.
// If any record or any key within a record can't be read, the whole load fails with ErrLoadFailed
// and the store is unchanged.
//
// Load returns the current total number of keys in both collections, not the number of keys read:
// it includes keys generated before or after the load, also when Load is a no-op.
func (s *Store) Load(force bool) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	if s.loaded && !force {
		return s.total(), nil
	}

	if s.storage == nil {
		s.loaded = true

		return s.total(), nil
	}

	keyring, err := s.storage.Load()
	if err != nil {
		s.logger.WithError(err).Error("failed to read keyring")

		return 0, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	if keyring == nil {
		keyring = &Keyring{}
	}

	var result *multierror.Error

	secret, err := s.parseRecords("secret", keyring.Secret, true)
	if err != nil {
		result = multierror.Append(result, err)
	}

	public, err := s.parseRecords("public", keyring.Public, false)
	if err != nil {
		result = multierror.Append(result, err)
	}

	if err = result.ErrorOrNil(); err != nil {
		releaseAll(secret...)

		s.logger.WithError(err).Error("failed to parse keyring")

		return 0, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	addedSecret, addedPublic := 0, 0
	lastPublic := ""

	for _, key := range secret {
		if s.contains(s.secret, key.Fingerprint()) {
			key.ClearPrivateParams()

			continue
		}

		s.secret = append(s.secret, key)
		s.defaultFingerprint = key.Fingerprint()
		addedSecret++
	}

	for _, key := range public {
		if s.contains(s.public, key.Fingerprint()) {
			continue
		}

		s.public = append(s.public, key)
		lastPublic = key.Fingerprint()
		addedPublic++
	}

	// without secret keys, the most recently loaded public key is the default one
	if addedSecret == 0 && lastPublic != "" && !s.contains(s.secret, s.defaultFingerprint) {
		s.defaultFingerprint = lastPublic
	}

	s.loaded = true

	s.logger.WithField("secret", addedSecret).WithField("public", addedPublic).Debug("keyring loaded")

	return s.total(), nil
}

// Save writes both collections to the storage, one record per key.
//
// Storages replace their contents on save, so a store which was never loaded is loaded first
// to keep the persisted keys. This implicit load doesn't change the default key.
func (s *Store) Save() error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if s.storage == nil {
		return fmt.Errorf("%w: no storage configured", ErrSaveFailed)
	}

	if !s.loaded {
		defaultFingerprint := s.defaultFingerprint

		if _, err := s.Load(false); err != nil {
			return fmt.Errorf("%w: %w", ErrSaveFailed, err)
		}

		if defaultFingerprint != "" {
			s.defaultFingerprint = defaultFingerprint
		}
	}

	keyring := &Keyring{
		Secret: make([]Record, 0, len(s.secret)),
		Public: make([]Record, 0, len(s.public)),
	}

	for _, key := range s.secret {
		data, err := key.Serialize()
		if err != nil {
			return fmt.Errorf("%w: failed to serialize secret key %s: %w", ErrSaveFailed, key.Fingerprint(), err)
		}

		keyring.Secret = append(keyring.Secret, Record{Fingerprint: key.Fingerprint(), Data: data})
	}

	for _, key := range s.public {
		data, err := key.SerializePublic()
		if err != nil {
			return fmt.Errorf("%w: failed to serialize public key %s: %w", ErrSaveFailed, key.Fingerprint(), err)
		}

		keyring.Public = append(keyring.Public, Record{Fingerprint: key.Fingerprint(), Data: data})
	}

	if err := s.storage.Save(keyring); err != nil {
		s.logger.WithError(err).Error("failed to write keyring")

		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	s.logger.WithField("secret", len(keyring.Secret)).WithField("public", len(keyring.Public)).Debug("keyring saved")

	return nil
}

// parseRecords parses and validates the keys of the records.
//
// Parsed keys are returned even on error, so that their private material can be released.
func (s *Store) parseRecords(kind string, records []Record, private bool) ([]*pgp.Key, error) {
	var (
		keys   []*pgp.Key
		result *multierror.Error
	)

	for i, record := range records {
		parsed, err := s.parseRecord(record.Data, private)
		keys = append(keys, parsed...)

		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s record %d: %w", kind, i, err))
		}
	}

	return keys, result.ErrorOrNil()
}

func (s *Store) parseRecord(data []byte, private bool) ([]*pgp.Key, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	entities, err := readEntities(data)
	if err != nil {
		return nil, err
	}

	if len(entities) == 0 {
		return nil, errors.New("no keys found")
	}

	keys := make([]*pgp.Key, 0, len(entities))

	for _, entity := range entities {
		key, err := pgp.NewKeyFromEntity(entity)
		if err != nil {
			return keys, err
		}

		keys = append(keys, key)

		switch {
		case private && !key.IsPrivate():
			return keys, fmt.Errorf("key %s has no private material", key.Fingerprint())
		case !private && key.IsPrivate():
			return keys, fmt.Errorf("key %s has private material", key.Fingerprint())
		}

		if err = key.Validate(s.options.validation...); err != nil {
			return keys, fmt.Errorf("key %s: %w", key.Fingerprint(), err)
		}
	}

	return keys, nil
}

// readEntities reads every entity of a binary or an armored keyring.
//
// Unlike openpgp.ReadKeyRing, an unreadable entity fails the whole keyring instead of being skipped.
func readEntities(data []byte) (openpgp.EntityList, error) {
	var r io.Reader = bytes.NewReader(data)

	if bytes.HasPrefix(bytes.TrimSpace(data), armorHeader) {
		block, err := armor.Decode(r)
		if err != nil {
			return nil, err
		}

		if block.Type != openpgp.PublicKeyType && block.Type != openpgp.PrivateKeyType {
			return nil, fmt.Errorf("unexpected armor type %q", block.Type)
		}

		r = block.Body
	}

	packets := packet.NewReader(r)

	var entities openpgp.EntityList

	for {
		entity, err := openpgp.ReadEntity(packets)
		if err == io.EOF {
			return entities, nil
		}

		if err != nil {
			return entities, fmt.Errorf("entity %d: %w", len(entities), err)
		}

		entities = append(entities, entity)
	}
}
