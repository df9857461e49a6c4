// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package file implements a keyring storage in a directory, using the GnuPG 1.x file layout.
package file

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/siderolabs/go-pgp-keystore/pkg/keystore"
)

// Keyring file names.
const (
	PublicKeyringName = "pubring.gpg"
	SecretKeyringName = "secring.gpg"
)

// Storage keeps the public and the secret keyring as binary OpenPGP files in a directory.
type Storage struct {
	dir string
}

// New creates a storage in the given directory.
func New(dir string) *Storage {
	return &Storage{
		dir: dir,
	}
}

// NewXDG creates a storage in the given directory relative to the XDG data home.
//
// The directory is created if it doesn't exist.
func NewXDG(dataFileDirectory string) (*Storage, error) {
	path, err := xdg.DataFile(filepath.Join(dataFileDirectory, PublicKeyringName))
	if err != nil {
		return nil, err
	}

	return New(filepath.Dir(path)), nil
}

// Dir returns the keyring directory.
func (s *Storage) Dir() string {
	return s.dir
}

// Load implements keystore.Storage.
//
// Missing keyring files are treated as empty keyrings.
func (s *Storage) Load() (*keystore.Keyring, error) {
	public, err := s.readRing(PublicKeyringName)
	if err != nil {
		return nil, err
	}

	secret, err := s.readRing(SecretKeyringName)
	if err != nil {
		return nil, err
	}

	return &keystore.Keyring{
		Public: public,
		Secret: secret,
	}, nil
}

// Save implements keystore.Storage.
//
// Both keyrings are written to temporary files first, then the secret keyring replaces the old one
// before the public keyring does, so a failed save never leaves public keys without their secret keys.
func (s *Storage) Save(keyring *keystore.Keyring) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	if !isWritable(s.dir) {
		return fmt.Errorf("keyring directory is not writable: %s", s.dir)
	}

	secretPath, err := s.writeTemp(SecretKeyringName, keyring.Secret, 0o600)
	if err != nil {
		return err
	}

	defer os.Remove(secretPath) //nolint:errcheck

	publicPath, err := s.writeTemp(PublicKeyringName, keyring.Public, 0o644)
	if err != nil {
		return err
	}

	defer os.Remove(publicPath) //nolint:errcheck

	if err = os.Rename(secretPath, filepath.Join(s.dir, SecretKeyringName)); err != nil {
		return err
	}

	return os.Rename(publicPath, filepath.Join(s.dir, PublicKeyringName))
}

func (s *Storage) readRing(name string) ([]keystore.Record, error) {
	path := filepath.Join(s.dir, name)

	if !fileExists(path) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return []keystore.Record{{Data: data}}, nil
}

// writeTemp writes the keyring to a temporary file next to its final location and returns its path.
func (s *Storage) writeTemp(name string, records []keystore.Record, perm os.FileMode) (string, error) {
	var buf bytes.Buffer

	for _, r := range records {
		buf.Write(r.Data)
	}

	f, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return "", err
	}

	tmpPath := f.Name()

	if _, err = f.Write(buf.Bytes()); err != nil {
		f.Close()          //nolint:errcheck
		os.Remove(tmpPath) //nolint:errcheck

		return "", err
	}

	if err = f.Close(); err != nil {
		os.Remove(tmpPath) //nolint:errcheck

		return "", err
	}

	if err = os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath) //nolint:errcheck

		return "", err
	}

	return tmpPath, nil
}

func fileExists(filename string) bool {
	if _, err := os.Stat(filename); err != nil {
		return false
	}

	return true
}
