// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package keystore

import "errors"

// ErrReadOnly is returned by storages which can't persist keyrings.
var ErrReadOnly = errors.New("storage is read-only")

// Record is a single persisted blob of OpenPGP data.
//
// Data holds one or more binary transferable keys, or an ASCII-armored keyring.
// Fingerprint is set when the record holds exactly one key, storages may leave it empty on load.
type Record struct {
	Fingerprint string
	Data        []byte
}

// Keyring is the persisted form of the store collections.
type Keyring struct {
	Public []Record
	Secret []Record
}

// Storage reads and writes keyrings.
//
// If the storage implements io.Closer, it is closed together with the store.
type Storage interface {
	Load() (*Keyring, error)
	Save(keyring *Keyring) error
}
