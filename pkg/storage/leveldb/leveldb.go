// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package leveldb implements a keyring storage on top of LevelDB, one database entry per key.
package leveldb

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/siderolabs/go-pgp-keystore/pkg/keystore"
)

var (
	dbPublicPrefix = []byte("pub/") // pub/<position>/<fingerprint> -> binary public key
	dbSecretPrefix = []byte("sec/") // sec/<position>/<fingerprint> -> binary secret key
)

// Storage persists keyrings in a LevelDB database.
type Storage struct {
	db *leveldb.DB
}

// Open opens (or creates) the database at the given path.
func Open(path string) (*Storage, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// OpenInMemory opens a database which lives in memory only.
func OpenInMemory() (*Storage, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Load implements keystore.Storage.
//
// Records are returned in the order they were saved.
func (s *Storage) Load() (*keystore.Keyring, error) {
	snapshot, err := s.db.GetSnapshot()
	if err != nil {
		return nil, err
	}

	defer snapshot.Release()

	public, err := readRecords(snapshot, dbPublicPrefix)
	if err != nil {
		return nil, err
	}

	secret, err := readRecords(snapshot, dbSecretPrefix)
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
// The previous contents are replaced in a single batch.
func (s *Storage) Save(keyring *keystore.Keyring) error {
	batch := new(leveldb.Batch)

	for _, prefix := range [][]byte{dbPublicPrefix, dbSecretPrefix} {
		it := s.db.NewIterator(util.BytesPrefix(prefix), nil)

		for it.Next() {
			batch.Delete(bytes.Clone(it.Key()))
		}

		it.Release()

		if err := it.Error(); err != nil {
			return err
		}
	}

	putRecords(batch, dbPublicPrefix, keyring.Public)
	putRecords(batch, dbSecretPrefix, keyring.Secret)

	return s.db.Write(batch, nil)
}

func putRecords(batch *leveldb.Batch, prefix []byte, records []keystore.Record) {
	for i, r := range records {
		key := append(bytes.Clone(prefix), fmt.Sprintf("%08d/%s", i, r.Fingerprint)...)

		batch.Put(key, r.Data)
	}
}

func readRecords(snapshot *leveldb.Snapshot, prefix []byte) ([]keystore.Record, error) {
	var records []keystore.Record

	it := snapshot.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	for it.Next() {
		_, fingerprint, _ := strings.Cut(string(it.Key()[len(prefix):]), "/")

		records = append(records, keystore.Record{
			Fingerprint: fingerprint,
			Data:        bytes.Clone(it.Value()),
		})
	}

	return records, it.Error()
}
