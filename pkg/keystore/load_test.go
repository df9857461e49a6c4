// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package keystore_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/siderolabs/go-pgp-keystore/pkg/keystore"
	"github.com/siderolabs/go-pgp-keystore/pkg/pgp"
	"github.com/siderolabs/go-pgp-keystore/pkg/storage/memory"
)

type LoadSuite struct {
	suite.Suite

	storage *memory.Storage
	store   *keystore.Store
	key     *pgp.Key
}

func (suite *LoadSuite) SetupTest() {
	suite.storage = memory.New(nil)
	suite.store = keystore.New(keystore.WithStorage(suite.storage))

	var err error

	suite.key, err = suite.store.Generate(eddsa(), "alice@example.com")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.store.Save())
}

func (suite *LoadSuite) TearDownTest() {
	suite.Require().NoError(suite.store.Close())
}

func (suite *LoadSuite) TestReconcile() {
	for _, force := range []bool{false, false, true, true} {
		count, err := suite.store.Load(force)
		suite.Require().NoError(err)

		suite.Assert().Equal(2, count)
		suite.Assert().Equal(1, suite.store.SecretCount())
		suite.Assert().Equal(1, suite.store.PublicCount())
	}

	// the in-memory key is kept, the loaded copy is dropped
	suite.Assert().Same(suite.key, suite.store.SecretKeys()[0])

	_, err := suite.key.Sign([]byte("data"))
	suite.Assert().NoError(err)
}

func (suite *LoadSuite) TestFreshStore() {
	store := keystore.New(keystore.WithStorage(suite.storage))

	defer store.Close() //nolint:errcheck

	count, err := store.Load(false)
	suite.Require().NoError(err)
	suite.Assert().Equal(2, count)

	suite.Assert().Equal(1, store.SecretCount())
	suite.Assert().Equal(1, store.PublicCount())
	suite.Assert().True(store.Find("alice@example.com"))

	expected, ok := suite.store.Export("")
	suite.Require().True(ok)

	exported, ok := store.Export("")
	suite.Require().True(ok)
	suite.Assert().Equal(expected, exported)

	loaded, ok := store.Lookup("alice@example.com")
	suite.Require().True(ok)
	suite.Assert().True(loaded.IsPrivate())
	suite.Assert().Equal(suite.key.Fingerprint(), loaded.Fingerprint())

	// the storage was modified behind the store: not reloaded unless forced
	_, err = suite.store.Generate(eddsa(), "bob")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.Save())

	_, err = store.Load(false)
	suite.Require().NoError(err)
	suite.Assert().Equal(1, store.SecretCount())
	suite.Assert().False(store.Find("bob"))

	count, err = store.Load(true)
	suite.Require().NoError(err)
	suite.Assert().Equal(4, count)
	suite.Assert().True(store.Find("bob"))

	// the last loaded secret key becomes the default one
	defaultKey, ok := store.DefaultKey()
	suite.Require().True(ok)
	suite.Assert().Equal("bob", defaultKey.PrimaryIdentity())
}

func (suite *LoadSuite) TestCorrupt() {
	keyring, err := suite.storage.Load()
	suite.Require().NoError(err)

	keyring.Secret = append(keyring.Secret, keystore.Record{Data: []byte("not a key")})
	keyring.Public = append(keyring.Public, keystore.Record{Data: []byte{0x99, 0x00}})

	store := keystore.New(keystore.WithStorage(memory.New(keyring)))

	defer store.Close() //nolint:errcheck

	_, err = store.Generate(eddsa(), "bob")
	suite.Require().NoError(err)

	_, err = store.Load(true)
	suite.Require().ErrorIs(err, keystore.ErrLoadFailed)

	suite.Assert().Equal(1, store.SecretCount())
	suite.Assert().Equal(1, store.PublicCount())
	suite.Assert().False(store.Find("alice@example.com"))

	// failed load doesn't mark the store as loaded
	store2 := keystore.New(keystore.WithStorage(memory.New(keyring)))

	defer store2.Close() //nolint:errcheck

	_, err = store2.Load(false)
	suite.Require().ErrorIs(err, keystore.ErrLoadFailed)

	_, err = store2.Load(false)
	suite.Require().ErrorIs(err, keystore.ErrLoadFailed)
}

func (suite *LoadSuite) TestMixedUpCollections() {
	keyring, err := suite.storage.Load()
	suite.Require().NoError(err)

	swapped := &keystore.Keyring{
		Public: keyring.Secret,
		Secret: keyring.Public,
	}

	store := keystore.New(keystore.WithStorage(memory.New(swapped)))

	defer store.Close() //nolint:errcheck

	_, err = store.Load(true)
	suite.Require().ErrorIs(err, keystore.ErrLoadFailed)

	suite.Assert().Equal(0, store.SecretCount())
	suite.Assert().Equal(0, store.PublicCount())
}

func (suite *LoadSuite) TestArmoredPublicOnly() {
	armored, err := suite.key.ArmorPublic()
	suite.Require().NoError(err)

	store := keystore.New(keystore.WithStorage(memory.New(&keystore.Keyring{
		Public: []keystore.Record{{Data: []byte(armored)}},
	})))

	defer store.Close() //nolint:errcheck

	count, err := store.Load(false)
	suite.Require().NoError(err)
	suite.Assert().Equal(1, count)

	suite.Assert().Equal(0, store.SecretCount())
	suite.Assert().Equal(1, store.PublicCount())

	exported, ok := store.Export("")
	suite.Require().True(ok)
	suite.Assert().Equal(armored, exported)
}

func (suite *LoadSuite) TestPublicOnlyDefault() {
	bob, err := pgp.GenerateKey(eddsa(), "bob")
	suite.Require().NoError(err)

	var records []keystore.Record

	for _, key := range []*pgp.Key{suite.key, bob} {
		data, err := key.SerializePublic()
		suite.Require().NoError(err)

		records = append(records, keystore.Record{Fingerprint: key.Fingerprint(), Data: data})
	}

	store := keystore.New(keystore.WithStorage(memory.New(&keystore.Keyring{Public: records})))

	defer store.Close() //nolint:errcheck

	count, err := store.Load(false)
	suite.Require().NoError(err)
	suite.Assert().Equal(2, count)

	// the last loaded public key becomes the default one
	defaultKey, ok := store.DefaultKey()
	suite.Require().True(ok)
	suite.Assert().Equal(bob.Fingerprint(), defaultKey.Fingerprint())

	expected, err := bob.ArmorPublic()
	suite.Require().NoError(err)

	exported, ok := store.Export("")
	suite.Require().True(ok)
	suite.Assert().Equal(expected, exported)

	// a generated secret key stays the default one across reloads
	carol, err := store.Generate(eddsa(), "carol")
	suite.Require().NoError(err)

	_, err = store.Load(true)
	suite.Require().NoError(err)

	defaultKey, ok = store.DefaultKey()
	suite.Require().True(ok)
	suite.Assert().Equal(carol.Fingerprint(), defaultKey.Fingerprint())
}

func (suite *LoadSuite) TestKeyValidation() {
	store := keystore.New(
		keystore.WithStorage(suite.storage),
		keystore.WithKeyValidation(pgp.WithMaxAllowedLifetime(pgp.DefaultAllowedClockSkew)),
	)

	defer store.Close() //nolint:errcheck

	// the stored key never expires
	_, err := store.Load(false)
	suite.Require().ErrorIs(err, keystore.ErrLoadFailed)
}

func TestLoadSuite(t *testing.T) {
	suite.Run(t, new(LoadSuite))
}

type failingStorage struct{}

func (failingStorage) Load() (*keystore.Keyring, error) {
	return nil, errors.New("disk on fire")
}

func (failingStorage) Save(*keystore.Keyring) error {
	return keystore.ErrReadOnly
}

func TestStorageFailure(t *testing.T) {
	store := keystore.New(keystore.WithStorage(failingStorage{}))

	t.Cleanup(func() { store.Close() }) //nolint:errcheck

	// saving an unloaded store loads it first, so that nothing stored is lost
	err := store.Save()
	require.ErrorIs(t, err, keystore.ErrSaveFailed)
	require.ErrorIs(t, err, keystore.ErrLoadFailed)

	_, err = store.Load(false)
	require.ErrorIs(t, err, keystore.ErrLoadFailed)
}

func TestNoStorage(t *testing.T) {
	store := keystore.New()

	t.Cleanup(func() { store.Close() }) //nolint:errcheck

	count, err := store.Load(true)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.ErrorIs(t, store.Save(), keystore.ErrSaveFailed)
}
