// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package env_test

import (
	"crypto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-pgp-keystore/pkg/bundle"
	"github.com/siderolabs/go-pgp-keystore/pkg/keystore"
	"github.com/siderolabs/go-pgp-keystore/pkg/pgp"
	"github.com/siderolabs/go-pgp-keystore/pkg/storage/env"
)

func TestStorage(t *testing.T) {
	key, err := pgp.GenerateKey(pgp.Descriptor{Algorithm: pgp.AlgorithmEdDSA, Hash: crypto.SHA256}, "ci@example.com")
	require.NoError(t, err)

	encoded, err := bundle.Encode("ci@example.com", key)
	require.NoError(t, err)

	t.Setenv("TEST_KEY_BUNDLE", encoded)

	store := keystore.New(keystore.WithStorage(env.New("MISSING_KEY_BUNDLE", "TEST_KEY_BUNDLE")))

	t.Cleanup(func() { store.Close() }) //nolint:errcheck

	count, err := store.Load(false)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, 1, store.SecretCount())
	assert.Equal(t, 1, store.PublicCount())
	assert.True(t, store.Find("ci@example.com"))

	expected, err := key.ArmorPublic()
	require.NoError(t, err)

	exported, ok := store.Export("")
	require.True(t, ok)
	assert.Equal(t, expected, exported)

	err = store.Save()
	require.ErrorIs(t, err, keystore.ErrReadOnly)
	require.ErrorIs(t, err, keystore.ErrSaveFailed)
}

func TestEmpty(t *testing.T) {
	keyring, err := env.New("MISSING_KEY_BUNDLE").Load()
	require.NoError(t, err)

	assert.Empty(t, keyring.Secret)
	assert.Empty(t, keyring.Public)
}

func TestInvalid(t *testing.T) {
	t.Setenv(bundle.DefaultEnvVar, "not base64!")

	store := keystore.New(keystore.WithStorage(env.New()))

	t.Cleanup(func() { store.Close() }) //nolint:errcheck

	_, err := store.Load(false)
	require.ErrorIs(t, err, keystore.ErrLoadFailed)
}
