// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package bundle encodes a single identity with its key into a portable string.
package bundle

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	pgpcrypto "github.com/ProtonMail/gopenpgp/v2/crypto"

	"github.com/siderolabs/go-pgp-keystore/pkg/pgp"
)

// DefaultEnvVar is the name of the environment variable
// that contains the base64-encoded key bundle JSON.
const DefaultEnvVar = "PGP_KEY_BUNDLE"

// JSON is the JSON representation of a bundle.
type JSON struct {
	// Identity is the user ID the key is bound to.
	Identity string `json:"identity"`

	// PGPKey is the armored PGP key.
	PGPKey string `json:"pgp_key"`
}

// Bundle is an identity with the key bound to it.
type Bundle struct {
	Key      *pgp.Key
	Identity string
}

// GetFromEnv returns the first of the given environment variables which is set, with its value.
//
// With no names, DefaultEnvVar is looked up.
func GetFromEnv(names ...string) (envKey, valueBase64 string) {
	if len(names) == 0 {
		names = []string{DefaultEnvVar}
	}

	for _, name := range names {
		value, ok := os.LookupEnv(name)
		if !ok {
			continue
		}

		return name, value
	}

	return "", ""
}

// Encode encodes the given identity and pgp key into a base64 encoded JSON string.
//
// Private keys are encoded with their private material.
func Encode(identity string, key *pgp.Key) (string, error) {
	if !key.HasIdentity(identity) {
		return "", fmt.Errorf("identity %q is not bound to key %s", identity, key.Fingerprint())
	}

	armored, err := key.Armor()
	if err != nil {
		return "", fmt.Errorf("failed to armor key: %w", err)
	}

	bundleJSON, err := json.Marshal(JSON{
		Identity: identity,
		PGPKey:   armored,
	})
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(bundleJSON), nil
}

// Decode parses and decodes a bundle from a base64 encoded JSON string.
func Decode(valueBase64 string) (*Bundle, error) {
	bundleJSON, err := base64.StdEncoding.DecodeString(valueBase64)
	if err != nil {
		return nil, err
	}

	var b JSON

	if err = json.Unmarshal(bundleJSON, &b); err != nil {
		return nil, err
	}

	cryptoKey, err := pgpcrypto.NewKeyFromArmored(b.PGPKey)
	if err != nil {
		return nil, err
	}

	key, err := pgp.NewKey(cryptoKey)
	if err != nil {
		return nil, err
	}

	if !key.HasIdentity(b.Identity) {
		return nil, fmt.Errorf("identity %q is not bound to key %s", b.Identity, key.Fingerprint())
	}

	return &Bundle{
		Identity: b.Identity,
		Key:      key,
	}, nil
}
