// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package keystore

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/siderolabs/go-pgp-keystore/pkg/pgp"
)

// ResolvePolicy decides which key is returned when several keys share an identity.
type ResolvePolicy int

const (
	// FirstMatch returns the first key in scan order: secret keys before public keys, oldest first.
	FirstMatch ResolvePolicy = iota
	// LastMatch returns the most recently inserted matching key, secret keys still before public keys.
	LastMatch
)

type options struct {
	logger           *logrus.Entry
	storage          Storage
	validation       []pgp.ValidationOption
	resolvePolicy    ResolvePolicy
	uniqueIdentities bool
}

func newDefaultOptions() options {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return options{
		logger: logrus.NewEntry(logger),
		validation: []pgp.ValidationOption{
			pgp.WithExpiryCheck(false),
			pgp.WithRevocationCheck(false),
		},
		resolvePolicy: FirstMatch,
	}
}

// Option represents a functional store option.
type Option func(*options)

// WithLogger sets the logger of the store.
func WithLogger(logger *logrus.Entry) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage sets the storage the keyrings are loaded from and saved to.
func WithStorage(storage Storage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithKeyValidation replaces the validation options applied to every loaded key.
//
// By default only the structure of the keys is validated, expired and revoked keys are accepted.
func WithKeyValidation(opt ...pgp.ValidationOption) Option {
	return func(o *options) {
		o.validation = opt
	}
}

// WithResolvePolicy sets the policy used when several keys share an identity.
func WithResolvePolicy(policy ResolvePolicy) Option {
	return func(o *options) {
		o.resolvePolicy = policy
	}
}

// WithUniqueIdentities makes the key generation fail if the identity is already bound to a key in the store.
func WithUniqueIdentities() Option {
	return func(o *options) {
		o.uniqueIdentities = true
	}
}
