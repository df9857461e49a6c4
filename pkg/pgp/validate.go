// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pgp

import (
	"fmt"
	"net/mail"
	"time"
)

// Key validation defaults.
const (
	DefaultAllowedClockSkew = 5 * time.Minute
	DefaultValidEmailAsName = false
	DefaultCheckExpiry      = true
	DefaultCheckRevocation  = true
)

type validationOptions struct {
	maxAllowedLifetime time.Duration
	allowedClockSkew   time.Duration
	validEmailAsName   bool
	checkExpiry        bool
	checkRevocation    bool
}

func newDefaultValidationOptions() validationOptions {
	return validationOptions{
		allowedClockSkew: DefaultAllowedClockSkew,
		validEmailAsName: DefaultValidEmailAsName,
		checkExpiry:      DefaultCheckExpiry,
		checkRevocation:  DefaultCheckRevocation,
	}
}

// ValidationOption represents a functional validation option.
type ValidationOption func(*validationOptions)

// WithMaxAllowedLifetime requires the key to expire within the given lifetime.
//
// Zero disables the check.
func WithMaxAllowedLifetime(maxAllowedLifetime time.Duration) ValidationOption {
	return func(o *validationOptions) {
		o.maxAllowedLifetime = maxAllowedLifetime
	}
}

// WithValidEmailAsName sets whether the validation should be performed on the primary identity to be a valid email address.
func WithValidEmailAsName(validEmailAsName bool) ValidationOption {
	return func(o *validationOptions) {
		o.validEmailAsName = validEmailAsName
	}
}

// WithAllowedClockSkew sets the allowed clock skew in the key expiration validation.
func WithAllowedClockSkew(allowedClockSkew time.Duration) ValidationOption {
	return func(o *validationOptions) {
		o.allowedClockSkew = allowedClockSkew
	}
}

// WithExpiryCheck sets whether expired keys fail the validation.
func WithExpiryCheck(checkExpiry bool) ValidationOption {
	return func(o *validationOptions) {
		o.checkExpiry = checkExpiry
	}
}

// WithRevocationCheck sets whether revoked keys fail the validation.
func WithRevocationCheck(checkRevocation bool) ValidationOption {
	return func(o *validationOptions) {
		o.checkRevocation = checkRevocation
	}
}

// Validate validates the key.
func (p *Key) Validate(opt ...ValidationOption) error {
	options := newDefaultValidationOptions()

	for _, o := range opt {
		o(&options)
	}

	entity := p.key.GetEntity()
	if entity == nil {
		return fmt.Errorf("key does not contain an entity")
	}

	identity := entity.PrimaryIdentity()
	if identity == nil {
		return fmt.Errorf("key does not contain a primary identity")
	}

	if identity.SelfSignature == nil {
		return fmt.Errorf("primary identity is not self-certified: %s", identity.Name)
	}

	if options.checkRevocation && p.key.IsRevoked() {
		return fmt.Errorf("key is revoked")
	}

	if options.checkExpiry && p.IsExpired(options.allowedClockSkew) {
		return fmt.Errorf("key expired")
	}

	if options.validEmailAsName {
		_, err := mail.ParseAddress(identity.Name)
		if err != nil {
			return fmt.Errorf("key does not contain a valid email address: %w: %s", err, identity.Name)
		}
	}

	if options.maxAllowedLifetime > 0 {
		return p.validateLifetime(&options)
	}

	return nil
}

func (p *Key) validateLifetime(opts *validationOptions) error {
	entity := p.key.GetEntity()
	identity := entity.PrimaryIdentity()
	sig := identity.SelfSignature

	if sig.KeyLifetimeSecs == nil || *sig.KeyLifetimeSecs == 0 {
		return fmt.Errorf("key does not contain a valid key lifetime")
	}

	// Only the expiration relative to "now" matters, plus one minute for rounding errors.
	expiration := time.Now().Add(opts.maxAllowedLifetime + time.Minute)

	if !entity.PrimaryKey.KeyExpired(sig, expiration) {
		return fmt.Errorf("key lifetime is too long: %s", time.Duration(*sig.KeyLifetimeSecs)*time.Second)
	}

	return nil
}
