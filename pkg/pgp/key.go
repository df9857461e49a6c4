// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package pgp contains the logic related to the PGP key management.
package pgp

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	pgpcrypto "github.com/ProtonMail/gopenpgp/v2/crypto"
)

// ErrInvalidIdentity is returned when the identity can't be bound to a key as is.
var ErrInvalidIdentity = errors.New("invalid identity")

// Key represents a PGP key. It can be a public key or a private & public key pair.
type Key struct {
	key     *pgpcrypto.Key
	keyring *pgpcrypto.KeyRing
}

// GenerateKey generates a new PGP key pair with the given identity as its primary user ID.
func GenerateKey(desc Descriptor, identity string) (*Key, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	entity, err := generateEntity(desc, identity)
	if err != nil {
		return nil, err
	}

	key, err := pgpcrypto.NewKeyFromEntity(entity)
	if err != nil {
		return nil, err
	}

	return NewKey(key)
}

// NewKey returns a new PGP key from the given pgpcrypto.Key.
func NewKey(key *pgpcrypto.Key) (*Key, error) {
	keyRing, err := pgpcrypto.NewKeyRing(key)
	if err != nil {
		return nil, err
	}

	return &Key{
		key:     key,
		keyring: keyRing,
	}, nil
}

// NewKeyFromEntity returns a new PGP key wrapping the given entity.
func NewKeyFromEntity(entity *openpgp.Entity) (*Key, error) {
	key, err := pgpcrypto.NewKeyFromEntity(entity)
	if err != nil {
		return nil, err
	}

	return NewKey(key)
}

// Fingerprint returns the fingerprint of the key.
func (p *Key) Fingerprint() string {
	return p.key.GetFingerprint()
}

// KeyID returns the hex encoded key ID.
func (p *Key) KeyID() string {
	return p.key.GetHexKeyID()
}

// PrimaryIdentity returns the user ID of the primary identity, or an empty string if there is none.
func (p *Key) PrimaryIdentity() string {
	entity := p.key.GetEntity()
	if entity == nil {
		return ""
	}

	i := entity.PrimaryIdentity()
	if i == nil {
		return ""
	}

	return i.Name
}

// Identities returns all user IDs bound to the key, sorted.
func (p *Key) Identities() []string {
	entity := p.key.GetEntity()
	if entity == nil {
		return nil
	}

	ids := make([]string, 0, len(entity.Identities))

	for id := range entity.Identities {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// HasIdentity returns true if one of the user IDs of the key is exactly the given identity.
func (p *Key) HasIdentity(identity string) bool {
	entity := p.key.GetEntity()
	if entity == nil || identity == "" {
		return false
	}

	_, ok := entity.Identities[identity]

	return ok
}

// Verify verifies the signature of the given data using the public key.
func (p *Key) Verify(data, signature []byte) error {
	message := pgpcrypto.NewPlainMessage(data)

	sig := pgpcrypto.NewPGPSignature(signature)

	return p.keyring.VerifyDetached(message, sig, pgpcrypto.GetUnixTime())
}

// Sign signs the given data using the private key.
func (p *Key) Sign(data []byte) ([]byte, error) {
	message := pgpcrypto.NewPlainMessage(data)

	signature, err := p.keyring.SignDetached(message)
	if err != nil {
		return nil, err
	}

	return signature.GetBinary(), nil
}

// IsPrivate returns true if the key contains a private key.
func (p *Key) IsPrivate() bool {
	return p.key.IsPrivate()
}

// IsUnlocked returns true if the private key is unlocked.
func (p *Key) IsUnlocked() (bool, error) {
	return p.key.IsUnlocked()
}

// Public returns a copy of the key without the private material.
func (p *Key) Public() (*Key, error) {
	if !p.IsPrivate() {
		return p, nil
	}

	publicKey, err := p.key.ToPublic()
	if err != nil {
		return nil, err
	}

	return NewKey(publicKey)
}

// Armor returns the key in the armored format.
func (p *Key) Armor() (string, error) {
	return p.key.Armor()
}

// ArmorPublic returns only the public key in armored format.
func (p *Key) ArmorPublic() (string, error) {
	return p.key.GetArmoredPublicKey()
}

// Serialize returns the binary transferable key, including the private material if present.
func (p *Key) Serialize() ([]byte, error) {
	return p.key.Serialize()
}

// SerializePublic returns the binary transferable public key.
func (p *Key) SerializePublic() ([]byte, error) {
	return p.key.GetPublicKey()
}

// ClearPrivateParams zeroes the private key material.
//
// The key can't be used for signing afterwards. It returns false if there was nothing to clear.
func (p *Key) ClearPrivateParams() bool {
	if !p.IsPrivate() {
		return false
	}

	return p.key.ClearPrivateParams()
}

// IsExpired returns true if the key is expired with clock skew.
func (p *Key) IsExpired(clockSkew time.Duration) bool {
	if clockSkew < 0 {
		panic("clock skew can't be negative")
	}

	now := time.Now()

	i := p.key.GetEntity().PrimaryIdentity()
	keyLifetimeSecs := i.SelfSignature.KeyLifetimeSecs

	if keyLifetimeSecs != nil && *keyLifetimeSecs != 0 && *keyLifetimeSecs < uint32(clockSkew/time.Second) {
		// if the key is short-lived, limit clock skew to the half of the key lifetime
		clockSkew = time.Duration(*keyLifetimeSecs) * time.Second / 2
	}

	expired := func(t time.Time) bool {
		return p.key.GetEntity().PrimaryKey.KeyExpired(i.SelfSignature, t) || // primary key has expired
			i.SelfSignature.SigExpired(t) // user ID self-signature has expired
	}

	return expired(now.Add(clockSkew)) && expired(now.Add(-clockSkew))
}

// generateEntity generates a new PGP entity bound to the identity.
func generateEntity(desc Descriptor, identity string) (*openpgp.Entity, error) {
	name, comment, email, err := splitIdentity(identity)
	if err != nil {
		return nil, err
	}

	entity, err := openpgp.NewEntity(name, comment, email, desc.packetConfig())
	if err != nil {
		return nil, err
	}

	if _, ok := entity.Identities[identity]; !ok {
		return nil, fmt.Errorf("%w: %q can't be represented as a user ID", ErrInvalidIdentity, identity)
	}

	return entity, nil
}

// splitIdentity maps the identity string to the name, comment and email parts of a user ID.
//
// Strings without the user ID metacharacters are bound verbatim as the name.
func splitIdentity(identity string) (name, comment, email string, err error) {
	if strings.TrimSpace(identity) == "" {
		return "", "", "", fmt.Errorf("%w: empty identity", ErrInvalidIdentity)
	}

	if !strings.ContainsAny(identity, "()<>\x00") {
		return identity, "", "", nil
	}

	addr, err := mail.ParseAddress(identity)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}

	return addr.Name, "", addr.Address, nil
}
