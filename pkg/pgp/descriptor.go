// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pgp

import (
	"crypto"
	_ "crypto/sha256" // register SHA-224/256
	_ "crypto/sha512" // register SHA-384/512
	"fmt"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// Algorithm is the public key algorithm of a generated key.
type Algorithm int

// Supported algorithms.
const (
	AlgorithmRSA Algorithm = iota + 1
	AlgorithmEdDSA
)

// RSA key size limits.
const (
	MinRSABits = 1024
	MaxRSABits = 4096
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmRSA:
		return "rsa"
	case AlgorithmEdDSA:
		return "eddsa"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// ParseAlgorithm parses the algorithm name as returned by Algorithm.String.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "rsa":
		return AlgorithmRSA, nil
	case "eddsa", "ed25519":
		return AlgorithmEdDSA, nil
	default:
		return 0, fmt.Errorf("unsupported algorithm %q", s)
	}
}

var supportedHashes = map[string]crypto.Hash{
	"sha224": crypto.SHA224,
	"sha256": crypto.SHA256,
	"sha384": crypto.SHA384,
	"sha512": crypto.SHA512,
}

// ParseHash parses a self-signature hash name, e.g. "sha256".
func ParseHash(s string) (crypto.Hash, error) {
	h, ok := supportedHashes[strings.ToLower(strings.ReplaceAll(s, "-", ""))]
	if !ok {
		return 0, fmt.Errorf("unsupported hash %q", s)
	}

	return h, nil
}

// Descriptor holds the key generation parameters.
type Descriptor struct {
	Algorithm Algorithm
	// Bits is the RSA modulus size. It must be zero for EdDSA.
	Bits int
	// Hash is used for the self-certification of the primary identity.
	Hash crypto.Hash
	// Lifetime of the key, zero means the key does not expire.
	Lifetime time.Duration
}

// DefaultDescriptor returns a descriptor for a non-expiring RSA 2048 key self-signed with SHA-256.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		Algorithm: AlgorithmRSA,
		Bits:      2048,
		Hash:      crypto.SHA256,
	}
}

// Validate checks that the descriptor can be used for the key generation.
func (d Descriptor) Validate() error {
	switch d.Algorithm {
	case AlgorithmRSA:
		if d.Bits < MinRSABits || d.Bits > MaxRSABits || d.Bits%8 != 0 {
			return fmt.Errorf("unsupported RSA key size %d", d.Bits)
		}
	case AlgorithmEdDSA:
		if d.Bits != 0 {
			return fmt.Errorf("key size can't be set for %s", d.Algorithm)
		}
	default:
		return fmt.Errorf("unsupported key algorithm %s", d.Algorithm)
	}

	supported := false

	for _, h := range supportedHashes {
		if h == d.Hash {
			supported = true

			break
		}
	}

	if !supported || !d.Hash.Available() {
		return fmt.Errorf("unsupported self-signature hash %s", d.Hash)
	}

	if d.Lifetime < 0 {
		return fmt.Errorf("key lifetime can't be negative")
	}

	if d.Lifetime%time.Second != 0 {
		return fmt.Errorf("key lifetime must be whole seconds: %s", d.Lifetime)
	}

	return nil
}

func (d Descriptor) packetConfig() *packet.Config {
	lifetimeSecs := uint32(d.Lifetime / time.Second)

	cfg := &packet.Config{
		DefaultHash:            d.Hash,
		DefaultCipher:          packet.CipherAES256,
		DefaultCompressionAlgo: packet.CompressionZLIB,
		KeyLifetimeSecs:        lifetimeSecs,
		SigLifetimeSecs:        lifetimeSecs,
	}

	switch d.Algorithm {
	case AlgorithmRSA:
		cfg.Algorithm = packet.PubKeyAlgoRSA
		cfg.RSABits = d.Bits
	case AlgorithmEdDSA:
		cfg.Algorithm = packet.PubKeyAlgoEdDSA
	}

	return cfg
}
