// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/siderolabs/go-pgp-keystore/pkg/identity"
	"github.com/siderolabs/go-pgp-keystore/pkg/keystore"
	"github.com/siderolabs/go-pgp-keystore/pkg/pgp"
)

var generateCmdFlags struct {
	identity  string
	algorithm string
	hash      string
	bits      int
	lifetime  time.Duration
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair and save it to the keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		desc, err := descriptorFromFlags(cmd)
		if err != nil {
			return err
		}

		id := generateCmdFlags.identity
		if id == "" {
			if id, err = identity.Default(); err != nil {
				return fmt.Errorf("no identity given: %w", err)
			}
		}

		return withStore(func(store *keystore.Store) error {
			key, err := store.Generate(desc, id)
			if err != nil {
				return err
			}

			if err = store.Save(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), key.Fingerprint())

			return nil
		})
	},
}

func descriptorFromFlags(cmd *cobra.Command) (pgp.Descriptor, error) {
	algorithm, err := pgp.ParseAlgorithm(generateCmdFlags.algorithm)
	if err != nil {
		return pgp.Descriptor{}, err
	}

	hash, err := pgp.ParseHash(generateCmdFlags.hash)
	if err != nil {
		return pgp.Descriptor{}, err
	}

	desc := pgp.DefaultDescriptor()
	desc.Algorithm = algorithm
	desc.Hash = hash
	desc.Lifetime = generateCmdFlags.lifetime

	switch {
	case cmd.Flags().Changed("bits"):
		desc.Bits = generateCmdFlags.bits
	case algorithm != pgp.AlgorithmRSA:
		desc.Bits = 0
	}

	return desc, desc.Validate()
}

func init() {
	generateCmd.Flags().StringVar(&generateCmdFlags.identity, "identity", "", "identity (user ID) of the key (default $LOGNAME)")
	generateCmd.Flags().StringVar(&generateCmdFlags.algorithm, "algorithm", pgp.AlgorithmRSA.String(), "key algorithm: rsa or eddsa")
	generateCmd.Flags().IntVar(&generateCmdFlags.bits, "bits", pgp.DefaultDescriptor().Bits, "RSA key size")
	generateCmd.Flags().StringVar(&generateCmdFlags.hash, "hash", "sha256", "self-signature hash: sha224, sha256, sha384 or sha512")
	generateCmd.Flags().DurationVar(&generateCmdFlags.lifetime, "lifetime", 0, "key lifetime, 0 for a key which never expires")

	rootCmd.AddCommand(generateCmd)
}
