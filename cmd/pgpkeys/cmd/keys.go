// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/siderolabs/go-pgp-keystore/pkg/bundle"
	"github.com/siderolabs/go-pgp-keystore/pkg/keystore"
)

var errNotFound = errors.New("no key found")

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the keys in the keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(func(store *keystore.Store) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			fmt.Fprintln(w, "TYPE\tFINGERPRINT\tIDENTITY")

			for _, key := range store.SecretKeys() {
				fmt.Fprintf(w, "sec\t%s\t%s\n", key.Fingerprint(), key.PrimaryIdentity())
			}

			for _, key := range store.PublicKeys() {
				fmt.Fprintf(w, "pub\t%s\t%s\n", key.Fingerprint(), key.PrimaryIdentity())
			}

			return w.Flush()
		})
	},
}

var findCmd = &cobra.Command{
	Use:   "find IDENTITY",
	Short: "Check that a key is bound to the identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *keystore.Store) error {
			key, ok := store.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", errNotFound, args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), key.Fingerprint())

			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [IDENTITY]",
	Short: "Print the armored public key of the identity, or of the default key",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id string

		if len(args) > 0 {
			id = args[0]
		}

		return withStore(func(store *keystore.Store) error {
			armored, ok := store.Export(id)
			if !ok {
				return fmt.Errorf("%w: %q", errNotFound, id)
			}

			fmt.Fprint(cmd.OutOrStdout(), armored)

			return nil
		})
	},
}

var bundleCmd = &cobra.Command{
	Use:   "bundle IDENTITY",
	Short: "Print the secret key of the identity as a bundle for the " + bundle.DefaultEnvVar + " environment variable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *keystore.Store) error {
			key, ok := store.Lookup(args[0])
			if !ok || !key.IsPrivate() {
				return fmt.Errorf("%w: no secret key for %q", errNotFound, args[0])
			}

			encoded, err := bundle.Encode(args[0], key)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), encoded)

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd, findCmd, exportCmd, bundleCmd)
}
