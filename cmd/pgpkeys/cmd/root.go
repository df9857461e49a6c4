// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cmd implements the pgpkeys commands.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/siderolabs/go-pgp-keystore/pkg/bundle"
	"github.com/siderolabs/go-pgp-keystore/pkg/keystore"
	"github.com/siderolabs/go-pgp-keystore/pkg/storage/env"
	"github.com/siderolabs/go-pgp-keystore/pkg/storage/file"
	"github.com/siderolabs/go-pgp-keystore/pkg/storage/leveldb"
)

const defaultDataDirectory = "pgpkeys"

var rootCmdFlags struct {
	dir     string
	leveldb string
	fromEnv bool
	debug   bool
}

var rootCmd = &cobra.Command{
	Use:   "pgpkeys",
	Short: "Manage a local OpenPGP keyring",
	Long: `Manage a local OpenPGP keyring.

Keys are stored in $XDG_DATA_HOME/pgpkeys/ unless another location is given.

Examples:
  # Generate a key for the current login name
  pgpkeys generate

  # Export the public key of an identity
  pgpkeys export alice@example.com

  # List all keys
  pgpkeys list`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdFlags.dir, "dir", "", "keyring directory (default $XDG_DATA_HOME/"+defaultDataDirectory+")")
	rootCmd.PersistentFlags().StringVar(&rootCmdFlags.leveldb, "leveldb", "", "path of a LevelDB keyring database, used instead of the keyring directory")
	rootCmd.PersistentFlags().BoolVar(&rootCmdFlags.fromEnv, "from-env", false, "read the keyring from the "+bundle.DefaultEnvVar+" environment variable (read-only)")
	rootCmd.PersistentFlags().BoolVar(&rootCmdFlags.debug, "debug", false, "enable debug logging")

	rootCmd.MarkFlagsMutuallyExclusive("dir", "leveldb", "from-env")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(w io.Writer) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	logger.SetLevel(logrus.WarnLevel)

	if rootCmdFlags.debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	return logrus.NewEntry(logger).WithField("component", "pgpkeys")
}

func newStorage() (keystore.Storage, error) {
	switch {
	case rootCmdFlags.fromEnv:
		return env.New(), nil
	case rootCmdFlags.leveldb != "":
		return leveldb.Open(rootCmdFlags.leveldb)
	case rootCmdFlags.dir != "":
		return file.New(rootCmdFlags.dir), nil
	default:
		return file.NewXDG(defaultDataDirectory)
	}
}

// withStore opens the configured keyring, loads it and runs fn, closing the store on every path.
func withStore(fn func(store *keystore.Store) error) (err error) {
	storage, err := newStorage()
	if err != nil {
		return fmt.Errorf("failed to open keyring storage: %w", err)
	}

	store := keystore.New(
		keystore.WithStorage(storage),
		keystore.WithLogger(newLogger(os.Stderr)),
	)

	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = store.Load(false); err != nil {
		return err
	}

	return fn(store)
}
