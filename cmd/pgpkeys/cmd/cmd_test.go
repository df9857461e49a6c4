// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-pgp-keystore/pkg/identity"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(identity.LognameEnvVar, "alice")

	fingerprint, err := run(t, "--dir", dir, "generate", "--algorithm", "eddsa", "--lifetime", "1h")
	require.NoError(t, err)

	fingerprint = strings.TrimSpace(fingerprint)
	assert.Len(t, fingerprint, 40)

	out, err := run(t, "--dir", dir, "find", "alice")
	require.NoError(t, err)
	assert.Equal(t, fingerprint, strings.TrimSpace(out))

	_, err = run(t, "--dir", dir, "find", "ALICE")
	require.ErrorIs(t, err, errNotFound)

	out, err = run(t, "--dir", dir, "list")
	require.NoError(t, err)

	var rows [][]string

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		rows = append(rows, strings.Fields(line))
	}

	assert.Equal(t, [][]string{
		{"TYPE", "FINGERPRINT", "IDENTITY"},
		{"sec", fingerprint, "alice"},
		{"pub", fingerprint, "alice"},
	}, rows)

	exported, err := run(t, "--dir", dir, "export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(exported, "-----BEGIN PGP PUBLIC KEY BLOCK-----"))

	out, err = run(t, "--dir", dir, "export", "alice")
	require.NoError(t, err)
	assert.Equal(t, exported, out)

	_, err = run(t, "--dir", dir, "export", "bob")
	require.ErrorIs(t, err, errNotFound)

	out, err = run(t, "--dir", dir, "bundle", "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}
