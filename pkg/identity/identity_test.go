// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-pgp-keystore/pkg/identity"
)

func TestDefault(t *testing.T) {
	t.Setenv(identity.LognameEnvVar, "alice")
	t.Setenv(identity.UserEnvVar, "bob")

	id, err := identity.Default()
	require.NoError(t, err)
	assert.Equal(t, "alice", id)

	t.Setenv(identity.LognameEnvVar, "")

	id, err = identity.Default()
	require.NoError(t, err)
	assert.Equal(t, "bob", id)

	t.Setenv(identity.UserEnvVar, "")

	_, err = identity.Default()
	require.ErrorIs(t, err, identity.ErrNoDefault)
}
