// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build race

package pgp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-pgp-keystore/pkg/pgp"
)

func TestKeyFlowParallel(t *testing.T) {
	key, err := pgp.GenerateKey(eddsaDescriptor(), "john.smith@example.com")
	require.NoError(t, err)

	expected, err := key.ArmorPublic()
	require.NoError(t, err)

	t.Run("parallel_section", func(t *testing.T) {
		for range 10 {
			t.Run("KeyFlow", func(t *testing.T) {
				t.Parallel()

				for range 10 {
					testKeyFlow(t, key)

					armored, err := key.ArmorPublic()
					require.NoError(t, err)
					assert.Equal(t, expected, armored)
				}
			})
		}
	})
}
