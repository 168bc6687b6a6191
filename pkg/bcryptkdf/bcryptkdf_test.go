// Copyright (c) 2026 Jeremy Hahn
// Copyright (c) 2026 Automate The Things, LLC
//
// This file is part of go-sshkeys.
//
// go-sshkeys is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package bcryptkdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden vector from the OpenBSD bcrypt_pbkdf test suite.
func TestKeyGolden(t *testing.T) {
	golden := []byte{
		0x5b, 0xbf, 0x0c, 0xc2, 0x93, 0x58, 0x7f, 0x1c, 0x36, 0x35, 0x55, 0x5c,
		0x27, 0x79, 0x65, 0x98, 0xd4, 0x7e, 0x57, 0x90, 0x71, 0xbf, 0x42, 0x7e,
		0x9d, 0x8f, 0xbe, 0x84, 0x2a, 0xba, 0x34, 0xd9,
	}
	key, err := Key([]byte("password"), []byte("salt"), 4, 32)
	require.NoError(t, err)
	assert.Equal(t, golden, key)
}

func TestKeyDeterministic(t *testing.T) {
	a, err := Key([]byte("secret"), []byte("16-byte-salt-val"), 16, 48)
	require.NoError(t, err)
	b, err := Key([]byte("secret"), []byte("16-byte-salt-val"), 16, 48)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 48)

	c, err := Key([]byte("secret2"), []byte("16-byte-salt-val"), 16, 48)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a, c))
}

func TestKeyParameterValidation(t *testing.T) {
	_, err := Key([]byte("p"), []byte("s"), 0, 32)
	assert.ErrorIs(t, err, ErrInvalidRounds)

	_, err = Key(nil, []byte("s"), 1, 32)
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = Key([]byte("p"), nil, 1, 32)
	assert.ErrorIs(t, err, ErrInvalidSalt)

	_, err = Key([]byte("p"), []byte("s"), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	_, err = Key([]byte("p"), []byte("s"), 1, 2048)
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}
