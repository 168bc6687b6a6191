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

package sshbuf

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderRoundTrip(t *testing.T) {
	var w Writer
	w.Byte(0x7f)
	w.Bool(true)
	w.Uint32(0xdeadbeef)
	w.Uint64(0x0123456789abcdef)
	w.String([]byte("hello"))
	w.Str("world")
	w.NameList([]string{"aes128-ctr", "aes256-ctr"})
	w.MPInt(big.NewInt(0x80))

	r := NewReader(w.Bytes())

	b, err := r.Byte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x7f), b)

	v, err := r.Bool()
	require.NoError(t, err)
	assert.True(t, v)

	u32, err := r.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := r.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0123456789abcdef), u64)

	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), s)

	s, err = r.String()
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), s)

	names, err := r.NameList()
	require.NoError(t, err)
	assert.Equal(t, []string{"aes128-ctr", "aes256-ctr"}, names)

	n, err := r.MPInt()
	require.NoError(t, err)
	assert.Equal(t, int64(0x80), n.Int64())

	require.NoError(t, r.CheckEOF())
}

func TestReaderShortBuffer(t *testing.T) {
	r := NewReader([]byte{0x00, 0x00, 0x00, 0x08, 'a', 'b'})
	_, err := r.String()
	assert.ErrorIs(t, err, ErrShortBuffer)

	r = NewReader([]byte{0x01, 0x02})
	_, err = r.Uint32()
	assert.ErrorIs(t, err, ErrShortBuffer)

	r = NewReader(nil)
	_, err = r.Byte()
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestReaderCheckEOF(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_, err := r.Byte()
	require.NoError(t, err)
	assert.ErrorIs(t, r.CheckEOF(), ErrTrailingData)
	_, err = r.Byte()
	require.NoError(t, err)
	assert.NoError(t, r.CheckEOF())
}

func TestMPIntEncoding(t *testing.T) {
	// Values with the high bit set gain a leading zero byte.
	var w Writer
	w.MPInt(big.NewInt(0xff))
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x02, 0x00, 0xff}, w.Bytes())

	// Zero encodes as the empty string.
	var w2 Writer
	w2.MPInt(big.NewInt(0))
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, w2.Bytes())

	// Negative mpints are rejected on read.
	r := NewReader([]byte{0x00, 0x00, 0x00, 0x01, 0x80})
	_, err := r.MPInt()
	assert.ErrorIs(t, err, ErrNegativeMPInt)
}

func TestSubReader(t *testing.T) {
	var inner Writer
	inner.Uint32(42)

	var outer Writer
	outer.String(inner.Bytes())
	outer.Str("tail")

	r := NewReader(outer.Bytes())
	sub, err := r.Sub()
	require.NoError(t, err)

	v, err := sub.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)
	require.NoError(t, sub.CheckEOF())

	tail, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "tail", string(tail))
}

func TestEmptyNameList(t *testing.T) {
	var w Writer
	w.NameList(nil)
	r := NewReader(w.Bytes())
	names, err := r.NameList()
	require.NoError(t, err)
	assert.Empty(t, names)
}
