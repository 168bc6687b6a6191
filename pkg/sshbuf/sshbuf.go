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

// Package sshbuf implements the SSH binary packet primitives used by every
// key and certificate codec: big-endian fixed-width integers, uint32
// length-prefixed strings, name-lists and multiple-precision integers as
// defined by RFC 4251 section 5.
//
// The Reader is a cursor over an in-memory byte slice. Both reading past the
// end of the buffer and leaving unconsumed bytes where a format requires
// exact exhaustion are detectable, distinct error conditions.
package sshbuf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/big"
	"strings"
)

var (
	// ErrShortBuffer is returned when a read extends past the end of the buffer.
	ErrShortBuffer = errors.New("sshbuf: unexpected end of buffer")

	// ErrTrailingData is returned by CheckEOF when unconsumed bytes remain.
	ErrTrailingData = errors.New("sshbuf: unexpected trailing data")

	// ErrNegativeMPInt is returned when an mpint with the sign bit set is read
	// where only non-negative values are valid.
	ErrNegativeMPInt = errors.New("sshbuf: negative mpint")
)

// Reader is a cursor-based reader over a byte buffer.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader positioned at the start of data.
// The Reader does not copy data; callers must not mutate it while reading.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unconsumed bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.off
}

// Bytes consumes and returns exactly n bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, ErrShortBuffer
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Byte consumes a single byte.
func (r *Reader) Byte() (byte, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool consumes a single byte and interprets any non-zero value as true.
func (r *Reader) Bool() (bool, error) {
	b, err := r.Byte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// Uint32 consumes a big-endian 32-bit unsigned integer.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Uint64 consumes a big-endian 64-bit unsigned integer.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// String consumes a uint32 length-prefixed byte string. The length is a
// count of bytes, not characters.
func (r *Reader) String() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	return r.Bytes(int(n))
}

// NameList consumes a string containing a comma-separated list of names.
// An empty string yields an empty list.
func (r *Reader) NameList() ([]string, error) {
	b, err := r.String()
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	return strings.Split(string(b), ","), nil
}

// MPInt consumes a multiple-precision integer in two's complement format.
// Negative values are rejected; key material is always non-negative.
func (r *Reader) MPInt() (*big.Int, error) {
	b, err := r.String()
	if err != nil {
		return nil, err
	}
	if len(b) > 0 && b[0]&0x80 != 0 {
		return nil, ErrNegativeMPInt
	}
	return new(big.Int).SetBytes(b), nil
}

// Sub consumes a length-prefixed string and returns a Reader over its
// contents, used for nested sub-packets that require exact exhaustion.
func (r *Reader) Sub() (*Reader, error) {
	b, err := r.String()
	if err != nil {
		return nil, err
	}
	return NewReader(b), nil
}

// Rest consumes and returns all remaining bytes.
func (r *Reader) Rest() []byte {
	b := r.data[r.off:]
	r.off = len(r.data)
	return b
}

// Consumed returns the bytes read so far, from the start of the buffer to
// the current cursor position.
func (r *Reader) Consumed() []byte {
	return r.data[:r.off]
}

// CheckEOF returns ErrTrailingData when unconsumed bytes remain. Formats
// that require exact exhaustion call this after their last field.
func (r *Reader) CheckEOF() error {
	if r.off != len(r.data) {
		return ErrTrailingData
	}
	return nil
}

// Writer builds a buffer of SSH binary encodings.
// The zero value is ready to use.
type Writer struct {
	buf bytes.Buffer
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Raw appends bytes without framing.
func (w *Writer) Raw(b []byte) {
	w.buf.Write(b)
}

// Byte appends a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// Bool appends a boolean as a single byte.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// Uint32 appends a big-endian 32-bit unsigned integer.
func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// Uint64 appends a big-endian 64-bit unsigned integer.
func (w *Writer) Uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// String appends a uint32 length-prefixed byte string.
func (w *Writer) String(b []byte) {
	w.Uint32(uint32(len(b)))
	w.buf.Write(b)
}

// Str appends a uint32 length-prefixed string.
func (w *Writer) Str(s string) {
	w.String([]byte(s))
}

// NameList appends a comma-separated name list as a single string.
func (w *Writer) NameList(names []string) {
	w.Str(strings.Join(names, ","))
}

// MPInt appends a non-negative multiple-precision integer, inserting a
// leading zero byte when the most significant bit would otherwise read as
// a sign bit. Zero encodes as the empty string.
func (w *Writer) MPInt(v *big.Int) {
	b := v.Bytes()
	if len(b) > 0 && b[0]&0x80 != 0 {
		padded := make([]byte, len(b)+1)
		copy(padded[1:], b)
		b = padded
	}
	w.String(b)
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}
