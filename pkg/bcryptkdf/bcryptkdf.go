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

// Package bcryptkdf implements the bcrypt_pbkdf key derivation function from
// OpenBSD, used by the OpenSSH private-key container to derive cipher key
// and IV material from a passphrase. This is key-stream derivation, not
// bcrypt password hashing: each round performs 64 Blowfish rekeys, so the
// container's default of 128 rounds performs 8192 rekeys in total.
package bcryptkdf

import (
	"crypto/sha512"
	"errors"

	"golang.org/x/crypto/blowfish"
)

const blockSize = 32

// magic is the OpenBSD bcrypt_pbkdf plaintext, encrypted repeatedly to
// produce each output block.
const magic = "OxychromaticBlowfishSwatDynamite"

var (
	// ErrInvalidRounds is returned when rounds is less than 1.
	ErrInvalidRounds = errors.New("bcryptkdf: rounds must be at least 1")

	// ErrInvalidPassword is returned when the password is empty.
	ErrInvalidPassword = errors.New("bcryptkdf: empty password")

	// ErrInvalidSalt is returned when the salt is empty or too large.
	ErrInvalidSalt = errors.New("bcryptkdf: invalid salt length")

	// ErrInvalidKeyLength is returned when the requested output length is
	// out of range.
	ErrInvalidKeyLength = errors.New("bcryptkdf: invalid output length")
)

// Key derives keyLen bytes of key material from password and salt using the
// given number of rounds.
func Key(password, salt []byte, rounds, keyLen int) ([]byte, error) {
	if rounds < 1 {
		return nil, ErrInvalidRounds
	}
	if len(password) == 0 {
		return nil, ErrInvalidPassword
	}
	if len(salt) == 0 || len(salt) > 1<<20 {
		return nil, ErrInvalidSalt
	}
	if keyLen <= 0 || keyLen > 1024 {
		return nil, ErrInvalidKeyLength
	}

	numBlocks := (keyLen + blockSize - 1) / blockSize
	key := make([]byte, numBlocks*blockSize)

	h := sha512.New()
	h.Write(password)
	shapass := h.Sum(nil)
	shasalt := make([]byte, 0, sha512.Size)
	cnt := make([]byte, 4)
	tmp := make([]byte, blockSize)
	for block := 1; block <= numBlocks; block++ {
		h.Reset()
		h.Write(salt)
		cnt[0], cnt[1], cnt[2], cnt[3] = byte(block>>24), byte(block>>16), byte(block>>8), byte(block)
		h.Write(cnt)
		if err := bcryptHash(tmp, shapass, h.Sum(shasalt)); err != nil {
			return nil, err
		}

		out := make([]byte, blockSize)
		copy(out, tmp)
		for i := 2; i <= rounds; i++ {
			h.Reset()
			h.Write(tmp)
			if err := bcryptHash(tmp, shapass, h.Sum(shasalt)); err != nil {
				return nil, err
			}
			for j := 0; j < len(out); j++ {
				out[j] ^= tmp[j]
			}
		}

		// Output bytes are striped across blocks, matching the OpenBSD
		// implementation.
		for i, v := range out {
			key[i*numBlocks+(block-1)] = v
		}
	}
	return key[:keyLen], nil
}

// bcryptHash fills out with the bcrypt hash of shapass and shasalt,
// performing 64 rekeys of the Blowfish state.
func bcryptHash(out, shapass, shasalt []byte) error {
	c, err := blowfish.NewSaltedCipher(shapass, shasalt)
	if err != nil {
		return err
	}
	for i := 0; i < 64; i++ {
		blowfish.ExpandKey(shasalt, c)
		blowfish.ExpandKey(shapass, c)
	}
	copy(out, magic)
	for i := 0; i < blockSize; i += 8 {
		for j := 0; j < 64; j++ {
			c.Encrypt(out[i:i+8], out[i:i+8])
		}
	}
	// The reference implementation emits the state little-endian.
	for i := 0; i < blockSize; i += 4 {
		out[i+3], out[i+2], out[i+1], out[i] = out[i], out[i+1], out[i+2], out[i+3]
	}
	return nil
}
