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

// Package password provides secure passphrase handling for go-sshkeys.
//
// Passphrases live in memory only as long as needed and can be zeroed when
// no longer required. Interactive prompting reads from the terminal with
// echo disabled.
package password

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

var (
	// ErrEmptyPassword is returned when an empty passphrase is provided.
	ErrEmptyPassword = errors.New("password: passphrase cannot be empty")

	// ErrPasswordZeroed is returned when the passphrase has been zeroed.
	ErrPasswordZeroed = errors.New("password: passphrase has been zeroed")

	// ErrMismatch is returned when a confirmation prompt does not match.
	ErrMismatch = errors.New("password: passphrases do not match")
)

// Passphrase stores a passphrase in memory as cleartext.
//
// The data is copied on construction and can be securely zeroed when no
// longer needed.
type Passphrase struct {
	secret []byte
}

// New creates a passphrase from bytes. The slice is copied to prevent
// external modification.
func New(secret []byte) (*Passphrase, error) {
	if len(secret) == 0 {
		return nil, ErrEmptyPassword
	}
	p := make([]byte, len(secret))
	copy(p, secret)
	return &Passphrase{secret: p}, nil
}

// NewFromString creates a passphrase from a string.
func NewFromString(secret string) (*Passphrase, error) {
	if len(secret) == 0 {
		return nil, ErrEmptyPassword
	}
	return &Passphrase{secret: []byte(secret)}, nil
}

// Bytes returns a copy of the passphrase bytes, or nil after Clear.
func (p *Passphrase) Bytes() []byte {
	if p.secret == nil {
		return nil
	}
	out := make([]byte, len(p.secret))
	copy(out, p.secret)
	return out
}

// String returns the passphrase as a string.
//
// Note: strings cannot be zeroed. Prefer Bytes where possible.
func (p *Passphrase) String() (string, error) {
	if p.secret == nil {
		return "", ErrPasswordZeroed
	}
	return string(p.secret), nil
}

// Clear zeroes the passphrase. The operation is irreversible.
func (p *Passphrase) Clear() {
	if p.secret != nil {
		for i := range p.secret {
			p.secret[i] = 0
		}
		// Keep the compiler from optimizing the zeroing away.
		subtle.ConstantTimeCopy(1, p.secret, make([]byte, len(p.secret)))
		p.secret = nil
	}
}

// Equal compares two passphrases in constant time.
func Equal(a, b *Passphrase) (bool, error) {
	aBytes := a.Bytes()
	if aBytes == nil {
		return false, ErrPasswordZeroed
	}
	defer zero(aBytes)

	bBytes := b.Bytes()
	if bBytes == nil {
		return false, ErrPasswordZeroed
	}
	defer zero(bBytes)

	return subtle.ConstantTimeCompare(aBytes, bBytes) == 1, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Prompt reads a passphrase from the terminal with echo disabled. An empty
// response returns nil bytes, letting callers fall through to unencrypted
// behavior.
func Prompt(label string) ([]byte, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("password: reading passphrase: %w", err)
	}
	return secret, nil
}

// PromptNew prompts twice for a new passphrase and verifies both entries
// match.
func PromptNew(label string) ([]byte, error) {
	first, err := Prompt(label)
	if err != nil {
		return nil, err
	}
	second, err := Prompt(label + " (again)")
	if err != nil {
		return nil, err
	}
	defer zero(second)
	if subtle.ConstantTimeCompare(first, second) != 1 {
		zero(first)
		return nil, ErrMismatch
	}
	return first, nil
}
