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

package sshkey

import (
	"errors"
	"fmt"
)

// Error kinds. Callers classify failures with errors.Is. Encryption errors
// are a refinement of import errors: errors.Is(err, ErrKeyImport) is true
// for every ErrKeyEncryption error, so format-sniffing cascades treat a
// passphrase failure like any other import failure while bulk loaders can
// still single it out.
var (
	// ErrKeyGeneration indicates an unsupported algorithm/parameter
	// combination was requested from a key or certificate generator.
	ErrKeyGeneration = errors.New("sshkey: key generation error")

	// ErrKeyImport indicates malformed or semantically invalid input at
	// any decode stage.
	ErrKeyImport = errors.New("sshkey: key import error")

	// ErrKeyEncryption indicates a passphrase-related import failure:
	// missing passphrase, wrong passphrase, or unsupported cipher/KDF.
	ErrKeyEncryption = errors.New("sshkey: key encryption error")

	// ErrKeyExport indicates the requested export format or option
	// combination is not supported by the key's algorithm.
	ErrKeyExport = errors.New("sshkey: key export error")
)

// Certificate validation errors. These are parameter/state errors, not data
// corruption, and deliberately do not satisfy errors.Is(err, ErrKeyImport).
var (
	// ErrCertTypeMismatch indicates the certificate type does not match the
	// requested role.
	ErrCertTypeMismatch = errors.New("sshkey: certificate type mismatch")

	// ErrCertNotYetValid indicates the current time precedes the
	// certificate's valid-after bound.
	ErrCertNotYetValid = errors.New("sshkey: certificate not yet valid")

	// ErrCertExpired indicates the current time is at or past the
	// certificate's valid-before bound.
	ErrCertExpired = errors.New("sshkey: certificate expired")

	// ErrCertPrincipalMismatch indicates the requested principal is not in
	// the certificate's principal list.
	ErrCertPrincipalMismatch = errors.New("sshkey: certificate principal mismatch")

	// ErrCertRevoked indicates a certificate in an X.509 chain is in the
	// caller-supplied revocation set.
	ErrCertRevoked = errors.New("sshkey: certificate revoked")

	// ErrKeyPairMismatch indicates a certificate's certified key does not
	// match the key pair's own public key bytes.
	ErrKeyPairMismatch = errors.New("sshkey: certificate does not match key")
)

// taggedError attaches one or more error kinds to a formatted message so
// the kind is testable with errors.Is without flattening the message.
type taggedError struct {
	kinds []error
	err   error
}

func (e *taggedError) Error() string { return e.err.Error() }

func (e *taggedError) Unwrap() error { return e.err }

func (e *taggedError) Is(target error) bool {
	for _, k := range e.kinds {
		if target == k {
			return true
		}
	}
	return false
}

func generationError(format string, args ...any) error {
	return &taggedError{
		kinds: []error{ErrKeyGeneration},
		err:   fmt.Errorf("sshkey: "+format, args...),
	}
}

func importError(format string, args ...any) error {
	return &taggedError{
		kinds: []error{ErrKeyImport},
		err:   fmt.Errorf("sshkey: "+format, args...),
	}
}

func encryptionError(format string, args ...any) error {
	return &taggedError{
		kinds: []error{ErrKeyEncryption, ErrKeyImport},
		err:   fmt.Errorf("sshkey: "+format, args...),
	}
}

func exportError(format string, args ...any) error {
	return &taggedError{
		kinds: []error{ErrKeyExport},
		err:   fmt.Errorf("sshkey: "+format, args...),
	}
}
