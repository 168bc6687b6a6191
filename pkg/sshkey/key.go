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
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	cryptorand "crypto/rand"
	"crypto/rsa"
	"io"
	"math/big"
	"slices"
	"strings"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

// PublicKey is the common capability implemented by every supported key
// algorithm. A PublicKey may also be the public half of a PrivateKey.
//
// Implementations live in this package; the unexported methods seal the
// interface so the registry remains the single source of algorithm
// dispatch.
type PublicKey interface {
	// Algorithm returns the SSH algorithm identifier, immutable after
	// construction (e.g. "ssh-ed25519").
	Algorithm() string

	// SigAlgorithms returns the signature algorithms this key can produce
	// or verify, most preferred first.
	SigAlgorithms() []string

	// PublicData returns the SSH wire encoding of the public key:
	// the algorithm identifier followed by the algorithm-specific public
	// fields. It is derived on each call, never stored.
	PublicData() []byte

	// CryptoPublicKey returns the underlying standard-library public key.
	CryptoPublicKey() crypto.PublicKey

	// Comment returns the key comment, if any.
	Comment() string

	// SetComment replaces the key comment.
	SetComment(comment string)

	// Filename returns the source filename the key was loaded from,
	// informational only.
	Filename() string

	// TouchRequired reports whether signing requires a user-presence
	// check. Always false for non-security-key algorithms.
	TouchRequired() bool

	// encodePublic writes the algorithm-specific public fields.
	encodePublic(w *sshbuf.Writer)

	// verifyPayload checks the algorithm-specific signature payload read
	// from r against data.
	verifyPayload(data []byte, sigAlg string, r *sshbuf.Reader) error

	// pkcs1Public returns the PKCS#1-style DER public encoding.
	pkcs1Public() ([]byte, error)

	// pkcs8Public returns the SubjectPublicKeyInfo DER encoding.
	pkcs8Public() ([]byte, error)
}

// PrivateKey extends PublicKey with signing and private-material encodings.
type PrivateKey interface {
	PublicKey

	// PublicOnly returns a key holding only the public half. The comment
	// is carried over.
	PublicOnly() PublicKey

	// CryptoPrivateKey returns the underlying standard-library private
	// key, or nil for keys whose private material is hardware-resident.
	CryptoPrivateKey() crypto.PrivateKey

	// encodePrivate writes the algorithm-specific private fields in the
	// OpenSSH container layout.
	encodePrivate(w *sshbuf.Writer)

	// signPayload produces the algorithm-specific signature payload.
	signPayload(rand io.Reader, data []byte, sigAlg string) ([]byte, error)

	// pkcs1Private returns the PKCS#1-style DER private encoding.
	pkcs1Private() ([]byte, error)

	// pkcs8Private returns the PKCS#8 PrivateKeyInfo DER encoding.
	pkcs8Private() ([]byte, error)
}

// keyBase carries the fields shared by every key variant.
type keyBase struct {
	comment       string
	filename      string
	touchRequired bool
}

func (b *keyBase) Comment() string           { return b.comment }
func (b *keyBase) SetComment(comment string) { b.comment = comment }
func (b *keyBase) Filename() string          { return b.filename }
func (b *keyBase) setFilename(name string)   { b.filename = name }
func (b *keyBase) TouchRequired() bool       { return b.touchRequired }

// marshalPublicData derives the SSH public wire encoding for k.
func marshalPublicData(k PublicKey) []byte {
	var w sshbuf.Writer
	w.Str(k.Algorithm())
	k.encodePublic(&w)
	return w.Bytes()
}

// marshalPrivateData derives the OpenSSH container private encoding for k:
// algorithm identifier followed by the algorithm-specific private fields.
func marshalPrivateData(k PrivateKey) []byte {
	var w sshbuf.Writer
	w.Str(k.Algorithm())
	k.encodePrivate(&w)
	return w.Bytes()
}

// GenerateOpts carries algorithm-specific generation options. Zero values
// select per-algorithm defaults.
type GenerateOpts struct {
	// KeySize is the modulus size in bits for RSA and DSA keys.
	KeySize int

	// Exponent is the RSA public exponent.
	Exponent int

	// Comment is attached to the generated key.
	Comment string

	// Application is the relying-party identifier for security keys.
	Application string

	// User is the user name registered on the security key.
	User string

	// PIN is the security-key PIN, when the authenticator requires one.
	PIN string

	// Resident requests a resident (discoverable) security-key credential.
	Resident bool

	// TouchRequired requests a user-presence check on every security-key
	// signature. Defaults to true for security-key algorithms.
	TouchRequired *bool

	// Authenticator performs security-key enrollment and signing. Required
	// for sk-* algorithms.
	Authenticator Authenticator

	// Rand is the entropy source, defaulting to crypto/rand.
	Rand io.Reader
}

// GenerateKey generates a new private key for the given SSH algorithm
// identifier. Unknown algorithms and unsupported option combinations fail
// with ErrKeyGeneration.
func GenerateKey(algorithm string, opts *GenerateOpts) (PrivateKey, error) {
	alg, ok := lookupKeyAlgorithm(algorithm)
	if !ok {
		return nil, generationError("unknown key algorithm %q", algorithm)
	}
	if opts == nil {
		opts = &GenerateOpts{}
	}
	key, err := alg.generate(*opts)
	if err != nil {
		return nil, err
	}
	key.SetComment(opts.Comment)
	return key, nil
}

// Sign signs data with key, producing the SSH wire signature: the signature
// algorithm name as a length-prefixed string followed by the
// algorithm-specific payload. An empty sigAlg selects the key's preferred
// algorithm. Algorithms outside the key's declared set are rejected;
// "x509v3-"-prefixed names are normalized by stripping the prefix before
// the check, since X.509 keys reuse the base signature algorithms.
func Sign(key PrivateKey, data []byte, sigAlg string) ([]byte, error) {
	return signWithRand(key, data, sigAlg, nil)
}

func signWithRand(key PrivateKey, data []byte, sigAlg string, rand io.Reader) ([]byte, error) {
	if sigAlg == "" {
		sigAlg = key.SigAlgorithms()[0]
	}
	base := strings.TrimPrefix(sigAlg, "x509v3-")
	if !slices.Contains(key.SigAlgorithms(), base) {
		return nil, exportError("signature algorithm %q not supported by %s key",
			sigAlg, key.Algorithm())
	}
	if rand == nil {
		rand = cryptorand.Reader
	}
	payload, err := key.signPayload(rand, data, base)
	if err != nil {
		return nil, err
	}
	var w sshbuf.Writer
	w.Str(base)
	w.Raw(payload)
	return w.Bytes(), nil
}

// Verify checks an SSH wire signature produced by Sign against data.
// Verification failure and malformed signatures report ErrKeyImport.
func Verify(key PublicKey, data, sig []byte) error {
	r := sshbuf.NewReader(sig)
	algName, err := r.String()
	if err != nil {
		return importError("malformed signature: %v", err)
	}
	base := strings.TrimPrefix(string(algName), "x509v3-")
	if !slices.Contains(key.SigAlgorithms(), base) {
		return importError("signature algorithm %q not supported by %s key",
			algName, key.Algorithm())
	}
	if err := key.verifyPayload(data, base, r); err != nil {
		return err
	}
	if err := r.CheckEOF(); err != nil {
		return importError("trailing bytes after signature")
	}
	return nil
}

// defaultRand returns the package entropy source.
func defaultRand() io.Reader { return cryptorand.Reader }

// bigIntE widens an RSA public exponent for mpint encoding.
func bigIntE(e int) *big.Int { return big.NewInt(int64(e)) }

// fromCryptoPrivateKey wraps a standard-library private key in the matching
// algorithm variant. Used when an external decoder (PKCS#8) has already
// produced the raw key.
func fromCryptoPrivateKey(key crypto.PrivateKey) (PrivateKey, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return newRSAPrivateKey(k), nil
	case *ecdsa.PrivateKey:
		return newECDSAPrivateKey(k)
	case ed25519.PrivateKey:
		return newEd25519PrivateKey(k), nil
	case ed448.PrivateKey:
		return newEd448PrivateKey(k), nil
	default:
		return nil, importError("unsupported private key type %T", key)
	}
}

// fromCryptoPublicKey wraps a standard-library public key in the matching
// algorithm variant.
func fromCryptoPublicKey(key crypto.PublicKey) (PublicKey, error) {
	switch k := key.(type) {
	case *rsa.PublicKey:
		return newRSAPublicKey(k), nil
	case *ecdsa.PublicKey:
		return newECDSAPublicKey(k)
	case ed25519.PublicKey:
		return newEd25519PublicKey(k), nil
	case ed448.PublicKey:
		return newEd448PublicKey(k), nil
	default:
		return nil, importError("unsupported public key type %T", key)
	}
}
