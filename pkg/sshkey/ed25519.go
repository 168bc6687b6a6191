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
	"bytes"
	"crypto"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/asn1"
	"io"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

const (
	algEd25519 = "ssh-ed25519"
	algEd448   = "ssh-ed448"
)

var oidEd448 = asn1.ObjectIdentifier{1, 3, 101, 113}

// Ed25519PublicKey is the public half of an Ed25519 key.
type Ed25519PublicKey struct {
	keyBase
	pub ed25519.PublicKey
}

func newEd25519PublicKey(pub ed25519.PublicKey) *Ed25519PublicKey {
	return &Ed25519PublicKey{pub: pub}
}

// Algorithm returns "ssh-ed25519".
func (k *Ed25519PublicKey) Algorithm() string { return algEd25519 }

// SigAlgorithms returns the single EdDSA signature algorithm.
func (k *Ed25519PublicKey) SigAlgorithms() []string { return []string{algEd25519} }

// PublicData returns the SSH wire encoding of the public key.
func (k *Ed25519PublicKey) PublicData() []byte { return marshalPublicData(k) }

// CryptoPublicKey returns the underlying ed25519.PublicKey.
func (k *Ed25519PublicKey) CryptoPublicKey() crypto.PublicKey { return k.pub }

func (k *Ed25519PublicKey) encodePublic(w *sshbuf.Writer) {
	w.String(k.pub)
}

func (k *Ed25519PublicKey) verifyPayload(data []byte, sigAlg string, r *sshbuf.Reader) error {
	if sigAlg != algEd25519 {
		return importError("unknown Ed25519 signature algorithm %q", sigAlg)
	}
	sig, err := r.String()
	if err != nil {
		return importError("malformed Ed25519 signature: %v", err)
	}
	if !ed25519.Verify(k.pub, data, sig) {
		return importError("Ed25519 signature verification failed")
	}
	return nil
}

func (k *Ed25519PublicKey) pkcs1Public() ([]byte, error) {
	return nil, exportError("PKCS#1 export not supported for Ed25519 keys")
}

func (k *Ed25519PublicKey) pkcs8Public() ([]byte, error) {
	return x509.MarshalPKIXPublicKey(k.pub)
}

// Ed25519PrivateKey is a complete Ed25519 key pair.
type Ed25519PrivateKey struct {
	Ed25519PublicKey
	priv ed25519.PrivateKey
}

func newEd25519PrivateKey(priv ed25519.PrivateKey) *Ed25519PrivateKey {
	k := &Ed25519PrivateKey{priv: priv}
	k.pub = priv.Public().(ed25519.PublicKey)
	return k
}

// PublicOnly returns the public half of the key.
func (k *Ed25519PrivateKey) PublicOnly() PublicKey {
	pub := newEd25519PublicKey(k.pub)
	pub.comment = k.comment
	return pub
}

// CryptoPrivateKey returns the underlying ed25519.PrivateKey.
func (k *Ed25519PrivateKey) CryptoPrivateKey() crypto.PrivateKey { return k.priv }

func (k *Ed25519PrivateKey) encodePrivate(w *sshbuf.Writer) {
	w.String(k.pub)
	w.String(k.priv)
}

func (k *Ed25519PrivateKey) signPayload(_ io.Reader, data []byte, sigAlg string) ([]byte, error) {
	if sigAlg != algEd25519 {
		return nil, exportError("unknown Ed25519 signature algorithm %q", sigAlg)
	}
	var w sshbuf.Writer
	w.String(ed25519.Sign(k.priv, data))
	return w.Bytes(), nil
}

func (k *Ed25519PrivateKey) pkcs1Private() ([]byte, error) {
	return nil, exportError("PKCS#1 export not supported for Ed25519 keys")
}

func (k *Ed25519PrivateKey) pkcs8Private() ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(k.priv)
}

// ed25519Algorithm is the registry handler for Ed25519.
type ed25519Algorithm struct{}

func (ed25519Algorithm) id() string { return algEd25519 }

func (ed25519Algorithm) sigAlgorithms() []string { return []string{algEd25519} }

func (ed25519Algorithm) pemName() string { return "" }

func (ed25519Algorithm) pkcs8OID() asn1.ObjectIdentifier {
	return asn1.ObjectIdentifier{1, 3, 101, 112}
}

func (ed25519Algorithm) generate(opts GenerateOpts) (PrivateKey, error) {
	if opts.KeySize != 0 {
		return nil, generationError("Ed25519 key size is fixed")
	}
	rng := opts.Rand
	if rng == nil {
		rng = defaultRand()
	}
	_, priv, err := ed25519.GenerateKey(rng)
	if err != nil {
		return nil, generationError("Ed25519 key generation failed: %v", err)
	}
	return newEd25519PrivateKey(priv), nil
}

func (ed25519Algorithm) decodeSSHPublic(r *sshbuf.Reader) (PublicKey, error) {
	pub, err := r.String()
	if err != nil {
		return nil, importError("malformed Ed25519 public key: %v", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, importError("invalid Ed25519 public key length %d", len(pub))
	}
	return newEd25519PublicKey(ed25519.PublicKey(pub)), nil
}

func (ed25519Algorithm) decodeSSHPrivate(r *sshbuf.Reader) (PrivateKey, error) {
	pub, err := r.String()
	if err != nil {
		return nil, importError("malformed Ed25519 private key: %v", err)
	}
	priv, err := r.String()
	if err != nil {
		return nil, importError("malformed Ed25519 private key: %v", err)
	}
	if len(pub) != ed25519.PublicKeySize || len(priv) != ed25519.PrivateKeySize {
		return nil, importError("invalid Ed25519 key length")
	}
	if !bytes.Equal(priv[ed25519.SeedSize:], pub) {
		return nil, importError("Ed25519 public key does not match private half")
	}
	return newEd25519PrivateKey(ed25519.PrivateKey(priv)), nil
}

func (ed25519Algorithm) decodePKCS1Private(der []byte) (PrivateKey, bool) {
	return nil, false
}

func (ed25519Algorithm) decodePKCS1Public(der []byte) (PublicKey, bool) {
	return nil, false
}

func (ed25519Algorithm) decodePKCS8Private(der []byte) (PrivateKey, bool) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, false
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, false
	}
	return newEd25519PrivateKey(priv), true
}

func (ed25519Algorithm) decodePKCS8Public(der []byte) (PublicKey, bool) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, false
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, false
	}
	return newEd25519PublicKey(pub), true
}

func registerEd25519Algorithms() {
	alg := ed25519Algorithm{}
	registerKeyAlgorithm(alg, true, nil)
	registerCertAlgorithm(1, algEd25519, algEd25519+certV01Suffix, alg, algEd25519,
		decodeOpenSSHCert, true)
	registerX509CertAlgorithm(algEd25519)
}

// Ed448PublicKey is the public half of an Ed448 key.
type Ed448PublicKey struct {
	keyBase
	pub ed448.PublicKey
}

func newEd448PublicKey(pub ed448.PublicKey) *Ed448PublicKey {
	return &Ed448PublicKey{pub: pub}
}

// Algorithm returns "ssh-ed448".
func (k *Ed448PublicKey) Algorithm() string { return algEd448 }

// SigAlgorithms returns the single EdDSA signature algorithm.
func (k *Ed448PublicKey) SigAlgorithms() []string { return []string{algEd448} }

// PublicData returns the SSH wire encoding of the public key.
func (k *Ed448PublicKey) PublicData() []byte { return marshalPublicData(k) }

// CryptoPublicKey returns the underlying ed448.PublicKey.
func (k *Ed448PublicKey) CryptoPublicKey() crypto.PublicKey { return k.pub }

func (k *Ed448PublicKey) encodePublic(w *sshbuf.Writer) {
	w.String(k.pub)
}

func (k *Ed448PublicKey) verifyPayload(data []byte, sigAlg string, r *sshbuf.Reader) error {
	if sigAlg != algEd448 {
		return importError("unknown Ed448 signature algorithm %q", sigAlg)
	}
	sig, err := r.String()
	if err != nil {
		return importError("malformed Ed448 signature: %v", err)
	}
	if !ed448.Verify(k.pub, data, sig, "") {
		return importError("Ed448 signature verification failed")
	}
	return nil
}

func (k *Ed448PublicKey) pkcs1Public() ([]byte, error) {
	return nil, exportError("PKCS#1 export not supported for Ed448 keys")
}

func (k *Ed448PublicKey) pkcs8Public() ([]byte, error) {
	return asn1.Marshal(subjectPublicKeyInfo{
		Algorithm: algorithmIdentifier{Algorithm: oidEd448},
		PublicKey: asn1.BitString{Bytes: k.pub, BitLength: 8 * len(k.pub)},
	})
}

// Ed448PrivateKey is a complete Ed448 key pair.
type Ed448PrivateKey struct {
	Ed448PublicKey
	priv ed448.PrivateKey
}

func newEd448PrivateKey(priv ed448.PrivateKey) *Ed448PrivateKey {
	k := &Ed448PrivateKey{priv: priv}
	k.pub = priv.Public().(ed448.PublicKey)
	return k
}

// PublicOnly returns the public half of the key.
func (k *Ed448PrivateKey) PublicOnly() PublicKey {
	pub := newEd448PublicKey(k.pub)
	pub.comment = k.comment
	return pub
}

// CryptoPrivateKey returns the underlying ed448.PrivateKey.
func (k *Ed448PrivateKey) CryptoPrivateKey() crypto.PrivateKey { return k.priv }

func (k *Ed448PrivateKey) encodePrivate(w *sshbuf.Writer) {
	w.String(k.pub)
	w.String(k.priv)
}

func (k *Ed448PrivateKey) signPayload(_ io.Reader, data []byte, sigAlg string) ([]byte, error) {
	if sigAlg != algEd448 {
		return nil, exportError("unknown Ed448 signature algorithm %q", sigAlg)
	}
	var w sshbuf.Writer
	w.String(ed448.Sign(k.priv, data, ""))
	return w.Bytes(), nil
}

func (k *Ed448PrivateKey) pkcs1Private() ([]byte, error) {
	return nil, exportError("PKCS#1 export not supported for Ed448 keys")
}

func (k *Ed448PrivateKey) pkcs8Private() ([]byte, error) {
	seed, err := asn1.Marshal(k.priv.Seed())
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(pkcs8PrivateKeyInfo{
		Version:    0,
		Algorithm:  algorithmIdentifier{Algorithm: oidEd448},
		PrivateKey: seed,
	})
}

// ed448Algorithm is the registry handler for Ed448.
type ed448Algorithm struct{}

func (ed448Algorithm) id() string { return algEd448 }

func (ed448Algorithm) sigAlgorithms() []string { return []string{algEd448} }

func (ed448Algorithm) pemName() string { return "" }

func (ed448Algorithm) pkcs8OID() asn1.ObjectIdentifier { return oidEd448 }

func (ed448Algorithm) generate(opts GenerateOpts) (PrivateKey, error) {
	if opts.KeySize != 0 {
		return nil, generationError("Ed448 key size is fixed")
	}
	rng := opts.Rand
	if rng == nil {
		rng = defaultRand()
	}
	_, priv, err := ed448.GenerateKey(rng)
	if err != nil {
		return nil, generationError("Ed448 key generation failed: %v", err)
	}
	return newEd448PrivateKey(priv), nil
}

func (ed448Algorithm) decodeSSHPublic(r *sshbuf.Reader) (PublicKey, error) {
	pub, err := r.String()
	if err != nil {
		return nil, importError("malformed Ed448 public key: %v", err)
	}
	if len(pub) != ed448.PublicKeySize {
		return nil, importError("invalid Ed448 public key length %d", len(pub))
	}
	return newEd448PublicKey(ed448.PublicKey(pub)), nil
}

func (ed448Algorithm) decodeSSHPrivate(r *sshbuf.Reader) (PrivateKey, error) {
	pub, err := r.String()
	if err != nil {
		return nil, importError("malformed Ed448 private key: %v", err)
	}
	priv, err := r.String()
	if err != nil {
		return nil, importError("malformed Ed448 private key: %v", err)
	}
	if len(pub) != ed448.PublicKeySize || len(priv) != ed448.PrivateKeySize {
		return nil, importError("invalid Ed448 key length")
	}
	if !bytes.Equal(priv[ed448.SeedSize:], pub) {
		return nil, importError("Ed448 public key does not match private half")
	}
	return newEd448PrivateKey(ed448.PrivateKey(priv)), nil
}

func (ed448Algorithm) decodePKCS1Private(der []byte) (PrivateKey, bool) {
	return nil, false
}

func (ed448Algorithm) decodePKCS1Public(der []byte) (PublicKey, bool) {
	return nil, false
}

func (ed448Algorithm) decodePKCS8Private(der []byte) (PrivateKey, bool) {
	var info pkcs8PrivateKeyInfo
	rest, err := asn1.Unmarshal(der, &info)
	if err != nil || len(rest) != 0 || !info.Algorithm.Algorithm.Equal(oidEd448) {
		return nil, false
	}
	var seed []byte
	if _, err := asn1.Unmarshal(info.PrivateKey, &seed); err != nil {
		return nil, false
	}
	if len(seed) != ed448.SeedSize {
		return nil, false
	}
	return newEd448PrivateKey(ed448.NewKeyFromSeed(seed)), true
}

func (ed448Algorithm) decodePKCS8Public(der []byte) (PublicKey, bool) {
	var info subjectPublicKeyInfo
	rest, err := asn1.Unmarshal(der, &info)
	if err != nil || len(rest) != 0 || !info.Algorithm.Algorithm.Equal(oidEd448) {
		return nil, false
	}
	pub := info.PublicKey.RightAlign()
	if len(pub) != ed448.PublicKeySize {
		return nil, false
	}
	return newEd448PublicKey(ed448.PublicKey(pub)), true
}

func registerEd448Algorithms() {
	alg := ed448Algorithm{}
	registerKeyAlgorithm(alg, true, nil)
	registerCertAlgorithm(1, algEd448, algEd448+certV01Suffix, alg, algEd448,
		decodeOpenSSHCert, true)
	registerX509CertAlgorithm(algEd448)
}
