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
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/asn1"
	"hash"
	"io"
	"math/big"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

const (
	algRSA         = "ssh-rsa"
	algRSASHA256   = "rsa-sha2-256"
	algRSASHA512   = "rsa-sha2-512"
	defaultRSABits = 3072
)

var oidRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

// rsaHash maps an RSA signature algorithm to its hash.
func rsaHash(sigAlg string) (crypto.Hash, func() hash.Hash, bool) {
	switch sigAlg {
	case algRSA:
		return crypto.SHA1, sha1.New, true
	case algRSASHA256:
		return crypto.SHA256, sha256.New, true
	case algRSASHA512:
		return crypto.SHA512, sha512.New, true
	default:
		return 0, nil, false
	}
}

// RSAPublicKey is the public half of an RSA key.
type RSAPublicKey struct {
	keyBase
	pub *rsa.PublicKey
}

func newRSAPublicKey(pub *rsa.PublicKey) *RSAPublicKey {
	return &RSAPublicKey{pub: pub}
}

// Algorithm returns "ssh-rsa".
func (k *RSAPublicKey) Algorithm() string { return algRSA }

// SigAlgorithms returns the RSA signature algorithms, SHA-2 first.
func (k *RSAPublicKey) SigAlgorithms() []string {
	return []string{algRSASHA256, algRSASHA512, algRSA}
}

// PublicData returns the SSH wire encoding of the public key.
func (k *RSAPublicKey) PublicData() []byte { return marshalPublicData(k) }

// CryptoPublicKey returns the underlying *rsa.PublicKey.
func (k *RSAPublicKey) CryptoPublicKey() crypto.PublicKey { return k.pub }

func (k *RSAPublicKey) encodePublic(w *sshbuf.Writer) {
	w.MPInt(bigIntE(k.pub.E))
	w.MPInt(k.pub.N)
}

func (k *RSAPublicKey) verifyPayload(data []byte, sigAlg string, r *sshbuf.Reader) error {
	h, newHash, ok := rsaHash(sigAlg)
	if !ok {
		return importError("unknown RSA signature algorithm %q", sigAlg)
	}
	sig, err := r.String()
	if err != nil {
		return importError("malformed RSA signature: %v", err)
	}
	d := newHash()
	d.Write(data)
	if err := rsa.VerifyPKCS1v15(k.pub, h, d.Sum(nil), sig); err != nil {
		return importError("RSA signature verification failed")
	}
	return nil
}

func (k *RSAPublicKey) pkcs1Public() ([]byte, error) {
	return x509.MarshalPKCS1PublicKey(k.pub), nil
}

func (k *RSAPublicKey) pkcs8Public() ([]byte, error) {
	return x509.MarshalPKIXPublicKey(k.pub)
}

// RSAPrivateKey is a complete RSA key pair.
type RSAPrivateKey struct {
	RSAPublicKey
	priv *rsa.PrivateKey
}

func newRSAPrivateKey(priv *rsa.PrivateKey) *RSAPrivateKey {
	k := &RSAPrivateKey{priv: priv}
	k.pub = &priv.PublicKey
	return k
}

// PublicOnly returns the public half of the key.
func (k *RSAPrivateKey) PublicOnly() PublicKey {
	pub := newRSAPublicKey(k.pub)
	pub.comment = k.comment
	return pub
}

// CryptoPrivateKey returns the underlying *rsa.PrivateKey.
func (k *RSAPrivateKey) CryptoPrivateKey() crypto.PrivateKey { return k.priv }

func (k *RSAPrivateKey) encodePrivate(w *sshbuf.Writer) {
	w.MPInt(k.priv.N)
	w.MPInt(bigIntE(k.priv.E))
	w.MPInt(k.priv.D)
	w.MPInt(k.priv.Precomputed.Qinv)
	w.MPInt(k.priv.Primes[0])
	w.MPInt(k.priv.Primes[1])
}

func (k *RSAPrivateKey) signPayload(rng io.Reader, data []byte, sigAlg string) ([]byte, error) {
	h, newHash, ok := rsaHash(sigAlg)
	if !ok {
		return nil, exportError("unknown RSA signature algorithm %q", sigAlg)
	}
	d := newHash()
	d.Write(data)
	sig, err := rsa.SignPKCS1v15(rng, k.priv, h, d.Sum(nil))
	if err != nil {
		return nil, err
	}
	var w sshbuf.Writer
	w.String(sig)
	return w.Bytes(), nil
}

func (k *RSAPrivateKey) pkcs1Private() ([]byte, error) {
	return x509.MarshalPKCS1PrivateKey(k.priv), nil
}

func (k *RSAPrivateKey) pkcs8Private() ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(k.priv)
}

// rsaAlgorithm is the registry handler for the RSA family.
type rsaAlgorithm struct{}

func (rsaAlgorithm) id() string { return algRSA }

func (rsaAlgorithm) sigAlgorithms() []string {
	return []string{algRSASHA256, algRSASHA512, algRSA}
}

func (rsaAlgorithm) pemName() string { return "RSA" }

func (rsaAlgorithm) pkcs8OID() asn1.ObjectIdentifier { return oidRSA }

func (rsaAlgorithm) generate(opts GenerateOpts) (PrivateKey, error) {
	bits := opts.KeySize
	if bits == 0 {
		bits = defaultRSABits
	}
	if bits < 1024 || bits > 16384 {
		return nil, generationError("invalid RSA key size %d", bits)
	}
	if opts.Exponent != 0 && opts.Exponent != 65537 {
		return nil, generationError("unsupported RSA public exponent %d", opts.Exponent)
	}
	rng := opts.Rand
	if rng == nil {
		rng = defaultRand()
	}
	priv, err := rsa.GenerateKey(rng, bits)
	if err != nil {
		return nil, generationError("RSA key generation failed: %v", err)
	}
	return newRSAPrivateKey(priv), nil
}

func (rsaAlgorithm) decodeSSHPublic(r *sshbuf.Reader) (PublicKey, error) {
	e, err := r.MPInt()
	if err != nil {
		return nil, importError("malformed RSA public key: %v", err)
	}
	n, err := r.MPInt()
	if err != nil {
		return nil, importError("malformed RSA public key: %v", err)
	}
	if !e.IsInt64() || e.Int64() < 3 {
		return nil, importError("invalid RSA public exponent")
	}
	return newRSAPublicKey(&rsa.PublicKey{N: n, E: int(e.Int64())}), nil
}

func (rsaAlgorithm) decodeSSHPrivate(r *sshbuf.Reader) (PrivateKey, error) {
	// Field order in the OpenSSH container: n, e, d, iqmp, p, q.
	fields := make([]*big.Int, 6)
	for i := range fields {
		v, err := r.MPInt()
		if err != nil {
			return nil, importError("malformed RSA private key: %v", err)
		}
		fields[i] = v
	}
	n, e, d, p, q := fields[0], fields[1], fields[2], fields[4], fields[5]
	if !e.IsInt64() {
		return nil, importError("invalid RSA public exponent")
	}
	priv := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: n, E: int(e.Int64())},
		D:         d,
		Primes:    []*big.Int{p, q},
	}
	priv.Precompute()
	if err := priv.Validate(); err != nil {
		return nil, importError("invalid RSA private key: %v", err)
	}
	return newRSAPrivateKey(priv), nil
}

func (rsaAlgorithm) decodePKCS1Private(der []byte) (PrivateKey, bool) {
	priv, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, false
	}
	return newRSAPrivateKey(priv), true
}

func (rsaAlgorithm) decodePKCS1Public(der []byte) (PublicKey, bool) {
	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, false
	}
	return newRSAPublicKey(pub), true
}

func (rsaAlgorithm) decodePKCS8Private(der []byte) (PrivateKey, bool) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, false
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, false
	}
	return newRSAPrivateKey(priv), true
}

func (rsaAlgorithm) decodePKCS8Public(der []byte) (PublicKey, bool) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, false
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, false
	}
	return newRSAPublicKey(pub), true
}

func registerRSAAlgorithms() {
	alg := rsaAlgorithm{}
	registerKeyAlgorithm(alg, true, nil)
	registerCertAlgorithm(1, algRSA, algRSA+certV01Suffix, alg, algRSA,
		decodeOpenSSHCert, true)
	registerCertAlgorithm(1, algRSASHA256, algRSASHA256+certV01Suffix, alg,
		algRSASHA256, decodeOpenSSHCert, true)
	registerCertAlgorithm(1, algRSASHA512, algRSASHA512+certV01Suffix, alg,
		algRSASHA512, decodeOpenSSHCert, true)
	registerX509CertAlgorithm(algRSA)
}
