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
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/asn1"
	"hash"
	"io"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

const ecdsaAlgorithmPrefix = "ecdsa-sha2-"

var oidECPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

// ecdsaCurve describes one supported NIST curve.
type ecdsaCurve struct {
	name    string
	curve   elliptic.Curve
	newHash func() hash.Hash
}

var ecdsaCurves = []ecdsaCurve{
	{"nistp256", elliptic.P256(), sha256.New},
	{"nistp384", elliptic.P384(), sha512.New384},
	{"nistp521", elliptic.P521(), sha512.New},
}

func curveByName(name string) (ecdsaCurve, bool) {
	for _, c := range ecdsaCurves {
		if c.name == name {
			return c, true
		}
	}
	return ecdsaCurve{}, false
}

func curveByParams(curve elliptic.Curve) (ecdsaCurve, bool) {
	for _, c := range ecdsaCurves {
		if c.curve == curve {
			return c, true
		}
	}
	return ecdsaCurve{}, false
}

// ECDSAPublicKey is the public half of an ECDSA key on a NIST curve.
type ECDSAPublicKey struct {
	keyBase
	pub *ecdsa.PublicKey
	c   ecdsaCurve
}

func newECDSAPublicKey(pub *ecdsa.PublicKey) (*ECDSAPublicKey, error) {
	c, ok := curveByParams(pub.Curve)
	if !ok {
		return nil, importError("unsupported ECDSA curve")
	}
	return &ECDSAPublicKey{pub: pub, c: c}, nil
}

// Algorithm returns the curve-specific identifier, e.g.
// "ecdsa-sha2-nistp256".
func (k *ECDSAPublicKey) Algorithm() string { return ecdsaAlgorithmPrefix + k.c.name }

// SigAlgorithms returns the single curve-bound signature algorithm.
func (k *ECDSAPublicKey) SigAlgorithms() []string { return []string{k.Algorithm()} }

// PublicData returns the SSH wire encoding of the public key.
func (k *ECDSAPublicKey) PublicData() []byte { return marshalPublicData(k) }

// CryptoPublicKey returns the underlying *ecdsa.PublicKey.
func (k *ECDSAPublicKey) CryptoPublicKey() crypto.PublicKey { return k.pub }

func (k *ECDSAPublicKey) encodePublic(w *sshbuf.Writer) {
	w.Str(k.c.name)
	w.String(elliptic.Marshal(k.pub.Curve, k.pub.X, k.pub.Y)) //nolint:staticcheck
}

func (k *ECDSAPublicKey) verifyPayload(data []byte, sigAlg string, r *sshbuf.Reader) error {
	if sigAlg != k.Algorithm() {
		return importError("unknown ECDSA signature algorithm %q", sigAlg)
	}
	sub, err := r.Sub()
	if err != nil {
		return importError("malformed ECDSA signature: %v", err)
	}
	rr, err := sub.MPInt()
	if err != nil {
		return importError("malformed ECDSA signature: %v", err)
	}
	ss, err := sub.MPInt()
	if err != nil {
		return importError("malformed ECDSA signature: %v", err)
	}
	if err := sub.CheckEOF(); err != nil {
		return importError("trailing bytes in ECDSA signature")
	}
	d := k.c.newHash()
	d.Write(data)
	if !ecdsa.Verify(k.pub, d.Sum(nil), rr, ss) {
		return importError("ECDSA signature verification failed")
	}
	return nil
}

func (k *ECDSAPublicKey) pkcs1Public() ([]byte, error) {
	return nil, exportError("PKCS#1 export not supported for ECDSA public keys")
}

func (k *ECDSAPublicKey) pkcs8Public() ([]byte, error) {
	return x509.MarshalPKIXPublicKey(k.pub)
}

// ECDSAPrivateKey is a complete ECDSA key pair.
type ECDSAPrivateKey struct {
	ECDSAPublicKey
	priv *ecdsa.PrivateKey
}

func newECDSAPrivateKey(priv *ecdsa.PrivateKey) (*ECDSAPrivateKey, error) {
	c, ok := curveByParams(priv.Curve)
	if !ok {
		return nil, importError("unsupported ECDSA curve")
	}
	k := &ECDSAPrivateKey{priv: priv}
	k.pub = &priv.PublicKey
	k.c = c
	return k, nil
}

// PublicOnly returns the public half of the key.
func (k *ECDSAPrivateKey) PublicOnly() PublicKey {
	pub := &ECDSAPublicKey{pub: k.pub, c: k.c}
	pub.comment = k.comment
	return pub
}

// CryptoPrivateKey returns the underlying *ecdsa.PrivateKey.
func (k *ECDSAPrivateKey) CryptoPrivateKey() crypto.PrivateKey { return k.priv }

func (k *ECDSAPrivateKey) encodePrivate(w *sshbuf.Writer) {
	k.encodePublic(w)
	w.MPInt(k.priv.D)
}

func (k *ECDSAPrivateKey) signPayload(rng io.Reader, data []byte, sigAlg string) ([]byte, error) {
	if sigAlg != k.Algorithm() {
		return nil, exportError("unknown ECDSA signature algorithm %q", sigAlg)
	}
	d := k.c.newHash()
	d.Write(data)
	rr, ss, err := ecdsa.Sign(rng, k.priv, d.Sum(nil))
	if err != nil {
		return nil, err
	}
	var inner sshbuf.Writer
	inner.MPInt(rr)
	inner.MPInt(ss)
	var w sshbuf.Writer
	w.String(inner.Bytes())
	return w.Bytes(), nil
}

func (k *ECDSAPrivateKey) pkcs1Private() ([]byte, error) {
	return x509.MarshalECPrivateKey(k.priv)
}

func (k *ECDSAPrivateKey) pkcs8Private() ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(k.priv)
}

// ecdsaAlgorithm is the registry handler for one NIST curve.
type ecdsaAlgorithm struct {
	c ecdsaCurve
}

func (a ecdsaAlgorithm) id() string { return ecdsaAlgorithmPrefix + a.c.name }

func (a ecdsaAlgorithm) sigAlgorithms() []string { return []string{a.id()} }

func (ecdsaAlgorithm) pemName() string { return "EC" }

func (ecdsaAlgorithm) pkcs8OID() asn1.ObjectIdentifier { return oidECPublicKey }

func (a ecdsaAlgorithm) generate(opts GenerateOpts) (PrivateKey, error) {
	if opts.KeySize != 0 {
		return nil, generationError("ECDSA key size is implied by the curve")
	}
	rng := opts.Rand
	if rng == nil {
		rng = defaultRand()
	}
	priv, err := ecdsa.GenerateKey(a.c.curve, rng)
	if err != nil {
		return nil, generationError("ECDSA key generation failed: %v", err)
	}
	return newECDSAPrivateKey(priv)
}

func (a ecdsaAlgorithm) decodeCurvePoint(r *sshbuf.Reader) (*ecdsa.PublicKey, error) {
	name, err := r.String()
	if err != nil {
		return nil, importError("malformed ECDSA key: %v", err)
	}
	if string(name) != a.c.name {
		return nil, importError("ECDSA curve mismatch: %q", name)
	}
	point, err := r.String()
	if err != nil {
		return nil, importError("malformed ECDSA key: %v", err)
	}
	x, y := elliptic.Unmarshal(a.c.curve, point) //nolint:staticcheck
	if x == nil {
		return nil, importError("invalid ECDSA curve point")
	}
	return &ecdsa.PublicKey{Curve: a.c.curve, X: x, Y: y}, nil
}

func (a ecdsaAlgorithm) decodeSSHPublic(r *sshbuf.Reader) (PublicKey, error) {
	pub, err := a.decodeCurvePoint(r)
	if err != nil {
		return nil, err
	}
	return newECDSAPublicKey(pub)
}

func (a ecdsaAlgorithm) decodeSSHPrivate(r *sshbuf.Reader) (PrivateKey, error) {
	pub, err := a.decodeCurvePoint(r)
	if err != nil {
		return nil, err
	}
	d, err := r.MPInt()
	if err != nil {
		return nil, importError("malformed ECDSA private key: %v", err)
	}
	priv := &ecdsa.PrivateKey{PublicKey: *pub, D: d}
	return newECDSAPrivateKey(priv)
}

// The PKCS#1-style and PKCS#8 decoders are curve-agnostic: the EC OID and
// the "EC" PEM name are shared by every curve, so whichever curve handler
// is indexed first must accept them all.
func (ecdsaAlgorithm) decodePKCS1Private(der []byte) (PrivateKey, bool) {
	priv, err := x509.ParseECPrivateKey(der)
	if err != nil {
		return nil, false
	}
	key, err := newECDSAPrivateKey(priv)
	if err != nil {
		return nil, false
	}
	return key, true
}

func (ecdsaAlgorithm) decodePKCS1Public(der []byte) (PublicKey, bool) {
	return nil, false
}

func (ecdsaAlgorithm) decodePKCS8Private(der []byte) (PrivateKey, bool) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, false
	}
	priv, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, false
	}
	out, err := newECDSAPrivateKey(priv)
	if err != nil {
		return nil, false
	}
	return out, true
}

func (ecdsaAlgorithm) decodePKCS8Public(der []byte) (PublicKey, bool) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, false
	}
	pub, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, false
	}
	out, err := newECDSAPublicKey(pub)
	if err != nil {
		return nil, false
	}
	return out, true
}

func registerECDSAAlgorithms() {
	for _, c := range ecdsaCurves {
		alg := ecdsaAlgorithm{c}
		registerKeyAlgorithm(alg, true, nil)
		registerCertAlgorithm(1, alg.id(), alg.id()+certV01Suffix, alg, alg.id(),
			decodeOpenSSHCert, true)
		registerX509CertAlgorithm(alg.id())
	}
}

// ensure interface conformance at compile time
var (
	_ PublicKey  = (*ECDSAPublicKey)(nil)
	_ PrivateKey = (*ECDSAPrivateKey)(nil)
)
