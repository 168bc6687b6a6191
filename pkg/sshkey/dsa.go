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
	"crypto/dsa" //nolint:staticcheck // ssh-dss interoperability
	"crypto/sha1"
	"crypto/x509"
	"encoding/asn1"
	"io"
	"math/big"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

const algDSA = "ssh-dss"

// dsaSigComponentSize is the fixed width of r and s in an ssh-dss
// signature blob (160-bit subgroup).
const dsaSigComponentSize = 20

var oidDSA = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}

// DSAPublicKey is the public half of a DSA key.
type DSAPublicKey struct {
	keyBase
	pub *dsa.PublicKey
}

func newDSAPublicKey(pub *dsa.PublicKey) *DSAPublicKey {
	return &DSAPublicKey{pub: pub}
}

// Algorithm returns "ssh-dss".
func (k *DSAPublicKey) Algorithm() string { return algDSA }

// SigAlgorithms returns the single DSA signature algorithm.
func (k *DSAPublicKey) SigAlgorithms() []string { return []string{algDSA} }

// PublicData returns the SSH wire encoding of the public key.
func (k *DSAPublicKey) PublicData() []byte { return marshalPublicData(k) }

// CryptoPublicKey returns the underlying *dsa.PublicKey.
func (k *DSAPublicKey) CryptoPublicKey() crypto.PublicKey { return k.pub }

func (k *DSAPublicKey) encodePublic(w *sshbuf.Writer) {
	w.MPInt(k.pub.P)
	w.MPInt(k.pub.Q)
	w.MPInt(k.pub.G)
	w.MPInt(k.pub.Y)
}

func (k *DSAPublicKey) verifyPayload(data []byte, sigAlg string, r *sshbuf.Reader) error {
	if sigAlg != algDSA {
		return importError("unknown DSA signature algorithm %q", sigAlg)
	}
	blob, err := r.String()
	if err != nil {
		return importError("malformed DSA signature: %v", err)
	}
	if len(blob) != 2*dsaSigComponentSize {
		return importError("invalid DSA signature length %d", len(blob))
	}
	rr := new(big.Int).SetBytes(blob[:dsaSigComponentSize])
	ss := new(big.Int).SetBytes(blob[dsaSigComponentSize:])
	digest := sha1.Sum(data)
	if !dsa.Verify(k.pub, digest[:], rr, ss) {
		return importError("DSA signature verification failed")
	}
	return nil
}

func (k *DSAPublicKey) pkcs1Public() ([]byte, error) {
	return asn1.Marshal(pkcs1DSAPublicKey{
		P: k.pub.P, Q: k.pub.Q, G: k.pub.G, Y: k.pub.Y,
	})
}

func (k *DSAPublicKey) pkcs8Public() ([]byte, error) {
	params, err := asn1.Marshal(dsaParameters{P: k.pub.P, Q: k.pub.Q, G: k.pub.G})
	if err != nil {
		return nil, err
	}
	y, err := asn1.Marshal(k.pub.Y)
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(subjectPublicKeyInfo{
		Algorithm: algorithmIdentifier{
			Algorithm:  oidDSA,
			Parameters: asn1.RawValue{FullBytes: params},
		},
		PublicKey: asn1.BitString{Bytes: y, BitLength: 8 * len(y)},
	})
}

// DSAPrivateKey is a complete DSA key pair.
type DSAPrivateKey struct {
	DSAPublicKey
	priv *dsa.PrivateKey
}

func newDSAPrivateKey(priv *dsa.PrivateKey) *DSAPrivateKey {
	k := &DSAPrivateKey{priv: priv}
	k.pub = &priv.PublicKey
	return k
}

// PublicOnly returns the public half of the key.
func (k *DSAPrivateKey) PublicOnly() PublicKey {
	pub := newDSAPublicKey(k.pub)
	pub.comment = k.comment
	return pub
}

// CryptoPrivateKey returns the underlying *dsa.PrivateKey.
func (k *DSAPrivateKey) CryptoPrivateKey() crypto.PrivateKey { return k.priv }

func (k *DSAPrivateKey) encodePrivate(w *sshbuf.Writer) {
	w.MPInt(k.priv.P)
	w.MPInt(k.priv.Q)
	w.MPInt(k.priv.G)
	w.MPInt(k.priv.Y)
	w.MPInt(k.priv.X)
}

func (k *DSAPrivateKey) signPayload(rng io.Reader, data []byte, sigAlg string) ([]byte, error) {
	if sigAlg != algDSA {
		return nil, exportError("unknown DSA signature algorithm %q", sigAlg)
	}
	if k.priv.Q.BitLen() > 8*dsaSigComponentSize {
		return nil, exportError("ssh-dss requires a 160-bit subgroup")
	}
	digest := sha1.Sum(data)
	rr, ss, err := dsa.Sign(rng, k.priv, digest[:])
	if err != nil {
		return nil, err
	}
	blob := make([]byte, 2*dsaSigComponentSize)
	rr.FillBytes(blob[:dsaSigComponentSize])
	ss.FillBytes(blob[dsaSigComponentSize:])
	var w sshbuf.Writer
	w.String(blob)
	return w.Bytes(), nil
}

func (k *DSAPrivateKey) pkcs1Private() ([]byte, error) {
	return asn1.Marshal(pkcs1DSAPrivateKey{
		P: k.priv.P, Q: k.priv.Q, G: k.priv.G, Y: k.priv.Y, X: k.priv.X,
	})
}

func (k *DSAPrivateKey) pkcs8Private() ([]byte, error) {
	params, err := asn1.Marshal(dsaParameters{P: k.priv.P, Q: k.priv.Q, G: k.priv.G})
	if err != nil {
		return nil, err
	}
	x, err := asn1.Marshal(k.priv.X)
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(pkcs8PrivateKeyInfo{
		Version: 0,
		Algorithm: algorithmIdentifier{
			Algorithm:  oidDSA,
			Parameters: asn1.RawValue{FullBytes: params},
		},
		PrivateKey: x,
	})
}

// OpenSSL-compatible DSA DER shapes.
type pkcs1DSAPrivateKey struct {
	Version       int
	P, Q, G, Y, X *big.Int
}

type pkcs1DSAPublicKey struct {
	P, Q, G, Y *big.Int
}

type dsaParameters struct {
	P, Q, G *big.Int
}

// dsaAlgorithm is the registry handler for the DSA family.
type dsaAlgorithm struct{}

func (dsaAlgorithm) id() string { return algDSA }

func (dsaAlgorithm) sigAlgorithms() []string { return []string{algDSA} }

func (dsaAlgorithm) pemName() string { return "DSA" }

func (dsaAlgorithm) pkcs8OID() asn1.ObjectIdentifier { return oidDSA }

func (dsaAlgorithm) generate(opts GenerateOpts) (PrivateKey, error) {
	if opts.KeySize != 0 && opts.KeySize != 1024 {
		return nil, generationError("invalid DSA key size %d: ssh-dss requires 1024", opts.KeySize)
	}
	rng := opts.Rand
	if rng == nil {
		rng = defaultRand()
	}
	priv := &dsa.PrivateKey{}
	if err := dsa.GenerateParameters(&priv.Parameters, rng, dsa.L1024N160); err != nil {
		return nil, generationError("DSA parameter generation failed: %v", err)
	}
	if err := dsa.GenerateKey(priv, rng); err != nil {
		return nil, generationError("DSA key generation failed: %v", err)
	}
	return newDSAPrivateKey(priv), nil
}

func (dsaAlgorithm) decodeSSHPublic(r *sshbuf.Reader) (PublicKey, error) {
	fields := make([]*big.Int, 4)
	for i := range fields {
		v, err := r.MPInt()
		if err != nil {
			return nil, importError("malformed DSA public key: %v", err)
		}
		fields[i] = v
	}
	return newDSAPublicKey(&dsa.PublicKey{
		Parameters: dsa.Parameters{P: fields[0], Q: fields[1], G: fields[2]},
		Y:          fields[3],
	}), nil
}

func (dsaAlgorithm) decodeSSHPrivate(r *sshbuf.Reader) (PrivateKey, error) {
	fields := make([]*big.Int, 5)
	for i := range fields {
		v, err := r.MPInt()
		if err != nil {
			return nil, importError("malformed DSA private key: %v", err)
		}
		fields[i] = v
	}
	priv := &dsa.PrivateKey{
		PublicKey: dsa.PublicKey{
			Parameters: dsa.Parameters{P: fields[0], Q: fields[1], G: fields[2]},
			Y:          fields[3],
		},
		X: fields[4],
	}
	return newDSAPrivateKey(priv), nil
}

func (dsaAlgorithm) decodePKCS1Private(der []byte) (PrivateKey, bool) {
	var raw pkcs1DSAPrivateKey
	rest, err := asn1.Unmarshal(der, &raw)
	if err != nil || len(rest) != 0 || raw.Version != 0 {
		return nil, false
	}
	priv := &dsa.PrivateKey{
		PublicKey: dsa.PublicKey{
			Parameters: dsa.Parameters{P: raw.P, Q: raw.Q, G: raw.G},
			Y:          raw.Y,
		},
		X: raw.X,
	}
	return newDSAPrivateKey(priv), true
}

func (dsaAlgorithm) decodePKCS1Public(der []byte) (PublicKey, bool) {
	var raw pkcs1DSAPublicKey
	rest, err := asn1.Unmarshal(der, &raw)
	if err != nil || len(rest) != 0 {
		return nil, false
	}
	return newDSAPublicKey(&dsa.PublicKey{
		Parameters: dsa.Parameters{P: raw.P, Q: raw.Q, G: raw.G},
		Y:          raw.Y,
	}), true
}

func (dsaAlgorithm) decodePKCS8Private(der []byte) (PrivateKey, bool) {
	var info pkcs8PrivateKeyInfo
	rest, err := asn1.Unmarshal(der, &info)
	if err != nil || len(rest) != 0 || !info.Algorithm.Algorithm.Equal(oidDSA) {
		return nil, false
	}
	var params dsaParameters
	if _, err := asn1.Unmarshal(info.Algorithm.Parameters.FullBytes, &params); err != nil {
		return nil, false
	}
	x := new(big.Int)
	if _, err := asn1.Unmarshal(info.PrivateKey, &x); err != nil {
		return nil, false
	}
	priv := &dsa.PrivateKey{
		PublicKey: dsa.PublicKey{
			Parameters: dsa.Parameters{P: params.P, Q: params.Q, G: params.G},
		},
		X: x,
	}
	// Y is not carried in the PKCS#8 payload; recompute it.
	priv.Y = new(big.Int).Exp(params.G, x, params.P)
	return newDSAPrivateKey(priv), true
}

func (dsaAlgorithm) decodePKCS8Public(der []byte) (PublicKey, bool) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, false
	}
	pub, ok := key.(*dsa.PublicKey)
	if !ok {
		return nil, false
	}
	return newDSAPublicKey(pub), true
}

func registerDSAAlgorithms() {
	alg := dsaAlgorithm{}
	registerKeyAlgorithm(alg, false, nil)
	registerCertAlgorithm(1, algDSA, algDSA+certV01Suffix, alg, algDSA,
		decodeOpenSSHCert, true)
	registerX509CertAlgorithm(algDSA)
}
