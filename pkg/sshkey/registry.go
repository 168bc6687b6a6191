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
	"encoding/asn1"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

// keyAlgorithm is the per-family handler capability. Handlers are pure
// functions over their arguments; they never consult the registry or other
// handlers.
type keyAlgorithm interface {
	// id returns the SSH algorithm identifier.
	id() string

	// sigAlgorithms returns the signature algorithms keys of this family
	// support, most preferred first.
	sigAlgorithms() []string

	// generate creates a new private key.
	generate(opts GenerateOpts) (PrivateKey, error)

	// decodeSSHPublic consumes exactly the algorithm's public fields from
	// a reader positioned just after the algorithm identifier.
	decodeSSHPublic(r *sshbuf.Reader) (PublicKey, error)

	// decodeSSHPrivate consumes exactly the algorithm's private fields in
	// the OpenSSH container layout.
	decodeSSHPrivate(r *sshbuf.Reader) (PrivateKey, error)

	// pemName returns the PEM type used for the family's PKCS#1-style
	// encoding ("RSA", "DSA", "EC"), or "" when the family has none.
	pemName() string

	// pkcs8OID returns the family's PKCS#8 algorithm object identifier,
	// or nil when the family has none.
	pkcs8OID() asn1.ObjectIdentifier

	// decodePKCS1Private parses the family's PKCS#1-style private DER.
	// ok is false when the DER shape does not match; callers use this to
	// try multiple PKCS#1 encodings in sequence.
	decodePKCS1Private(der []byte) (key PrivateKey, ok bool)

	// decodePKCS1Public parses the family's PKCS#1-style public DER.
	decodePKCS1Public(der []byte) (key PublicKey, ok bool)

	// decodePKCS8Private parses a full PKCS#8 PrivateKeyInfo DER.
	decodePKCS8Private(der []byte) (key PrivateKey, ok bool)

	// decodePKCS8Public parses a full SubjectPublicKeyInfo DER.
	decodePKCS8Public(der []byte) (key PublicKey, ok bool)
}

// certDecoder decodes a certificate of a registered algorithm. The reader
// is positioned just after the certificate algorithm identifier; blob is
// the complete wire encoding, retained for signature verification.
type certDecoder func(info *certAlgorithmInfo, r *sshbuf.Reader, blob []byte) (Certificate, error)

// certAlgorithmInfo describes one registered certificate algorithm.
type certAlgorithmInfo struct {
	// certID is the certificate algorithm identifier on the wire.
	certID string

	// version is the certificate format version (1 for OpenSSH v01
	// certificates, 0 for X.509).
	version uint32

	// keyAlg decodes the certified key's fields. Nil for X.509 entries,
	// whose key is carried inside the DER.
	keyAlg keyAlgorithm

	// sigAlg is the base signature algorithm corresponding to this
	// certificate algorithm.
	sigAlg string

	// decode parses the wire form.
	decode certDecoder
}

type certVersionKey struct {
	baseID  string
	version uint32
}

// skAlgorithmInfo maps a security-key COSE algorithm number to the handler
// that wraps enrolled credentials of that type.
type skAlgorithmInfo struct {
	alg keyAlgorithm

	// curveID is passed through to the handler for ECDSA security keys.
	curveID string
}

// Registry tables. Populated exactly once by registerAllAlgorithms before
// any decode or generate call, read-only thereafter; registration itself is
// not safe for concurrent use.
var (
	keyAlgorithms        = map[string]keyAlgorithm{}
	keyAlgorithmOrder    []string
	defaultKeyAlgorithms []string
	allSigAlgorithms     []string
	pemKeyAlgorithms     = map[string]keyAlgorithm{}
	pemKeyOrder          []string
	pkcs8KeyAlgorithms   = map[string]keyAlgorithm{}
	pkcs8KeyOrder        []string
	certAlgorithmsByID   = map[string]*certAlgorithmInfo{}
	certAlgorithmsByKey  = map[certVersionKey]*certAlgorithmInfo{}
	skAlgorithms         = map[int64]skAlgorithmInfo{}
)

// x509Available reports whether X.509 certificate support is present.
// Kept as a runtime capability check so X.509 registration degrades to a
// no-op if the underlying library is ever made optional.
var x509Available = true

func init() {
	registerAllAlgorithms()
}

// registerAllAlgorithms populates every registry table in a fixed order.
// It must complete before any concurrent use of the package.
func registerAllAlgorithms() {
	registerEd25519Algorithms()
	registerEd448Algorithms()
	registerECDSAAlgorithms()
	registerSKAlgorithms()
	registerRSAAlgorithms()
	registerDSAAlgorithms()
}

// registerKeyAlgorithm records a key handler under its algorithm
// identifier, PEM type name and PKCS#8 OID. sigAlgs overrides the handler's
// own signature algorithm list when non-nil.
func registerKeyAlgorithm(alg keyAlgorithm, isDefault bool, sigAlgs []string) {
	id := alg.id()
	keyAlgorithms[id] = alg
	keyAlgorithmOrder = append(keyAlgorithmOrder, id)
	if sigAlgs == nil {
		sigAlgs = alg.sigAlgorithms()
	}
	allSigAlgorithms = append(allSigAlgorithms, sigAlgs...)
	if isDefault {
		defaultKeyAlgorithms = append(defaultKeyAlgorithms, id)
	}
	if name := alg.pemName(); name != "" {
		if _, dup := pemKeyAlgorithms[name]; !dup {
			pemKeyAlgorithms[name] = alg
			pemKeyOrder = append(pemKeyOrder, name)
		}
	}
	if oid := alg.pkcs8OID(); oid != nil {
		key := oid.String()
		if _, dup := pkcs8KeyAlgorithms[key]; !dup {
			pkcs8KeyAlgorithms[key] = alg
			pkcs8KeyOrder = append(pkcs8KeyOrder, key)
		}
	}
}

// registerCertAlgorithm records a certificate algorithm both by its wire
// identifier (for decoding) and by (base algorithm, version) when isDefault
// is set (for generation).
func registerCertAlgorithm(version uint32, baseID, certID string, keyAlg keyAlgorithm,
	sigAlg string, decode certDecoder, isDefault bool) {

	info := &certAlgorithmInfo{
		certID:  certID,
		version: version,
		keyAlg:  keyAlg,
		sigAlg:  sigAlg,
		decode:  decode,
	}
	certAlgorithmsByID[certID] = info
	if isDefault {
		certAlgorithmsByKey[certVersionKey{baseID, version}] = info
	}
}

// registerX509CertAlgorithm records the x509v3- certificate algorithm for a
// base key algorithm. A no-op when X.509 support is unavailable.
func registerX509CertAlgorithm(baseID string) {
	if !x509Available {
		return
	}
	certID := x509AlgorithmPrefix + baseID
	registerCertAlgorithm(0, baseID, certID, nil, baseID, decodeX509Chain, true)
}

// registerSKAlgorithm maps a security-key COSE algorithm number to its
// handler.
func registerSKAlgorithm(number int64, alg keyAlgorithm, curveID string) {
	skAlgorithms[number] = skAlgorithmInfo{alg: alg, curveID: curveID}
}

// lookupKeyAlgorithm returns the handler for an SSH algorithm identifier.
func lookupKeyAlgorithm(id string) (keyAlgorithm, bool) {
	alg, ok := keyAlgorithms[id]
	return alg, ok
}

// lookupPEMAlgorithm returns the handler for a PEM type name such as "RSA".
func lookupPEMAlgorithm(name string) (keyAlgorithm, bool) {
	alg, ok := pemKeyAlgorithms[name]
	return alg, ok
}

// lookupPKCS8Algorithm returns the handler for a PKCS#8 OID.
func lookupPKCS8Algorithm(oid asn1.ObjectIdentifier) (keyAlgorithm, bool) {
	alg, ok := pkcs8KeyAlgorithms[oid.String()]
	return alg, ok
}

// lookupCertAlgorithm returns the certificate entry for a wire identifier.
func lookupCertAlgorithm(certID string) (*certAlgorithmInfo, bool) {
	info, ok := certAlgorithmsByID[certID]
	return info, ok
}

// lookupCertAlgorithmByKey returns the certificate entry used when
// generating a certificate of the given version over the given base key
// algorithm.
func lookupCertAlgorithmByKey(baseID string, version uint32) (*certAlgorithmInfo, bool) {
	info, ok := certAlgorithmsByKey[certVersionKey{baseID, version}]
	return info, ok
}

// lookupSKAlgorithm returns the handler for a security-key COSE algorithm
// number.
func lookupSKAlgorithm(number int64) (skAlgorithmInfo, bool) {
	info, ok := skAlgorithms[number]
	return info, ok
}

// KeyAlgorithms returns all registered SSH key algorithm identifiers in
// registration order.
func KeyAlgorithms() []string {
	out := make([]string, len(keyAlgorithmOrder))
	copy(out, keyAlgorithmOrder)
	return out
}

// DefaultKeyAlgorithms returns the identifiers registered as defaults, in
// registration order.
func DefaultKeyAlgorithms() []string {
	out := make([]string, len(defaultKeyAlgorithms))
	copy(out, defaultKeyAlgorithms)
	return out
}

// SignatureAlgorithms returns every registered signature algorithm in
// registration order.
func SignatureAlgorithms() []string {
	out := make([]string, len(allSigAlgorithms))
	copy(out, allSigAlgorithms)
	return out
}

// CertificateAlgorithms returns all registered certificate algorithm
// identifiers.
func CertificateAlgorithms() []string {
	out := make([]string, 0, len(certAlgorithmsByID))
	for id := range certAlgorithmsByID {
		out = append(out, id)
	}
	return out
}

// CertificateSigAlgorithm maps a certificate algorithm identifier to its
// base signature algorithm. The second return is false for unknown
// identifiers.
func CertificateSigAlgorithm(certID string) (string, bool) {
	info, ok := certAlgorithmsByID[certID]
	if !ok {
		return "", false
	}
	return info.sigAlg, true
}
