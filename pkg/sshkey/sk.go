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
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/asn1"
	"encoding/binary"
	"io"
	"math/big"
	"strings"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

// U2F/FIDO2 security-key algorithm identifiers.
const (
	algSKECDSA   = "sk-ecdsa-sha2-nistp256@openssh.com"
	algSKEd25519 = "sk-ssh-ed25519@openssh.com"
)

// Authenticator flag bits carried in security-key signatures.
const (
	skFlagUserPresence     = 0x01
	skFlagUserVerification = 0x04
)

// COSE algorithm numbers reported by authenticators at enrollment.
const (
	coseAlgES256 = -7
	coseAlgEdDSA = -8
)

// defaultSKApplication is the relying-party identifier OpenSSH uses when
// none is given.
const defaultSKApplication = "ssh:"

// skCertID derives the certificate algorithm identifier for a security-key
// algorithm, inserting "-cert-v01" before the "@openssh.com" domain.
func skCertID(base string) string {
	return strings.TrimSuffix(base, "@openssh.com") + certV01Suffix
}

// Authenticator abstracts the hardware (or software) token that holds
// security-key credentials. Implementations talk FIDO2/U2F to a device;
// tests supply a software authenticator.
type Authenticator interface {
	// Enroll creates a new credential on the token and returns its public
	// key and key handle.
	Enroll(req SKEnrollRequest) (*SKEnrollment, error)

	// Sign asks the token to sign. The token builds and signs the
	// authenticator data message rpIdHash || flags || counter || digest
	// itself and reports the flags and counter it used.
	Sign(req SKSignRequest) (*SKSignature, error)
}

// SKEnrollRequest carries the parameters for enrolling a new security-key
// credential.
type SKEnrollRequest struct {
	// Algorithm is the requested COSE algorithm number (-7 for ECDSA on
	// P-256, -8 for Ed25519).
	Algorithm int64

	// Application is the relying-party identifier.
	Application string

	// User is the user name registered with the credential.
	User string

	// PIN is the token PIN, when the token requires one.
	PIN string

	// Resident requests a resident (discoverable) credential.
	Resident bool
}

// SKEnrollment is the result of enrolling a credential.
type SKEnrollment struct {
	// PublicKey is the raw public key: a 65-byte uncompressed P-256 point
	// for ES256, or a 32-byte Ed25519 key for EdDSA.
	PublicKey []byte

	// KeyHandle is the opaque credential identifier the token needs back
	// at signing time.
	KeyHandle []byte

	// Flags are the authenticator flags reported at enrollment.
	Flags byte
}

// SKSignRequest carries the parameters for a security-key signature.
type SKSignRequest struct {
	// Application is the relying-party identifier the credential was
	// enrolled under.
	Application string

	// KeyHandle identifies the credential on the token.
	KeyHandle []byte

	// Digest is the SHA-256 of the data being signed; the token appends it
	// to its authenticator data before signing.
	Digest []byte

	// PIN is the token PIN, when the token requires one.
	PIN string
}

// SKSignature is a raw signature produced by a token.
type SKSignature struct {
	// Signature is the raw signature: r || s (two equal halves) for ECDSA,
	// or the 64-byte signature for Ed25519.
	Signature []byte

	// Flags are the authenticator flags covered by the signature.
	Flags byte

	// Counter is the signature counter covered by the signature.
	Counter uint32
}

// skSignedMessage reconstructs the byte string a security key signs:
// SHA256(application) || flags || counter || SHA256(data).
func skSignedMessage(application string, flags byte, counter uint32, data []byte) []byte {
	appHash := sha256.Sum256([]byte(application))
	msg := make([]byte, 0, sha256.Size*2+5)
	msg = append(msg, appHash[:]...)
	msg = append(msg, flags)
	msg = binary.BigEndian.AppendUint32(msg, counter)
	dataHash := sha256.Sum256(data)
	msg = append(msg, dataHash[:]...)
	return msg
}

// readSKSignature pulls the signature blob, flags and counter off the wire.
func readSKSignature(r *sshbuf.Reader) (blob []byte, flags byte, counter uint32, err error) {
	if blob, err = r.String(); err != nil {
		return nil, 0, 0, importError("malformed security-key signature: %v", err)
	}
	if flags, err = r.Byte(); err != nil {
		return nil, 0, 0, importError("malformed security-key signature: %v", err)
	}
	if counter, err = r.Uint32(); err != nil {
		return nil, 0, 0, importError("malformed security-key signature: %v", err)
	}
	return blob, flags, counter, nil
}

// SKECDSAPublicKey is the public half of an ECDSA security key on P-256.
type SKECDSAPublicKey struct {
	keyBase
	pub         *ecdsa.PublicKey
	application string
}

// Algorithm returns "sk-ecdsa-sha2-nistp256@openssh.com".
func (k *SKECDSAPublicKey) Algorithm() string { return algSKECDSA }

// SigAlgorithms returns the single security-key signature algorithm.
func (k *SKECDSAPublicKey) SigAlgorithms() []string { return []string{algSKECDSA} }

// PublicData returns the SSH wire encoding of the public key.
func (k *SKECDSAPublicKey) PublicData() []byte { return marshalPublicData(k) }

// CryptoPublicKey returns the underlying *ecdsa.PublicKey.
func (k *SKECDSAPublicKey) CryptoPublicKey() crypto.PublicKey { return k.pub }

// Application returns the relying-party identifier the credential was
// enrolled under.
func (k *SKECDSAPublicKey) Application() string { return k.application }

func (k *SKECDSAPublicKey) encodePublic(w *sshbuf.Writer) {
	w.Str("nistp256")
	w.String(elliptic.Marshal(k.pub.Curve, k.pub.X, k.pub.Y)) //nolint:staticcheck
	w.Str(k.application)
}

func (k *SKECDSAPublicKey) verifyPayload(data []byte, sigAlg string, r *sshbuf.Reader) error {
	if sigAlg != algSKECDSA {
		return importError("unknown security-key signature algorithm %q", sigAlg)
	}
	blob, flags, counter, err := readSKSignature(r)
	if err != nil {
		return err
	}
	if k.touchRequired && flags&skFlagUserPresence == 0 {
		return importError("security-key signature missing user-presence flag")
	}
	sub := sshbuf.NewReader(blob)
	rr, err := sub.MPInt()
	if err != nil {
		return importError("malformed security-key signature: %v", err)
	}
	ss, err := sub.MPInt()
	if err != nil {
		return importError("malformed security-key signature: %v", err)
	}
	if err := sub.CheckEOF(); err != nil {
		return importError("trailing bytes in security-key signature")
	}
	msg := skSignedMessage(k.application, flags, counter, data)
	digest := sha256.Sum256(msg)
	if !ecdsa.Verify(k.pub, digest[:], rr, ss) {
		return importError("security-key signature verification failed")
	}
	return nil
}

func (k *SKECDSAPublicKey) pkcs1Public() ([]byte, error) {
	return nil, exportError("PKCS#1 export not supported for security keys")
}

func (k *SKECDSAPublicKey) pkcs8Public() ([]byte, error) {
	return nil, exportError("PKCS#8 export not supported for security keys")
}

// SKECDSAPrivateKey holds the key handle for an ECDSA credential resident on
// a token. The private scalar never leaves the token.
type SKECDSAPrivateKey struct {
	SKECDSAPublicKey
	flags     byte
	keyHandle []byte
	reserved  []byte
	auth      Authenticator
}

// PublicOnly returns the public half of the key.
func (k *SKECDSAPrivateKey) PublicOnly() PublicKey {
	pub := &SKECDSAPublicKey{pub: k.pub, application: k.application}
	pub.comment = k.comment
	pub.touchRequired = k.touchRequired
	return pub
}

// CryptoPrivateKey returns nil: the private material is hardware-resident.
func (k *SKECDSAPrivateKey) CryptoPrivateKey() crypto.PrivateKey { return nil }

// SetAuthenticator attaches the token used for signing. Keys decoded from
// disk carry no authenticator until one is attached.
func (k *SKECDSAPrivateKey) SetAuthenticator(auth Authenticator) { k.auth = auth }

func (k *SKECDSAPrivateKey) encodePrivate(w *sshbuf.Writer) {
	k.encodePublic(w)
	w.Byte(k.flags)
	w.String(k.keyHandle)
	w.String(k.reserved)
}

func (k *SKECDSAPrivateKey) signPayload(_ io.Reader, data []byte, sigAlg string) ([]byte, error) {
	if sigAlg != algSKECDSA {
		return nil, exportError("unknown security-key signature algorithm %q", sigAlg)
	}
	if k.auth == nil {
		return nil, exportError("security-key signing requires an authenticator")
	}
	digest := sha256.Sum256(data)
	sig, err := k.auth.Sign(SKSignRequest{
		Application: k.application,
		KeyHandle:   k.keyHandle,
		Digest:      digest[:],
	})
	if err != nil {
		return nil, exportError("security-key signing failed: %v", err)
	}
	if len(sig.Signature) == 0 || len(sig.Signature)%2 != 0 {
		return nil, exportError("invalid security-key signature length %d", len(sig.Signature))
	}
	half := len(sig.Signature) / 2
	rr := new(big.Int).SetBytes(sig.Signature[:half])
	ss := new(big.Int).SetBytes(sig.Signature[half:])
	var inner sshbuf.Writer
	inner.MPInt(rr)
	inner.MPInt(ss)
	var w sshbuf.Writer
	w.String(inner.Bytes())
	w.Byte(sig.Flags)
	w.Uint32(sig.Counter)
	return w.Bytes(), nil
}

func (k *SKECDSAPrivateKey) pkcs1Private() ([]byte, error) {
	return nil, exportError("PKCS#1 export not supported for security keys")
}

func (k *SKECDSAPrivateKey) pkcs8Private() ([]byte, error) {
	return nil, exportError("PKCS#8 export not supported for security keys")
}

// SKEd25519PublicKey is the public half of an Ed25519 security key.
type SKEd25519PublicKey struct {
	keyBase
	pub         ed25519.PublicKey
	application string
}

// Algorithm returns "sk-ssh-ed25519@openssh.com".
func (k *SKEd25519PublicKey) Algorithm() string { return algSKEd25519 }

// SigAlgorithms returns the single security-key signature algorithm.
func (k *SKEd25519PublicKey) SigAlgorithms() []string { return []string{algSKEd25519} }

// PublicData returns the SSH wire encoding of the public key.
func (k *SKEd25519PublicKey) PublicData() []byte { return marshalPublicData(k) }

// CryptoPublicKey returns the underlying ed25519.PublicKey.
func (k *SKEd25519PublicKey) CryptoPublicKey() crypto.PublicKey { return k.pub }

// Application returns the relying-party identifier the credential was
// enrolled under.
func (k *SKEd25519PublicKey) Application() string { return k.application }

func (k *SKEd25519PublicKey) encodePublic(w *sshbuf.Writer) {
	w.String(k.pub)
	w.Str(k.application)
}

func (k *SKEd25519PublicKey) verifyPayload(data []byte, sigAlg string, r *sshbuf.Reader) error {
	if sigAlg != algSKEd25519 {
		return importError("unknown security-key signature algorithm %q", sigAlg)
	}
	blob, flags, counter, err := readSKSignature(r)
	if err != nil {
		return err
	}
	if k.touchRequired && flags&skFlagUserPresence == 0 {
		return importError("security-key signature missing user-presence flag")
	}
	msg := skSignedMessage(k.application, flags, counter, data)
	if !ed25519.Verify(k.pub, msg, blob) {
		return importError("security-key signature verification failed")
	}
	return nil
}

func (k *SKEd25519PublicKey) pkcs1Public() ([]byte, error) {
	return nil, exportError("PKCS#1 export not supported for security keys")
}

func (k *SKEd25519PublicKey) pkcs8Public() ([]byte, error) {
	return nil, exportError("PKCS#8 export not supported for security keys")
}

// SKEd25519PrivateKey holds the key handle for an Ed25519 credential
// resident on a token.
type SKEd25519PrivateKey struct {
	SKEd25519PublicKey
	flags     byte
	keyHandle []byte
	reserved  []byte
	auth      Authenticator
}

// PublicOnly returns the public half of the key.
func (k *SKEd25519PrivateKey) PublicOnly() PublicKey {
	pub := &SKEd25519PublicKey{pub: k.pub, application: k.application}
	pub.comment = k.comment
	pub.touchRequired = k.touchRequired
	return pub
}

// CryptoPrivateKey returns nil: the private material is hardware-resident.
func (k *SKEd25519PrivateKey) CryptoPrivateKey() crypto.PrivateKey { return nil }

// SetAuthenticator attaches the token used for signing.
func (k *SKEd25519PrivateKey) SetAuthenticator(auth Authenticator) { k.auth = auth }

func (k *SKEd25519PrivateKey) encodePrivate(w *sshbuf.Writer) {
	k.encodePublic(w)
	w.Byte(k.flags)
	w.String(k.keyHandle)
	w.String(k.reserved)
}

func (k *SKEd25519PrivateKey) signPayload(_ io.Reader, data []byte, sigAlg string) ([]byte, error) {
	if sigAlg != algSKEd25519 {
		return nil, exportError("unknown security-key signature algorithm %q", sigAlg)
	}
	if k.auth == nil {
		return nil, exportError("security-key signing requires an authenticator")
	}
	digest := sha256.Sum256(data)
	sig, err := k.auth.Sign(SKSignRequest{
		Application: k.application,
		KeyHandle:   k.keyHandle,
		Digest:      digest[:],
	})
	if err != nil {
		return nil, exportError("security-key signing failed: %v", err)
	}
	var w sshbuf.Writer
	w.String(sig.Signature)
	w.Byte(sig.Flags)
	w.Uint32(sig.Counter)
	return w.Bytes(), nil
}

func (k *SKEd25519PrivateKey) pkcs1Private() ([]byte, error) {
	return nil, exportError("PKCS#1 export not supported for security keys")
}

func (k *SKEd25519PrivateKey) pkcs8Private() ([]byte, error) {
	return nil, exportError("PKCS#8 export not supported for security keys")
}

// skEnroll runs an enrollment with defaults applied and reports the flags to
// record on the resulting key.
func skEnroll(coseAlg int64, opts GenerateOpts) (*SKEnrollment, string, byte, bool, error) {
	if opts.Authenticator == nil {
		return nil, "", 0, false, generationError("security-key generation requires an authenticator")
	}
	application := opts.Application
	if application == "" {
		application = defaultSKApplication
	}
	enrollment, err := opts.Authenticator.Enroll(SKEnrollRequest{
		Algorithm:   coseAlg,
		Application: application,
		User:        opts.User,
		PIN:         opts.PIN,
		Resident:    opts.Resident,
	})
	if err != nil {
		return nil, "", 0, false, generationError("security-key enrollment failed: %v", err)
	}
	touch := true
	if opts.TouchRequired != nil {
		touch = *opts.TouchRequired
	}
	flags := byte(0)
	if touch {
		flags |= skFlagUserPresence
	}
	return enrollment, application, flags, touch, nil
}

// skECDSAAlgorithm is the registry handler for ECDSA security keys.
type skECDSAAlgorithm struct{}

func (skECDSAAlgorithm) id() string { return algSKECDSA }

func (skECDSAAlgorithm) sigAlgorithms() []string { return []string{algSKECDSA} }

func (skECDSAAlgorithm) pemName() string { return "" }

func (skECDSAAlgorithm) pkcs8OID() asn1.ObjectIdentifier { return nil }

func (skECDSAAlgorithm) generate(opts GenerateOpts) (PrivateKey, error) {
	enrollment, application, flags, touch, err := skEnroll(coseAlgES256, opts)
	if err != nil {
		return nil, err
	}
	x, y := elliptic.Unmarshal(elliptic.P256(), enrollment.PublicKey) //nolint:staticcheck
	if x == nil {
		return nil, generationError("authenticator returned an invalid P-256 point")
	}
	key := &SKECDSAPrivateKey{
		flags:     flags,
		keyHandle: enrollment.KeyHandle,
		auth:      opts.Authenticator,
	}
	key.pub = &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	key.application = application
	key.touchRequired = touch
	return key, nil
}

func (skECDSAAlgorithm) decodeSSHPublic(r *sshbuf.Reader) (PublicKey, error) {
	name, err := r.String()
	if err != nil {
		return nil, importError("malformed security key: %v", err)
	}
	if string(name) != "nistp256" {
		return nil, importError("security-key curve mismatch: %q", name)
	}
	point, err := r.String()
	if err != nil {
		return nil, importError("malformed security key: %v", err)
	}
	application, err := r.String()
	if err != nil {
		return nil, importError("malformed security key: %v", err)
	}
	x, y := elliptic.Unmarshal(elliptic.P256(), point) //nolint:staticcheck
	if x == nil {
		return nil, importError("invalid security-key curve point")
	}
	key := &SKECDSAPublicKey{
		pub:         &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y},
		application: string(application),
	}
	key.touchRequired = true
	return key, nil
}

func (a skECDSAAlgorithm) decodeSSHPrivate(r *sshbuf.Reader) (PrivateKey, error) {
	pub, err := a.decodeSSHPublic(r)
	if err != nil {
		return nil, err
	}
	flags, keyHandle, reserved, err := decodeSKPrivateTail(r)
	if err != nil {
		return nil, err
	}
	base := pub.(*SKECDSAPublicKey)
	key := &SKECDSAPrivateKey{
		SKECDSAPublicKey: *base,
		flags:            flags,
		keyHandle:        keyHandle,
		reserved:         reserved,
	}
	key.touchRequired = flags&skFlagUserPresence != 0
	return key, nil
}

func (skECDSAAlgorithm) decodePKCS1Private(der []byte) (PrivateKey, bool) { return nil, false }
func (skECDSAAlgorithm) decodePKCS1Public(der []byte) (PublicKey, bool)   { return nil, false }
func (skECDSAAlgorithm) decodePKCS8Private(der []byte) (PrivateKey, bool) {
	return nil, false
}
func (skECDSAAlgorithm) decodePKCS8Public(der []byte) (PublicKey, bool) { return nil, false }

// skEd25519Algorithm is the registry handler for Ed25519 security keys.
type skEd25519Algorithm struct{}

func (skEd25519Algorithm) id() string { return algSKEd25519 }

func (skEd25519Algorithm) sigAlgorithms() []string { return []string{algSKEd25519} }

func (skEd25519Algorithm) pemName() string { return "" }

func (skEd25519Algorithm) pkcs8OID() asn1.ObjectIdentifier { return nil }

func (skEd25519Algorithm) generate(opts GenerateOpts) (PrivateKey, error) {
	enrollment, application, flags, touch, err := skEnroll(coseAlgEdDSA, opts)
	if err != nil {
		return nil, err
	}
	if len(enrollment.PublicKey) != ed25519.PublicKeySize {
		return nil, generationError("authenticator returned an invalid Ed25519 key")
	}
	key := &SKEd25519PrivateKey{
		flags:     flags,
		keyHandle: enrollment.KeyHandle,
		auth:      opts.Authenticator,
	}
	key.pub = ed25519.PublicKey(enrollment.PublicKey)
	key.application = application
	key.touchRequired = touch
	return key, nil
}

func (skEd25519Algorithm) decodeSSHPublic(r *sshbuf.Reader) (PublicKey, error) {
	pub, err := r.String()
	if err != nil {
		return nil, importError("malformed security key: %v", err)
	}
	application, err := r.String()
	if err != nil {
		return nil, importError("malformed security key: %v", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, importError("invalid security-key Ed25519 key length %d", len(pub))
	}
	key := &SKEd25519PublicKey{
		pub:         ed25519.PublicKey(pub),
		application: string(application),
	}
	key.touchRequired = true
	return key, nil
}

func (a skEd25519Algorithm) decodeSSHPrivate(r *sshbuf.Reader) (PrivateKey, error) {
	pub, err := a.decodeSSHPublic(r)
	if err != nil {
		return nil, err
	}
	flags, keyHandle, reserved, err := decodeSKPrivateTail(r)
	if err != nil {
		return nil, err
	}
	base := pub.(*SKEd25519PublicKey)
	key := &SKEd25519PrivateKey{
		SKEd25519PublicKey: *base,
		flags:              flags,
		keyHandle:          keyHandle,
		reserved:           reserved,
	}
	key.touchRequired = flags&skFlagUserPresence != 0
	return key, nil
}

func (skEd25519Algorithm) decodePKCS1Private(der []byte) (PrivateKey, bool) { return nil, false }
func (skEd25519Algorithm) decodePKCS1Public(der []byte) (PublicKey, bool)   { return nil, false }
func (skEd25519Algorithm) decodePKCS8Private(der []byte) (PrivateKey, bool) {
	return nil, false
}
func (skEd25519Algorithm) decodePKCS8Public(der []byte) (PublicKey, bool) { return nil, false }

// decodeSKPrivateTail reads the flags, key handle and reserved fields that
// follow the public fields in the OpenSSH private container.
func decodeSKPrivateTail(r *sshbuf.Reader) (byte, []byte, []byte, error) {
	flags, err := r.Byte()
	if err != nil {
		return 0, nil, nil, importError("malformed security-key private key: %v", err)
	}
	keyHandle, err := r.String()
	if err != nil {
		return 0, nil, nil, importError("malformed security-key private key: %v", err)
	}
	reserved, err := r.String()
	if err != nil {
		return 0, nil, nil, importError("malformed security-key private key: %v", err)
	}
	return flags, keyHandle, reserved, nil
}

func registerSKAlgorithms() {
	ecdsaSK := skECDSAAlgorithm{}
	registerKeyAlgorithm(ecdsaSK, true, nil)
	registerCertAlgorithm(1, algSKECDSA, skCertID(algSKECDSA), ecdsaSK, algSKECDSA,
		decodeOpenSSHCert, true)
	registerSKAlgorithm(coseAlgES256, ecdsaSK, "nistp256")

	ed25519SK := skEd25519Algorithm{}
	registerKeyAlgorithm(ed25519SK, true, nil)
	registerCertAlgorithm(1, algSKEd25519, skCertID(algSKEd25519), ed25519SK, algSKEd25519,
		decodeOpenSSHCert, true)
	registerSKAlgorithm(coseAlgEdDSA, ed25519SK, "")
}
