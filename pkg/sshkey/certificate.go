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
	"encoding/base64"
	"fmt"
	"io"
	"net/netip"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

// certV01Suffix completes a base algorithm identifier into its OpenSSH
// version-01 certificate algorithm identifier.
const certV01Suffix = "-cert-v01@openssh.com"

// certNonceSize is the random nonce length ssh-keygen uses.
const certNonceSize = 32

// CertType distinguishes user from host certificates.
type CertType uint32

const (
	CertTypeUser CertType = 1
	CertTypeHost CertType = 2
)

func (t CertType) String() string {
	switch t {
	case CertTypeUser:
		return "user"
	case CertTypeHost:
		return "host"
	default:
		return fmt.Sprintf("cert-type-%d", uint32(t))
	}
}

// Certificate is the common capability of OpenSSH version-01 certificates
// and X.509 certificate chains.
type Certificate interface {
	// Algorithm returns the certificate algorithm identifier.
	Algorithm() string

	// PublicData returns the complete wire encoding of the certificate.
	PublicData() []byte

	// Key returns the certified public key, or nil when the certificate
	// form does not carry a decoded key (X.509 chains).
	Key() PublicKey

	// Comment returns the certificate comment, if any.
	Comment() string

	// SetComment replaces the certificate comment.
	SetComment(comment string)
}

// certOptionCodec is one entry in a critical-option or extension table:
// the option name plus its value codec. decode consumes the option payload
// from a reader that must be exhausted.
type certOptionCodec struct {
	name   string
	encode func(w *sshbuf.Writer, v any) error
	decode func(r *sshbuf.Reader) (any, error)
}

// utf8StringOption codes a single UTF-8 string payload.
var utf8StringOption = struct {
	encode func(w *sshbuf.Writer, v any) error
	decode func(r *sshbuf.Reader) (any, error)
}{
	encode: func(w *sshbuf.Writer, v any) error {
		s, ok := v.(string)
		if !ok {
			return exportError("certificate option value must be a string, got %T", v)
		}
		w.Str(s)
		return nil
	},
	decode: func(r *sshbuf.Reader) (any, error) {
		b, err := r.String()
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, importError("certificate option value is not valid UTF-8")
		}
		return string(b), nil
	},
}

// cidrListOption codes a comma-separated list of CIDR networks.
var cidrListOption = struct {
	encode func(w *sshbuf.Writer, v any) error
	decode func(r *sshbuf.Reader) (any, error)
}{
	encode: func(w *sshbuf.Writer, v any) error {
		nets, ok := v.([]string)
		if !ok {
			return exportError("certificate option value must be []string, got %T", v)
		}
		for _, n := range nets {
			if _, err := netip.ParsePrefix(n); err != nil {
				return exportError("invalid CIDR network %q", n)
			}
		}
		w.Str(strings.Join(nets, ","))
		return nil
	},
	decode: func(r *sshbuf.Reader) (any, error) {
		b, err := r.String()
		if err != nil {
			return nil, err
		}
		var nets []string
		for _, n := range strings.Split(string(b), ",") {
			if _, err := netip.ParsePrefix(n); err != nil {
				return nil, importError("invalid CIDR network %q in certificate option", n)
			}
			nets = append(nets, n)
		}
		return nets, nil
	},
}

// flagOption codes a presence-only boolean: empty payload, presence means
// true. The payload is ignored on decode.
var flagOption = struct {
	encode func(w *sshbuf.Writer, v any) error
	decode func(r *sshbuf.Reader) (any, error)
}{
	encode: func(w *sshbuf.Writer, v any) error {
		if b, ok := v.(bool); ok && !b {
			return exportError("flag options carry no false encoding")
		}
		return nil
	},
	decode: func(r *sshbuf.Reader) (any, error) {
		r.Rest()
		return true, nil
	},
}

func flagCodec(name string) certOptionCodec {
	return certOptionCodec{name: name, encode: flagOption.encode, decode: flagOption.decode}
}

// Option and extension tables, keyed by certificate type. Host certificates
// define no options or extensions at version 01.
var userCertOptions = []certOptionCodec{
	{name: "force-command", encode: utf8StringOption.encode, decode: utf8StringOption.decode},
	{name: "source-address", encode: cidrListOption.encode, decode: cidrListOption.decode},
}

var userCertExtensions = []certOptionCodec{
	flagCodec("permit-X11-forwarding"),
	flagCodec("permit-agent-forwarding"),
	flagCodec("permit-port-forwarding"),
	flagCodec("permit-pty"),
	flagCodec("permit-user-rc"),
	flagCodec("no-touch-required"),
}

func certTablesFor(t CertType) (options, extensions []certOptionCodec) {
	if t == CertTypeUser {
		return userCertOptions, userCertExtensions
	}
	return nil, nil
}

func findOptionCodec(table []certOptionCodec, name string) (certOptionCodec, bool) {
	for _, c := range table {
		if c.name == name {
			return c, true
		}
	}
	return certOptionCodec{}, false
}

// decodeCertOptions parses a sequence of (name, payload) pairs. Unrecognized
// names are a hard error when strict (critical options) and skipped
// otherwise (extensions).
func decodeCertOptions(data []byte, table []certOptionCodec, strict bool) (map[string]any, error) {
	out := map[string]any{}
	r := sshbuf.NewReader(data)
	for r.Len() > 0 {
		name, err := r.String()
		if err != nil {
			return nil, importError("malformed certificate options: %v", err)
		}
		payload, err := r.String()
		if err != nil {
			return nil, importError("malformed certificate options: %v", err)
		}
		codec, ok := findOptionCodec(table, string(name))
		if !ok {
			if strict {
				return nil, importError("unrecognized critical certificate option %q", name)
			}
			continue
		}
		sub := sshbuf.NewReader(payload)
		value, err := codec.decode(sub)
		if err != nil {
			return nil, err
		}
		if err := sub.CheckEOF(); err != nil {
			return nil, importError("trailing bytes in certificate option %q", name)
		}
		out[string(name)] = value
	}
	return out, nil
}

// encodeCertOptions serializes values in table order. Values for names not
// in the table are rejected; false flags and absent names are omitted.
func encodeCertOptions(values map[string]any, table []certOptionCodec) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	known := map[string]bool{}
	for _, c := range table {
		known[c.name] = true
	}
	for name := range values {
		if !known[name] {
			return nil, exportError("unknown certificate option %q", name)
		}
	}
	var w sshbuf.Writer
	for _, codec := range table {
		v, ok := values[codec.name]
		if !ok {
			continue
		}
		if b, isBool := v.(bool); isBool && !b {
			continue
		}
		var payload sshbuf.Writer
		if err := codec.encode(&payload, v); err != nil {
			return nil, err
		}
		w.Str(codec.name)
		w.String(payload.Bytes())
	}
	return w.Bytes(), nil
}

// encodeStringList packs strings as consecutive length-prefixed strings
// (the certificate principal encoding, not a comma name-list).
func encodeStringList(values []string) []byte {
	var w sshbuf.Writer
	for _, v := range values {
		w.Str(v)
	}
	return w.Bytes()
}

func decodeStringList(data []byte) ([]string, error) {
	var out []string
	r := sshbuf.NewReader(data)
	for r.Len() > 0 {
		v, err := r.String()
		if err != nil {
			return nil, err
		}
		out = append(out, string(v))
	}
	return out, nil
}

// OpenSSHCertificate is a decoded OpenSSH version-01 certificate.
type OpenSSHCertificate struct {
	algorithm  string
	publicData []byte
	key        PublicKey
	comment    string

	Serial      uint64
	Type        CertType
	KeyID       string
	Principals  []string
	ValidAfter  uint64
	ValidBefore uint64

	// Options holds the decoded critical options; Extensions the decoded
	// extensions (presence-only flags decode as true).
	Options    map[string]any
	Extensions map[string]any

	// SignKey is the certificate authority's public key.
	SignKey PublicKey
}

// Algorithm returns the certificate algorithm identifier, e.g.
// "ssh-ed25519-cert-v01@openssh.com".
func (c *OpenSSHCertificate) Algorithm() string { return c.algorithm }

// PublicData returns the complete wire encoding, signature included.
func (c *OpenSSHCertificate) PublicData() []byte { return c.publicData }

// Key returns the certified public key.
func (c *OpenSSHCertificate) Key() PublicKey { return c.key }

// Comment returns the certificate comment.
func (c *OpenSSHCertificate) Comment() string { return c.comment }

// SetComment replaces the certificate comment.
func (c *OpenSSHCertificate) SetComment(comment string) { c.comment = comment }

// Validate checks the certificate against a role and principal at the
// current time. Results must not be cached across authentication attempts.
func (c *OpenSSHCertificate) Validate(certType CertType, principal string) error {
	return c.ValidateAt(certType, principal, time.Now())
}

// ValidateAt checks, in order: certificate-type match, the validity window
// at now, and principal membership. An empty principal skips the membership
// check, and an empty principal list accepts every principal.
func (c *OpenSSHCertificate) ValidateAt(certType CertType, principal string, now time.Time) error {
	if c.Type != certType {
		return fmt.Errorf("%w: certificate is for %s, not %s",
			ErrCertTypeMismatch, c.Type, certType)
	}
	t := uint64(now.Unix())
	if t < c.ValidAfter {
		return ErrCertNotYetValid
	}
	if t >= c.ValidBefore {
		return ErrCertExpired
	}
	if principal != "" && len(c.Principals) > 0 {
		for _, p := range c.Principals {
			if p == principal {
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrCertPrincipalMismatch, principal)
	}
	return nil
}

// decodeOpenSSHCert parses a version-01 certificate body and verifies its
// signature over the framed payload.
func decodeOpenSSHCert(info *certAlgorithmInfo, r *sshbuf.Reader, blob []byte) (Certificate, error) {
	if _, err := r.String(); err != nil { // nonce
		return nil, importError("malformed certificate: %v", err)
	}
	key, err := info.keyAlg.decodeSSHPublic(r)
	if err != nil {
		return nil, err
	}
	serial, err := r.Uint64()
	if err != nil {
		return nil, importError("malformed certificate: %v", err)
	}
	rawType, err := r.Uint32()
	if err != nil {
		return nil, importError("malformed certificate: %v", err)
	}
	certType := CertType(rawType)
	if certType != CertTypeUser && certType != CertTypeHost {
		return nil, importError("invalid certificate type %d", rawType)
	}
	keyID, err := r.String()
	if err != nil {
		return nil, importError("malformed certificate: %v", err)
	}
	if !utf8.Valid(keyID) {
		return nil, importError("certificate key ID is not valid UTF-8")
	}
	principalsBlob, err := r.String()
	if err != nil {
		return nil, importError("malformed certificate: %v", err)
	}
	principals, err := decodeStringList(principalsBlob)
	if err != nil {
		return nil, importError("malformed certificate principals: %v", err)
	}
	validAfter, err := r.Uint64()
	if err != nil {
		return nil, importError("malformed certificate: %v", err)
	}
	validBefore, err := r.Uint64()
	if err != nil {
		return nil, importError("malformed certificate: %v", err)
	}
	optionsBlob, err := r.String()
	if err != nil {
		return nil, importError("malformed certificate: %v", err)
	}
	extensionsBlob, err := r.String()
	if err != nil {
		return nil, importError("malformed certificate: %v", err)
	}
	if _, err := r.String(); err != nil { // reserved
		return nil, importError("malformed certificate: %v", err)
	}
	signKeyBlob, err := r.String()
	if err != nil {
		return nil, importError("malformed certificate: %v", err)
	}
	signedData := r.Consumed()
	signature, err := r.String()
	if err != nil {
		return nil, importError("malformed certificate: %v", err)
	}
	if err := r.CheckEOF(); err != nil {
		return nil, importError("trailing bytes after certificate")
	}

	optionTable, extensionTable := certTablesFor(certType)
	options, err := decodeCertOptions(optionsBlob, optionTable, true)
	if err != nil {
		return nil, err
	}
	extensions, err := decodeCertOptions(extensionsBlob, extensionTable, false)
	if err != nil {
		return nil, err
	}

	signKey, err := decodeSSHPublicBlob(signKeyBlob)
	if err != nil {
		return nil, err
	}
	if err := Verify(signKey, signedData, signature); err != nil {
		return nil, importError("certificate signature verification failed: %v", err)
	}

	return &OpenSSHCertificate{
		algorithm:   info.certID,
		publicData:  blob,
		key:         key,
		Serial:      serial,
		Type:        certType,
		KeyID:       string(keyID),
		Principals:  principals,
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Options:     options,
		Extensions:  extensions,
		SignKey:     signKey,
	}, nil
}

// CertificateOpts carries the metadata for certificate generation.
type CertificateOpts struct {
	// Version is the certificate format version. Only 1 is defined.
	Version uint32

	// Serial is the CA-assigned serial number.
	Serial uint64

	// Type selects a user or host certificate.
	Type CertType

	// KeyID is the CA's identifier for the certified key.
	KeyID string

	// Principals restricts the user or host names the certificate is valid
	// for. Empty means valid for any principal.
	Principals []string

	// ValidAfter and ValidBefore bound the validity window as Unix times.
	// ValidBefore must be strictly greater than ValidAfter.
	ValidAfter  uint64
	ValidBefore uint64

	// Options are the critical options; Extensions the non-critical ones.
	// Names must appear in the tables for the certificate type.
	Options    map[string]any
	Extensions map[string]any

	// SigAlg selects the CA signature algorithm, defaulting to the signing
	// key's preferred algorithm.
	SigAlg string

	// Comment is attached to the resulting certificate.
	Comment string

	// Rand is the entropy source, defaulting to crypto/rand.
	Rand io.Reader
}

// GenerateCertificate signs key with signingKey, producing an OpenSSH
// version-01 certificate. The certified key is reduced to its public half
// before framing.
func GenerateCertificate(signingKey PrivateKey, key PublicKey, opts *CertificateOpts) (*OpenSSHCertificate, error) {
	if opts == nil {
		opts = &CertificateOpts{}
	}
	version := opts.Version
	if version == 0 {
		version = 1
	}
	certType := opts.Type
	if certType == 0 {
		certType = CertTypeUser
	}
	if certType != CertTypeUser && certType != CertTypeHost {
		return nil, generationError("invalid certificate type %d", certType)
	}
	if opts.ValidBefore <= opts.ValidAfter {
		return nil, generationError("certificate validity window is empty")
	}
	if priv, ok := key.(PrivateKey); ok {
		key = priv.PublicOnly()
	}
	info, ok := lookupCertAlgorithmByKey(key.Algorithm(), version)
	if !ok {
		return nil, generationError("no version %d certificate algorithm for %q",
			version, key.Algorithm())
	}
	optionTable, extensionTable := certTablesFor(certType)
	optionsBlob, err := encodeCertOptions(opts.Options, optionTable)
	if err != nil {
		return nil, err
	}
	extensionsBlob, err := encodeCertOptions(opts.Extensions, extensionTable)
	if err != nil {
		return nil, err
	}

	rng := opts.Rand
	if rng == nil {
		rng = defaultRand()
	}
	nonce := make([]byte, certNonceSize)
	if _, err := io.ReadFull(rng, nonce); err != nil {
		return nil, generationError("entropy read failed: %v", err)
	}

	var w sshbuf.Writer
	w.Str(info.certID)
	w.String(nonce)
	key.encodePublic(&w)
	w.Uint64(opts.Serial)
	w.Uint32(uint32(certType))
	w.Str(opts.KeyID)
	w.String(encodeStringList(opts.Principals))
	w.Uint64(opts.ValidAfter)
	w.Uint64(opts.ValidBefore)
	w.String(optionsBlob)
	w.String(extensionsBlob)
	w.String(nil) // reserved
	w.String(signingKey.PublicData())

	sig, err := signWithRand(signingKey, w.Bytes(), opts.SigAlg, opts.Rand)
	if err != nil {
		return nil, err
	}
	w.String(sig)

	cert := &OpenSSHCertificate{
		algorithm:   info.certID,
		publicData:  w.Bytes(),
		key:         key,
		comment:     opts.Comment,
		Serial:      opts.Serial,
		Type:        certType,
		KeyID:       opts.KeyID,
		Principals:  append([]string(nil), opts.Principals...),
		ValidAfter:  opts.ValidAfter,
		ValidBefore: opts.ValidBefore,
		Options:     opts.Options,
		Extensions:  opts.Extensions,
		SignKey:     signingKey.PublicOnly(),
	}
	return cert, nil
}

// ParseCertificate parses a certificate in the OpenSSH one-line text form or
// as a raw wire blob.
func ParseCertificate(data []byte) (Certificate, error) {
	trimmed := []byte(strings.TrimSpace(string(data)))
	if blob, comment, err := parsePublicKeyLine(trimmed); err == nil {
		cert, err := decodeCertBlob(blob)
		if err != nil {
			return nil, err
		}
		cert.SetComment(comment)
		return cert, nil
	}
	return decodeCertBlob(data)
}

// decodeCertBlob decodes a certificate wire blob through the registry.
func decodeCertBlob(blob []byte) (Certificate, error) {
	r := sshbuf.NewReader(blob)
	algName, err := r.String()
	if err != nil {
		return nil, importError("malformed certificate blob: %v", err)
	}
	info, ok := lookupCertAlgorithm(string(algName))
	if !ok {
		return nil, importError("unknown certificate algorithm %q", algName)
	}
	return info.decode(info, r, blob)
}

// ExportCertificate serializes a certificate in the OpenSSH one-line text
// form or RFC 4716.
func ExportCertificate(cert Certificate, format string) ([]byte, error) {
	switch format {
	case FormatOpenSSH:
		line := cert.Algorithm() + " " +
			base64.StdEncoding.EncodeToString(cert.PublicData())
		if c := cert.Comment(); c != "" {
			line += " " + c
		}
		return []byte(line + "\n"), nil

	case FormatRFC4716:
		return encodeRFC4716Blob(cert.PublicData(), cert.Comment()), nil

	default:
		return nil, exportError("unknown certificate format %q", format)
	}
}
