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
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"io"
	"math/big"
	"time"
)

// x509AlgorithmPrefix turns a base key algorithm identifier into its
// "x509v3-" certificate algorithm identifier.
const x509AlgorithmPrefix = "x509v3-"

// X509Certificate wraps a single X.509 certificate with the SSH-facing
// metadata the chain subsystem needs.
type X509Certificate struct {
	algorithm string
	cert      *x509.Certificate
	key       PublicKey
	comment   string

	// UserPrincipals are the user names the certificate is valid for,
	// carried in the subject alternative email addresses. Empty accepts
	// every principal.
	UserPrincipals []string
}

// newX509Certificate wraps a parsed certificate, deriving its SSH algorithm
// identifier from the subject key's algorithm.
func newX509Certificate(cert *x509.Certificate) (*X509Certificate, error) {
	key, err := fromCryptoPublicKey(cert.PublicKey)
	if err != nil {
		return nil, err
	}
	return &X509Certificate{
		algorithm:      x509AlgorithmPrefix + key.Algorithm(),
		cert:           cert,
		key:            key,
		UserPrincipals: append([]string(nil), cert.EmailAddresses...),
	}, nil
}

// Algorithm returns the SSH algorithm identifier, e.g. "x509v3-ssh-rsa".
func (c *X509Certificate) Algorithm() string { return c.algorithm }

// PublicData returns the certificate DER bytes.
func (c *X509Certificate) PublicData() []byte { return c.cert.Raw }

// Key returns the wrapped subject public key.
func (c *X509Certificate) Key() PublicKey { return c.key }

// Comment returns the certificate comment.
func (c *X509Certificate) Comment() string { return c.comment }

// SetComment replaces the certificate comment.
func (c *X509Certificate) SetComment(comment string) { c.comment = comment }

// X509 returns the underlying parsed certificate.
func (c *X509Certificate) X509() *x509.Certificate { return c.cert }

// Subject returns the certificate subject.
func (c *X509Certificate) Subject() pkix.Name { return c.cert.Subject }

// Issuer returns the certificate issuer.
func (c *X509Certificate) Issuer() pkix.Name { return c.cert.Issuer }

// IssuerHash returns the trust-store filename stem for the issuer name.
func (c *X509Certificate) IssuerHash() string { return x509NameHash(c.cert.RawIssuer) }

// SubjectHash returns the trust-store filename stem for the subject name.
func (c *X509Certificate) SubjectHash() string { return x509NameHash(c.cert.RawSubject) }

// SelfSigned reports whether subject and issuer are the same name.
func (c *X509Certificate) SelfSigned() bool {
	return bytes.Equal(c.cert.RawSubject, c.cert.RawIssuer)
}

// x509NameHash derives the 8-hex-digit hash used to name trust-store files,
// a truncated SHA-1 over the DER-encoded name.
func x509NameHash(rawName []byte) string {
	sum := sha1.Sum(rawName) //nolint:gosec // filename derivation, not integrity
	return hex.EncodeToString(sum[:4])
}

// X509Purposes maps purpose names to extended key usages.
var x509Purposes = map[string]x509.ExtKeyUsage{
	"serverAuth":      x509.ExtKeyUsageServerAuth,
	"clientAuth":      x509.ExtKeyUsageClientAuth,
	"codeSigning":     x509.ExtKeyUsageCodeSigning,
	"emailProtection": x509.ExtKeyUsageEmailProtection,
	"timeStamping":    x509.ExtKeyUsageTimeStamping,
	"OCSPSigning":     x509.ExtKeyUsageOCSPSigning,
}

// X509CertificateOpts carries the metadata for X.509 certificate generation.
type X509CertificateOpts struct {
	// Subject and Issuer are common names. Self-signed certificates use
	// the same value for both.
	Subject string
	Issuer  string

	// Serial is the certificate serial number. Zero selects a random one.
	Serial int64

	// ValidAfter and ValidBefore bound the validity window as Unix times.
	ValidAfter  uint64
	ValidBefore uint64

	// IsCA marks the certificate as a certification authority.
	IsCA bool

	// CAPathLen constrains the CA chain depth when non-nil.
	CAPathLen *int

	// Purposes names the extended key usages ("serverAuth", "clientAuth",
	// ...). Empty allows any usage.
	Purposes []string

	// UserPrincipals and HostPrincipals restrict the names the certificate
	// is valid for. Host principals become DNS subject alternative names.
	UserPrincipals []string
	HostPrincipals []string

	// Comment is attached to the resulting certificate.
	Comment string

	// Rand is the entropy source, defaulting to crypto/rand.
	Rand io.Reader
}

// GenerateX509Certificate signs an X.509 certificate over key with
// signingKey. When signingCert is nil the certificate is self-signed.
func GenerateX509Certificate(signingKey PrivateKey, key PublicKey, signingCert *X509Certificate,
	opts *X509CertificateOpts) (*X509Certificate, error) {

	if opts == nil {
		opts = &X509CertificateOpts{}
	}
	if !x509Available {
		return nil, generationError("X.509 certificate support is unavailable")
	}
	if opts.ValidBefore <= opts.ValidAfter {
		return nil, generationError("certificate validity window is empty")
	}
	signer, ok := signingKey.CryptoPrivateKey().(crypto.Signer)
	if !ok {
		return nil, generationError("%s keys cannot sign X.509 certificates",
			signingKey.Algorithm())
	}
	if priv, isPriv := key.(PrivateKey); isPriv {
		key = priv.PublicOnly()
	}

	rng := opts.Rand
	if rng == nil {
		rng = defaultRand()
	}
	serial := big.NewInt(opts.Serial)
	if opts.Serial == 0 {
		limit := new(big.Int).Lsh(big.NewInt(1), 64)
		var err error
		if serial, err = randInt(rng, limit); err != nil {
			return nil, generationError("entropy read failed: %v", err)
		}
	}

	issuer := opts.Issuer
	if issuer == "" {
		issuer = opts.Subject
	}
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: opts.Subject},
		NotBefore:             time.Unix(int64(opts.ValidAfter), 0),
		NotAfter:              time.Unix(int64(opts.ValidBefore), 0),
		BasicConstraintsValid: true,
		IsCA:                  opts.IsCA,
		DNSNames:              append([]string(nil), opts.HostPrincipals...),
		EmailAddresses:        append([]string(nil), opts.UserPrincipals...),
	}
	if opts.IsCA {
		template.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign
		if opts.CAPathLen != nil {
			template.MaxPathLen = *opts.CAPathLen
			template.MaxPathLenZero = *opts.CAPathLen == 0
		}
	} else {
		template.KeyUsage = x509.KeyUsageDigitalSignature
	}
	for _, p := range opts.Purposes {
		usage, ok := x509Purposes[p]
		if !ok {
			return nil, generationError("unknown certificate purpose %q", p)
		}
		template.ExtKeyUsage = append(template.ExtKeyUsage, usage)
	}

	parent := template
	if signingCert != nil {
		parent = signingCert.cert
	} else if issuer != opts.Subject {
		p := *template
		p.Subject = pkix.Name{CommonName: issuer}
		parent = &p
	}
	der, err := x509.CreateCertificate(rng, template, parent, key.CryptoPublicKey(), signer)
	if err != nil {
		return nil, generationError("X.509 certificate creation failed: %v", err)
	}
	parsed, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, generationError("X.509 certificate re-parse failed: %v", err)
	}
	cert, err := newX509Certificate(parsed)
	if err != nil {
		return nil, err
	}
	cert.comment = opts.Comment
	return cert, nil
}

// randInt draws a uniform integer below limit from rng.
func randInt(rng io.Reader, limit *big.Int) (*big.Int, error) {
	buf := make([]byte, (limit.BitLen()+7)/8)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, err
	}
	return new(big.Int).Mod(new(big.Int).SetBytes(buf), limit), nil
}

// ParseX509Certificate parses a single X.509 certificate from PEM or DER.
func ParseX509Certificate(data []byte) (*X509Certificate, error) {
	der := data
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != "CERTIFICATE" {
			return nil, importError("unrecognized PEM type %q", block.Type)
		}
		der = block.Bytes
	}
	parsed, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, importError("malformed X.509 certificate: %v", err)
	}
	return newX509Certificate(parsed)
}

// ExportX509CertificatePEM serializes a certificate as a PEM CERTIFICATE
// block.
func ExportX509CertificatePEM(cert *X509Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.cert.Raw})
}
