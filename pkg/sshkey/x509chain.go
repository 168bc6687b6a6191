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
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

// X509CertificateChain is an ordered certificate chain, leaf first, as
// carried on the wire per RFC 6187: the algorithm identifier, the
// certificates and any stapled OCSP responses.
type X509CertificateChain struct {
	algorithm     string
	publicData    []byte
	certs         []*X509Certificate
	ocspResponses [][]byte
	comment       string
}

// NewX509CertificateChain builds a chain from leaf-first certificates. The
// chain algorithm is derived from the leaf's subject key.
func NewX509CertificateChain(certs []*X509Certificate, ocspResponses [][]byte) (*X509CertificateChain, error) {
	if len(certs) == 0 {
		return nil, importError("no certificates present")
	}
	algorithm := certs[0].Algorithm()
	return &X509CertificateChain{
		algorithm:     algorithm,
		publicData:    encodeX509ChainData(algorithm, certs, ocspResponses),
		certs:         certs,
		ocspResponses: ocspResponses,
	}, nil
}

func encodeX509ChainData(algorithm string, certs []*X509Certificate, ocspResponses [][]byte) []byte {
	var w sshbuf.Writer
	w.Str(algorithm)
	w.Uint32(uint32(len(certs)))
	for _, c := range certs {
		w.String(c.cert.Raw)
	}
	w.Uint32(uint32(len(ocspResponses)))
	for _, r := range ocspResponses {
		w.String(r)
	}
	return w.Bytes()
}

// Algorithm returns the chain's SSH algorithm identifier.
func (c *X509CertificateChain) Algorithm() string { return c.algorithm }

// PublicData returns the complete wire encoding of the chain.
func (c *X509CertificateChain) PublicData() []byte { return c.publicData }

// Key returns the leaf certificate's subject key.
func (c *X509CertificateChain) Key() PublicKey { return c.certs[0].key }

// Comment returns the chain comment.
func (c *X509CertificateChain) Comment() string { return c.comment }

// SetComment replaces the chain comment.
func (c *X509CertificateChain) SetComment(comment string) { c.comment = comment }

// Certificates returns the chain members, leaf first.
func (c *X509CertificateChain) Certificates() []*X509Certificate {
	return slices.Clone(c.certs)
}

// OCSPResponses returns the stapled OCSP responses.
func (c *X509CertificateChain) OCSPResponses() [][]byte {
	return slices.Clone(c.ocspResponses)
}

// AdjustPublicData rewrites only the leading algorithm identifier of the
// wire encoding, leaving the certificate array untouched. Used when a
// negotiated signature algorithm differs from the chain's default.
func (c *X509CertificateChain) AdjustPublicData(algorithm string) ([]byte, error) {
	r := sshbuf.NewReader(c.publicData)
	if _, err := r.String(); err != nil {
		return nil, importError("malformed certificate chain data: %v", err)
	}
	var w sshbuf.Writer
	w.Str(algorithm)
	w.Raw(r.Rest())
	return w.Bytes(), nil
}

// decodeX509Chain parses the chain body following the algorithm identifier.
// A chain with zero certificates is rejected.
func decodeX509Chain(info *certAlgorithmInfo, r *sshbuf.Reader, _ []byte) (Certificate, error) {
	count, err := r.Uint32()
	if err != nil {
		return nil, importError("malformed certificate chain: %v", err)
	}
	if count == 0 {
		return nil, importError("no certificates present in chain")
	}
	certs := make([]*X509Certificate, 0, count)
	for i := uint32(0); i < count; i++ {
		der, err := r.String()
		if err != nil {
			return nil, importError("malformed certificate chain: %v", err)
		}
		parsed, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, importError("malformed X.509 certificate in chain: %v", err)
		}
		cert, err := newX509Certificate(parsed)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	ocspCount, err := r.Uint32()
	if err != nil {
		return nil, importError("malformed certificate chain: %v", err)
	}
	var responses [][]byte
	for i := uint32(0); i < ocspCount; i++ {
		resp, err := r.String()
		if err != nil {
			return nil, importError("malformed certificate chain: %v", err)
		}
		responses = append(responses, bytes.Clone(resp))
	}
	if err := r.CheckEOF(); err != nil {
		return nil, importError("trailing bytes after certificate chain")
	}
	return &X509CertificateChain{
		algorithm:     info.certID,
		publicData:    r.Consumed(),
		certs:         certs,
		ocspResponses: responses,
	}, nil
}

// X509TrustOpts carries the trust material and constraints for chain
// validation.
type X509TrustOpts struct {
	// TrustChain holds certificates presented alongside the leaf, typically
	// received over the wire. Non-self-signed members serve as untrusted
	// intermediates.
	TrustChain []*X509Certificate

	// TrustedCerts are explicit trust anchors.
	TrustedCerts []*X509Certificate

	// TrustedCertPaths are directories of anchors named by issuer hash
	// (<hash>.0, <hash>.1, ...), expanded on demand.
	TrustedCertPaths []string

	// Purpose names the required extended key usage ("serverAuth",
	// "clientAuth", ...). Empty allows any usage.
	Purpose string

	// UserPrincipal, when non-empty, must be among the leaf's user
	// principals unless the leaf declares none.
	UserPrincipal string

	// HostPrincipal, when non-empty, must match the leaf's host names.
	HostPrincipal string

	// Revoked reports whether a certificate is revoked. Checked over every
	// chain member before path validation.
	Revoked func(*X509Certificate) bool

	// Now is the validation time, defaulting to the current time.
	Now time.Time
}

// ValidateChain checks revocation, builds the expanded trust store and
// validates the certification path from the leaf to a trust anchor.
func (c *X509CertificateChain) ValidateChain(opts *X509TrustOpts) error {
	if opts == nil {
		opts = &X509TrustOpts{}
	}
	if opts.Revoked != nil {
		for _, cert := range c.certs {
			if opts.Revoked(cert) {
				return fmt.Errorf("%w: %s", ErrCertRevoked, cert.cert.Subject)
			}
		}
	}

	roots := x509.NewCertPool()
	intermediates := x509.NewCertPool()
	visited := map[[sha256.Size]byte]bool{}
	var worklist []*X509Certificate

	track := func(cert *X509Certificate) bool {
		id := sha256.Sum256(cert.cert.Raw)
		if visited[id] {
			return false
		}
		visited[id] = true
		return true
	}

	for _, cert := range c.certs {
		track(cert)
		worklist = append(worklist, cert)
	}
	for _, cert := range c.certs[1:] {
		intermediates.AddCert(cert.cert)
	}
	for _, cert := range opts.TrustChain {
		if cert.SelfSigned() {
			continue
		}
		if track(cert) {
			intermediates.AddCert(cert.cert)
			worklist = append(worklist, cert)
		}
	}
	for _, cert := range opts.TrustedCerts {
		if track(cert) {
			roots.AddCert(cert.cert)
			worklist = append(worklist, cert)
		}
	}

	// Expand the hashed trust directories iteratively: for each known
	// certificate, load <issuer-hash>.N anchors whose subject matches its
	// issuer, then chase their issuers in turn. The visited set bounds the
	// walk regardless of on-disk cycles; missing or unparseable files end
	// a path without error.
	for len(worklist) > 0 {
		child := worklist[0]
		worklist = worklist[1:]
		if child.SelfSigned() {
			continue
		}
		for _, dir := range opts.TrustedCertPaths {
			for i := 0; ; i++ {
				name := filepath.Join(dir, child.IssuerHash()+"."+strconv.Itoa(i))
				data, err := os.ReadFile(name)
				if err != nil {
					break
				}
				anchor, err := ParseX509Certificate(data)
				if err != nil {
					continue
				}
				if !bytes.Equal(anchor.cert.RawSubject, child.cert.RawIssuer) {
					continue
				}
				if track(anchor) {
					roots.AddCert(anchor.cert)
					worklist = append(worklist, anchor)
				}
			}
		}
	}

	usages := []x509.ExtKeyUsage{x509.ExtKeyUsageAny}
	if opts.Purpose != "" {
		usage, ok := x509Purposes[opts.Purpose]
		if !ok {
			return importError("unknown certificate purpose %q", opts.Purpose)
		}
		usages = []x509.ExtKeyUsage{usage}
	}
	leaf := c.certs[0]
	if _, err := leaf.cert.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		CurrentTime:   opts.Now,
		KeyUsages:     usages,
	}); err != nil {
		return importError("certificate chain validation failed: %v", err)
	}

	if opts.HostPrincipal != "" {
		if err := leaf.cert.VerifyHostname(opts.HostPrincipal); err != nil {
			return fmt.Errorf("%w: %q", ErrCertPrincipalMismatch, opts.HostPrincipal)
		}
	}
	if opts.UserPrincipal != "" && len(leaf.UserPrincipals) > 0 &&
		!slices.Contains(leaf.UserPrincipals, opts.UserPrincipal) {
		return fmt.Errorf("%w: %q", ErrCertPrincipalMismatch, opts.UserPrincipal)
	}
	return nil
}
