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
	"fmt"
	"slices"
	"strings"
)

// KeyPair composes a private key with an optional certificate to form a
// signing identity. With a certificate attached, the pair presents the
// certificate's algorithm and public data; without one, the bare key's.
type KeyPair struct {
	key          PrivateKey
	cert         Certificate
	algorithm    string
	publicData   []byte
	sigAlgorithm string
}

// NewKeyPair pairs a private key with an optional certificate. The
// certificate's certified key must match the private key's public data
// exactly; the check is eager so a mismatch surfaces at construction, not at
// first authentication.
func NewKeyPair(key PrivateKey, cert Certificate) (*KeyPair, error) {
	pair := &KeyPair{
		key:          key,
		cert:         cert,
		algorithm:    key.Algorithm(),
		publicData:   key.PublicData(),
		sigAlgorithm: key.SigAlgorithms()[0],
	}
	if cert != nil {
		certKey := cert.Key()
		if certKey == nil || !bytes.Equal(certKey.PublicData(), pair.publicData) {
			return nil, fmt.Errorf("%w: certificate %s does not certify this key",
				ErrKeyPairMismatch, cert.Algorithm())
		}
		pair.algorithm = cert.Algorithm()
		pair.publicData = cert.PublicData()
		if strings.HasPrefix(cert.Algorithm(), x509AlgorithmPrefix) {
			pair.sigAlgorithm = x509AlgorithmPrefix + pair.sigAlgorithm
		}
	}
	return pair, nil
}

// Key returns the private key.
func (p *KeyPair) Key() PrivateKey { return p.key }

// Certificate returns the attached certificate, or nil.
func (p *KeyPair) Certificate() Certificate { return p.cert }

// Algorithm returns the identity's algorithm: the certificate algorithm
// when a certificate is attached, the key algorithm otherwise.
func (p *KeyPair) Algorithm() string { return p.algorithm }

// PublicData returns the identity's public wire encoding.
func (p *KeyPair) PublicData() []byte { return p.publicData }

// Comment returns the certificate comment when one is attached and set,
// falling back to the key comment.
func (p *KeyPair) Comment() string {
	if p.cert != nil && p.cert.Comment() != "" {
		return p.cert.Comment()
	}
	return p.key.Comment()
}

// HasX509Chain reports whether the attached certificate is an X.509 chain.
func (p *KeyPair) HasX509Chain() bool {
	_, ok := p.cert.(*X509CertificateChain)
	return ok
}

// SignatureAlgorithm returns the algorithm Sign will use.
func (p *KeyPair) SignatureAlgorithm() string { return p.sigAlgorithm }

// SetSignatureAlgorithm switches the pair to a negotiated signature
// algorithm. For X.509 chains the public data's leading algorithm
// identifier is rewritten to match.
func (p *KeyPair) SetSignatureAlgorithm(sigAlg string) error {
	base := strings.TrimPrefix(sigAlg, x509AlgorithmPrefix)
	if !slices.Contains(p.key.SigAlgorithms(), base) {
		return exportError("signature algorithm %q not supported by %s key",
			sigAlg, p.key.Algorithm())
	}
	if chain, ok := p.cert.(*X509CertificateChain); ok {
		adjusted, err := chain.AdjustPublicData(sigAlg)
		if err != nil {
			return err
		}
		p.publicData = adjusted
	}
	p.sigAlgorithm = sigAlg
	return nil
}

// Sign signs data with the pair's selected signature algorithm.
func (p *KeyPair) Sign(data []byte) ([]byte, error) {
	return Sign(p.key, data, p.sigAlgorithm)
}
