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
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testX509CA generates a self-signed CA and a leaf certificate for key.
func testX509CA(t *testing.T, caKey, leafKey PrivateKey, leafOpts *X509CertificateOpts) (*X509Certificate, *X509Certificate) {
	t.Helper()
	now := time.Now()
	ca, err := GenerateX509Certificate(caKey, caKey, nil, &X509CertificateOpts{
		Subject:     "Test Root CA",
		ValidAfter:  uint64(now.Add(-time.Hour).Unix()),
		ValidBefore: uint64(now.Add(24 * time.Hour).Unix()),
		IsCA:        true,
	})
	require.NoError(t, err)
	require.True(t, ca.SelfSigned())

	if leafOpts == nil {
		leafOpts = &X509CertificateOpts{
			Subject:        "leaf",
			ValidAfter:     uint64(now.Add(-time.Hour).Unix()),
			ValidBefore:    uint64(now.Add(time.Hour).Unix()),
			UserPrincipals: []string{"alice"},
		}
	}
	leaf, err := GenerateX509Certificate(caKey, leafKey, ca, leafOpts)
	require.NoError(t, err)
	return ca, leaf
}

func TestGenerateX509Certificate(t *testing.T) {
	caKey := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	leafKey := mustGenerate(t, "ssh-ed25519", nil)
	ca, leaf := testX509CA(t, caKey, leafKey, nil)

	assert.Equal(t, "x509v3-ecdsa-sha2-nistp256", ca.Algorithm())
	assert.Equal(t, "x509v3-ssh-ed25519", leaf.Algorithm())
	assert.Equal(t, leafKey.PublicData(), leaf.Key().PublicData())
	assert.Equal(t, []string{"alice"}, leaf.UserPrincipals)
	assert.Equal(t, "Test Root CA", leaf.Issuer().CommonName)
	assert.False(t, leaf.SelfSigned())
	assert.Equal(t, ca.SubjectHash(), leaf.IssuerHash())
}

func TestGenerateX509CertificateEmptyWindow(t *testing.T) {
	key := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	_, err := GenerateX509Certificate(key, key, nil, &X509CertificateOpts{Subject: "x"})
	assert.ErrorIs(t, err, ErrKeyGeneration)
}

func TestGenerateX509CertificateUnknownPurpose(t *testing.T) {
	key := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	_, err := GenerateX509Certificate(key, key, nil, &X509CertificateOpts{
		Subject:     "x",
		ValidAfter:  0,
		ValidBefore: ^uint64(0) >> 1,
		Purposes:    []string{"worldDomination"},
	})
	assert.ErrorIs(t, err, ErrKeyGeneration)
}

func TestX509CertificatePEMRoundTrip(t *testing.T) {
	caKey := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	leafKey := mustGenerate(t, "ssh-rsa", &GenerateOpts{KeySize: 1024})
	_, leaf := testX509CA(t, caKey, leafKey, nil)

	pemOut := ExportX509CertificatePEM(leaf)
	parsed, err := ParseX509Certificate(pemOut)
	require.NoError(t, err)
	assert.Equal(t, leaf.PublicData(), parsed.PublicData())
	assert.Equal(t, leaf.UserPrincipals, parsed.UserPrincipals)
}

func TestX509ChainRoundTrip(t *testing.T) {
	caKey := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	leafKey := mustGenerate(t, "ssh-ed25519", nil)
	ca, leaf := testX509CA(t, caKey, leafKey, nil)

	chain, err := NewX509CertificateChain([]*X509Certificate{leaf, ca}, nil)
	require.NoError(t, err)
	assert.Equal(t, "x509v3-ssh-ed25519", chain.Algorithm())
	assert.Equal(t, leafKey.PublicData(), chain.Key().PublicData())

	parsed, err := ParseCertificate(chain.PublicData())
	require.NoError(t, err)
	reparsed, ok := parsed.(*X509CertificateChain)
	require.True(t, ok)
	require.Len(t, reparsed.Certificates(), 2)
	assert.Equal(t, leaf.PublicData(), reparsed.Certificates()[0].PublicData())
	assert.Equal(t, chain.PublicData(), reparsed.PublicData())
}

func TestX509ChainRejectsEmpty(t *testing.T) {
	_, err := NewX509CertificateChain(nil, nil)
	assert.ErrorIs(t, err, ErrKeyImport)
}

func TestX509ChainAdjustPublicData(t *testing.T) {
	caKey := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	leafKey := mustGenerate(t, "ssh-rsa", &GenerateOpts{KeySize: 1024})
	ca, leaf := testX509CA(t, caKey, leafKey, nil)

	chain, err := NewX509CertificateChain([]*X509Certificate{leaf, ca}, nil)
	require.NoError(t, err)

	adjusted, err := chain.AdjustPublicData("x509v3-rsa2048-sha256")
	require.NoError(t, err)

	alg, err := decodeSignatureAlg(adjusted)
	require.NoError(t, err)
	assert.Equal(t, "x509v3-rsa2048-sha256", alg)

	// Only the algorithm identifier changes; the certificate payload is
	// byte-identical.
	assert.Equal(t, chain.PublicData()[4+len(chain.Algorithm()):],
		adjusted[4+len("x509v3-rsa2048-sha256"):])
}

func TestX509ValidateChain(t *testing.T) {
	caKey := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	leafKey := mustGenerate(t, "ssh-ed25519", nil)
	ca, leaf := testX509CA(t, caKey, leafKey, nil)

	chain, err := NewX509CertificateChain([]*X509Certificate{leaf, ca}, nil)
	require.NoError(t, err)

	// Trusted anchor present: validation succeeds, including the user
	// principal check.
	assert.NoError(t, chain.ValidateChain(&X509TrustOpts{
		TrustedCerts:  []*X509Certificate{ca},
		UserPrincipal: "alice",
	}))

	// No anchors at all: the path cannot be built.
	assert.ErrorIs(t, chain.ValidateChain(nil), ErrKeyImport)

	// Wrong principal.
	assert.ErrorIs(t, chain.ValidateChain(&X509TrustOpts{
		TrustedCerts:  []*X509Certificate{ca},
		UserPrincipal: "mallory",
	}), ErrCertPrincipalMismatch)

	// Revocation wins over everything else.
	assert.ErrorIs(t, chain.ValidateChain(&X509TrustOpts{
		TrustedCerts: []*X509Certificate{ca},
		Revoked: func(c *X509Certificate) bool {
			return c.Subject().CommonName == "leaf"
		},
	}), ErrCertRevoked)

	// Validation outside the leaf's window fails.
	assert.ErrorIs(t, chain.ValidateChain(&X509TrustOpts{
		TrustedCerts: []*X509Certificate{ca},
		Now:          time.Now().Add(48 * time.Hour),
	}), ErrKeyImport)
}

func TestX509ValidateChainHostPrincipal(t *testing.T) {
	caKey := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	hostKey := mustGenerate(t, "ssh-rsa", &GenerateOpts{KeySize: 1024})
	now := time.Now()
	ca, leaf := testX509CA(t, caKey, hostKey, &X509CertificateOpts{
		Subject:        "host.example.com",
		ValidAfter:     uint64(now.Add(-time.Hour).Unix()),
		ValidBefore:    uint64(now.Add(time.Hour).Unix()),
		HostPrincipals: []string{"host.example.com"},
		Purposes:       []string{"serverAuth"},
	})

	chain, err := NewX509CertificateChain([]*X509Certificate{leaf, ca}, nil)
	require.NoError(t, err)

	assert.NoError(t, chain.ValidateChain(&X509TrustOpts{
		TrustedCerts:  []*X509Certificate{ca},
		HostPrincipal: "host.example.com",
		Purpose:       "serverAuth",
	}))
	assert.ErrorIs(t, chain.ValidateChain(&X509TrustOpts{
		TrustedCerts:  []*X509Certificate{ca},
		HostPrincipal: "other.example.com",
	}), ErrCertPrincipalMismatch)
}

func TestX509ValidateChainTrustDirectory(t *testing.T) {
	caKey := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	leafKey := mustGenerate(t, "ssh-ed25519", nil)
	ca, leaf := testX509CA(t, caKey, leafKey, nil)

	dir := t.TempDir()
	// Anchors are named <issuer-hash>.N. Slot 0 holds an unrelated
	// unparseable file; the real anchor sits in slot 1 and must still be
	// found.
	hash := leaf.IssuerHash()
	require.NoError(t, os.WriteFile(filepath.Join(dir, hash+".0"), []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, hash+".1"), ExportX509CertificatePEM(ca), 0644))

	chain, err := NewX509CertificateChain([]*X509Certificate{leaf}, nil)
	require.NoError(t, err)

	assert.NoError(t, chain.ValidateChain(&X509TrustOpts{
		TrustedCertPaths: []string{dir},
		UserPrincipal:    "alice",
	}))

	// An empty directory yields no anchors.
	assert.ErrorIs(t, chain.ValidateChain(&X509TrustOpts{
		TrustedCertPaths: []string{t.TempDir()},
	}), ErrKeyImport)
}

func TestX509TrustDirectoryCycleTerminates(t *testing.T) {
	// Two CAs that cross-certify each other produce an issuer cycle on
	// disk. Expansion must terminate and still validate the leaf.
	now := time.Now()
	caKeyA := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	caKeyB := mustGenerate(t, "ecdsa-sha2-nistp256", nil)

	window := &X509CertificateOpts{
		ValidAfter:  uint64(now.Add(-time.Hour).Unix()),
		ValidBefore: uint64(now.Add(24 * time.Hour).Unix()),
		IsCA:        true,
	}
	optsA := *window
	optsA.Subject = "CA A"
	caA, err := GenerateX509Certificate(caKeyA, caKeyA, nil, &optsA)
	require.NoError(t, err)

	optsB := *window
	optsB.Subject = "CA B"
	caB, err := GenerateX509Certificate(caKeyB, caKeyB, nil, &optsB)
	require.NoError(t, err)

	// Cross certificates: A certifies B's key and vice versa.
	crossB := *window
	crossB.Subject = "CA B"
	caBByA, err := GenerateX509Certificate(caKeyA, caKeyB, caA, &crossB)
	require.NoError(t, err)
	crossA := *window
	crossA.Subject = "CA A"
	caAByB, err := GenerateX509Certificate(caKeyB, caKeyA, caB, &crossA)
	require.NoError(t, err)

	dir := t.TempDir()
	writeAnchor := func(cert *X509Certificate, slot int) {
		name := cert.SubjectHash() + "." + strconv.Itoa(slot)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name),
			ExportX509CertificatePEM(cert), 0644))
	}
	writeAnchor(caA, 0)
	writeAnchor(caB, 0)
	writeAnchor(caBByA, 1)
	writeAnchor(caAByB, 1)

	leafKey := mustGenerate(t, "ssh-ed25519", nil)
	leafOpts := &X509CertificateOpts{
		Subject:     "leaf",
		ValidAfter:  uint64(now.Add(-time.Hour).Unix()),
		ValidBefore: uint64(now.Add(time.Hour).Unix()),
	}
	leaf, err := GenerateX509Certificate(caKeyA, leafKey, caA, leafOpts)
	require.NoError(t, err)

	chain, err := NewX509CertificateChain([]*X509Certificate{leaf}, nil)
	require.NoError(t, err)
	assert.NoError(t, chain.ValidateChain(&X509TrustOpts{
		TrustedCertPaths: []string{dir},
	}))
}
