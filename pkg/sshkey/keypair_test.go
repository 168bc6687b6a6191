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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyPairBareKey(t *testing.T) {
	key := mustGenerate(t, "ssh-ed25519", &GenerateOpts{Comment: "bare"})
	pair, err := NewKeyPair(key, nil)
	require.NoError(t, err)

	assert.Equal(t, "ssh-ed25519", pair.Algorithm())
	assert.Equal(t, key.PublicData(), pair.PublicData())
	assert.Equal(t, "ssh-ed25519", pair.SignatureAlgorithm())
	assert.Equal(t, "bare", pair.Comment())
	assert.False(t, pair.HasX509Chain())
	assert.Nil(t, pair.Certificate())

	sig, err := pair.Sign([]byte("data"))
	require.NoError(t, err)
	assert.NoError(t, Verify(key, []byte("data"), sig))
}

func TestNewKeyPairWithCertificate(t *testing.T) {
	caKey := mustGenerate(t, "ssh-ed25519", nil)
	key := mustGenerate(t, "ssh-ed25519", nil)
	cert := testUserCert(t, caKey, key, nil)

	pair, err := NewKeyPair(key, cert)
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519-cert-v01@openssh.com", pair.Algorithm())
	assert.Equal(t, cert.PublicData(), pair.PublicData())
	assert.Equal(t, "ssh-ed25519", pair.SignatureAlgorithm())
}

func TestNewKeyPairMismatch(t *testing.T) {
	caKey := mustGenerate(t, "ssh-ed25519", nil)
	key := mustGenerate(t, "ssh-ed25519", nil)
	otherKey := mustGenerate(t, "ssh-ed25519", nil)
	cert := testUserCert(t, caKey, key, nil)

	_, err := NewKeyPair(otherKey, cert)
	assert.ErrorIs(t, err, ErrKeyPairMismatch)
	assert.NotErrorIs(t, err, ErrKeyImport)
}

func TestKeyPairCommentPrefersCertificate(t *testing.T) {
	caKey := mustGenerate(t, "ssh-ed25519", nil)
	key := mustGenerate(t, "ssh-ed25519", &GenerateOpts{Comment: "key comment"})
	cert := testUserCert(t, caKey, key, nil)

	pair, err := NewKeyPair(key, cert)
	require.NoError(t, err)
	assert.Equal(t, "key comment", pair.Comment())

	cert.SetComment("cert comment")
	assert.Equal(t, "cert comment", pair.Comment())
}

func TestKeyPairSetSignatureAlgorithm(t *testing.T) {
	key := mustGenerate(t, "ssh-rsa", &GenerateOpts{KeySize: 1024})
	pair, err := NewKeyPair(key, nil)
	require.NoError(t, err)
	assert.Equal(t, "rsa-sha2-256", pair.SignatureAlgorithm())

	require.NoError(t, pair.SetSignatureAlgorithm("rsa-sha2-512"))
	assert.Equal(t, "rsa-sha2-512", pair.SignatureAlgorithm())

	sig, err := pair.Sign([]byte("data"))
	require.NoError(t, err)
	alg, err := decodeSignatureAlg(sig)
	require.NoError(t, err)
	assert.Equal(t, "rsa-sha2-512", alg)

	assert.ErrorIs(t, pair.SetSignatureAlgorithm("ssh-ed25519"), ErrKeyExport)
}

func TestKeyPairWithX509Chain(t *testing.T) {
	caKey := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	key := mustGenerate(t, "ssh-rsa", &GenerateOpts{KeySize: 1024})
	now := time.Now()
	ca, leaf := testX509CA(t, caKey, key, &X509CertificateOpts{
		Subject:     "pair-leaf",
		ValidAfter:  uint64(now.Add(-time.Hour).Unix()),
		ValidBefore: uint64(now.Add(time.Hour).Unix()),
	})
	chain, err := NewX509CertificateChain([]*X509Certificate{leaf, ca}, nil)
	require.NoError(t, err)

	pair, err := NewKeyPair(key, chain)
	require.NoError(t, err)
	assert.True(t, pair.HasX509Chain())
	assert.Equal(t, "x509v3-ssh-rsa", pair.Algorithm())
	assert.Equal(t, "x509v3-rsa-sha2-256", pair.SignatureAlgorithm())

	// Switching the negotiated algorithm rewrites the chain's leading
	// identifier.
	require.NoError(t, pair.SetSignatureAlgorithm("x509v3-rsa-sha2-512"))
	alg, err := decodeSignatureAlg(pair.PublicData())
	require.NoError(t, err)
	assert.Equal(t, "x509v3-rsa-sha2-512", alg)

	sig, err := pair.Sign([]byte("data"))
	require.NoError(t, err)
	assert.NoError(t, Verify(key, []byte("data"), sig))
}
