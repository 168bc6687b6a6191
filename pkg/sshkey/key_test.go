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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAlgorithms covers every software key algorithm. RSA and DSA use the
// smallest permitted sizes to keep generation fast.
var testAlgorithms = []struct {
	name string
	alg  string
	opts GenerateOpts
}{
	{name: "ed25519", alg: "ssh-ed25519"},
	{name: "ed448", alg: "ssh-ed448"},
	{name: "ecdsa-p256", alg: "ecdsa-sha2-nistp256"},
	{name: "ecdsa-p384", alg: "ecdsa-sha2-nistp384"},
	{name: "ecdsa-p521", alg: "ecdsa-sha2-nistp521"},
	{name: "rsa", alg: "ssh-rsa", opts: GenerateOpts{KeySize: 1024}},
	{name: "dsa", alg: "ssh-dss", opts: GenerateOpts{KeySize: 1024}},
}

func TestGenerateKey(t *testing.T) {
	for _, tt := range testAlgorithms {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Comment = "test@example.com"
			key, err := GenerateKey(tt.alg, &opts)
			require.NoError(t, err)
			assert.Equal(t, tt.alg, key.Algorithm())
			assert.Equal(t, "test@example.com", key.Comment())
			assert.NotEmpty(t, key.PublicData())
			assert.NotEmpty(t, key.SigAlgorithms())
		})
	}
}

func TestGenerateKeyUnknownAlgorithm(t *testing.T) {
	_, err := GenerateKey("ssh-unknown", nil)
	assert.ErrorIs(t, err, ErrKeyGeneration)
}

func TestGenerateRSAInvalidParameters(t *testing.T) {
	_, err := GenerateKey("ssh-rsa", &GenerateOpts{KeySize: 512})
	assert.ErrorIs(t, err, ErrKeyGeneration)

	_, err = GenerateKey("ssh-rsa", &GenerateOpts{KeySize: 1024, Exponent: 3})
	assert.ErrorIs(t, err, ErrKeyGeneration)
}

func TestSignVerify(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	for _, tt := range testAlgorithms {
		t.Run(tt.name, func(t *testing.T) {
			key, err := GenerateKey(tt.alg, &tt.opts)
			require.NoError(t, err)

			for _, sigAlg := range key.SigAlgorithms() {
				sig, err := Sign(key, data, sigAlg)
				require.NoError(t, err)
				assert.NoError(t, Verify(key, data, sig))
				assert.ErrorIs(t, Verify(key, []byte("tampered"), sig), ErrKeyImport)
			}
		})
	}
}

func TestSignDefaultsToPreferredAlgorithm(t *testing.T) {
	key, err := GenerateKey("ssh-rsa", &GenerateOpts{KeySize: 1024})
	require.NoError(t, err)

	sig, err := Sign(key, []byte("data"), "")
	require.NoError(t, err)

	r, err := decodeSignatureAlg(sig)
	require.NoError(t, err)
	assert.Equal(t, key.SigAlgorithms()[0], r)
	assert.Equal(t, "rsa-sha2-256", r)
}

func TestSignUnsupportedAlgorithm(t *testing.T) {
	key, err := GenerateKey("ssh-ed25519", nil)
	require.NoError(t, err)

	_, err = Sign(key, []byte("data"), "rsa-sha2-256")
	assert.ErrorIs(t, err, ErrKeyExport)
}

func TestVerifyRejectsTrailingBytes(t *testing.T) {
	key, err := GenerateKey("ssh-ed25519", nil)
	require.NoError(t, err)

	sig, err := Sign(key, []byte("data"), "")
	require.NoError(t, err)

	assert.ErrorIs(t, Verify(key, []byte("data"), append(sig, 0)), ErrKeyImport)
}

func TestVerifyRejectsForeignAlgorithm(t *testing.T) {
	edKey, err := GenerateKey("ssh-ed25519", nil)
	require.NoError(t, err)
	rsaKey, err := GenerateKey("ssh-rsa", &GenerateOpts{KeySize: 1024})
	require.NoError(t, err)

	sig, err := Sign(rsaKey, []byte("data"), "")
	require.NoError(t, err)

	assert.ErrorIs(t, Verify(edKey, []byte("data"), sig), ErrKeyImport)
}

func TestX509PrefixedSignatureAlgorithm(t *testing.T) {
	key, err := GenerateKey("ssh-ed25519", nil)
	require.NoError(t, err)

	// x509v3- prefixed names reuse the base algorithm on the wire.
	sig, err := Sign(key, []byte("data"), "x509v3-ssh-ed25519")
	require.NoError(t, err)
	assert.NoError(t, Verify(key, []byte("data"), sig))

	alg, err := decodeSignatureAlg(sig)
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519", alg)
}

func TestPublicOnly(t *testing.T) {
	for _, tt := range testAlgorithms {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Comment = "copied"
			key, err := GenerateKey(tt.alg, &opts)
			require.NoError(t, err)

			pub := key.PublicOnly()
			assert.Equal(t, key.PublicData(), pub.PublicData())
			assert.Equal(t, "copied", pub.Comment())
			_, isPrivate := pub.(PrivateKey)
			assert.False(t, isPrivate)
		})
	}
}

func TestRegistryListings(t *testing.T) {
	all := KeyAlgorithms()
	assert.Contains(t, all, "ssh-ed25519")
	assert.Contains(t, all, "ssh-ed448")
	assert.Contains(t, all, "ssh-rsa")
	assert.Contains(t, all, "ssh-dss")
	assert.Contains(t, all, "ecdsa-sha2-nistp256")
	assert.Contains(t, all, "sk-ssh-ed25519@openssh.com")

	defaults := DefaultKeyAlgorithms()
	assert.Contains(t, defaults, "ssh-ed25519")
	assert.NotContains(t, defaults, "ssh-dss")
	assert.NotContains(t, defaults, "ssh-ed448")

	sigs := SignatureAlgorithms()
	assert.Contains(t, sigs, "rsa-sha2-512")
	assert.Contains(t, sigs, "rsa-sha2-256")
	assert.Contains(t, sigs, "ssh-rsa")

	certs := CertificateAlgorithms()
	assert.Contains(t, certs, "ssh-ed25519-cert-v01@openssh.com")
	assert.Contains(t, certs, "ssh-rsa-cert-v01@openssh.com")
	assert.Contains(t, certs, "x509v3-ssh-rsa")
}

func TestCertificateSigAlgorithm(t *testing.T) {
	sigAlg, ok := CertificateSigAlgorithm("rsa-sha2-512-cert-v01@openssh.com")
	require.True(t, ok)
	assert.Equal(t, "rsa-sha2-512", sigAlg)

	_, ok = CertificateSigAlgorithm("bogus-cert-v01@openssh.com")
	assert.False(t, ok)
}
