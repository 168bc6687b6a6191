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

var skTestAlgorithms = []string{
	"sk-ecdsa-sha2-nistp256@openssh.com",
	"sk-ssh-ed25519@openssh.com",
}

func TestSKGenerateRequiresAuthenticator(t *testing.T) {
	for _, alg := range skTestAlgorithms {
		_, err := GenerateKey(alg, nil)
		assert.ErrorIs(t, err, ErrKeyGeneration, alg)
	}
}

func TestSKSignVerify(t *testing.T) {
	for _, alg := range skTestAlgorithms {
		t.Run(alg, func(t *testing.T) {
			auth := newSoftAuthenticator()
			key := mustGenerate(t, alg, &GenerateOpts{
				Authenticator: auth,
				Application:   "ssh:test",
				User:          "alice",
			})
			assert.Equal(t, alg, key.Algorithm())
			assert.True(t, key.TouchRequired())
			assert.Nil(t, key.CryptoPrivateKey())

			data := []byte("authenticate me")
			sig, err := Sign(key, data, "")
			require.NoError(t, err)
			assert.NoError(t, Verify(key, data, sig))
			assert.ErrorIs(t, Verify(key, []byte("other"), sig), ErrKeyImport)
		})
	}
}

func TestSKDefaultApplication(t *testing.T) {
	auth := newSoftAuthenticator()
	key := mustGenerate(t, "sk-ssh-ed25519@openssh.com", &GenerateOpts{
		Authenticator: auth,
	})
	pub := key.PublicOnly().(*SKEd25519PublicKey)
	assert.Equal(t, "ssh:", pub.Application())
}

func TestSKCounterAdvances(t *testing.T) {
	auth := newSoftAuthenticator()
	key := mustGenerate(t, "sk-ecdsa-sha2-nistp256@openssh.com", &GenerateOpts{
		Authenticator: auth,
	})

	// Each signature carries a fresh counter but still verifies.
	for i := 0; i < 3; i++ {
		sig, err := Sign(key, []byte("data"), "")
		require.NoError(t, err)
		assert.NoError(t, Verify(key, []byte("data"), sig))
	}
	assert.Equal(t, uint32(3), auth.counter)
}

func TestSKTouchRequiredEnforced(t *testing.T) {
	auth := newSoftAuthenticator()
	key := mustGenerate(t, "sk-ssh-ed25519@openssh.com", &GenerateOpts{
		Authenticator: auth,
	})

	// A signature without the user-presence flag is rejected when the key
	// demands touch.
	auth.dropUserPresence = true
	sig, err := Sign(key, []byte("data"), "")
	require.NoError(t, err)
	assert.ErrorIs(t, Verify(key, []byte("data"), sig), ErrKeyImport)
}

func TestSKTouchNotRequired(t *testing.T) {
	auth := newSoftAuthenticator()
	noTouch := false
	key := mustGenerate(t, "sk-ssh-ed25519@openssh.com", &GenerateOpts{
		Authenticator: auth,
		TouchRequired: &noTouch,
	})
	assert.False(t, key.TouchRequired())

	auth.dropUserPresence = true
	sig, err := Sign(key, []byte("data"), "")
	require.NoError(t, err)
	assert.NoError(t, Verify(key, []byte("data"), sig))
}

func TestSKContainerRoundTrip(t *testing.T) {
	for _, alg := range skTestAlgorithms {
		t.Run(alg, func(t *testing.T) {
			auth := newSoftAuthenticator()
			key := mustGenerate(t, alg, &GenerateOpts{
				Authenticator: auth,
				Comment:       "sk@test",
			})

			out, err := ExportPrivateKey(key, FormatOpenSSH, nil)
			require.NoError(t, err)

			parsed, err := ParsePrivateKey(out, nil)
			require.NoError(t, err)
			assert.Equal(t, key.PublicData(), parsed.PublicData())
			assert.Equal(t, "sk@test", parsed.Comment())

			// A key loaded from disk has no authenticator until one is
			// attached.
			_, err = Sign(parsed, []byte("data"), "")
			assert.ErrorIs(t, err, ErrKeyExport)

			switch k := parsed.(type) {
			case *SKECDSAPrivateKey:
				k.SetAuthenticator(auth)
			case *SKEd25519PrivateKey:
				k.SetAuthenticator(auth)
			default:
				t.Fatalf("unexpected key type %T", parsed)
			}
			sig, err := Sign(parsed, []byte("data"), "")
			require.NoError(t, err)
			assert.NoError(t, Verify(parsed, []byte("data"), sig))
		})
	}
}

func TestSKPKCSExportUnsupported(t *testing.T) {
	auth := newSoftAuthenticator()
	key := mustGenerate(t, "sk-ssh-ed25519@openssh.com", &GenerateOpts{
		Authenticator: auth,
	})

	for _, format := range []string{FormatPKCS1PEM, FormatPKCS8PEM, FormatPKCS8DER} {
		_, err := ExportPrivateKey(key, format, nil)
		assert.ErrorIs(t, err, ErrKeyExport, format)
	}
}

func TestSKCertificate(t *testing.T) {
	auth := newSoftAuthenticator()
	caKey := mustGenerate(t, "ssh-ed25519", nil)
	key := mustGenerate(t, "sk-ecdsa-sha2-nistp256@openssh.com", &GenerateOpts{
		Authenticator: auth,
	})

	cert, err := GenerateCertificate(caKey, key, &CertificateOpts{
		Type:        CertTypeUser,
		KeyID:       "sk-cert",
		Principals:  []string{"alice"},
		ValidAfter:  uint64(time.Now().Add(-time.Minute).Unix()),
		ValidBefore: uint64(time.Now().Add(time.Hour).Unix()),
	})
	require.NoError(t, err)
	assert.Equal(t, "sk-ecdsa-sha2-nistp256-cert-v01@openssh.com", cert.Algorithm())

	out, err := ExportCertificate(cert, FormatOpenSSH)
	require.NoError(t, err)
	parsed, err := ParseCertificate(out)
	require.NoError(t, err)
	assert.NoError(t, parsed.(*OpenSSHCertificate).Validate(CertTypeUser, "alice"))
}
