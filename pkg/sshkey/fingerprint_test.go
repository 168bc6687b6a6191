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
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGetFingerprintDefaultsToSHA256(t *testing.T) {
	key := mustGenerate(t, "ssh-ed25519", nil)

	def, err := GetFingerprint(key, "")
	require.NoError(t, err)
	explicit, err := GetFingerprint(key, "sha256")
	require.NoError(t, err)
	assert.Equal(t, explicit, def)
	assert.True(t, strings.HasPrefix(def, "SHA256:"))
	assert.NotContains(t, def, "=")
}

func TestGetFingerprintMatchesOpenSSH(t *testing.T) {
	key := mustGenerate(t, "ssh-ed25519", nil)
	pub, err := ssh.ParsePublicKey(key.PublicData())
	require.NoError(t, err)

	got, err := GetFingerprint(key, "sha256")
	require.NoError(t, err)
	assert.Equal(t, ssh.FingerprintSHA256(pub), got)

	gotMD5, err := GetFingerprint(key, "md5")
	require.NoError(t, err)
	assert.Equal(t, "MD5:"+ssh.FingerprintLegacyMD5(pub), gotMD5)
}

func TestGetFingerprintMD5Format(t *testing.T) {
	key := mustGenerate(t, "ecdsa-sha2-nistp256", nil)
	fp, err := GetFingerprint(key, "md5")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^MD5:([0-9a-f]{2}:){15}[0-9a-f]{2}$`), fp)
}

func TestGetFingerprintAllHashes(t *testing.T) {
	key := mustGenerate(t, "ssh-ed25519", nil)
	for _, hash := range []string{"md5", "sha1", "sha256", "sha384", "sha512"} {
		fp, err := GetFingerprint(key, hash)
		require.NoError(t, err, hash)
		assert.True(t, strings.HasPrefix(fp, strings.ToUpper(hash)+":"), hash)
	}
}

func TestGetFingerprintUnknownHash(t *testing.T) {
	key := mustGenerate(t, "ssh-ed25519", nil)
	_, err := GetFingerprint(key, "crc32")
	assert.ErrorIs(t, err, ErrKeyExport)
}

func TestGetFingerprintStableAcrossEncodings(t *testing.T) {
	key := mustGenerate(t, "ssh-rsa", &GenerateOpts{KeySize: 1024})

	direct, err := GetFingerprint(key, "sha256")
	require.NoError(t, err)

	line, err := ExportPublicKey(key, FormatOpenSSH)
	require.NoError(t, err)
	parsed, err := ParsePublicKey(line)
	require.NoError(t, err)
	viaText, err := GetFingerprint(parsed, "sha256")
	require.NoError(t, err)

	assert.Equal(t, direct, viaText)
}
