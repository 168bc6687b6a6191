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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublicKeyList(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("# authorized keys\n\n")
	var want []string
	for _, alg := range []string{"ssh-ed25519", "ecdsa-sha2-nistp256"} {
		key := mustGenerate(t, alg, nil)
		line, err := ExportPublicKey(key, FormatOpenSSH)
		require.NoError(t, err)
		buf.Write(line)
		want = append(want, alg)
	}

	keys, err := ParsePublicKeyList(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, keys, len(want))
	for i, alg := range want {
		assert.Equal(t, alg, keys[i].Algorithm())
	}
}

func TestParsePublicKeyListBadEntry(t *testing.T) {
	_, err := ParsePublicKeyList([]byte("ssh-ed25519 not-base64 comment\n"))
	assert.ErrorIs(t, err, ErrKeyImport)
}

func TestParseCertificateList(t *testing.T) {
	caKey := mustGenerate(t, "ssh-ed25519", nil)
	var buf bytes.Buffer
	buf.WriteString("# trusted certificates\n")
	for i := 0; i < 2; i++ {
		key := mustGenerate(t, "ssh-ed25519", nil)
		cert := testUserCert(t, caKey, key, nil)
		line, err := ExportCertificate(cert, FormatOpenSSH)
		require.NoError(t, err)
		buf.Write(line)
	}

	certs, err := ParseCertificateList(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, certs, 2)
	for _, cert := range certs {
		assert.Equal(t, "ssh-ed25519-cert-v01@openssh.com", cert.Algorithm())
	}
}

func TestReadWritePrivateKeyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id_ed25519")
	key := mustGenerate(t, "ssh-ed25519", nil)

	require.NoError(t, WritePrivateKeyFile(path, key, FormatOpenSSH, nil))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := ReadPrivateKeyFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, key.PublicData(), loaded.PublicData())
	assert.Equal(t, path, loaded.Filename())
}

func TestReadPrivateKeyFileMissing(t *testing.T) {
	_, err := ReadPrivateKeyFile(filepath.Join(t.TempDir(), "absent"), nil)
	assert.ErrorIs(t, err, ErrKeyImport)
}
