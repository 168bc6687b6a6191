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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRFC4716RoundTrip(t *testing.T) {
	key := mustGenerate(t, "ssh-rsa", &GenerateOpts{
		KeySize: 1024,
		Comment: "1024-bit RSA, converted from OpenSSH",
	})

	out, err := ExportPublicKey(key, FormatRFC4716)
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasPrefix(text, "---- BEGIN SSH2 PUBLIC KEY ----\n"))
	assert.True(t, strings.HasSuffix(text, "---- END SSH2 PUBLIC KEY ----\n"))
	assert.Contains(t, text, `Comment: "1024-bit RSA, converted from OpenSSH"`)

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		assert.LessOrEqual(t, len(line), 72)
	}

	parsed, err := ParsePublicKey(out)
	require.NoError(t, err)
	assert.Equal(t, key.PublicData(), parsed.PublicData())
	assert.Equal(t, key.Comment(), parsed.Comment())
}

func TestRFC4716HeaderContinuation(t *testing.T) {
	key := mustGenerate(t, "ssh-ed25519", nil)
	encoded := base64.StdEncoding.EncodeToString(key.PublicData())

	text := "---- BEGIN SSH2 PUBLIC KEY ----\n" +
		"Comment: \"split over \\\n" +
		"two lines\"\n" +
		"Subject: tester\n" +
		encoded + "\n" +
		"---- END SSH2 PUBLIC KEY ----\n"

	parsed, err := ParsePublicKey([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, key.PublicData(), parsed.PublicData())
	assert.Equal(t, "split over two lines", parsed.Comment())
}

func TestRFC4716CRLFInput(t *testing.T) {
	key := mustGenerate(t, "ssh-ed25519", nil)
	out, err := ExportPublicKey(key, FormatRFC4716)
	require.NoError(t, err)

	crlf := strings.ReplaceAll(string(out), "\n", "\r\n")
	parsed, err := ParsePublicKey([]byte(crlf))
	require.NoError(t, err)
	assert.Equal(t, key.PublicData(), parsed.PublicData())
}

func TestRFC4716MissingEndMarker(t *testing.T) {
	key := mustGenerate(t, "ssh-ed25519", nil)
	out, err := ExportPublicKey(key, FormatRFC4716)
	require.NoError(t, err)

	truncated := strings.TrimSuffix(string(out), "---- END SSH2 PUBLIC KEY ----\n")
	_, err = ParsePublicKey([]byte(truncated))
	assert.ErrorIs(t, err, ErrKeyImport)
}
