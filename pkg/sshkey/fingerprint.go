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
	"crypto/md5"  //nolint:gosec // fingerprint display compatibility
	"crypto/sha1" //nolint:gosec // fingerprint display compatibility
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"strings"
)

// fingerprintHashes maps hash names to constructors. The md5 rendering is
// special-cased below.
var fingerprintHashes = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// GetFingerprint renders a key fingerprint over the key's public wire
// encoding. md5 renders as colon-separated hex byte pairs; the SHA family
// renders as Base64 with trailing padding stripped. The hash name defaults
// to sha256 and always prefixes the output in upper case, e.g.
// "SHA256:...".
func GetFingerprint(key PublicKey, hashName string) (string, error) {
	return fingerprintBytes(key.PublicData(), hashName)
}

// GetCertificateFingerprint renders a fingerprint over a certificate's wire
// encoding.
func GetCertificateFingerprint(cert Certificate, hashName string) (string, error) {
	return fingerprintBytes(cert.PublicData(), hashName)
}

func fingerprintBytes(publicData []byte, hashName string) (string, error) {
	if hashName == "" {
		hashName = "sha256"
	}
	newHash, ok := fingerprintHashes[hashName]
	if !ok {
		return "", exportError("unknown fingerprint hash %q", hashName)
	}
	d := newHash()
	d.Write(publicData)
	digest := d.Sum(nil)

	prefix := strings.ToUpper(hashName) + ":"
	if hashName == "md5" {
		pairs := make([]string, len(digest))
		for i, b := range digest {
			pairs[i] = hex.EncodeToString([]byte{b})
		}
		return prefix + strings.Join(pairs, ":"), nil
	}
	return prefix + strings.TrimRight(
		base64.StdEncoding.EncodeToString(digest), "="), nil
}
