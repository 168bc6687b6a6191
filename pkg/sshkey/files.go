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
	"bufio"
	"bytes"
	"os"
	"strings"
)

// ParsePublicKeyList parses a multi-entry public key file in the
// authorized_keys style: one key per line, with blank lines and lines
// starting with '#' skipped.
func ParsePublicKeyList(data []byte) ([]PublicKey, error) {
	var keys []PublicKey
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, err := ParsePublicKey([]byte(line))
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, importError("reading public key list: %v", err)
	}
	return keys, nil
}

// ParseCertificateList parses a multi-entry certificate file: one OpenSSH
// certificate per line, with blank lines and lines starting with '#' skipped.
func ParseCertificateList(data []byte) ([]Certificate, error) {
	var certs []Certificate
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cert, err := ParseCertificate([]byte(line))
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	if err := scanner.Err(); err != nil {
		return nil, importError("reading certificate list: %v", err)
	}
	return certs, nil
}

// ReadPrivateKeyFile reads and parses a private key file, recording the
// filename on the returned key.
func ReadPrivateKeyFile(path string, passphrase []byte) (PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, importError("reading %s: %v", path, err)
	}
	key, err := ParsePrivateKey(data, passphrase)
	if err != nil {
		return nil, err
	}
	if kb, ok := key.(interface{ setFilename(string) }); ok {
		kb.setFilename(path)
	}
	return key, nil
}

// WritePrivateKeyFile serializes a private key in the given format and
// writes it to path with owner-only permissions.
func WritePrivateKeyFile(path string, key PrivateKey, format string, opts *ExportOpts) error {
	out, err := ExportPrivateKey(key, format, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return exportError("writing %s: %v", path, err)
	}
	return nil
}
