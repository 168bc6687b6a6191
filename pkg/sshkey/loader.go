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
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"

	"github.com/jeremyhahn/go-sshkeys/pkg/logging"
)

// PassphraseFunc resolves a passphrase on demand, typically by prompting.
type PassphraseFunc func() ([]byte, error)

// LoadOpts controls bulk key-pair loading.
type LoadOpts struct {
	// Passphrase decrypts encrypted keys. Accepted shapes: nil, string,
	// []byte, PassphraseFunc, or a receive channel of []byte. Functions
	// and channels are resolved once, before any entry is loaded; a
	// channel receive blocks until a concurrently produced passphrase is
	// available.
	Passphrase any

	// SkipPublic skips entries that turn out to hold only public key
	// material instead of failing the whole load.
	SkipPublic bool

	// IgnoreEncrypted skips entries whose failure is passphrase-shaped
	// (missing or wrong passphrase) instead of failing the whole load.
	IgnoreEncrypted bool
}

// KeyWithCerts pairs a key source with an explicit certificate source in a
// LoadKeyPairs entry list. Either side may be a filename, raw bytes, or an
// already-built value.
type KeyWithCerts struct {
	Key   any
	Certs any
}

// resolvePassphrase reduces the accepted passphrase shapes to bytes.
func resolvePassphrase(p any) ([]byte, error) {
	switch v := p.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case PassphraseFunc:
		return v()
	case func() ([]byte, error):
		return v()
	case <-chan []byte:
		return <-v, nil
	case chan []byte:
		return <-v, nil
	default:
		return nil, importError("unsupported passphrase type %T", p)
	}
}

// LoadKeyPairs loads a heterogeneous list of signing identities. Each entry
// may be a PrivateKey, a *KeyPair, a filename, raw bytes, or a KeyWithCerts
// pairing a key source with certificates. A key whose file carries an
// appended X.509 chain yields exactly one pair presenting the chain; a key
// with an OpenSSH certificate (from a sibling -cert.pub file or an explicit
// pairing) yields two pairs, one with the certificate and one without, so
// both authentication flavors can be attempted without reloading.
func LoadKeyPairs(entries []any, opts *LoadOpts) ([]*KeyPair, error) {
	if opts == nil {
		opts = &LoadOpts{}
	}
	passphrase, err := resolvePassphrase(opts.Passphrase)
	if err != nil {
		return nil, err
	}

	var pairs []*KeyPair
	for _, entry := range entries {
		loaded, err := loadKeyPairEntry(entry, passphrase)
		if err != nil {
			if opts.IgnoreEncrypted && errors.Is(err, ErrKeyEncryption) {
				continue
			}
			if opts.SkipPublic && isPublicOnlyEntry(entry) {
				continue
			}
			return nil, err
		}
		pairs = append(pairs, loaded...)
	}
	return pairs, nil
}

func loadKeyPairEntry(entry any, passphrase []byte) ([]*KeyPair, error) {
	switch v := entry.(type) {
	case *KeyPair:
		return []*KeyPair{v}, nil

	case PrivateKey:
		pair, err := NewKeyPair(v, nil)
		if err != nil {
			return nil, err
		}
		return []*KeyPair{pair}, nil

	case KeyWithCerts:
		key, chain, err := loadPrivateKeySource(v.Key, passphrase)
		if err != nil {
			return nil, err
		}
		cert := chain
		if v.Certs != nil {
			if cert, err = loadCertificateSource(v.Certs); err != nil {
				return nil, err
			}
		}
		return pairWithCert(key, cert)

	case string:
		key, chain, err := loadPrivateKeySource(v, passphrase)
		if err != nil {
			return nil, err
		}
		cert := chain
		if cert == nil {
			if data, err := os.ReadFile(v + "-cert.pub"); err == nil {
				if cert, err = ParseCertificate(data); err != nil {
					return nil, err
				}
			}
		}
		return pairWithCert(key, cert)

	case []byte:
		key, chain, err := parsePrivateKeyWithChain(v, passphrase)
		if err != nil {
			return nil, err
		}
		return pairWithCert(key, chain)

	default:
		return nil, importError("unsupported key pair entry type %T", entry)
	}
}

// pairWithCert expands a key and optional certificate into the pairs the
// caller can authenticate with. X.509 chains replace the bare key entirely;
// OpenSSH certificates are usable both with and without the certificate.
func pairWithCert(key PrivateKey, cert Certificate) ([]*KeyPair, error) {
	if cert == nil {
		pair, err := NewKeyPair(key, nil)
		if err != nil {
			return nil, err
		}
		return []*KeyPair{pair}, nil
	}
	certified, err := NewKeyPair(key, cert)
	if err != nil {
		return nil, err
	}
	if _, isChain := cert.(*X509CertificateChain); isChain {
		return []*KeyPair{certified}, nil
	}
	plain, err := NewKeyPair(key, nil)
	if err != nil {
		return nil, err
	}
	return []*KeyPair{certified, plain}, nil
}

// loadPrivateKeySource loads a private key from a filename, raw bytes or an
// already-built key, along with any X.509 chain appended to the same file.
func loadPrivateKeySource(src any, passphrase []byte) (PrivateKey, Certificate, error) {
	switch v := src.(type) {
	case PrivateKey:
		return v, nil, nil
	case string:
		data, err := os.ReadFile(v)
		if err != nil {
			return nil, nil, importError("reading %s: %v", v, err)
		}
		key, chain, err := parsePrivateKeyWithChain(data, passphrase)
		if err != nil {
			return nil, nil, err
		}
		if kb, ok := key.(interface{ setFilename(string) }); ok {
			kb.setFilename(v)
		}
		return key, chain, nil
	case []byte:
		return parsePrivateKeyWithChain(v, passphrase)
	default:
		return nil, nil, importError("unsupported private key source type %T", src)
	}
}

// loadCertificateSource loads a certificate from a filename, raw bytes or an
// already-built certificate.
func loadCertificateSource(src any) (Certificate, error) {
	switch v := src.(type) {
	case Certificate:
		return v, nil
	case string:
		data, err := os.ReadFile(v)
		if err != nil {
			return nil, importError("reading %s: %v", v, err)
		}
		return ParseCertificate(data)
	case []byte:
		return ParseCertificate(v)
	default:
		return nil, importError("unsupported certificate source type %T", src)
	}
}

// parsePrivateKeyWithChain parses a private key and, when the data carries
// trailing PEM CERTIFICATE blocks, the appended X.509 chain.
func parsePrivateKeyWithChain(data, passphrase []byte) (PrivateKey, Certificate, error) {
	key, err := ParsePrivateKey(data, passphrase)
	if err != nil {
		return nil, nil, err
	}

	var certs []*X509Certificate
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := ParseX509Certificate(pem.EncodeToMemory(block))
		if err != nil {
			return nil, nil, err
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return key, nil, nil
	}
	chain, err := NewX509CertificateChain(certs, nil)
	if err != nil {
		return nil, nil, err
	}
	return key, chain, nil
}

// isPublicOnlyEntry reports whether a failed entry holds only public key
// material, for SkipPublic handling.
func isPublicOnlyEntry(entry any) bool {
	var data []byte
	switch v := entry.(type) {
	case string:
		b, err := os.ReadFile(v)
		if err != nil {
			return false
		}
		data = b
	case []byte:
		data = v
	case KeyWithCerts:
		return isPublicOnlyEntry(v.Key)
	default:
		return false
	}
	if _, err := ParsePublicKey(data); err == nil {
		return true
	}
	_, err := ParseCertificate(data)
	return err == nil
}

// defaultKeyFiles are the identity files probed under ~/.ssh, in preference
// order.
var defaultKeyFiles = []string{
	"id_ed25519_sk",
	"id_ecdsa_sk",
	"id_ed25519",
	"id_ecdsa",
	"id_rsa",
	"id_dsa",
}

// LoadDefaultKeyPairs loads the conventional identity files from the user's
// ~/.ssh directory. Missing files are skipped; encrypted keys that the
// passphrase cannot open are skipped rather than failing the whole load.
func LoadDefaultKeyPairs(passphrase any) ([]*KeyPair, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, importError("home directory lookup failed: %v", err)
	}
	logger := logging.DefaultLogger()
	var entries []any
	for _, name := range defaultKeyFiles {
		path := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(path); err != nil {
			logger.Debugf("skipping identity file %s: %v", path, err)
			continue
		}
		logger.Debugf("probing identity file %s", path)
		entries = append(entries, path)
	}
	return LoadKeyPairs(entries, &LoadOpts{
		Passphrase:      passphrase,
		IgnoreEncrypted: true,
	})
}
