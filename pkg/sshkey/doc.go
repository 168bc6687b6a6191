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

// Package sshkey parses, generates, validates and encodes SSH asymmetric
// keys and certificates.
//
// Supported key algorithms: ssh-ed25519, ssh-ed448, ecdsa-sha2-nistp256/
// 384/521, ssh-rsa (with rsa-sha2-256 and rsa-sha2-512 signatures),
// ssh-dss, and the sk-ecdsa-sha2-nistp256@openssh.com and
// sk-ssh-ed25519@openssh.com security-key algorithms. Private keys move in
// and out of the OpenSSH container format (plain or passphrase-encrypted
// with the bcrypt KDF), PKCS#1-style PEM/DER and PKCS#8 PEM/DER (plain,
// PBES1- or PBES2-encrypted). Public keys move in and out of one-line
// OpenSSH text, RFC 4716 text, PKCS#1 DER and SubjectPublicKeyInfo DER.
//
// Certificates come in two forms: OpenSSH version-01 certificates
// (GenerateCertificate, ParseCertificate, OpenSSHCertificate.Validate) and
// X.509 certificate chains carried over the x509v3- SSH algorithms
// (GenerateX509Certificate, X509CertificateChain, ValidateChain).
//
// KeyPair binds a private key to an optional certificate for use as an SSH
// client or host identity; LoadKeyPairs assembles pairs from heterogeneous
// sources (files, raw bytes, parsed keys) with flexible passphrase
// handling.
package sshkey
