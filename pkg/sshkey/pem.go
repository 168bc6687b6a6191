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
	"crypto/cipher"
	"crypto/des" //nolint:staticcheck // PBES1 interoperability
	"crypto/md5" //nolint:gosec // PBES1 interoperability
	"crypto/sha1"
	"crypto/x509"
	"encoding/asn1"
	"encoding/base64"
	"encoding/pem"
	"hash"
	"strings"

	youmark "github.com/youmark/pkcs8"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshbuf"
)

// Private and public key serialization formats.
const (
	FormatOpenSSH  = "openssh"
	FormatPKCS1DER = "pkcs1-der"
	FormatPKCS1PEM = "pkcs1-pem"
	FormatPKCS8DER = "pkcs8-der"
	FormatPKCS8PEM = "pkcs8-pem"
	FormatRFC4716  = "rfc4716"
)

// Shared ASN.1 shapes used across the PKCS codecs.
type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue `asn1:"optional"`
}

type pkcs8PrivateKeyInfo struct {
	Version    int
	Algorithm  algorithmIdentifier
	PrivateKey []byte
}

type subjectPublicKeyInfo struct {
	Algorithm algorithmIdentifier
	PublicKey asn1.BitString
}

type encryptedPrivateKeyInfo struct {
	Algorithm     algorithmIdentifier
	EncryptedData []byte
}

// pbeParameter is the PBES1 parameter shape (RFC 8018, appendix A.3).
type pbeParameter struct {
	Salt       []byte
	Iterations int
}

// PBES1 and PBES2 encryption scheme identifiers.
var (
	oidPBEWithMD5AndDES  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 3}
	oidPBEWithSHA1AndDES = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 10}
	oidPBES2             = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}
)

// ExportOpts controls private-key export.
type ExportOpts struct {
	// Passphrase encrypts the exported key when non-empty. DER formats
	// other than PKCS#8 cannot carry encryption.
	Passphrase []byte

	// Cipher selects the encryption cipher. Defaults to aes256-ctr for the
	// OpenSSH format and aes256-cbc for PEM formats.
	Cipher string

	// Rounds is the bcrypt KDF work factor for the OpenSSH format.
	Rounds int
}

// ParsePrivateKey parses a private key in any supported format: OpenSSH
// container (armored or binary), PKCS#8 (plain or encrypted, PEM or DER) and
// PKCS#1-style PEM or DER, including legacy Proc-Type encrypted PEM.
// Format detection is automatic. Encrypted inputs without a usable
// passphrase fail with ErrKeyEncryption; all decode failures report
// ErrKeyImport.
func ParsePrivateKey(data, passphrase []byte) (PrivateKey, error) {
	if block, _ := pem.Decode(data); block != nil {
		return parsePrivatePEMBlock(block, passphrase)
	}
	if bytes.HasPrefix(data, []byte(opensshKeyMagic)) {
		return decodeOpenSSHContainer(data, passphrase)
	}
	var info pkcs8PrivateKeyInfo
	if rest, err := asn1.Unmarshal(data, &info); err == nil && len(rest) == 0 {
		return decodePKCS8PrivateDER(data)
	}
	var enc encryptedPrivateKeyInfo
	if rest, err := asn1.Unmarshal(data, &enc); err == nil && len(rest) == 0 {
		return decodeEncryptedPKCS8(data, &enc, passphrase)
	}
	if key, ok := decodePKCS1PrivateDER(data); ok {
		return key, nil
	}
	return nil, importError("unrecognized private key format")
}

func parsePrivatePEMBlock(block *pem.Block, passphrase []byte) (PrivateKey, error) {
	switch block.Type {
	case "OPENSSH PRIVATE KEY":
		return decodeOpenSSHContainer(block.Bytes, passphrase)

	case "PRIVATE KEY":
		return decodePKCS8PrivateDER(block.Bytes)

	case "ENCRYPTED PRIVATE KEY":
		var enc encryptedPrivateKeyInfo
		rest, err := asn1.Unmarshal(block.Bytes, &enc)
		if err != nil || len(rest) != 0 {
			return nil, importError("malformed encrypted PKCS#8 key")
		}
		return decodeEncryptedPKCS8(block.Bytes, &enc, passphrase)
	}

	name, ok := strings.CutSuffix(block.Type, " PRIVATE KEY")
	if !ok {
		return nil, importError("unrecognized PEM type %q", block.Type)
	}
	alg, ok := lookupPEMAlgorithm(name)
	if !ok {
		return nil, importError("unknown key algorithm %q", name)
	}
	der := block.Bytes
	if x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck // legacy PEM interoperability
		if len(passphrase) == 0 {
			return nil, encryptionError("private key is encrypted: passphrase required")
		}
		plain, err := x509.DecryptPEMBlock(block, passphrase) //nolint:staticcheck
		if err != nil {
			return nil, encryptionError("incorrect passphrase")
		}
		der = plain
	}
	key, ok := alg.decodePKCS1Private(der)
	if !ok {
		return nil, importError("malformed %s private key", name)
	}
	return key, nil
}

// decodePKCS8PrivateDER dispatches a plaintext PKCS#8 PrivateKeyInfo to the
// handler registered for its algorithm OID.
func decodePKCS8PrivateDER(der []byte) (PrivateKey, error) {
	var info pkcs8PrivateKeyInfo
	if rest, err := asn1.Unmarshal(der, &info); err != nil || len(rest) != 0 {
		return nil, importError("malformed PKCS#8 private key")
	}
	alg, ok := lookupPKCS8Algorithm(info.Algorithm.Algorithm)
	if !ok {
		return nil, importError("unknown PKCS#8 algorithm %v", info.Algorithm.Algorithm)
	}
	key, ok := alg.decodePKCS8Private(der)
	if !ok {
		return nil, importError("malformed PKCS#8 %s private key", alg.id())
	}
	return key, nil
}

// decodeEncryptedPKCS8 decrypts an EncryptedPrivateKeyInfo and decodes the
// plaintext. PBES1 schemes are handled directly; PBES2 is delegated to the
// pkcs8 library, which covers the modern cipher and KDF combinations.
func decodeEncryptedPKCS8(der []byte, enc *encryptedPrivateKeyInfo, passphrase []byte) (PrivateKey, error) {
	if len(passphrase) == 0 {
		return nil, encryptionError("private key is encrypted: passphrase required")
	}
	scheme := enc.Algorithm.Algorithm
	switch {
	case scheme.Equal(oidPBEWithMD5AndDES):
		return decryptPBES1(enc, passphrase, md5.New)
	case scheme.Equal(oidPBEWithSHA1AndDES):
		return decryptPBES1(enc, passphrase, sha1.New)
	case scheme.Equal(oidPBES2):
		key, err := youmark.ParsePKCS8PrivateKey(der, passphrase)
		if err != nil {
			return nil, encryptionError("PKCS#8 decryption failed: %v", err)
		}
		return fromCryptoPrivateKey(key)
	default:
		return nil, encryptionError("unsupported PKCS#8 encryption scheme %v", scheme)
	}
}

// decryptPBES1 implements the PBES1 decryption operation: PBKDF1 over the
// passphrase, then DES-CBC.
func decryptPBES1(enc *encryptedPrivateKeyInfo, passphrase []byte, newHash func() hash.Hash) (PrivateKey, error) {
	var params pbeParameter
	if rest, err := asn1.Unmarshal(enc.Algorithm.Parameters.FullBytes, &params); err != nil || len(rest) != 0 {
		return nil, importError("malformed PBES1 parameters")
	}
	// PBKDF1: iterated hash of passphrase and salt, split into key and IV.
	d := newHash()
	d.Write(passphrase)
	d.Write(params.Salt)
	derived := d.Sum(nil)
	for i := 1; i < params.Iterations; i++ {
		d.Reset()
		d.Write(derived)
		derived = d.Sum(nil)
	}
	if len(derived) < 16 {
		return nil, importError("PBES1 hash output too short")
	}
	block, err := des.NewCipher(derived[:8]) //nolint:gosec // PBES1 interoperability
	if err != nil {
		return nil, importError("PBES1 cipher setup failed: %v", err)
	}
	if len(enc.EncryptedData) == 0 || len(enc.EncryptedData)%block.BlockSize() != 0 {
		return nil, importError("PBES1 payload is not block aligned")
	}
	plain := make([]byte, len(enc.EncryptedData))
	cipher.NewCBCDecrypter(block, derived[8:16]).CryptBlocks(plain, enc.EncryptedData)

	pad := int(plain[len(plain)-1])
	if pad == 0 || pad > block.BlockSize() || pad > len(plain) {
		return nil, encryptionError("incorrect passphrase")
	}
	for _, b := range plain[len(plain)-pad:] {
		if int(b) != pad {
			return nil, encryptionError("incorrect passphrase")
		}
	}
	key, err := decodePKCS8PrivateDER(plain[:len(plain)-pad])
	if err != nil {
		return nil, encryptionError("incorrect passphrase")
	}
	return key, nil
}

// decodePKCS1PrivateDER tries each family's PKCS#1-style private encoding in
// registration order.
func decodePKCS1PrivateDER(der []byte) (PrivateKey, bool) {
	for _, name := range pemKeyOrder {
		if key, ok := pemKeyAlgorithms[name].decodePKCS1Private(der); ok {
			return key, true
		}
	}
	return nil, false
}

// decodePKCS1PublicDER tries each family's PKCS#1-style public encoding in
// registration order.
func decodePKCS1PublicDER(der []byte) (PublicKey, bool) {
	for _, name := range pemKeyOrder {
		if key, ok := pemKeyAlgorithms[name].decodePKCS1Public(der); ok {
			return key, true
		}
	}
	return nil, false
}

// ParsePublicKey parses a public key in any supported format: the OpenSSH
// one-line text form, RFC 4716, SubjectPublicKeyInfo and PKCS#1-style PEM or
// DER, and the raw SSH wire blob.
func ParsePublicKey(data []byte) (PublicKey, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte(rfc4716Begin)) {
		return parseRFC4716PublicKey(trimmed)
	}
	if block, _ := pem.Decode(data); block != nil {
		return parsePublicPEMBlock(block)
	}
	if blob, comment, err := parsePublicKeyLine(trimmed); err == nil {
		key, err := decodeSSHPublicBlob(blob)
		if err != nil {
			return nil, err
		}
		key.SetComment(comment)
		return key, nil
	}
	if key, err := decodeSSHPublicBlob(data); err == nil {
		return key, nil
	}
	var spki subjectPublicKeyInfo
	if rest, err := asn1.Unmarshal(data, &spki); err == nil && len(rest) == 0 {
		return decodePKCS8PublicDER(data, &spki)
	}
	if key, ok := decodePKCS1PublicDER(data); ok {
		return key, nil
	}
	return nil, importError("unrecognized public key format")
}

func parsePublicPEMBlock(block *pem.Block) (PublicKey, error) {
	if block.Type == "PUBLIC KEY" {
		var spki subjectPublicKeyInfo
		if rest, err := asn1.Unmarshal(block.Bytes, &spki); err != nil || len(rest) != 0 {
			return nil, importError("malformed public key")
		}
		return decodePKCS8PublicDER(block.Bytes, &spki)
	}
	name, ok := strings.CutSuffix(block.Type, " PUBLIC KEY")
	if !ok {
		return nil, importError("unrecognized PEM type %q", block.Type)
	}
	alg, ok := lookupPEMAlgorithm(name)
	if !ok {
		return nil, importError("unknown key algorithm %q", name)
	}
	key, ok := alg.decodePKCS1Public(block.Bytes)
	if !ok {
		return nil, importError("malformed %s public key", name)
	}
	return key, nil
}

// decodePKCS8PublicDER dispatches a SubjectPublicKeyInfo to the handler
// registered for its algorithm OID.
func decodePKCS8PublicDER(der []byte, spki *subjectPublicKeyInfo) (PublicKey, error) {
	alg, ok := lookupPKCS8Algorithm(spki.Algorithm.Algorithm)
	if !ok {
		return nil, importError("unknown public key algorithm %v", spki.Algorithm.Algorithm)
	}
	key, ok := alg.decodePKCS8Public(der)
	if !ok {
		return nil, importError("malformed %s public key", alg.id())
	}
	return key, nil
}

// parsePublicKeyLine splits an OpenSSH one-line public key into its Base64
// blob and trailing comment. The algorithm named in the first field must
// match the one inside the blob.
func parsePublicKeyLine(line []byte) (blob []byte, comment string, err error) {
	fields := strings.Fields(string(line))
	if len(fields) < 2 {
		return nil, "", importError("malformed public key line")
	}
	blob, err = base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return nil, "", importError("invalid public key encoding: %v", err)
	}
	r := sshbuf.NewReader(blob)
	alg, err := r.String()
	if err != nil || string(alg) != fields[0] {
		return nil, "", importError("public key algorithm mismatch")
	}
	return blob, strings.Join(fields[2:], " "), nil
}

// decodeSSHPublicBlob decodes an SSH public key wire blob: the algorithm
// identifier followed by the algorithm-specific fields.
func decodeSSHPublicBlob(blob []byte) (PublicKey, error) {
	r := sshbuf.NewReader(blob)
	algName, err := r.String()
	if err != nil {
		return nil, importError("malformed public key blob: %v", err)
	}
	alg, ok := lookupKeyAlgorithm(string(algName))
	if !ok {
		if _, isCert := lookupCertAlgorithm(string(algName)); isCert {
			return nil, importError("found certificate %q where a plain key was expected", algName)
		}
		return nil, importError("unknown key algorithm %q", algName)
	}
	key, err := alg.decodeSSHPublic(r)
	if err != nil {
		return nil, err
	}
	if err := r.CheckEOF(); err != nil {
		return nil, importError("trailing bytes after public key")
	}
	return key, nil
}

// ExportPrivateKey serializes a private key in the given format. The OpenSSH
// and PEM formats accept a passphrase; DER formats other than PKCS#8 cannot
// carry encryption and reject one.
func ExportPrivateKey(key PrivateKey, format string, opts *ExportOpts) ([]byte, error) {
	if opts == nil {
		opts = &ExportOpts{}
	}
	switch format {
	case FormatOpenSSH:
		body, err := encodeOpenSSHContainer(key, opts.Passphrase, opts.Cipher, opts.Rounds)
		if err != nil {
			return nil, err
		}
		return armorOpenSSH(body), nil

	case FormatPKCS1DER:
		if len(opts.Passphrase) > 0 {
			return nil, exportError("PKCS#1 DER cannot be encrypted")
		}
		return key.pkcs1Private()

	case FormatPKCS1PEM:
		der, err := key.pkcs1Private()
		if err != nil {
			return nil, err
		}
		name := pemTypeForKey(key)
		if name == "" {
			return nil, exportError("no PEM encoding for %s keys", key.Algorithm())
		}
		block := &pem.Block{Type: name + " PRIVATE KEY", Bytes: der}
		if len(opts.Passphrase) > 0 {
			alg, err := legacyPEMCipher(opts.Cipher)
			if err != nil {
				return nil, err
			}
			block, err = x509.EncryptPEMBlock(defaultRand(), block.Type, //nolint:staticcheck
				der, opts.Passphrase, alg)
			if err != nil {
				return nil, encryptionError("PEM encryption failed: %v", err)
			}
		}
		return pem.EncodeToMemory(block), nil

	case FormatPKCS8DER:
		return exportPKCS8(key, opts.Passphrase)

	case FormatPKCS8PEM:
		der, err := exportPKCS8(key, opts.Passphrase)
		if err != nil {
			return nil, err
		}
		name := "PRIVATE KEY"
		if len(opts.Passphrase) > 0 {
			name = "ENCRYPTED PRIVATE KEY"
		}
		return pem.EncodeToMemory(&pem.Block{Type: name, Bytes: der}), nil

	default:
		return nil, exportError("unknown private key format %q", format)
	}
}

func exportPKCS8(key PrivateKey, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return key.pkcs8Private()
	}
	priv := key.CryptoPrivateKey()
	if priv == nil {
		return nil, exportError("encrypted PKCS#8 export not supported for %s keys", key.Algorithm())
	}
	der, err := youmark.MarshalPrivateKey(priv, passphrase, nil)
	if err != nil {
		return nil, encryptionError("PKCS#8 encryption failed: %v", err)
	}
	return der, nil
}

// ExportPublicKey serializes a public key in the given format.
func ExportPublicKey(key PublicKey, format string) ([]byte, error) {
	switch format {
	case FormatOpenSSH:
		line := key.Algorithm() + " " +
			base64.StdEncoding.EncodeToString(key.PublicData())
		if c := key.Comment(); c != "" {
			line += " " + c
		}
		return []byte(line + "\n"), nil

	case FormatRFC4716:
		return encodeRFC4716PublicKey(key), nil

	case FormatPKCS1DER:
		return key.pkcs1Public()

	case FormatPKCS1PEM:
		der, err := key.pkcs1Public()
		if err != nil {
			return nil, err
		}
		name := pemTypeForKey(key)
		if name == "" {
			return nil, exportError("no PEM encoding for %s keys", key.Algorithm())
		}
		return pem.EncodeToMemory(&pem.Block{Type: name + " PUBLIC KEY", Bytes: der}), nil

	case FormatPKCS8DER:
		return key.pkcs8Public()

	case FormatPKCS8PEM:
		der, err := key.pkcs8Public()
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil

	default:
		return nil, exportError("unknown public key format %q", format)
	}
}

// pemTypeForKey returns the PKCS#1-style PEM type name for a key's family,
// or "" when the family has none.
func pemTypeForKey(key PublicKey) string {
	alg, ok := lookupKeyAlgorithm(key.Algorithm())
	if !ok {
		return ""
	}
	return alg.pemName()
}

// legacyPEMCipher maps a cipher name to the legacy PEM encryption algorithm.
func legacyPEMCipher(name string) (x509.PEMCipher, error) {
	switch name {
	case "", "aes256-cbc":
		return x509.PEMCipherAES256, nil
	case "aes192-cbc":
		return x509.PEMCipherAES192, nil
	case "aes128-cbc":
		return x509.PEMCipherAES128, nil
	case "des-ede3-cbc", "3des-cbc":
		return x509.PEMCipher3DES, nil
	case "des-cbc":
		return x509.PEMCipherDES, nil
	default:
		return 0, encryptionError("unsupported PEM cipher %q", name)
	}
}

// armorOpenSSH wraps a binary container in the OpenSSH PEM-style armor,
// using the 70-column Base64 lines ssh-keygen produces.
func armorOpenSSH(body []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(body)
	var buf bytes.Buffer
	buf.WriteString(opensshKeyBegin)
	buf.WriteByte('\n')
	for len(encoded) > 0 {
		n := min(len(encoded), opensshArmorWidth)
		buf.WriteString(encoded[:n])
		buf.WriteByte('\n')
		encoded = encoded[n:]
	}
	buf.WriteString(opensshKeyEnd)
	buf.WriteByte('\n')
	return buf.Bytes()
}
