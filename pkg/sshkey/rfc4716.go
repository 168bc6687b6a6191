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
	"encoding/base64"
	"strings"
)

// RFC 4716 public key framing.
const (
	rfc4716Begin = "---- BEGIN SSH2 PUBLIC KEY ----"
	rfc4716End   = "---- END SSH2 PUBLIC KEY ----"

	// rfc4716LineWidth keeps body lines within the 72-character limit.
	rfc4716LineWidth = 64
)

// parseRFC4716PublicKey parses the RFC 4716 text form: begin and end
// markers around optional headers (with backslash continuation) and a
// Base64 body. A Comment header is carried onto the key, with surrounding
// quotes stripped.
func parseRFC4716PublicKey(data []byte) (PublicKey, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != rfc4716Begin {
		return nil, importError("missing RFC 4716 begin marker")
	}
	lines = lines[1:]

	var comment string
	var body strings.Builder
	inHeaders := true
	ended := false

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if line == rfc4716End {
			ended = true
			break
		}
		if inHeaders {
			if name, value, ok := strings.Cut(line, ": "); ok {
				for strings.HasSuffix(value, "\\") && i+1 < len(lines) {
					i++
					value = strings.TrimSuffix(value, "\\") +
						strings.TrimRight(lines[i], "\r")
				}
				if strings.EqualFold(name, "Comment") {
					comment = strings.Trim(value, `"`)
				}
				continue
			}
			inHeaders = false
		}
		body.WriteString(line)
	}
	if !ended {
		return nil, importError("missing RFC 4716 end marker")
	}

	blob, err := base64.StdEncoding.DecodeString(body.String())
	if err != nil {
		return nil, importError("invalid RFC 4716 encoding: %v", err)
	}
	key, err := decodeSSHPublicBlob(blob)
	if err != nil {
		return nil, err
	}
	key.SetComment(comment)
	return key, nil
}

// encodeRFC4716PublicKey serializes a public key in the RFC 4716 text form.
func encodeRFC4716PublicKey(key PublicKey) []byte {
	return encodeRFC4716Blob(key.PublicData(), key.Comment())
}

// encodeRFC4716Blob wraps an SSH wire blob in RFC 4716 framing.
func encodeRFC4716Blob(blob []byte, comment string) []byte {
	var buf bytes.Buffer
	buf.WriteString(rfc4716Begin)
	buf.WriteByte('\n')
	if comment != "" {
		buf.WriteString("Comment: \"" + comment + "\"\n")
	}
	encoded := base64.StdEncoding.EncodeToString(blob)
	for len(encoded) > 0 {
		n := min(len(encoded), rfc4716LineWidth)
		buf.WriteString(encoded[:n])
		buf.WriteByte('\n')
		encoded = encoded[n:]
	}
	buf.WriteString(rfc4716End)
	buf.WriteByte('\n')
	return buf.Bytes()
}
