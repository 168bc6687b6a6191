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

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshkey"
)

// Output format constants
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Printer handles formatted output
type Printer struct {
	format string
	writer io.Writer
}

// NewPrinter creates a new printer with the specified format
func NewPrinter(format string, w io.Writer) *Printer {
	return &Printer{
		format: format,
		writer: w,
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]string{"error": err.Error()})
	default:
		_, werr := fmt.Fprintf(p.writer, "Error: %v\n", err)
		return werr
	}
}

// PrintMessage prints a plain message
func (p *Printer) PrintMessage(msg string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]string{"message": msg})
	default:
		_, err := fmt.Fprintln(p.writer, msg)
		return err
	}
}

// keyInfo is the serializable summary of a public or private key
type keyInfo struct {
	Algorithm   string `json:"algorithm"`
	Fingerprint string `json:"fingerprint"`
	Comment     string `json:"comment,omitempty"`
}

// PrintKeyInfo prints a key summary: algorithm, fingerprint and comment
func (p *Printer) PrintKeyInfo(key sshkey.PublicKey, hash string) error {
	fp, err := sshkey.GetFingerprint(key, hash)
	if err != nil {
		return err
	}
	info := keyInfo{
		Algorithm:   key.Algorithm(),
		Fingerprint: fp,
		Comment:     key.Comment(),
	}
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(info)
	default:
		fmt.Fprintf(p.writer, "Algorithm:   %s\n", info.Algorithm)
		fmt.Fprintf(p.writer, "Fingerprint: %s\n", info.Fingerprint)
		if info.Comment != "" {
			fmt.Fprintf(p.writer, "Comment:     %s\n", info.Comment)
		}
		return nil
	}
}

// certInfo is the serializable summary of an OpenSSH certificate
type certInfo struct {
	Algorithm   string   `json:"algorithm"`
	Type        string   `json:"type"`
	Serial      uint64   `json:"serial"`
	KeyID       string   `json:"key_id"`
	Principals  []string `json:"principals,omitempty"`
	ValidAfter  string   `json:"valid_after"`
	ValidBefore string   `json:"valid_before"`
	Fingerprint string   `json:"fingerprint"`
}

// PrintCertInfo prints an OpenSSH certificate summary
func (p *Printer) PrintCertInfo(cert *sshkey.OpenSSHCertificate, hash string) error {
	fp, err := sshkey.GetCertificateFingerprint(cert, hash)
	if err != nil {
		return err
	}
	info := certInfo{
		Algorithm:   cert.Algorithm(),
		Type:        cert.Type.String(),
		Serial:      cert.Serial,
		KeyID:       cert.KeyID,
		Principals:  cert.Principals,
		ValidAfter:  formatCertTime(cert.ValidAfter),
		ValidBefore: formatCertTime(cert.ValidBefore),
		Fingerprint: fp,
	}
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(info)
	default:
		fmt.Fprintf(p.writer, "Algorithm:    %s\n", info.Algorithm)
		fmt.Fprintf(p.writer, "Type:         %s\n", info.Type)
		fmt.Fprintf(p.writer, "Serial:       %d\n", info.Serial)
		fmt.Fprintf(p.writer, "Key ID:       %s\n", info.KeyID)
		if len(info.Principals) > 0 {
			fmt.Fprintf(p.writer, "Principals:\n")
			for _, principal := range info.Principals {
				fmt.Fprintf(p.writer, "  %s\n", principal)
			}
		}
		fmt.Fprintf(p.writer, "Valid after:  %s\n", info.ValidAfter)
		fmt.Fprintf(p.writer, "Valid before: %s\n", info.ValidBefore)
		fmt.Fprintf(p.writer, "Fingerprint:  %s\n", info.Fingerprint)
		return nil
	}
}

// formatCertTime renders a certificate validity bound, mapping the
// unbounded sentinel values to human-readable markers.
func formatCertTime(v uint64) string {
	switch v {
	case 0:
		return "always"
	case ^uint64(0):
		return "forever"
	default:
		return time.Unix(int64(v), 0).UTC().Format(time.RFC3339)
	}
}

// printJSON marshals data to indented JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
