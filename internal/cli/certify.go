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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshkey"
)

var (
	certifyCAFile      string
	certifyKeyID       string
	certifyPrincipals  []string
	certifySerial      uint64
	certifyHost        bool
	certifyValidAfter  string
	certifyValidBefore string
	certifyOptions     []string
	certifyExtensions  []string
	certifySigAlg      string
	certifyOutFile     string
)

var certifyCmd = &cobra.Command{
	Use:   "certify <public-key-file>",
	Short: "Sign a public key, producing an OpenSSH certificate",
	Long: `Sign a public key with a CA private key, producing an OpenSSH
version-01 certificate. The certificate is written next to the key as
<file>-cert.pub unless --out is given.

Validity bounds accept "now", Unix timestamps, YYYYMMDD dates,
YYYYMMDDHHMMSS timestamps and relative intervals such as +52w or
-1d12h. When omitted, the certificate is valid at any time.

Examples:
  sshkeys certify --ca ca_key -n alice --valid-before +52w id_ed25519.pub
  sshkeys certify --ca ca_key --host -n host.example.com id_rsa.pub
  sshkeys certify --ca ca_key -n alice --option force-command=/usr/bin/true id_ecdsa.pub`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getConfig()

		caData, err := os.ReadFile(certifyCAFile)
		if err != nil {
			handleError(err)
		}
		caKey, err := parseWithPrompt(caData, config)
		if err != nil {
			handleError(fmt.Errorf("%s: %w", certifyCAFile, err))
		}
		keyData, err := os.ReadFile(args[0])
		if err != nil {
			handleError(err)
		}
		key, err := sshkey.ParsePublicKey(keyData)
		if err != nil {
			handleError(fmt.Errorf("%s: %w", args[0], err))
		}

		opts, err := buildCertificateOpts()
		if err != nil {
			handleError(err)
		}
		cert, err := sshkey.GenerateCertificate(caKey, key, opts)
		if err != nil {
			handleError(err)
		}

		out, err := sshkey.ExportCertificate(cert, sshkey.FormatOpenSSH)
		if err != nil {
			handleError(err)
		}
		outFile := certifyOutFile
		if outFile == "" {
			outFile = strings.TrimSuffix(args[0], ".pub") + "-cert.pub"
		}
		if err := os.WriteFile(outFile, out, 0644); err != nil {
			handleError(err)
		}

		printer := NewPrinter(config.OutputFormat, os.Stdout)
		if err := printer.PrintCertInfo(cert, config.DefaultHash); err != nil {
			handleError(err)
		}
	},
}

func buildCertificateOpts() (*sshkey.CertificateOpts, error) {
	now := time.Now()
	validAfter := uint64(0)
	validBefore := ^uint64(0)
	var err error
	if certifyValidAfter != "" {
		if validAfter, err = sshkey.ParseTimeValue(certifyValidAfter, now); err != nil {
			return nil, err
		}
	}
	if certifyValidBefore != "" {
		if validBefore, err = sshkey.ParseTimeValue(certifyValidBefore, now); err != nil {
			return nil, err
		}
	}

	certType := sshkey.CertTypeUser
	if certifyHost {
		certType = sshkey.CertTypeHost
	}
	keyID := certifyKeyID
	if keyID == "" {
		keyID = uuid.NewString()
	}

	options, err := parseCertValues(certifyOptions)
	if err != nil {
		return nil, err
	}
	extensions, err := parseCertValues(certifyExtensions)
	if err != nil {
		return nil, err
	}

	return &sshkey.CertificateOpts{
		Serial:      certifySerial,
		Type:        certType,
		KeyID:       keyID,
		Principals:  certifyPrincipals,
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Options:     options,
		Extensions:  extensions,
		SigAlg:      certifySigAlg,
	}, nil
}

// parseCertValues converts repeated name or name=value flags into the
// option map. Bare names become boolean flags; source-address values are
// split on commas into a network list.
func parseCertValues(entries []string) (map[string]any, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := map[string]any{}
	for _, entry := range entries {
		name, value, found := strings.Cut(entry, "=")
		if name == "" {
			return nil, fmt.Errorf("invalid certificate option %q", entry)
		}
		switch {
		case !found:
			out[name] = true
		case name == "source-address":
			out[name] = strings.Split(value, ",")
		default:
			out[name] = value
		}
	}
	return out, nil
}

func init() {
	certifyCmd.Flags().StringVar(&certifyCAFile, "ca", "",
		"CA private key file (required)")
	_ = certifyCmd.MarkFlagRequired("ca")
	certifyCmd.Flags().StringVarP(&certifyKeyID, "key-id", "I", "",
		"certificate key identifier (default: random UUID)")
	certifyCmd.Flags().StringSliceVarP(&certifyPrincipals, "principal", "n", nil,
		"principal names the certificate is valid for")
	certifyCmd.Flags().Uint64VarP(&certifySerial, "serial", "z", 0,
		"certificate serial number")
	certifyCmd.Flags().BoolVar(&certifyHost, "host", false,
		"generate a host certificate instead of a user certificate")
	certifyCmd.Flags().StringVar(&certifyValidAfter, "valid-after", "",
		"start of the validity window")
	certifyCmd.Flags().StringVar(&certifyValidBefore, "valid-before", "",
		"end of the validity window")
	certifyCmd.Flags().StringArrayVarP(&certifyOptions, "option", "X", nil,
		"critical option (name or name=value, repeatable)")
	certifyCmd.Flags().StringArrayVar(&certifyExtensions, "extension", nil,
		"extension (name or name=value, repeatable)")
	certifyCmd.Flags().StringVar(&certifySigAlg, "sig-alg", "",
		"CA signature algorithm (default: the CA key's preferred algorithm)")
	certifyCmd.Flags().StringVarP(&certifyOutFile, "out", "O", "",
		"output file (default: <key-file>-cert.pub)")
}
