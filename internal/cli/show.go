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

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-sshkeys/pkg/sshkey"
)

var showCmd = &cobra.Command{
	Use:   "show <file>...",
	Short: "Show key or certificate details",
	Long: `Show the details of each key or certificate file: algorithm,
fingerprint and comment for keys; type, serial, key ID, principals and
validity window for OpenSSH certificates.

Examples:
  sshkeys show ~/.ssh/id_ed25519.pub
  sshkeys show -o json id_rsa-cert.pub`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getConfig()
		printer := NewPrinter(config.OutputFormat, os.Stdout)
		for _, file := range args {
			if err := showFile(printer, file, config); err != nil {
				handleError(fmt.Errorf("%s: %w", file, err))
			}
		}
	},
}

func showFile(printer *Printer, file string, config *Config) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if cert, err := sshkey.ParseCertificate(data); err == nil {
		if openssh, ok := cert.(*sshkey.OpenSSHCertificate); ok {
			return printer.PrintCertInfo(openssh, config.DefaultHash)
		}
		fp, err := sshkey.GetCertificateFingerprint(cert, config.DefaultHash)
		if err != nil {
			return err
		}
		return printer.PrintMessage(fmt.Sprintf("%s %s", cert.Algorithm(), fp))
	}
	if pub, err := sshkey.ParsePublicKey(data); err == nil {
		return printer.PrintKeyInfo(pub, config.DefaultHash)
	}
	priv, err := sshkey.ParsePrivateKey(data, []byte(config.Passphrase))
	if err != nil {
		return err
	}
	return printer.PrintKeyInfo(priv, config.DefaultHash)
}
