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

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-sshkeys/internal/password"
	"github.com/jeremyhahn/go-sshkeys/pkg/sshkey"
)

var (
	generateAlgorithm string
	generateBits      int
	generateComment   string
	generateFile      string
	generateFormat    string
	generateCipher    string
	generateRounds    int
	generateNoPass    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new private key",
	Long: `Generate a new private key and write it together with its one-line
public key. The private key is written to the file given with -f (the
public key to the same path with a .pub suffix), or to stdout when -f
is not given.

Examples:
  sshkeys generate -t ssh-ed25519 -f id_ed25519
  sshkeys generate -t ssh-rsa -b 4096 -C deploy@example.com -f id_rsa
  sshkeys generate -t ecdsa-sha2-nistp384 --format pkcs8-pem`,
	Run: func(cmd *cobra.Command, args []string) {
		config := getConfig()

		algorithm := generateAlgorithm
		if algorithm == "" {
			algorithm = config.DefaultAlgorithm
		}
		bits := generateBits
		if bits == 0 && strings.HasPrefix(algorithm, "ssh-rsa") {
			bits = config.DefaultBits
		}

		printVerbose("generating %s key", algorithm)
		key, err := sshkey.GenerateKey(algorithm, &sshkey.GenerateOpts{
			KeySize: bits,
			Comment: generateComment,
		})
		if err != nil {
			handleError(err)
		}

		passphrase, err := resolveNewPassphrase(config)
		if err != nil {
			handleError(err)
		}

		privPEM, err := sshkey.ExportPrivateKey(key, generateFormat, &sshkey.ExportOpts{
			Passphrase: passphrase,
			Cipher:     generateCipher,
			Rounds:     generateRounds,
		})
		if err != nil {
			handleError(err)
		}
		pubLine, err := sshkey.ExportPublicKey(key, sshkey.FormatOpenSSH)
		if err != nil {
			handleError(err)
		}

		if generateFile == "" {
			os.Stdout.Write(privPEM)
			os.Stdout.Write(pubLine)
			return
		}
		if err := os.WriteFile(generateFile, privPEM, 0600); err != nil {
			handleError(fmt.Errorf("writing private key: %w", err))
		}
		if err := os.WriteFile(generateFile+".pub", pubLine, 0644); err != nil {
			handleError(fmt.Errorf("writing public key: %w", err))
		}

		printer := NewPrinter(config.OutputFormat, os.Stdout)
		if err := printer.PrintKeyInfo(key, config.DefaultHash); err != nil {
			handleError(err)
		}
	},
}

// resolveNewPassphrase picks the passphrase for a newly generated key: the
// -N flag when set, an interactive double prompt when writing to a file,
// or none when --no-passphrase is given or output goes to stdout.
func resolveNewPassphrase(config *Config) ([]byte, error) {
	if generateNoPass {
		return nil, nil
	}
	if config.Passphrase != "" {
		return []byte(config.Passphrase), nil
	}
	if generateFile == "" {
		return nil, nil
	}
	return password.PromptNew("Enter passphrase (empty for no passphrase)")
}

func init() {
	generateCmd.Flags().StringVarP(&generateAlgorithm, "type", "t", "",
		"key algorithm (ssh-ed25519, ssh-ed448, ssh-rsa, ecdsa-sha2-nistp256/384/521, ssh-dss)")
	generateCmd.Flags().IntVarP(&generateBits, "bits", "b", 0,
		"key size in bits (RSA and DSA only)")
	generateCmd.Flags().StringVarP(&generateComment, "comment", "C", "",
		"key comment")
	generateCmd.Flags().StringVarP(&generateFile, "file", "f", "",
		"output file for the private key (public key goes to <file>.pub)")
	generateCmd.Flags().StringVar(&generateFormat, "format", sshkey.FormatOpenSSH,
		"private key format (openssh, pkcs1-pem, pkcs8-pem, pkcs1-der, pkcs8-der)")
	generateCmd.Flags().StringVar(&generateCipher, "cipher", "",
		"encryption cipher for the private key")
	generateCmd.Flags().IntVar(&generateRounds, "rounds", 0,
		"bcrypt KDF rounds for the openssh format")
	generateCmd.Flags().BoolVar(&generateNoPass, "no-passphrase", false,
		"write the private key unencrypted without prompting")
}
