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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-sshkeys/internal/password"
	"github.com/jeremyhahn/go-sshkeys/pkg/sshkey"
)

var (
	convertFormat  string
	convertOutFile string
	convertPublic  bool
	convertCipher  string
	convertNewPass string
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a key between formats",
	Long: `Read a key in any supported format and write it in the requested
format. Private keys are converted to private formats unless --public
is given, which exports only the public half.

Examples:
  sshkeys convert --format pkcs8-pem id_ed25519
  sshkeys convert --format rfc4716 --public id_rsa
  sshkeys convert --format openssh --new-passphrase secret old_key.pem`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getConfig()
		data, err := os.ReadFile(args[0])
		if err != nil {
			handleError(err)
		}

		out, err := convertKey(data, config)
		if err != nil {
			handleError(fmt.Errorf("%s: %w", args[0], err))
		}

		if convertOutFile == "" {
			os.Stdout.Write(out)
			return
		}
		mode := os.FileMode(0600)
		if convertPublic {
			mode = 0644
		}
		if err := os.WriteFile(convertOutFile, out, mode); err != nil {
			handleError(err)
		}
	},
}

func convertKey(data []byte, config *Config) ([]byte, error) {
	if convertPublic {
		key, err := parseAnyPublic(data, config)
		if err != nil {
			return nil, err
		}
		return sshkey.ExportPublicKey(key, convertFormat)
	}

	key, err := parseWithPrompt(data, config)
	if err != nil {
		return nil, err
	}
	opts := &sshkey.ExportOpts{Cipher: convertCipher}
	if convertNewPass != "" {
		opts.Passphrase = []byte(convertNewPass)
	}
	return sshkey.ExportPrivateKey(key, convertFormat, opts)
}

// parseAnyPublic accepts either a public or a private key and returns the
// public half.
func parseAnyPublic(data []byte, config *Config) (sshkey.PublicKey, error) {
	if pub, err := sshkey.ParsePublicKey(data); err == nil {
		return pub, nil
	}
	priv, err := parseWithPrompt(data, config)
	if err != nil {
		return nil, err
	}
	return priv.PublicOnly(), nil
}

// parseWithPrompt parses a private key, prompting for a passphrase when the
// key is encrypted and -N was not given.
func parseWithPrompt(data []byte, config *Config) (sshkey.PrivateKey, error) {
	key, err := sshkey.ParsePrivateKey(data, []byte(config.Passphrase))
	if err == nil || config.Passphrase != "" || !errors.Is(err, sshkey.ErrKeyEncryption) {
		return key, err
	}
	secret, perr := password.Prompt("Enter passphrase")
	if perr != nil {
		return nil, perr
	}
	return sshkey.ParsePrivateKey(data, secret)
}

func init() {
	convertCmd.Flags().StringVar(&convertFormat, "format", sshkey.FormatOpenSSH,
		"output format (openssh, pkcs1-pem, pkcs8-pem, pkcs1-der, pkcs8-der, rfc4716)")
	convertCmd.Flags().StringVarP(&convertOutFile, "out", "O", "",
		"output file (default stdout)")
	convertCmd.Flags().BoolVar(&convertPublic, "public", false,
		"export only the public key")
	convertCmd.Flags().StringVar(&convertCipher, "cipher", "",
		"encryption cipher for the output key")
	convertCmd.Flags().StringVar(&convertNewPass, "new-passphrase", "",
		"encrypt the output key with this passphrase")
}
