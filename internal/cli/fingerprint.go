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

var fingerprintHash string

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <file>...",
	Short: "Print key or certificate fingerprints",
	Long: `Print the fingerprint of each public key, private key or OpenSSH
certificate file. Encrypted private keys are decrypted with the -N
passphrase when given.

Examples:
  sshkeys fingerprint ~/.ssh/id_ed25519.pub
  sshkeys fingerprint -E md5 id_rsa.pub id_ecdsa-cert.pub`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getConfig()
		hash := fingerprintHash
		if hash == "" {
			hash = config.DefaultHash
		}
		for _, file := range args {
			fp, err := fingerprintFile(file, hash, config)
			if err != nil {
				handleError(fmt.Errorf("%s: %w", file, err))
			}
			fmt.Printf("%s %s\n", fp, file)
		}
	},
}

// fingerprintFile computes the fingerprint of whatever key material the
// file holds, trying certificate, public key and private key in turn.
func fingerprintFile(file, hash string, config *Config) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	if cert, err := sshkey.ParseCertificate(data); err == nil {
		return sshkey.GetCertificateFingerprint(cert, hash)
	}
	if pub, err := sshkey.ParsePublicKey(data); err == nil {
		return sshkey.GetFingerprint(pub, hash)
	}
	priv, err := sshkey.ParsePrivateKey(data, []byte(config.Passphrase))
	if err != nil {
		return "", err
	}
	return sshkey.GetFingerprint(priv, hash)
}

func init() {
	fingerprintCmd.Flags().StringVarP(&fingerprintHash, "hash", "E", "",
		"fingerprint hash (md5, sha1, sha256, sha384, sha512)")
}
