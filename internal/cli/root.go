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

	"github.com/jeremyhahn/go-sshkeys/pkg/logging"
)

var (
	// Global configuration
	globalConfig *Config
	logger       *logging.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sshkeys",
	Short: "go-sshkeys CLI - SSH key and certificate tool",
	Long: `go-sshkeys CLI generates, inspects, converts and certifies SSH
asymmetric keys and certificates.

Supported key formats:
  - openssh:    OpenSSH private key container / one-line public keys
  - pkcs1-pem:  PKCS#1-style PEM (RSA, DSA, EC)
  - pkcs8-pem:  PKCS#8 PEM, plain or encrypted
  - pkcs1-der / pkcs8-der: raw DER variants
  - rfc4716:    SSH2 public key text`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		globalConfig.Load()
		logger = logging.NewLogger(globalConfig.Verbose)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	globalConfig = NewConfig()

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&globalConfig.ConfigFile, "config", "",
		"config file (default is $HOME/.sshkeys.yaml)")
	rootCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat, "output", "o", "text",
		"output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&globalConfig.Verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().StringVarP(&globalConfig.Passphrase, "passphrase", "N", "",
		"private key passphrase (prompts when a key is encrypted and this is unset)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(certifyCmd)
	rootCmd.AddCommand(showCmd)
}

// getConfig returns the global configuration
func getConfig() *Config {
	return globalConfig
}

// handleError prints an error and exits with code 1
func handleError(err error) {
	printer := NewPrinter(globalConfig.OutputFormat, os.Stderr)
	_ = printer.PrintError(err)
	os.Exit(1)
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if globalConfig.Verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
