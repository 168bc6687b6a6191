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
	"github.com/spf13/viper"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// OutputFormat controls output formatting (text, json)
	OutputFormat string

	// Verbose enables verbose logging
	Verbose bool

	// Passphrase decrypts or encrypts private keys when set. When empty,
	// commands prompt interactively as needed.
	Passphrase string

	// DefaultAlgorithm is the key algorithm used when -t is not given
	DefaultAlgorithm string

	// DefaultBits is the RSA modulus size used when -b is not given
	DefaultBits int

	// DefaultHash is the fingerprint hash used when -E is not given
	DefaultHash string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat:     "text",
		DefaultAlgorithm: "ssh-ed25519",
		DefaultBits:      3072,
		DefaultHash:      "sha256",
	}
}

// Load merges the configuration file and SSHKEYS_* environment variables
// over the built-in defaults. A missing config file is not an error.
func (c *Config) Load() {
	v := viper.New()
	v.SetDefault("algorithm", c.DefaultAlgorithm)
	v.SetDefault("bits", c.DefaultBits)
	v.SetDefault("hash", c.DefaultHash)

	if c.ConfigFile != "" {
		v.SetConfigFile(c.ConfigFile)
	} else {
		v.SetConfigName(".sshkeys")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("SSHKEYS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err == nil {
		printVerbose("using config file %s", v.ConfigFileUsed())
	}

	c.DefaultAlgorithm = v.GetString("algorithm")
	c.DefaultBits = v.GetInt("bits")
	c.DefaultHash = v.GetString("hash")
	if c.Passphrase == "" {
		c.Passphrase = v.GetString("passphrase")
	}
}
