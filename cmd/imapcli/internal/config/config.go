// Package config handles imapcli's account configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wireimap/imapkit/imapclient"
)

// DefaultSearchPaths returns the config file search order: an explicit
// path is checked first by FindConfig; this is the fallback order when
// none is given.
func DefaultSearchPaths() []string {
	paths := []string{"imapcli.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "imapcli", "config.yaml"))
	}
	paths = append(paths, "/etc/imapcli/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise DefaultSearchPaths is searched in order and the
// first existing path wins.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds one or more named IMAP account configurations.
type Config struct {
	Accounts map[string]*Account `yaml:"accounts"`
	// Default names the account used when a command's --account flag
	// is omitted.
	Default string `yaml:"default"`
}

// Account is one mailbox account entry, mirroring imapclient.Options'
// shape plus the credential fields a YAML file can hold in the clear
// (suitable for local/dev use; production deployments should prefer
// environment variable expansion, handled below).
type Account struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      *bool  `yaml:"tls"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// XOAUTH2Token, when set, selects XOAUTH2 authentication instead of
	// plain LOGIN.
	XOAUTH2Token string `yaml:"xoauth2_token"`

	CommandTimeoutSeconds int `yaml:"command_timeout_seconds"`
}

// Load reads path, expands environment variables, applies defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	for _, a := range c.Accounts {
		if a.Port == 0 {
			a.Port = 993
		}
		if a.TLS == nil {
			on := a.Port != 143
			a.TLS = &on
		}
	}
}

// Validate checks internal consistency, reporting the first problem
// found.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("imapcli: config defines no accounts")
	}
	if c.Default != "" {
		if _, ok := c.Accounts[c.Default]; !ok {
			return fmt.Errorf("imapcli: default account %q is not defined", c.Default)
		}
	}
	for name, a := range c.Accounts {
		if a.Host == "" {
			return fmt.Errorf("imapcli: account %q: host is required", name)
		}
		if a.Port < 1 || a.Port > 65535 {
			return fmt.Errorf("imapcli: account %q: port %d out of range (1-65535)", name, a.Port)
		}
	}
	return nil
}

// Resolve picks the named account, falling back to Default when name
// is empty, and converts it into imapclient.Options.
func (c *Config) Resolve(name string) (*Account, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" {
		return nil, fmt.Errorf("imapcli: no account named and no default configured")
	}
	a, ok := c.Accounts[name]
	if !ok {
		return nil, fmt.Errorf("imapcli: account %q is not defined", name)
	}
	return a, nil
}

// Options converts an Account into imapclient.Options.
func (a *Account) Options() *imapclient.Options {
	opts := &imapclient.Options{
		Host:     a.Host,
		Port:     a.Port,
		Username: a.Username,
		Password: a.Password,
	}
	if a.TLS != nil {
		opts.TLS = *a.TLS
	}
	if a.CommandTimeoutSeconds > 0 {
		opts.CommandTimeout = time.Duration(a.CommandTimeoutSeconds) * time.Second
	}
	opts.ApplyDefaults()
	return opts
}
