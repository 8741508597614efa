package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfigExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("default: work\naccounts:\n  work:\n    host: imap.example.com\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfigExplicitMissing(t *testing.T) {
	if _, err := FindConfig("/nonexistent/imapcli.yaml"); err == nil {
		t.Fatal("FindConfig with a missing explicit path should error")
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("accounts:\n  work:\n    host: imap.example.com\n    password: ${IMAPCLI_TEST_PASSWORD}\n"), 0600)
	os.Setenv("IMAPCLI_TEST_PASSWORD", "s3cret")
	defer os.Unsetenv("IMAPCLI_TEST_PASSWORD")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Accounts["work"].Password != "s3cret" {
		t.Errorf("password = %q, want s3cret", cfg.Accounts["work"].Password)
	}
}

func TestApplyDefaultsPortAndTLS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("accounts:\n  work:\n    host: imap.example.com\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a := cfg.Accounts["work"]
	if a.Port != 993 {
		t.Errorf("Port = %d, want 993", a.Port)
	}
	if a.TLS == nil || !*a.TLS {
		t.Errorf("TLS = %v, want true", a.TLS)
	}
}

func TestApplyDefaultsPlaintextPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("accounts:\n  work:\n    host: imap.example.com\n    port: 143\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a := cfg.Accounts["work"]
	if a.TLS == nil || *a.TLS {
		t.Errorf("TLS = %v, want false on the plaintext convention port", a.TLS)
	}
}

func TestValidateRejectsNoAccounts(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a config with no accounts")
	}
}

func TestValidateRejectsUnknownDefault(t *testing.T) {
	cfg := &Config{
		Default:  "missing",
		Accounts: map[string]*Account{"work": {Host: "imap.example.com", Port: 993}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a default account that isn't defined")
	}
}

func TestValidateRejectsMissingHost(t *testing.T) {
	cfg := &Config{Accounts: map[string]*Account{"work": {Port: 993}}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an account with no host")
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	cfg := &Config{
		Default:  "work",
		Accounts: map[string]*Account{"work": {Host: "imap.example.com", Port: 993}},
	}
	a, err := cfg.Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.Host != "imap.example.com" {
		t.Errorf("Host = %q, want imap.example.com", a.Host)
	}
}

func TestResolveRejectsUnknownAccount(t *testing.T) {
	cfg := &Config{Accounts: map[string]*Account{"work": {Host: "imap.example.com", Port: 993}}}
	if _, err := cfg.Resolve("personal"); err == nil {
		t.Fatal("expected an error for an undefined account name")
	}
}

func TestAccountOptionsCarriesFields(t *testing.T) {
	on := true
	a := &Account{Host: "imap.example.com", Port: 993, TLS: &on, Username: "alice", Password: "s3cret"}
	opts := a.Options()
	if opts.Host != "imap.example.com" || opts.Port != 993 || !opts.TLS {
		t.Errorf("Options() = %+v", opts)
	}
	if opts.Username != "alice" || opts.Password != "s3cret" {
		t.Errorf("Options() credentials = %q/%q", opts.Username, opts.Password)
	}
}
