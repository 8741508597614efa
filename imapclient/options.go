// Package imapclient implements the IMAP protocol engine: connection
// lifecycle, command dispatch, IDLE, and BODYSTRUCTURE walking, built
// on top of the internal wire and respparse packages.
package imapclient

import (
	"crypto/tls"
	"fmt"
	"time"
)

// Options configures an Engine. It takes the ApplyDefaults/Validate
// shape of internal/email/config.go and internal/config/config.go;
// file-based config loading lives outside this package in
// cmd/imapcli/internal/config.
type Options struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// TLS selects implicit TLS (port 993 convention). When false the
	// engine connects in plaintext and the caller may still call
	// StartTLS explicitly.
	TLS       bool        `yaml:"tls"`
	TLSConfig *tls.Config `yaml:"-"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// LiteralSizeLimit bounds how large a single literal may be before
	// the framer rejects the connection with a protocol error.
	LiteralSizeLimit int64 `yaml:"literal_size_limit"`
	// MaxLineSize bounds a single response line's length.
	MaxLineSize int `yaml:"max_line_size"`

	// CommandTimeout is the default per-command timeout. Individual
	// command classes below override it when non-zero.
	CommandTimeout   time.Duration `yaml:"command_timeout_seconds"`
	AppendTimeout    time.Duration `yaml:"append_timeout_seconds"`
	FetchPartTimeout time.Duration `yaml:"fetch_part_timeout_seconds"`

	// LogOutbound and LogInbound label the wire-level trace entries
	// emitted through the injected *slog.Logger.
	LogOutbound bool `yaml:"log_outbound"`
	LogInbound  bool `yaml:"log_inbound"`
}

// DefaultOptions returns an Options with every field at its documented
// default.
func DefaultOptions() *Options {
	return &Options{
		Port:             993,
		TLS:              true,
		LiteralSizeLimit: 32 << 20,
		MaxLineSize:      1 << 20,
		CommandTimeout:   10 * time.Second,
		AppendTimeout:    60 * time.Second,
		FetchPartTimeout: 10 * time.Second,
	}
}

// ApplyDefaults fills zero-value fields with the package defaults,
// following internal/email/config.go's ApplyDefaults pattern: TLS
// defaults on unless the caller picked the plaintext convention port.
func (o *Options) ApplyDefaults() {
	d := DefaultOptions()
	if o.Port == 0 {
		o.Port = d.Port
	}
	if !o.TLS && o.Port != 143 {
		o.TLS = true
	}
	if o.LiteralSizeLimit == 0 {
		o.LiteralSizeLimit = d.LiteralSizeLimit
	}
	if o.MaxLineSize == 0 {
		o.MaxLineSize = d.MaxLineSize
	}
	if o.CommandTimeout == 0 {
		o.CommandTimeout = d.CommandTimeout
	}
	if o.AppendTimeout == 0 {
		o.AppendTimeout = d.AppendTimeout
	}
	if o.FetchPartTimeout == 0 {
		o.FetchPartTimeout = d.FetchPartTimeout
	}
}

// Validate checks that Options is internally consistent, following
// internal/email/config.go's Validate pattern (first problem wins).
func (o *Options) Validate() error {
	if o.Host == "" {
		return fmt.Errorf("imapclient: host is required")
	}
	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("imapclient: port %d out of range (1-65535)", o.Port)
	}
	return nil
}

// Addr returns the "host:port" dial target.
func (o *Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

func timeoutFor(o *Options, class commandClass) time.Duration {
	switch class {
	case classAppend:
		return o.AppendTimeout
	case classFetchPart:
		return o.FetchPartTimeout
	default:
		return o.CommandTimeout
	}
}

// commandClass selects which timeout bucket a command falls into:
// a general default, a longer one for APPEND, and a shorter one for
// fetching a single part or structure.
type commandClass int

const (
	classDefault commandClass = iota
	classAppend
	classFetchPart
)
