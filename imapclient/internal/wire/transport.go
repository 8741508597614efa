// Package wire handles the byte-level concerns of talking to an IMAP
// server: dialing (implicit TLS or plaintext-then-STARTTLS), and
// literal-aware line framing of the response stream.
package wire

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// DialOptions configures Dial.
type DialOptions struct {
	// Addr is "host:port".
	Addr string
	// ImplicitTLS dials straight into a TLS handshake (the port-993
	// style). When false, the caller connects in the clear and later
	// calls UpgradeStartTLS once STARTTLS has been negotiated.
	ImplicitTLS bool
	TLSConfig   *tls.Config
	DialTimeout time.Duration
}

// Dial opens the TCP connection, performing an implicit TLS handshake
// immediately when requested.
func Dial(ctx context.Context, opts DialOptions) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("wire: dial %s: %w", opts.Addr, err)
	}
	if !opts.ImplicitTLS {
		return conn, nil
	}
	tlsConn := tls.Client(conn, cloneOrDefaultTLSConfig(opts.TLSConfig, opts.Addr))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("wire: TLS handshake: %w", err)
	}
	return tlsConn, nil
}

// UpgradeStartTLS performs the TLS handshake on an already-open
// plaintext connection, after the engine has issued STARTTLS and
// received the tagged OK. The caller must have discarded any buffered
// plaintext it was holding before calling this: bytes read from the
// connection but not yet consumed by the framer belong to the old,
// unencrypted session and must never be fed into the post-handshake
// stream.
func UpgradeStartTLS(ctx context.Context, conn net.Conn, cfg *tls.Config, addr string) (*tls.Conn, error) {
	tlsConn := tls.Client(conn, cloneOrDefaultTLSConfig(cfg, addr))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("wire: STARTTLS handshake: %w", err)
	}
	return tlsConn, nil
}

func cloneOrDefaultTLSConfig(cfg *tls.Config, addr string) *tls.Config {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	if cfg == nil {
		return &tls.Config{ServerName: host}
	}
	clone := cfg.Clone()
	if clone.ServerName == "" {
		clone.ServerName = host
	}
	return clone
}
