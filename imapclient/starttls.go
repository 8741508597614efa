package imapclient

import (
	"context"
	"fmt"

	imap "github.com/wireimap/imapkit"
	"github.com/wireimap/imapkit/imapclient/internal/respparse"
	"github.com/wireimap/imapkit/imapclient/internal/wire"
)

// StartTLS upgrades a plaintext connection in place: it issues
// STARTTLS, performs the TLS handshake on the existing socket once the
// server confirms, rebuilds the framer on the upgraded connection
// (discarding anything buffered from the plaintext session), and
// re-issues CAPABILITY since a server's post-STARTTLS capabilities can
// differ from what it advertised before the handshake.
//
// It holds the command queue across the whole sequence, so no other
// command can interleave with the handshake.
func (e *Engine) StartTLS(ctx context.Context) error {
	if !e.Capabilities().Contains(imap.CapStartTLS) {
		return imap.ErrCommandNotSupported
	}

	if err := e.queue.acquire(ctx); err != nil {
		return err
	}
	defer e.queue.release()

	if err := e.endIdleIfActive(ctx); err != nil {
		return err
	}
	if err := e.ensureConnected(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	e.haltReadLoop = true
	e.mu.Unlock()

	tagged, err := e.sendLocked(ctx, classDefault, "STARTTLS", nil, nil)
	if err != nil {
		e.mu.Lock()
		e.haltReadLoop = false
		e.mu.Unlock()
		return err
	}
	if tagged.State != respparse.StateOK {
		e.mu.Lock()
		e.haltReadLoop = false
		e.mu.Unlock()
		return &imap.CommandError{Sentinel: imap.ErrTLSFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}

	// readLoop delivered the tagged OK above and, seeing haltReadLoop,
	// returns without issuing another read. Wait for it to actually
	// exit before touching the raw connection, so the handshake is the
	// only goroutine reading or writing it.
	<-e.readDone

	e.connMu.Lock()
	conn := e.conn
	e.connMu.Unlock()

	tlsConn, err := wire.UpgradeStartTLS(ctx, conn, e.opts.TLSConfig, e.opts.Addr())
	if err != nil {
		return fmt.Errorf("%w: %v", imap.ErrTLSFailed, err)
	}

	e.installConn(tlsConn)
	e.setCaps(nil)
	e.readDone = make(chan struct{})
	go e.readLoop()

	if _, err := e.sendLocked(ctx, classDefault, "CAPABILITY", nil, nil); err != nil {
		return fmt.Errorf("%w: post-STARTTLS capability refresh: %v", imap.ErrTLSFailed, err)
	}
	return nil
}
