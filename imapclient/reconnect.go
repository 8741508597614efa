package imapclient

import (
	"context"
	"fmt"

	imap "github.com/wireimap/imapkit"
)

// ensureConnected reconnects and re-logs-in transparently when the
// transport has been closed and credentials were cached from a prior
// Login call; otherwise it fails with a connection error.
func (e *Engine) ensureConnected(ctx context.Context) error {
	e.mu.Lock()
	closed := e.closed
	user, pass := e.lastUser, e.lastPass
	e.mu.Unlock()

	if !closed {
		return nil
	}
	if user == "" {
		return &imap.ConnectionError{Cause: fmt.Errorf("no credentials available for reconnect")}
	}

	e.mu.Lock()
	e.closed = false
	e.pending = nil
	e.idle = nil
	e.mailbox = nil
	e.state = StateNotAuthenticated
	e.mu.Unlock()

	if err := e.Connect(ctx); err != nil {
		return err
	}
	if pass != "" {
		return e.reloginLocked(ctx, user, pass)
	}
	return nil
}

// reloginLocked re-sends LOGIN without acquiring the command queue
// (the caller already holds it via exec's acquire).
func (e *Engine) reloginLocked(ctx context.Context, username, password string) error {
	line := fmt.Sprintf(`LOGIN %s %s`, quoteIMAP(username), quoteIMAP(password))
	tag := e.tags.next()
	pc := newPendingCommand(tag, nil)
	e.mu.Lock()
	e.pending = pc
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.pending = nil
		e.mu.Unlock()
	}()

	e.connMu.Lock()
	err := e.out.WriteCommand(tag, line)
	e.connMu.Unlock()
	if err != nil {
		return &imap.ConnectionError{Cause: err}
	}

	select {
	case tagged := <-pc.done:
		if tagged.State.String() != "OK" {
			return &imap.CommandError{Sentinel: imap.ErrLoginFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
		}
		e.mu.Lock()
		e.state = StateAuthenticated
		e.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.readDone:
		return &imap.ConnectionError{Cause: fmt.Errorf("connection closed during relogin")}
	}
}
