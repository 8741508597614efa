package imapclient

import (
	"context"
	"fmt"
	"sync"

	imap "github.com/wireimap/imapkit"
	"github.com/wireimap/imapkit/imapclient/internal/respparse"
)

// IdleStream is the consumer handle for an active IDLE session. It is
// single-consumer: call Next in a loop until it reports the stream
// ended, then call Done (idempotent, safe even if the stream already
// ended on its own) to release engine-level IDLE state.
type IdleStream struct {
	session *idleSession
}

// Next blocks until an event is available, the stream ends (DONE
// completed or the connection was lost), or ctx is canceled. ok is
// false once the stream has ended; err carries the terminal cause, if
// any (nil for a clean DONE).
func (s *IdleStream) Next(ctx context.Context) (imap.IdleEvent, bool, error) {
	return s.session.next(ctx)
}

// Done requests IDLE termination (writes DONE) and waits for the
// server's tagged completion. Re-entrant and concurrent calls coalesce
// onto the same completion: two callers racing to end the same session
// both observe one result without sending two DONE frames.
func (s *IdleStream) Done(ctx context.Context) error {
	return s.session.endIdle(ctx)
}

// idleSession is the engine-private state backing an IdleStream.
type idleSession struct {
	engine *Engine
	tag    string

	mu       sync.Mutex
	evQueue  []imap.IdleEvent
	isActive bool
	readErr  error

	notify     chan struct{}
	closeOnce  sync.Once
	doneResult chan struct{}
	doneErr    error
	doneOnce   sync.Once
}

func newIdleSession(engine *Engine, tag string) *idleSession {
	return &idleSession{
		engine:     engine,
		tag:        tag,
		isActive:   true,
		notify:     make(chan struct{}, 1),
		doneResult: make(chan struct{}),
	}
}

func (s *idleSession) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isActive
}

// deliver routes one parsed response arriving while IDLE is active:
// either the tagged completion following DONE, or an untagged event.
func (s *idleSession) deliver(resp *respparse.Response) {
	if resp.Tagged != nil && resp.Tagged.Tag == s.tag {
		s.mu.Lock()
		s.isActive = false
		s.mu.Unlock()
		if resp.Tagged.State != respparse.StateOK {
			s.doneErr = &imap.CommandError{Sentinel: imap.ErrCommandFailed, Tag: resp.Tagged.Tag, State: resp.Tagged.State.String(), Text: resp.Tagged.Text, Code: codeName(resp.Tagged.Code)}
		}
		s.finish()
		return
	}
	if resp.Untagged == nil {
		return
	}
	if ev, ok := translateIdleEvent(resp.Untagged); ok {
		s.push(ev)
	}
}

// fail terminates the session on a connection-level failure: buffered
// events are preserved, but the stream reports err once drained.
func (s *idleSession) fail(err error) {
	s.mu.Lock()
	if !s.isActive {
		s.mu.Unlock()
		return
	}
	s.isActive = false
	s.readErr = err
	s.mu.Unlock()
	s.push(imap.IdleEvent{Kind: imap.IdleBye, Text: err.Error()})
	s.doneErr = err
	s.finish()
}

func (s *idleSession) finish() {
	s.closeOnce.Do(func() { close(s.doneResult) })
}

func (s *idleSession) push(ev imap.IdleEvent) {
	s.mu.Lock()
	s.evQueue = append(s.evQueue, ev)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *idleSession) next(ctx context.Context) (imap.IdleEvent, bool, error) {
	for {
		s.mu.Lock()
		if len(s.evQueue) > 0 {
			ev := s.evQueue[0]
			s.evQueue = s.evQueue[1:]
			s.mu.Unlock()
			return ev, true, nil
		}
		terminal := !s.isActive
		err := s.readErr
		s.mu.Unlock()
		if terminal {
			return imap.IdleEvent{}, false, err
		}
		select {
		case <-s.notify:
			continue
		case <-s.doneResult:
			continue
		case <-ctx.Done():
			return imap.IdleEvent{}, false, ctx.Err()
		}
	}
}

// endIdle writes DONE exactly once (subsequent calls coalesce onto the
// same wait) and waits for the tagged completion.
func (s *idleSession) endIdle(ctx context.Context) error {
	s.doneOnce.Do(func() {
		s.engine.connMu.Lock()
		_ = s.engine.out.WriteDone() // a write failure surfaces via the read loop instead
		s.engine.connMu.Unlock()
	})
	select {
	case <-s.doneResult:
		return s.doneErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func translateIdleEvent(u *respparse.Untagged) (imap.IdleEvent, bool) {
	switch u.Kind {
	case respparse.UntaggedExists:
		return imap.IdleEvent{Kind: imap.IdleExists, Num: imap.SequenceNumber(u.Num)}, true
	case respparse.UntaggedRecent:
		return imap.IdleEvent{Kind: imap.IdleRecent, Num: imap.SequenceNumber(u.Num)}, true
	case respparse.UntaggedExpunge:
		return imap.IdleEvent{Kind: imap.IdleExpunge, Num: imap.SequenceNumber(u.Num)}, true
	case respparse.UntaggedFetch:
		ev := imap.IdleEvent{Kind: imap.IdleFetch, Num: imap.SequenceNumber(u.Num)}
		if u.Fetch != nil {
			for _, f := range u.Fetch.Flags {
				ev.Flags = append(ev.Flags, imap.Flag(f))
			}
			if len(ev.Flags) > 0 {
				ev.Kind = imap.IdleFlagsChanged
			}
		}
		return ev, true
	case respparse.UntaggedCapability:
		return imap.IdleEvent{Kind: imap.IdleCapability, Capabilities: u.Capabilities}, true
	case respparse.UntaggedState:
		if u.Code != nil && u.Code.Name == "ALERT" {
			return imap.IdleEvent{Kind: imap.IdleAlert, Text: u.Text}, true
		}
		return imap.IdleEvent{}, false
	default:
		return imap.IdleEvent{}, false
	}
}

// Idle starts an IDLE session: verifies the capability, sends IDLE,
// waits for the server's "+" continuation, and returns a
// single-consumer IdleStream. The command queue is released once IDLE
// is established so other callers may invoke exec, which will perform
// the DONE handshake transparently via endIdleIfActive.
func (e *Engine) Idle(ctx context.Context) (*IdleStream, error) {
	if !e.Capabilities().Contains(imap.CapIdle) {
		return nil, fmt.Errorf("%w: IDLE", imap.ErrCommandNotSupported)
	}
	if err := e.queue.acquire(ctx); err != nil {
		return nil, err
	}
	defer e.queue.release()

	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}

	tag := e.tags.next()
	gotContinuation := make(chan error, 1)
	pc := newPendingCommand(tag, func(resp *respparse.Response) {
		if resp.Continuation != nil {
			select {
			case gotContinuation <- nil:
			default:
			}
		}
	})
	e.mu.Lock()
	e.pending = pc
	e.mu.Unlock()

	e.connMu.Lock()
	err := e.out.WriteCommand(tag, "IDLE")
	e.connMu.Unlock()
	if err != nil {
		e.mu.Lock()
		e.pending = nil
		e.mu.Unlock()
		return nil, &imap.ConnectionError{Cause: err}
	}

	select {
	case <-gotContinuation:
	case tagged := <-pc.done:
		e.mu.Lock()
		e.pending = nil
		e.mu.Unlock()
		return nil, stateErr(tagged, imap.ErrCommandNotSupported)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.readDone:
		return nil, &imap.ConnectionError{Cause: fmt.Errorf("connection closed awaiting IDLE continuation")}
	}

	session := newIdleSession(e, tag)
	e.mu.Lock()
	e.pending = nil
	e.idle = session
	e.mu.Unlock()

	return &IdleStream{session: session}, nil
}

// endIdleIfActive ends any active IDLE session before a new command is
// written, sending DONE and waiting for its completion.
func (e *Engine) endIdleIfActive(ctx context.Context) error {
	e.mu.Lock()
	session := e.idle
	e.mu.Unlock()
	if session == nil || !session.active() {
		return nil
	}
	err := session.endIdle(ctx)
	e.mu.Lock()
	if e.idle == session {
		e.idle = nil
	}
	e.mu.Unlock()
	return err
}
