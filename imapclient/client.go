package imapclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	imap "github.com/wireimap/imapkit"
	"github.com/wireimap/imapkit/imapclient/internal/respparse"
	"github.com/wireimap/imapkit/imapclient/internal/wire"
)

// ConnState mirrors the IMAP connection states of RFC 3501 §3.
type ConnState int

const (
	StateNotAuthenticated ConnState = iota
	StateAuthenticated
	StateSelected
	StateLogout
)

// Engine is the per-connection protocol state machine: transport,
// framer, parser, capability set, command-tag counter, optional active
// IDLE handler, and the command queue. Modeled on WSClient
// (internal/homeassistant/websocket.go), generalized from a
// multiplexed id-keyed pending map to the single one-command-in-flight
// discipline IMAP requires.
type Engine struct {
	opts   *Options
	logger *slog.Logger

	connMu sync.Mutex
	conn   net.Conn
	framer *wire.Framer
	out    *wire.Outbound

	tags  tagGenerator
	queue *cmdQueue

	mu      sync.Mutex
	state   ConnState
	caps    *imap.CapabilitySet
	pending *pendingCommand
	idle    *idleSession
	mailbox *imap.MailboxStatus
	closed  bool

	// literalSink, when set, makes readLoop stream oversized literals
	// to it instead of erroring the connection. Installed for the
	// duration of a single streaming fetch; see FetchMessagePartStreaming.
	literalSink wire.LiteralSink

	// haltReadLoop tells readLoop to return, instead of issuing its
	// next read, once it has delivered the frame currently in hand.
	// Set by StartTLS so it can take over the raw connection for the
	// handshake without a second goroutine racing it for reads.
	haltReadLoop bool

	readErrOnce sync.Once
	readDone    chan struct{}

	lastUser, lastPass string // cached for transparent reconnect-on-demand
}

// New builds an Engine from Options. Call Connect to establish the
// transport and complete the greeting before issuing any command.
func New(opts *Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	opts.ApplyDefaults()
	return &Engine{
		opts:     opts,
		logger:   logger,
		queue:    newCmdQueue(),
		caps:     imap.NewCapabilitySet(),
		readDone: make(chan struct{}),
	}
}

// Connect dials the transport, performs the TLS handshake for
// implicit-TLS ports, reads the greeting, and starts the background
// read loop.
func (e *Engine) Connect(ctx context.Context) error {
	if err := e.opts.Validate(); err != nil {
		return err
	}
	conn, err := wire.Dial(ctx, wire.DialOptions{
		Addr:        e.opts.Addr(),
		ImplicitTLS: e.opts.TLS,
		TLSConfig:   e.opts.TLSConfig,
		DialTimeout: 30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", imap.ErrConnectionFailed, err)
	}
	e.installConn(conn)

	if err := e.readGreeting(); err != nil {
		conn.Close()
		return err
	}

	e.readDone = make(chan struct{})
	go e.readLoop()
	return nil
}

// readGreeting reads and validates the server's initial untagged
// greeting, folding in a CAPABILITY response code if present.
func (e *Engine) readGreeting() error {
	frame, err := e.framer.ReadFrame()
	if err != nil {
		return fmt.Errorf("%w: reading greeting: %v", imap.ErrGreetingFailed, err)
	}
	resp, err := respparse.Parse(frame)
	if err != nil || resp.Untagged == nil {
		return fmt.Errorf("%w: malformed greeting", imap.ErrGreetingFailed)
	}
	u := resp.Untagged
	if u.Text != "" && strings.EqualFold(firstWord(u.Text), "BYE") {
		return fmt.Errorf("%w: server sent BYE", imap.ErrGreetingFailed)
	}
	if u.Code != nil && u.Code.Name == "CAPABILITY" {
		e.setCaps(u.Code.Args)
	}
	return nil
}

func (e *Engine) installConn(conn net.Conn) {
	e.connMu.Lock()
	defer e.connMu.Unlock()
	e.conn = conn
	e.framer = wire.NewFramer(conn, e.opts.MaxLineSize, e.opts.LiteralSizeLimit)
	e.out = wire.NewOutbound(conn)
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// Capabilities returns the engine's current capability set.
func (e *Engine) Capabilities() *imap.CapabilitySet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.caps
}

func (e *Engine) setCaps(tokens []string) {
	e.mu.Lock()
	e.caps = imap.NewCapabilitySet(tokens...)
	e.mu.Unlock()
}

// setLiteralSink installs or clears the sink readLoop streams oversized
// literals to. Pass nil to return to the default buffer-or-reject
// behavior.
func (e *Engine) setLiteralSink(sink wire.LiteralSink) {
	e.mu.Lock()
	e.literalSink = sink
	e.mu.Unlock()
}

// Login authenticates with plain credentials. The outbound line is
// logged with the password redacted.
func (e *Engine) Login(ctx context.Context, username, password string) error {
	line := fmt.Sprintf(`LOGIN %s %s`, quoteIMAP(username), quoteIMAP(password))
	tagged, err := e.exec(ctx, classDefault, line, e.logRedacted("LOGIN"), nil)
	if err != nil {
		return err
	}
	if tagged.State != respparse.StateOK {
		return &imap.CommandError{Sentinel: imap.ErrLoginFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	if tagged.Code != nil && tagged.Code.Name == "CAPABILITY" {
		e.setCaps(tagged.Code.Args)
	}
	e.mu.Lock()
	e.state = StateAuthenticated
	e.lastUser, e.lastPass = username, password
	e.mu.Unlock()
	return nil
}

// AuthenticateXOAUTH2 authenticates via the XOAUTH2 SASL mechanism,
// sent as a single base64 initial-response line when the server
// advertises AUTH=XOAUTH2.
func (e *Engine) AuthenticateXOAUTH2(ctx context.Context, username, accessToken string) error {
	if !e.Capabilities().SupportsAuth("XOAUTH2") {
		return &imap.InvalidArgumentError{Reason: "server does not advertise AUTH=XOAUTH2"}
	}
	resp := fmt.Sprintf("user=%s\x01auth=Bearer %s\x01\x01", username, accessToken)
	line := "AUTHENTICATE XOAUTH2 " + base64.StdEncoding.EncodeToString([]byte(resp))
	tagged, err := e.exec(ctx, classDefault, line, e.logRedacted("AUTHENTICATE"), nil)
	if err != nil {
		return err
	}
	if tagged.State != respparse.StateOK {
		return &imap.CommandError{Sentinel: imap.ErrAuthenticationFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	e.mu.Lock()
	e.state = StateAuthenticated
	e.lastUser = username
	e.mu.Unlock()
	return nil
}

// ID exchanges client/server identification fields (RFC 2971).
func (e *Engine) ID(ctx context.Context, fields map[string]string) (map[string]string, error) {
	if !e.Capabilities().Contains(imap.CapID) {
		return nil, fmt.Errorf("%w: ID", imap.ErrCommandNotSupported)
	}
	line := "ID " + encodeIDFields(fields)
	var out map[string]string
	tagged, err := e.exec(ctx, classDefault, line, nil, func(r *respparse.Response) {
		if r.Untagged != nil && r.Untagged.Kind == respparse.UntaggedID {
			out = r.Untagged.IDParams
		}
	})
	if err != nil {
		return nil, err
	}
	if tagged.State != respparse.StateOK {
		return nil, &imap.CommandError{Sentinel: imap.ErrCommandFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	return out, nil
}

func encodeIDFields(fields map[string]string) string {
	if len(fields) == 0 {
		return "NIL"
	}
	var b strings.Builder
	b.WriteByte('(')
	first := true
	for k, v := range fields {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&b, "%s %s", quoteIMAP(k), quoteIMAP(v))
	}
	b.WriteByte(')')
	return b.String()
}

// Noop issues NOOP, useful for polling untagged updates outside IDLE.
func (e *Engine) Noop(ctx context.Context) error {
	tagged, err := e.exec(ctx, classDefault, "NOOP", nil, e.mailboxUpdateHandler())
	if err != nil {
		return err
	}
	return stateErr(tagged, imap.ErrCommandFailed)
}

// Logout issues LOGOUT and closes the transport cleanly.
func (e *Engine) Logout(ctx context.Context) error {
	tagged, err := e.exec(ctx, classDefault, "LOGOUT", nil, nil)
	closeErr := e.closeConn()
	if err != nil {
		return err
	}
	if tagged.State != respparse.StateOK {
		return &imap.CommandError{Sentinel: imap.ErrLogoutFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	return closeErr
}

// Disconnect closes the transport without a LOGOUT round-trip (an
// unclean shutdown; no pending logout promise exists on this path).
func (e *Engine) Disconnect() error {
	return e.closeConn()
}

func (e *Engine) closeConn() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.state = StateLogout
	e.mu.Unlock()

	e.connMu.Lock()
	conn := e.conn
	e.connMu.Unlock()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-e.readDone
	return err
}

func stateErr(tagged *respparse.Tagged, sentinel error) error {
	if tagged.State != respparse.StateOK {
		return &imap.CommandError{Sentinel: sentinel, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	return nil
}

func codeName(c *respparse.ResponseCode) string {
	if c == nil {
		return ""
	}
	return c.Name
}

// logRedacted returns a log-time line transform for the outbound
// tracer: the LOGIN payload is replaced after the command name, and the
// AUTHENTICATE payload after the mechanism name, before the line
// reaches the log.
func (e *Engine) logRedacted(cmd string) func(line string) string {
	keep := 2 // tag and command name
	if cmd == "AUTHENTICATE" {
		keep = 3 // also the mechanism name
	}
	return func(line string) string {
		fields := strings.SplitN(line, " ", keep+1)
		if len(fields) <= keep {
			return line
		}
		return strings.Join(fields[:keep], " ") + " <redacted>"
	}
}

// exec implements the engine's command execution contract:
//
//  1. await the command queue
//  2. if in IDLE, send DONE and await completion
//  3. (validation is the caller's job, performed before exec is called)
//  4. reconnect-on-demand if the transport is closed and credentials are known
//  5. generate the next tag
//  6. install a handler, start the per-command timer
//  7. write the command, route frames to the handler until the tag matches
//  8. cancel the timer, remove the handler, return the result
func (e *Engine) exec(ctx context.Context, class commandClass, line string, redact func(string) string, onUntagged func(*respparse.Response)) (*respparse.Tagged, error) {
	if err := e.queue.acquire(ctx); err != nil {
		return nil, err
	}
	defer e.queue.release()

	if err := e.endIdleIfActive(ctx); err != nil {
		return nil, err
	}

	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}

	return e.sendLocked(ctx, class, line, redact, onUntagged)
}

// sendLocked performs steps 5-8 of exec's contract. Callers that need
// to hold the queue across more than one tagged exchange (StartTLS's
// STARTTLS-then-CAPABILITY sequence around the TLS handshake) acquire
// the queue themselves and call this directly instead of exec.
func (e *Engine) sendLocked(ctx context.Context, class commandClass, line string, redact func(string) string, onUntagged func(*respparse.Response)) (*respparse.Tagged, error) {
	tag := e.tags.next()
	pc := newPendingCommand(tag, onUntagged)
	e.mu.Lock()
	e.pending = pc
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.pending = nil
		e.mu.Unlock()
	}()

	outboundLine := fmt.Sprintf("%s %s", tag, line)
	if redact != nil {
		e.logOutbound(redact(outboundLine))
	} else {
		e.logOutbound(outboundLine)
	}

	e.connMu.Lock()
	writeErr := e.out.WriteCommand(tag, line)
	e.connMu.Unlock()
	if writeErr != nil {
		return nil, &imap.ConnectionError{Cause: writeErr}
	}

	timeout := timeoutFor(e.opts, class)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case tagged := <-pc.done:
		return tagged, nil
	case <-timer.C:
		return nil, &imap.TimeoutError{Tag: tag, Command: firstWord(line)}
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.readDone:
		return nil, &imap.ConnectionError{Cause: io.ErrClosedPipe}
	}
}

func (e *Engine) logOutbound(line string) {
	if e.opts.LogOutbound {
		e.logger.Log(context.Background(), imap.LevelTrace, "imap >>", "line", line)
	}
}

// readLoop is the Engine's single reader goroutine: it owns the
// framer and routes every parsed response to the active pending
// command or the active IDLE session, exactly as
// internal/homeassistant/websocket.go's readLoop routes by message ID.
func (e *Engine) readLoop() {
	defer close(e.readDone)
	for {
		e.mu.Lock()
		sink := e.literalSink
		e.mu.Unlock()

		var frame *wire.Frame
		var err error
		if sink != nil {
			frame, err = e.framer.ReadFrameStreaming(sink)
		} else {
			frame, err = e.framer.ReadFrame()
		}
		if err != nil {
			e.failAll(&imap.ConnectionError{Cause: err})
			return
		}
		resp, err := respparse.Parse(frame)
		if err != nil {
			e.failAll(fmt.Errorf("%w: %v", imap.ErrProtocolError, err))
			return
		}
		if e.opts.LogInbound {
			e.logger.Log(context.Background(), imap.LevelTrace, "imap <<", "frame", frame.String())
		}
		e.route(resp)

		e.mu.Lock()
		halt := e.haltReadLoop
		e.haltReadLoop = false
		e.mu.Unlock()
		if halt {
			return
		}
	}
}

func (e *Engine) route(resp *respparse.Response) {
	if resp.Untagged != nil && resp.Untagged.Kind == respparse.UntaggedCapability {
		e.setCaps(resp.Untagged.Capabilities)
	}
	e.applyMailboxUpdate(resp)

	e.mu.Lock()
	idle := e.idle
	pending := e.pending
	e.mu.Unlock()

	if idle != nil && idle.active() {
		idle.deliver(resp)
		return
	}
	if pending != nil {
		pending.deliver(resp)
	}
}

func (e *Engine) failAll(err error) {
	e.mu.Lock()
	pending := e.pending
	idle := e.idle
	e.closed = true
	e.mu.Unlock()

	if pending != nil {
		select {
		case pending.done <- &respparse.Tagged{Tag: pending.tag, State: respparse.StateBAD, Text: err.Error()}:
		default:
		}
	}
	if idle != nil {
		idle.fail(err)
	}
}

// mailboxUpdateHandler returns an onUntagged callback that folds
// EXISTS/RECENT counts into the engine's cached MailboxStatus, used by
// commands (NOOP, STORE, ...) that may receive such updates outside of
// SELECT/EXAMINE. FLAGS and EXPUNGE responses are not folded in.
func (e *Engine) mailboxUpdateHandler() func(*respparse.Response) {
	return e.applyMailboxUpdate
}

func (e *Engine) applyMailboxUpdate(resp *respparse.Response) {
	if resp.Untagged == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mailbox == nil {
		return
	}
	switch resp.Untagged.Kind {
	case respparse.UntaggedExists:
		e.mailbox.NumMessages = resp.Untagged.Num
	case respparse.UntaggedRecent:
		e.mailbox.NumRecent = resp.Untagged.Num
	}
}

// quoteIMAP renders s as an IMAP quoted string, escaping backslash and
// double-quote per RFC 3501's quoted-specials.
func quoteIMAP(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

