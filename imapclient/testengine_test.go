package imapclient

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

// testServer is the far end of a net.Pipe standing in for a live IMAP
// server: a line reader/writer the test drives by hand, one exchange at
// a time.
type testServer struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

// nextLine reads one CRLF-terminated line written by the engine (a
// tagged command, or DONE), with the terminator stripped.
func (s *testServer) nextLine() string {
	s.t.Helper()
	line, err := s.r.ReadString('\n')
	if err != nil {
		s.t.Fatalf("server: reading line: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

// send writes a raw, already CRLF-terminated blob.
func (s *testServer) send(raw string) {
	s.t.Helper()
	if _, err := s.conn.Write([]byte(raw)); err != nil {
		s.t.Fatalf("server: write: %v", err)
	}
}

// reply writes a tagged completion line for the given tag.
func (s *testServer) reply(tag, state, text string) {
	s.send(tag + " " + state + " " + text + "\r\n")
}

// newTestEngine builds an Engine wired to one end of a net.Pipe, having
// already consumed the given greeting the way Connect would (minus the
// actual dial), with the read loop running.
func newTestEngine(t *testing.T, greeting string) (*Engine, *testServer) {
	t.Helper()
	clientConn, serverConn := net.Pipe()

	opts := &Options{Host: "mail.example.test", CommandTimeout: 2 * time.Second}
	opts.ApplyDefaults()
	e := New(opts, nil)
	e.installConn(clientConn)

	srv := &testServer{t: t, conn: serverConn, r: bufio.NewReader(serverConn)}

	greetingSent := make(chan struct{})
	go func() {
		srv.send(greeting)
		close(greetingSent)
	}()

	if err := e.readGreeting(); err != nil {
		t.Fatalf("reading greeting: %v", err)
	}
	<-greetingSent

	e.readDone = make(chan struct{})
	go e.readLoop()

	t.Cleanup(func() {
		e.Disconnect()
	})

	return e, srv
}

// newTestEngineWithLiteralLimit is newTestEngine with a caller-chosen
// LiteralSizeLimit, for exercising the oversized-literal streaming
// path without needing a default-sized (32 MiB) literal in a test.
func newTestEngineWithLiteralLimit(t *testing.T, greeting string, limit int64) (*Engine, *testServer) {
	t.Helper()
	clientConn, serverConn := net.Pipe()

	opts := &Options{Host: "mail.example.test", CommandTimeout: 2 * time.Second, LiteralSizeLimit: limit}
	opts.ApplyDefaults()
	e := New(opts, nil)
	e.installConn(clientConn)

	srv := &testServer{t: t, conn: serverConn, r: bufio.NewReader(serverConn)}

	greetingSent := make(chan struct{})
	go func() {
		srv.send(greeting)
		close(greetingSent)
	}()

	if err := e.readGreeting(); err != nil {
		t.Fatalf("reading greeting: %v", err)
	}
	<-greetingSent

	e.readDone = make(chan struct{})
	go e.readLoop()

	t.Cleanup(func() {
		e.Disconnect()
	})

	return e, srv
}

func ctxWithTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}
