package wire

import (
	"bytes"
	"testing"
)

func TestOutboundWriteCommand(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutbound(&buf)
	if err := o.WriteCommand("A001", "NOOP"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "A001 NOOP\r\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestOutboundWriteLiteralAndLine(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutbound(&buf)
	if err := o.WriteLine("a001 LOGIN {5}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := o.WriteLiteral([]byte("alice")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := o.WriteLine(" secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a001 LOGIN {5}\r\nalice secret\r\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestOutboundWriteDone(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutbound(&buf)
	if err := o.WriteDone(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "DONE\r\n" {
		t.Errorf("got %q", buf.String())
	}
}
