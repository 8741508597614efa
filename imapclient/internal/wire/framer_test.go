package wire

import (
	"strings"
	"testing"
)

func TestFramerReadsPlainLine(t *testing.T) {
	f := NewFramer(strings.NewReader("* OK IMAP4rev1 Service Ready\r\n"), 0, 0)
	frame, err := f.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := frame.String(); got != "* OK IMAP4rev1 Service Ready" {
		t.Errorf("got %q", got)
	}
}

func TestFramerReadsLiteral(t *testing.T) {
	raw := "* 12 FETCH (BODY[TEXT] {5}\r\nhello)\r\n"
	f := NewFramer(strings.NewReader(raw), 0, 0)
	frame, err := f.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Atoms) != 3 {
		t.Fatalf("got %d atoms, want 3", len(frame.Atoms))
	}
	if frame.Atoms[0].Text != "* 12 FETCH (BODY[TEXT] " {
		t.Errorf("atom[0] = %q", frame.Atoms[0].Text)
	}
	if !frame.Atoms[1].Literal || string(frame.Atoms[1].Data) != "hello" {
		t.Errorf("atom[1] = %+v, want literal \"hello\"", frame.Atoms[1])
	}
	if frame.Atoms[2].Text != ")" {
		t.Errorf("atom[2] = %q, want %q", frame.Atoms[2].Text, ")")
	}
}

func TestFramerLiteralContainingCRLF(t *testing.T) {
	// The literal's declared byte count includes an embedded CRLF,
	// which must not be mistaken for the line terminator.
	raw := "* 1 FETCH (BODY[] {6}\r\nab\r\ncd)\r\n"
	f := NewFramer(strings.NewReader(raw), 0, 0)
	frame, err := f.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(frame.Atoms[1].Data) != "ab\r\ncd" {
		t.Errorf("literal data = %q, want %q", frame.Atoms[1].Data, "ab\r\ncd")
	}
}

func TestFramerNonSynchronizingLiteral(t *testing.T) {
	raw := "a001 LOGIN {5+}\r\nalice {6+}\r\nsecret\r\n"
	f := NewFramer(strings.NewReader(raw), 0, 0)
	frame, err := f.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Atoms) != 4 {
		t.Fatalf("got %d atoms, want 4: %+v", len(frame.Atoms), frame.Atoms)
	}
	if string(frame.Atoms[1].Data) != "alice" || string(frame.Atoms[3].Data) != "secret" {
		t.Errorf("atoms = %+v", frame.Atoms)
	}
}

func TestFramerRejectsOversizedLine(t *testing.T) {
	huge := strings.Repeat("x", 100) + "\r\n"
	f := NewFramer(strings.NewReader(huge), 10, 0)
	if _, err := f.ReadFrame(); err == nil {
		t.Error("expected an error for a line exceeding maxLineSize")
	}
}

func TestFramerRejectsOversizedLiteral(t *testing.T) {
	raw := "* 1 FETCH (BODY[] {1000}\r\n"
	f := NewFramer(strings.NewReader(raw), 0, 10)
	if _, err := f.ReadFrame(); err == nil {
		t.Error("expected an error for a literal exceeding maxLiteralSize")
	}
}

type collectingSink struct {
	began, ended bool
	size         int64
	chunks       [][]byte
}

func (s *collectingSink) StreamingBegin(size int64) { s.began = true; s.size = size }
func (s *collectingSink) StreamingBytes(b []byte) error {
	cp := make([]byte, len(b))
	copy(cp, b)
	s.chunks = append(s.chunks, cp)
	return nil
}
func (s *collectingSink) StreamingEnd() { s.ended = true }

func TestFramerStreamsOversizedLiteral(t *testing.T) {
	payload := strings.Repeat("x", 1048577)
	raw := "* 1 FETCH (BODY[1] {1048577}\r\n" + payload + ")\r\n"
	f := NewFramer(strings.NewReader(raw), 0, 1<<20)

	sink := &collectingSink{}
	frame, err := f.ReadFrameStreaming(sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sink.began || !sink.ended {
		t.Fatalf("sink lifecycle = began:%v ended:%v, want both true", sink.began, sink.ended)
	}
	if sink.size != 1048577 {
		t.Errorf("declared size = %d, want 1048577", sink.size)
	}
	var total int
	for _, c := range sink.chunks {
		total += len(c)
	}
	if total != 1048577 {
		t.Errorf("streamed %d bytes total, want 1048577", total)
	}

	var streamed *Atom
	for i := range frame.Atoms {
		if frame.Atoms[i].Streamed {
			streamed = &frame.Atoms[i]
		}
	}
	if streamed == nil {
		t.Fatal("frame has no streamed atom")
	}
	if streamed.Data != nil {
		t.Errorf("streamed atom carries %d bytes of Data, want nil (no buffering)", len(streamed.Data))
	}
	if streamed.Size != 1048577 {
		t.Errorf("streamed atom Size = %d, want 1048577", streamed.Size)
	}
}

func TestFramerStreamingLeavesSmallLiteralsBuffered(t *testing.T) {
	raw := "* 1 FETCH (BODY[1] {5}\r\nhello)\r\n"
	f := NewFramer(strings.NewReader(raw), 0, 1<<20)

	sink := &collectingSink{}
	frame, err := f.ReadFrameStreaming(sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.began {
		t.Error("sink should not be invoked for a literal under the cap")
	}
	if len(frame.Atoms) != 3 || string(frame.Atoms[1].Data) != "hello" {
		t.Fatalf("atoms = %+v", frame.Atoms)
	}
}

func TestFramerEmptyLine(t *testing.T) {
	f := NewFramer(strings.NewReader("\r\n"), 0, 0)
	frame, err := f.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := frame.String(); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
