package respparse

import (
	"testing"
)

func TestParseFetchBasicFields(t *testing.T) {
	raw := `* 12 FETCH (UID 345 FLAGS (\Seen \Answered) RFC822.SIZE 4096)` + "\r\n"
	resp, err := Parse(mustFrame(t, raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fd := resp.Untagged.Fetch
	if !fd.HasUID || fd.UID != 345 {
		t.Errorf("UID = %v/%d", fd.HasUID, fd.UID)
	}
	if len(fd.Flags) != 2 || fd.Flags[0] != `\Seen` {
		t.Errorf("Flags = %v", fd.Flags)
	}
	if !fd.HasSize || fd.RFC822Size != 4096 {
		t.Errorf("RFC822Size = %v/%d", fd.HasSize, fd.RFC822Size)
	}
}

func TestParseFetchEnvelope(t *testing.T) {
	raw := `* 1 FETCH (ENVELOPE ("Tue, 1 Jan 2030 00:00:00 +0000" "Hello" ` +
		`(("Alice" NIL "alice" "example.com")) ` +
		`(("Alice" NIL "alice" "example.com")) ` +
		`(("Alice" NIL "alice" "example.com")) ` +
		`(("Bob" NIL "bob" "example.org")) ` +
		`NIL NIL NIL "<abc@example.com>"))` + "\r\n"
	resp, err := Parse(mustFrame(t, raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := resp.Untagged.Fetch.Envelope
	if env == nil {
		t.Fatal("expected a parsed envelope")
	}
	if env.Subject != "Hello" {
		t.Errorf("Subject = %q", env.Subject)
	}
	if len(env.From) != 1 || env.From[0].Mailbox != "alice" || env.From[0].Host != "example.com" {
		t.Errorf("From = %+v", env.From)
	}
	if len(env.To) != 1 || env.To[0].Mailbox != "bob" {
		t.Errorf("To = %+v", env.To)
	}
	if env.MessageID != "<abc@example.com>" {
		t.Errorf("MessageID = %q", env.MessageID)
	}
}

func TestParseFetchBodySection(t *testing.T) {
	raw := "* 1 FETCH (UID 9 BODY[TEXT] {5}\r\nhello)\r\n"
	resp, err := Parse(mustFrame(t, raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fd := resp.Untagged.Fetch
	if len(fd.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(fd.Sections))
	}
	sec := fd.Sections[0]
	if sec.Section != "TEXT" || string(sec.Data) != "hello" {
		t.Errorf("got %+v", sec)
	}
}

func TestParseFetchBodySectionEmptyBracketWithPartial(t *testing.T) {
	raw := "* 1 FETCH (BODY[]<10> {3}\r\nabc)\r\n"
	resp, err := Parse(mustFrame(t, raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sec := resp.Untagged.Fetch.Sections[0]
	if sec.Section != "" || !sec.Partial || sec.Offset != 10 || string(sec.Data) != "abc" {
		t.Errorf("got %+v", sec)
	}
}

func TestParseFetchInternalDate(t *testing.T) {
	raw := `* 1 FETCH (INTERNALDATE "17-Jul-1996 02:44:25 -0700")` + "\r\n"
	resp, err := Parse(mustFrame(t, raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Untagged.Fetch.InternalDate != "17-Jul-1996 02:44:25 -0700" {
		t.Errorf("InternalDate = %q", resp.Untagged.Fetch.InternalDate)
	}
}
