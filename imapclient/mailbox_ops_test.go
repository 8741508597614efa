package imapclient

import (
	"testing"

	imap "github.com/wireimap/imapkit"
)

func TestSelectStoresFirstUnseenNotCount(t *testing.T) {
	e, srv := newTestEngine(t, "* OK ready\r\n")

	type result struct {
		status *imap.MailboxStatus
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		status, err := e.Select(ctxWithTimeout(t), "INBOX")
		resCh <- result{status, err}
	}()

	line := srv.nextLine()
	if line != `A001 SELECT "INBOX"` {
		t.Fatalf("got %q", line)
	}
	srv.send("* 15 EXISTS\r\n")
	srv.send("* 2 RECENT\r\n")
	srv.send("* OK [UNSEEN 3] Message 3 is first unseen\r\n")
	srv.send("* OK [UIDVALIDITY 12345] UIDs valid\r\n")
	srv.send("* OK [UIDNEXT 100] Predicted next UID\r\n")
	srv.reply("A001", "OK", "[READ-WRITE] SELECT completed")

	res := <-resCh
	if res.err != nil {
		t.Fatalf("Select: %v", res.err)
	}
	status := res.status

	if status.FirstUnseen != 3 {
		t.Errorf("FirstUnseen = %d, want 3", status.FirstUnseen)
	}
	if status.NumUnseen != 0 {
		t.Errorf("NumUnseen = %d, want 0 (SELECT's UNSEEN code is a sequence number, not a count)", status.NumUnseen)
	}
	if status.NumMessages != 15 || status.NumRecent != 2 || status.UIDValidity != 12345 || status.UIDNext != 100 {
		t.Errorf("status = %+v, unexpected field values", status)
	}
}

func TestStatusUnseenIsACount(t *testing.T) {
	e, srv := newTestEngine(t, "* OK ready\r\n")

	type result struct {
		status *imap.MailboxStatus
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		status, err := e.Status(ctxWithTimeout(t), "INBOX", "MESSAGES", "UNSEEN")
		resCh <- result{status, err}
	}()

	line := srv.nextLine()
	if line != `A001 STATUS "INBOX" (MESSAGES UNSEEN)` {
		t.Fatalf("got %q", line)
	}
	srv.send("* STATUS INBOX (MESSAGES 15 UNSEEN 4)\r\n")
	srv.reply("A001", "OK", "STATUS completed")

	res := <-resCh
	if res.err != nil {
		t.Fatalf("Status: %v", res.err)
	}
	if res.status.NumUnseen != 4 {
		t.Errorf("NumUnseen = %d, want 4", res.status.NumUnseen)
	}
}
