package imapclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	imap "github.com/wireimap/imapkit"
	"github.com/wireimap/imapkit/imapclient/internal/respparse"
)

// Select opens mailbox in read-write mode.
func (e *Engine) Select(ctx context.Context, mailbox string) (*imap.MailboxStatus, error) {
	return e.selectOrExamine(ctx, "SELECT", mailbox)
}

// Examine opens mailbox in read-only mode.
func (e *Engine) Examine(ctx context.Context, mailbox string) (*imap.MailboxStatus, error) {
	return e.selectOrExamine(ctx, "EXAMINE", mailbox)
}

func (e *Engine) selectOrExamine(ctx context.Context, verb, mailbox string) (*imap.MailboxStatus, error) {
	if mailbox == "" {
		return nil, &imap.InvalidArgumentError{Reason: "mailbox name must not be empty"}
	}
	status := &imap.MailboxStatus{Name: mailbox}
	line := fmt.Sprintf("%s %s", verb, quoteIMAP(mailbox))

	tagged, err := e.exec(ctx, classDefault, line, nil, func(r *respparse.Response) {
		applySelectUntagged(status, r.Untagged)
	})
	if err != nil {
		return nil, err
	}
	if tagged.State != respparse.StateOK {
		return nil, &imap.CommandError{Sentinel: imap.ErrSelectFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	if tagged.Code != nil {
		switch tagged.Code.Name {
		case "READ-ONLY":
			status.ReadOnly = true
		case "READ-WRITE":
			status.ReadOnly = false
		}
	}

	e.mu.Lock()
	e.mailbox = status
	e.state = StateSelected
	e.mu.Unlock()
	return status, nil
}

func applySelectUntagged(status *imap.MailboxStatus, u *respparse.Untagged) {
	if u == nil {
		return
	}
	switch u.Kind {
	case respparse.UntaggedExists:
		status.NumMessages = u.Num
	case respparse.UntaggedRecent:
		status.NumRecent = u.Num
	case respparse.UntaggedFlags:
		for _, f := range u.Flags {
			status.Flags = append(status.Flags, imap.Flag(f))
		}
	case respparse.UntaggedState:
		if u.Code == nil {
			return
		}
		switch u.Code.Name {
		case "UIDVALIDITY":
			status.UIDValidity = firstCodeUint32(u.Code)
		case "UIDNEXT":
			status.UIDNext = firstCodeUint32(u.Code)
		case "UNSEEN":
			// This is the first unseen message's sequence number, not a
			// count (RFC 3501 §7.3.1) — unlike STATUS's UNSEEN attribute
			// below, which is a count. Keep the two apart.
			status.FirstUnseen = firstCodeUint32(u.Code)
		case "PERMANENTFLAGS":
			for _, a := range u.Code.Args {
				status.PermanentFlags = append(status.PermanentFlags, imap.Flag(a))
			}
		}
	}
}

func firstCodeUint32(c *respparse.ResponseCode) uint32 {
	if len(c.Args) == 0 {
		return 0
	}
	n, _ := strconv.ParseUint(c.Args[0], 10, 32)
	return uint32(n)
}

// Close closes the selected mailbox, expunging \Deleted messages.
func (e *Engine) Close(ctx context.Context) error {
	tagged, err := e.exec(ctx, classDefault, "CLOSE", nil, nil)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.mailbox = nil
	e.state = StateAuthenticated
	e.mu.Unlock()
	return stateErr(tagged, imap.ErrCommandFailed)
}

// Unselect closes the selected mailbox without expunging (RFC 3691).
// Falls back to CommandNotSupported when the server lacks UNSELECT;
// callers should fall back to Close in that case.
func (e *Engine) Unselect(ctx context.Context) error {
	if !e.Capabilities().Contains(imap.CapUnselect) {
		return fmt.Errorf("%w: UNSELECT", imap.ErrCommandNotSupported)
	}
	tagged, err := e.exec(ctx, classDefault, "UNSELECT", nil, nil)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.mailbox = nil
	e.state = StateAuthenticated
	e.mu.Unlock()
	return stateErr(tagged, imap.ErrCommandFailed)
}

// ListMailboxes issues LIST "" "*" style wildcard listing beneath
// reference, matching pattern (which may itself contain "%"/"*").
func (e *Engine) ListMailboxes(ctx context.Context, reference, pattern string) ([]imap.MailboxInfo, error) {
	var out []imap.MailboxInfo
	line := fmt.Sprintf("LIST %s %s", quoteIMAP(reference), quoteIMAP(pattern))
	tagged, err := e.exec(ctx, classDefault, line, nil, func(r *respparse.Response) {
		if r.Untagged != nil && r.Untagged.Kind == respparse.UntaggedList && r.Untagged.Mailbox != nil {
			md := r.Untagged.Mailbox
			out = append(out, imap.MailboxInfo{Name: md.Name, Delim: md.Delim, Attrs: md.Attrs})
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

// Status issues STATUS for an unselected mailbox.
func (e *Engine) Status(ctx context.Context, mailbox string, items ...string) (*imap.MailboxStatus, error) {
	if mailbox == "" {
		return nil, &imap.InvalidArgumentError{Reason: "mailbox name must not be empty"}
	}
	if len(items) == 0 {
		items = []string{"MESSAGES", "RECENT", "UIDNEXT", "UIDVALIDITY", "UNSEEN"}
	}
	status := &imap.MailboxStatus{Name: mailbox}
	line := fmt.Sprintf("STATUS %s (%s)", quoteIMAP(mailbox), strings.Join(items, " "))

	tagged, err := e.exec(ctx, classDefault, line, nil, func(r *respparse.Response) {
		if r.Untagged == nil || r.Untagged.Kind != respparse.UntaggedStatus || r.Untagged.Status == nil {
			return
		}
		sd := r.Untagged.Status
		status.NumMessages = sd.Attrs["MESSAGES"]
		status.NumRecent = sd.Attrs["RECENT"]
		status.UIDNext = sd.Attrs["UIDNEXT"]
		status.UIDValidity = sd.Attrs["UIDVALIDITY"]
		status.NumUnseen = sd.Attrs["UNSEEN"]
	})
	if err != nil {
		return nil, err
	}
	if tagged.State != respparse.StateOK {
		return nil, &imap.CommandError{Sentinel: imap.ErrCommandFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	return status, nil
}
