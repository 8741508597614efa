package imapclient

import (
	"context"
	"fmt"

	imap "github.com/wireimap/imapkit"
)

// Move relocates ids to dest. When the server advertises MOVE (RFC
// 6851) it issues MOVE/UID MOVE directly. Otherwise it falls back to
// COPY, STORE +FLAGS (\Deleted), EXPUNGE — three separate round trips
// with no rollback: if STORE or EXPUNGE fails after COPY succeeded,
// the messages are left copied to dest and not yet removed from the
// source, and the caller sees the first error.
func (e *Engine) Move(ctx context.Context, ids *imap.SeqSet, dest string, useUID bool) error {
	if ids.IsEmpty() {
		return imap.ErrEmptyIdentifierSet
	}
	if e.canUseNativeMove(useUID) {
		return e.moveNative(ctx, ids, dest, useUID)
	}
	return e.moveFallback(ctx, ids, dest, useUID)
}

// canUseNativeMove reports whether MOVE can be issued directly. UID
// operands additionally require UIDPLUS, since a UID MOVE that can't
// also prove the destination's new UIDs would leave the caller unable
// to locate the relocated messages.
func (e *Engine) canUseNativeMove(useUID bool) bool {
	caps := e.Capabilities()
	if !caps.Contains(imap.CapMove) {
		return false
	}
	if useUID && !caps.Contains(imap.CapUIDPlus) {
		return false
	}
	return true
}

func (e *Engine) moveNative(ctx context.Context, ids *imap.SeqSet, dest string, useUID bool) error {
	verb := "MOVE"
	if useUID {
		verb = "UID MOVE"
	}
	line := fmt.Sprintf("%s %s %s", verb, ids.String(), quoteIMAP(dest))
	tagged, err := e.exec(ctx, classDefault, line, nil, e.mailboxUpdateHandler())
	if err != nil {
		return err
	}
	return stateErr(tagged, imap.ErrMoveFailed)
}

func (e *Engine) moveFallback(ctx context.Context, ids *imap.SeqSet, dest string, useUID bool) error {
	if err := e.Copy(ctx, ids, dest, useUID); err != nil {
		return fmt.Errorf("%w: copy step: %v", imap.ErrMoveFailed, err)
	}
	if err := e.Store(ctx, ids, "+FLAGS", []imap.Flag{imap.FlagDeleted}, useUID); err != nil {
		return fmt.Errorf("%w: store step (message copied but not marked deleted): %v", imap.ErrMoveFailed, err)
	}
	if err := e.Expunge(ctx); err != nil {
		return fmt.Errorf("%w: expunge step (message copied and marked deleted but not removed): %v", imap.ErrMoveFailed, err)
	}
	return nil
}
