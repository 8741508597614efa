// Package imap implements the shared data model for an IMAP4rev1 client
// engine: identifier sets, capabilities, mailbox and message metadata,
// and the error vocabulary surfaced to callers. The protocol engine
// itself — transport, framing, parsing, command dispatch, IDLE, and MIME
// decoding — lives in the imapclient and mime subpackages.
package imap
