package imap

// Mailbox attribute tokens reported by LIST/LSUB.
const (
	AttrNoSelect     = `\Noselect`
	AttrHasChildren  = `\HasChildren`
	AttrHasNoChildre = `\HasNoChildren`
	AttrMarked       = `\Marked`
	AttrUnmarked     = `\Unmarked`
	AttrNoInferiors  = `\Noinferiors`

	// SPECIAL-USE attributes (RFC 6154).
	AttrInbox   = `\Inbox`
	AttrSent    = `\Sent`
	AttrDrafts  = `\Drafts`
	AttrTrash   = `\Trash`
	AttrJunk    = `\Junk`
	AttrArchive = `\Archive`
	AttrFlagged = `\Flagged`
)

// MailboxInfo describes a single mailbox as reported by LIST or LSUB.
type MailboxInfo struct {
	// Name is the mailbox name exactly as the server sent it; a
	// modified UTF-7 name is not decoded to UTF-8.
	Name string

	// Delim is the hierarchy delimiter, e.g. "/" or ".". Empty if the
	// server reported NIL (flat namespace, no hierarchy).
	Delim string

	// Attrs holds the mailbox attribute tokens reported by the server,
	// e.g. \Noselect, \HasChildren, \Sent.
	Attrs []string
}

// HasAttr reports whether the mailbox carries the given attribute
// token (case-sensitive; IMAP attribute tokens are fixed-case atoms).
func (m MailboxInfo) HasAttr(attr string) bool {
	for _, a := range m.Attrs {
		if a == attr {
			return true
		}
	}
	return false
}

// Selectable reports whether the mailbox can be the target of SELECT
// or EXAMINE (i.e. it does not carry \Noselect).
func (m MailboxInfo) Selectable() bool {
	return !m.HasAttr(AttrNoSelect)
}

// MailboxStatus is the status of a mailbox derived from a SELECT or
// EXAMINE command, or from STATUS for an unselected mailbox.
type MailboxStatus struct {
	Name string

	// NumMessages is the EXISTS count.
	NumMessages uint32
	// NumRecent is the RECENT count.
	NumRecent uint32
	// NumUnseen is the count of messages without \Seen. SELECT/EXAMINE
	// never report a count directly, so this is left 0 until the
	// caller issues a STATUS (UNSEEN) or SEARCH UNSEEN; see FirstUnseen
	// for the one piece SELECT/EXAMINE do report.
	NumUnseen uint32

	// FirstUnseen is the sequence number of the first message without
	// \Seen, taken from the SELECT/EXAMINE OK [UNSEEN n] response code.
	// Zero if the server didn't send that code, which a compliant
	// server may omit even for a mailbox that has unseen messages. It
	// is a sequence number, not a count, and is not a substitute for
	// NumUnseen.
	FirstUnseen uint32

	// UIDValidity changing between sessions invalidates any UID-keyed
	// cache the caller maintains.
	UIDValidity uint32
	// UIDNext is the predicted UID of the next message to arrive.
	UIDNext uint32

	// ReadOnly reflects the server's [READ-ONLY]/[READ-WRITE] response
	// code on the tagged SELECT/EXAMINE completion.
	ReadOnly bool

	// Flags are the flags the server supports in this mailbox session.
	Flags []Flag
	// PermanentFlags are the flags that may be permanently set via
	// STORE (a trailing \* element means new keywords are allowed).
	PermanentFlags []Flag
}

// Flag is an IMAP message flag: one of the five standard system flags
// or a free-form keyword atom.
type Flag string

// Standard system flags. \Recent is recognized on input but
// forbidden as a STORE argument — enforced by ValidateStoreFlag.
const (
	FlagSeen     Flag = `\Seen`
	FlagAnswered Flag = `\Answered`
	FlagFlagged  Flag = `\Flagged`
	FlagDeleted  Flag = `\Deleted`
	FlagDraft    Flag = `\Draft`
	FlagRecent   Flag = `\Recent`
	// FlagWildcard ("\*") in PermanentFlags means the server accepts
	// arbitrary new keywords.
	FlagWildcard Flag = `\*`
)

// ValidateStoreFlag reports an error if flag cannot legally be used as
// a STORE argument. \Recent is server-maintained and read-only.
func ValidateStoreFlag(flag Flag) error {
	if flag == FlagRecent {
		return &InvalidArgumentError{Reason: `\Recent cannot be set via STORE`}
	}
	if flag == "" {
		return &InvalidArgumentError{Reason: "flag must not be empty"}
	}
	return nil
}
