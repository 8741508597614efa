package imap

import "time"

// SearchCriteria describes an IMAP SEARCH/UID SEARCH query. Zero
// values are omitted from the wire encoding (done by the imapclient
// package). All non-empty fields are combined with
// implicit AND, matching RFC 3501 SEARCH semantics.
type SearchCriteria struct {
	// Text matches the free-text "TEXT" key against the whole message.
	Text []string
	// Body matches the "BODY" key against the message body only.
	Body []string

	// HeaderField matches arbitrary header fields via "HEADER <field> <value>".
	HeaderField []SearchHeaderField

	Since  time.Time
	Before time.Time
	On     time.Time

	SentSince  time.Time
	SentBefore time.Time

	Flag    []Flag
	NotFlag []Flag

	// UID restricts the search to the given UID set(s).
	UID []*UIDSet
	// SeqNum restricts the search to the given sequence-number set(s).
	SeqNum []*SeqSet

	Larger  uint32
	Smaller uint32

	// All, when true and no other field is set, searches every message
	// in the mailbox (the wire encoding degenerates to bare "ALL").
	All bool
}

// SearchHeaderField is one HEADER <field> <value> search key.
type SearchHeaderField struct {
	Key   string
	Value string
}

// SortCriterion is one key in a SORT command's ordered key list
// (RFC 5256), e.g. SORT (REVERSE DATE SUBJECT).
type SortCriterion struct {
	Key     SortKey
	Reverse bool
}

// SortKey enumerates the sort keys defined by the SORT extension.
type SortKey string

const (
	SortArrival SortKey = "ARRIVAL"
	SortCc      SortKey = "CC"
	SortDate    SortKey = "DATE"
	SortFrom    SortKey = "FROM"
	SortSize    SortKey = "SIZE"
	SortSubject SortKey = "SUBJECT"
	SortTo      SortKey = "TO"
)
