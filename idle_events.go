package imap

// IdleEventKind discriminates IdleEvent's payload.
type IdleEventKind int

const (
	IdleExists IdleEventKind = iota
	IdleRecent
	IdleExpunge
	IdleFetch
	IdleFlagsChanged
	IdleAlert
	IdleCapability
	IdleBye
)

func (k IdleEventKind) String() string {
	switch k {
	case IdleExists:
		return "exists"
	case IdleRecent:
		return "recent"
	case IdleExpunge:
		return "expunge"
	case IdleFetch:
		return "fetch"
	case IdleFlagsChanged:
		return "flagsChanged"
	case IdleAlert:
		return "alert"
	case IdleCapability:
		return "capability"
	default:
		return "bye"
	}
}

// IdleEvent is one event delivered on the IDLE stream.
type IdleEvent struct {
	Kind IdleEventKind

	// Num is the EXISTS/RECENT count, or the sequence number for
	// EXPUNGE/FETCH/flagsChanged.
	Num SequenceNumber

	// Flags carries the new flag list for flagsChanged and fetch
	// events that report a FLAGS attribute.
	Flags []Flag

	// Capabilities carries the new capability list for a capability
	// event (an untagged CAPABILITY arriving mid-IDLE).
	Capabilities []string

	// Text carries the alert/bye message text.
	Text string
}
