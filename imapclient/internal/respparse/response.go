package respparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wireimap/imapkit/imapclient/internal/wire"
)

// ResponseState is the tagged completion's success/failure state.
type ResponseState int

const (
	StateOK ResponseState = iota
	StateNO
	StateBAD
)

func (s ResponseState) String() string {
	switch s {
	case StateOK:
		return "OK"
	case StateNO:
		return "NO"
	default:
		return "BAD"
	}
}

// ResponseCode is the optional bracketed code on an OK/NO/BAD/BYE
// response, e.g. "[CAPABILITY IMAP4rev1 IDLE]" or "[TRYCREATE]".
type ResponseCode struct {
	Name string
	Args []string
}

// Tagged is a tagged command completion.
type Tagged struct {
	Tag   string
	State ResponseState
	Code  *ResponseCode
	Text  string
}

// Continuation is a "+" continuation-request response.
type Continuation struct {
	Text string
}

// Untagged is a single untagged ("* ...") response, one of the Kind
// values below. Only the fields relevant to Kind are populated.
type Untagged struct {
	Kind UntaggedKind

	// Numeric payload for EXISTS, RECENT, EXPUNGE, and the sequence
	// number prefix of FETCH.
	Num uint32

	State        ResponseState // CondState (OK/NO/BAD/BYE-as-OK-like)
	Code         *ResponseCode
	Text         string
	Capabilities []string
	Flags        []string

	Mailbox  *MailboxData
	Status   *StatusData
	Fetch    *FetchData
	SearchIDs []uint32
	IDParams map[string]string
}

// UntaggedKind discriminates Untagged's payload.
type UntaggedKind int

const (
	UntaggedState UntaggedKind = iota // OK/NO/BAD/BYE/PREAUTH
	UntaggedCapability
	UntaggedList
	UntaggedLSub
	UntaggedStatus
	UntaggedExists
	UntaggedRecent
	UntaggedFlags
	UntaggedExpunge
	UntaggedFetch
	UntaggedSearch
	UntaggedID
	UntaggedOther
)

// MailboxData carries a LIST/LSUB response.
type MailboxData struct {
	Attrs []string
	Delim string // "" when NIL
	Name  string
}

// StatusData carries a STATUS response's attribute/value pairs.
type StatusData struct {
	Mailbox string
	Attrs   map[string]uint32
}

// Response is the sum of everything Parse can produce for one frame.
type Response struct {
	Tagged       *Tagged
	Untagged     *Untagged
	Continuation *Continuation
}

// Parse lexes one Frame and interprets it as a Response.
func Parse(frame *wire.Frame) (*Response, error) {
	toks, err := Lex(frame)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("respparse: empty response line")
	}

	first := toks[0]
	if first.Kind == TokenAtom && first.Text == "+" {
		p := NewTokenParser(toks[1:])
		return &Response{Continuation: &Continuation{Text: p.RestText()}}, nil
	}
	if first.Kind == TokenAtom && first.Text == "*" {
		u, err := parseUntagged(NewTokenParser(toks[1:]))
		if err != nil {
			return nil, err
		}
		return &Response{Untagged: u}, nil
	}
	if first.Kind != TokenAtom {
		return nil, fmt.Errorf("respparse: response does not start with a tag, '*', or '+'")
	}

	tagged, err := parseTagged(first.Text, NewTokenParser(toks[1:]))
	if err != nil {
		return nil, err
	}
	return &Response{Tagged: tagged}, nil
}

// parseResponseCode parses a bracketed response code "[NAME arg arg]"
// if present at the parser's current position, consuming it.
func parseResponseCode(p *TokenParser) (*ResponseCode, error) {
	v, ok := p.peek()
	if !ok || v.Kind != TokenAtom || v.Text != "[" {
		return nil, nil
	}
	p.pos++

	nameTok, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: response code: %w", err)
	}
	code := &ResponseCode{Name: strings.ToUpper(nameTok.Str())}

	for {
		v, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("respparse: unterminated response code")
		}
		if v.Kind == TokenAtom && v.Text == "]" {
			p.pos++
			return code, nil
		}
		arg, err := p.Next()
		if err != nil {
			return nil, err
		}
		code.Args = append(code.Args, arg.Str())
	}
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("respparse: invalid number %q: %w", s, err)
	}
	return uint32(n), nil
}
