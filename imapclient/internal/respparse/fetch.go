package respparse

import (
	"fmt"
	"strings"
)

// Address is one ENVELOPE address structure:
// (name sourceRoute mailbox host).
type Address struct {
	Name, Route, Mailbox, Host string
}

// Envelope mirrors RFC 3501 §7.4.2's ENVELOPE structure.
type Envelope struct {
	Date                           string
	Subject                        string
	From, Sender, ReplyTo          []Address
	To, Cc, Bcc                    []Address
	InReplyTo                      string
	MessageID                      string
}

// BodySection is one fetched BODY[<section>] payload.
type BodySection struct {
	Section string // e.g. "", "TEXT", "1.2", "1.MIME", "HEADER.FIELDS (SUBJECT)"
	Partial bool
	Offset  uint32
	Data    []byte
}

// FetchData is the parsed payload of an untagged FETCH response.
type FetchData struct {
	UID           uint32
	HasUID        bool
	Flags         []string
	InternalDate  string
	RFC822Size    uint32
	HasSize       bool
	Envelope      *Envelope
	BodyStructure *Value // raw tree; bodystructure.go converts this
	Sections      []BodySection
}

func parseFetch(p *TokenParser) (*FetchData, error) {
	listVal, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("FETCH missing attribute list: %w", err)
	}
	if listVal.Kind != ValueList {
		return nil, fmt.Errorf("FETCH attribute list is not a list")
	}

	fd := &FetchData{}
	items := listVal.List
	for i := 0; i < len(items); {
		name := strings.ToUpper(items[i].Str())
		switch {
		case name == "UID":
			n, err := parseUint32(items[i+1].Str())
			if err != nil {
				return nil, err
			}
			fd.UID, fd.HasUID = n, true
			i += 2
		case name == "FLAGS":
			for _, f := range items[i+1].List {
				fd.Flags = append(fd.Flags, f.Str())
			}
			i += 2
		case name == "INTERNALDATE":
			fd.InternalDate = items[i+1].Str()
			i += 2
		case name == "RFC822.SIZE":
			n, err := parseUint32(items[i+1].Str())
			if err != nil {
				return nil, err
			}
			fd.RFC822Size, fd.HasSize = n, true
			i += 2
		case name == "ENVELOPE":
			env, err := parseEnvelope(items[i+1])
			if err != nil {
				return nil, err
			}
			fd.Envelope = env
			i += 2
		case name == "BODYSTRUCTURE" || name == "BODY" && i+1 < len(items) && items[i+1].Kind == ValueList:
			v := items[i+1]
			fd.BodyStructure = &v
			i += 2
		case name == "BODY" || name == "BODY.PEEK":
			section, consumed, err := parseSectionSpec(items[i:])
			if err != nil {
				return nil, err
			}
			i += consumed
			if i >= len(items) {
				return nil, fmt.Errorf("BODY[%s] missing literal data", section.Section)
			}
			section.Data = items[i].Data
			if items[i].Kind != ValueLiteral {
				section.Data = []byte(items[i].Str())
			}
			fd.Sections = append(fd.Sections, section)
			i++
		default:
			// Unknown/extension FETCH item: skip its single associated value.
			i += 2
		}
	}
	return fd, nil
}

// parseSectionSpec parses "BODY" "[" ... "]" possibly followed by
// "<" offset ">", returning the BodySection (sans Data) and the number
// of tokens consumed from items starting at index 0 ("BODY" itself).
func parseSectionSpec(items []Value) (BodySection, int, error) {
	i := 1 // skip "BODY"/"BODY.PEEK"
	if i >= len(items) || items[i].Str() != "[" {
		return BodySection{}, 0, fmt.Errorf("expected '[' after BODY")
	}
	i++
	var parts []string
	for i < len(items) && items[i].Str() != "]" {
		parts = append(parts, items[i].Str())
		i++
	}
	if i >= len(items) {
		return BodySection{}, 0, fmt.Errorf("unterminated BODY[...] section spec")
	}
	i++ // consume "]"

	sec := BodySection{Section: strings.Join(parts, " ")}
	if i < len(items) && items[i].Str() == "<" {
		i++
		if i < len(items) {
			if n, err := parseUint32(items[i].Str()); err == nil {
				sec.Partial = true
				sec.Offset = n
			}
			i++
		}
		if i < len(items) && items[i].Str() == ">" {
			i++
		}
	}
	return sec, i, nil
}

func parseEnvelope(v Value) (*Envelope, error) {
	if v.IsNil() {
		return nil, nil
	}
	if len(v.List) < 10 {
		return nil, fmt.Errorf("ENVELOPE: expected 10 fields, got %d", len(v.List))
	}
	env := &Envelope{
		Date:    v.List[0].Str(),
		Subject: v.List[1].Str(),
	}
	var err error
	if env.From, err = parseAddressList(v.List[2]); err != nil {
		return nil, err
	}
	if env.Sender, err = parseAddressList(v.List[3]); err != nil {
		return nil, err
	}
	if env.ReplyTo, err = parseAddressList(v.List[4]); err != nil {
		return nil, err
	}
	if env.To, err = parseAddressList(v.List[5]); err != nil {
		return nil, err
	}
	if env.Cc, err = parseAddressList(v.List[6]); err != nil {
		return nil, err
	}
	if env.Bcc, err = parseAddressList(v.List[7]); err != nil {
		return nil, err
	}
	env.InReplyTo = v.List[8].Str()
	env.MessageID = v.List[9].Str()
	return env, nil
}

func parseAddressList(v Value) ([]Address, error) {
	if v.IsNil() {
		return nil, nil
	}
	var out []Address
	for _, a := range v.List {
		if len(a.List) != 4 {
			return nil, fmt.Errorf("ENVELOPE address: expected 4 fields, got %d", len(a.List))
		}
		out = append(out, Address{
			Name:    a.List[0].Str(),
			Route:   a.List[1].Str(),
			Mailbox: a.List[2].Str(),
			Host:    a.List[3].Str(),
		})
	}
	return out, nil
}
