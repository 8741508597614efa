package respparse

import (
	"fmt"
	"strconv"
	"strings"
)

func parseUntagged(p *TokenParser) (*Untagged, error) {
	first, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: empty untagged response: %w", err)
	}

	// "<number> <KEYWORD> ..." — EXISTS, RECENT, EXPUNGE, FETCH.
	if first.Kind == ValueAtom {
		if n, err := strconv.ParseUint(first.Text, 10, 32); err == nil {
			return parseNumberedUntagged(uint32(n), p)
		}
	}

	if first.Kind != ValueAtom {
		return nil, fmt.Errorf("respparse: unexpected untagged response shape")
	}

	switch strings.ToUpper(first.Text) {
	case "OK", "NO", "BAD", "BYE", "PREAUTH":
		return parseStateUntagged(first.Text, p)
	case "CAPABILITY":
		return parseCapabilityUntagged(p)
	case "LIST":
		return parseListUntagged(UntaggedList, p)
	case "LSUB":
		return parseListUntagged(UntaggedLSub, p)
	case "STATUS":
		return parseStatusUntagged(p)
	case "FLAGS":
		return parseFlagsUntagged(p)
	case "SEARCH":
		return parseSearchUntagged(p)
	case "ID":
		return parseIDUntagged(p)
	default:
		// Unknown untagged keyword: tolerated, retained as raw text so
		// unrecognized extensions don't abort parsing.
		return &Untagged{Kind: UntaggedOther, Text: first.Text + " " + p.RestText()}, nil
	}
}

func parseNumberedUntagged(n uint32, p *TokenParser) (*Untagged, error) {
	kwTok, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: numbered untagged response missing keyword: %w", err)
	}
	kw := strings.ToUpper(kwTok.Str())
	switch kw {
	case "EXISTS":
		return &Untagged{Kind: UntaggedExists, Num: n}, nil
	case "RECENT":
		return &Untagged{Kind: UntaggedRecent, Num: n}, nil
	case "EXPUNGE":
		return &Untagged{Kind: UntaggedExpunge, Num: n}, nil
	case "FETCH":
		fd, err := parseFetch(p)
		if err != nil {
			return nil, fmt.Errorf("respparse: FETCH %d: %w", n, err)
		}
		return &Untagged{Kind: UntaggedFetch, Num: n, Fetch: fd}, nil
	default:
		return &Untagged{Kind: UntaggedOther, Num: n, Text: kw + " " + p.RestText()}, nil
	}
}

func parseStateUntagged(word string, p *TokenParser) (*Untagged, error) {
	state, err := parseState(word)
	if err != nil {
		// BYE and PREAUTH aren't tagged-response states; treat them as OK-shaped.
		state = StateOK
	}
	code, err := parseResponseCode(p)
	if err != nil {
		return nil, err
	}
	return &Untagged{
		Kind:  UntaggedState,
		State: state,
		Code:  code,
		Text:  strings.TrimSpace(p.RestText()),
	}, nil
}

func parseCapabilityUntagged(p *TokenParser) (*Untagged, error) {
	vals, err := p.Rest()
	if err != nil {
		return nil, err
	}
	caps := make([]string, 0, len(vals))
	for _, v := range vals {
		caps = append(caps, strings.ToUpper(v.Str()))
	}
	return &Untagged{Kind: UntaggedCapability, Capabilities: caps}, nil
}

func parseListUntagged(kind UntaggedKind, p *TokenParser) (*Untagged, error) {
	attrsVal, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: LIST/LSUB missing attribute list: %w", err)
	}
	var attrs []string
	for _, a := range attrsVal.List {
		attrs = append(attrs, a.Str())
	}

	delimVal, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: LIST/LSUB missing delimiter: %w", err)
	}
	delim := ""
	if !delimVal.IsNil() {
		delim = delimVal.Str()
	}

	nameVal, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: LIST/LSUB missing name: %w", err)
	}

	return &Untagged{Kind: kind, Mailbox: &MailboxData{Attrs: attrs, Delim: delim, Name: nameVal.Str()}}, nil
}

func parseStatusUntagged(p *TokenParser) (*Untagged, error) {
	nameVal, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: STATUS missing mailbox name: %w", err)
	}
	attrsVal, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: STATUS missing attribute list: %w", err)
	}
	attrs := map[string]uint32{}
	for i := 0; i+1 < len(attrsVal.List); i += 2 {
		n, err := parseUint32(attrsVal.List[i+1].Str())
		if err != nil {
			return nil, err
		}
		attrs[strings.ToUpper(attrsVal.List[i].Str())] = n
	}
	return &Untagged{Kind: UntaggedStatus, Status: &StatusData{Mailbox: nameVal.Str(), Attrs: attrs}}, nil
}

func parseFlagsUntagged(p *TokenParser) (*Untagged, error) {
	listVal, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: FLAGS missing list: %w", err)
	}
	flags := make([]string, 0, len(listVal.List))
	for _, f := range listVal.List {
		flags = append(flags, f.Str())
	}
	return &Untagged{Kind: UntaggedFlags, Flags: flags}, nil
}

func parseSearchUntagged(p *TokenParser) (*Untagged, error) {
	vals, err := p.Rest()
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, 0, len(vals))
	for _, v := range vals {
		n, err := parseUint32(v.Str())
		if err != nil {
			return nil, err
		}
		ids = append(ids, n)
	}
	return &Untagged{Kind: UntaggedSearch, SearchIDs: ids}, nil
}

func parseIDUntagged(p *TokenParser) (*Untagged, error) {
	listVal, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: ID missing list: %w", err)
	}
	params := map[string]string{}
	if !listVal.IsNil() {
		for i := 0; i+1 < len(listVal.List); i += 2 {
			params[listVal.List[i].Str()] = listVal.List[i+1].Str()
		}
	}
	return &Untagged{Kind: UntaggedID, IDParams: params}, nil
}
