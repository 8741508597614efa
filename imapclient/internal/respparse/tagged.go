package respparse

import (
	"fmt"
	"strings"
)

// parseTagged parses everything after the tag: the state word (OK/NO/
// BAD), an optional bracketed response code, and trailing free text.
func parseTagged(tag string, p *TokenParser) (*Tagged, error) {
	stateTok, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("respparse: tagged response missing state: %w", err)
	}
	state, err := parseState(stateTok.Str())
	if err != nil {
		return nil, err
	}

	code, err := parseResponseCode(p)
	if err != nil {
		return nil, err
	}

	return &Tagged{
		Tag:   tag,
		State: state,
		Code:  code,
		Text:  strings.TrimSpace(p.RestText()),
	}, nil
}

func parseState(s string) (ResponseState, error) {
	switch strings.ToUpper(s) {
	case "OK":
		return StateOK, nil
	case "NO":
		return StateNO, nil
	case "BAD":
		return StateBAD, nil
	default:
		return 0, fmt.Errorf("respparse: unrecognized response state %q", s)
	}
}
