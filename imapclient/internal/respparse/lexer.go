// Package respparse converts literal-aware wire frames into typed IMAP
// response values: tagged completions, untagged data, and FETCH/
// BODYSTRUCTURE payloads.
package respparse

import (
	"fmt"
	"strings"

	"github.com/wireimap/imapkit/imapclient/internal/wire"
)

// TokenKind enumerates the lexical categories produced from a Frame.
type TokenKind int

const (
	TokenAtom TokenKind = iota
	TokenQuoted
	TokenLiteral
	TokenListOpen
	TokenListClose
	TokenNil
)

// Token is one lexical unit: a bare atom (e.g. "FETCH", "12", "\Seen"),
// a quoted string's decoded content, a literal's raw bytes, a list
// delimiter, or the NIL atom.
type Token struct {
	Kind TokenKind
	Text string // TokenAtom, TokenQuoted
	Data []byte // TokenLiteral
}

// Lex flattens a Frame's atoms into a token stream. Literal atoms
// become single TokenLiteral tokens; text atoms are split into
// parenthesized-list delimiters, quoted strings, and bare atoms,
// exactly as IMAP response grammar requires.
func Lex(frame *wire.Frame) ([]Token, error) {
	var toks []Token
	for _, a := range frame.Atoms {
		if a.Literal {
			toks = append(toks, Token{Kind: TokenLiteral, Data: a.Data})
			continue
		}
		lexed, err := lexText(a.Text)
		if err != nil {
			return nil, err
		}
		toks = append(toks, lexed...)
	}
	return toks, nil
}

func lexText(text string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ':
			i++
		case c == '(':
			toks = append(toks, Token{Kind: TokenListOpen})
			i++
		case c == ')':
			toks = append(toks, Token{Kind: TokenListClose})
			i++
		case c == '[':
			toks = append(toks, Token{Kind: TokenAtom, Text: "["})
			i++
		case c == ']':
			toks = append(toks, Token{Kind: TokenAtom, Text: "]"})
			i++
		case c == '<' && partialRangeFollows(text, i):
			end := strings.IndexByte(text[i:], '>')
			toks = append(toks, Token{Kind: TokenAtom, Text: "<"})
			toks = append(toks, Token{Kind: TokenAtom, Text: text[i+1 : i+end]})
			toks = append(toks, Token{Kind: TokenAtom, Text: ">"})
			i += end + 1
		case c == '"':
			end, val, err := lexQuoted(text, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TokenQuoted, Text: val})
			i = end
		default:
			end := i
			for end < len(text) && !strings.ContainsRune(" ()[]", rune(text[end])) {
				end++
			}
			word := text[i:end]
			if strings.EqualFold(word, "NIL") {
				toks = append(toks, Token{Kind: TokenNil})
			} else {
				toks = append(toks, Token{Kind: TokenAtom, Text: word})
			}
			i = end
		}
	}
	return toks, nil
}

// partialRangeFollows reports whether text[i] == '<' introduces a
// partial-fetch range marker "<digits>", as opposed to an unrelated
// '<' appearing in unquoted text.
func partialRangeFollows(text string, i int) bool {
	end := strings.IndexByte(text[i:], '>')
	if end < 0 {
		return false
	}
	digits := text[i+1 : i+end]
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// lexQuoted decodes a quoted string starting at text[start] == '"',
// returning the index just past the closing quote.
func lexQuoted(text string, start int) (end int, value string, err error) {
	var b strings.Builder
	i := start + 1
	for i < len(text) {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			b.WriteByte(text[i+1])
			i += 2
			continue
		}
		if c == '"' {
			return i + 1, b.String(), nil
		}
		b.WriteByte(c)
		i++
	}
	return 0, "", fmt.Errorf("respparse: unterminated quoted string in %q", text)
}
