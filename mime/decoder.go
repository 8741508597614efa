package mime

import (
	"bytes"
	"fmt"
	"strings"
)

// QuotedPrintableMode selects how DecodeQuotedPrintable handles a
// malformed escape sequence.
type QuotedPrintableMode int

const (
	// Strict fails the whole decode on the first malformed escape.
	Strict QuotedPrintableMode = iota
	// Lossy preserves the raw "=XX" bytes verbatim and keeps decoding.
	Lossy
)

// DecodeQuotedPrintable decodes a quoted-printable body (RFC 2045 §6.7):
// soft line breaks ("=\r\n" or "=\n") are removed, "=HH" escapes are
// replaced with the corresponding byte, and all other bytes pass
// through unchanged. Mode controls behavior on a malformed escape.
func DecodeQuotedPrintable(src []byte, mode QuotedPrintableMode) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(src))

	for i := 0; i < len(src); i++ {
		b := src[i]
		if b != '=' {
			out.WriteByte(b)
			continue
		}

		// Soft line break: "=\r\n" or "=\n" is removed entirely.
		if i+1 < len(src) && src[i+1] == '\n' {
			i++
			continue
		}
		if i+2 < len(src) && src[i+1] == '\r' && src[i+2] == '\n' {
			i += 2
			continue
		}

		if i+2 >= len(src) {
			if mode == Strict {
				return nil, fmt.Errorf("mime: truncated quoted-printable escape at offset %d", i)
			}
			out.WriteByte(b)
			continue
		}

		hi, okHi := hexVal(src[i+1])
		lo, okLo := hexVal(src[i+2])
		if !okHi || !okLo {
			if mode == Strict {
				return nil, fmt.Errorf("mime: malformed quoted-printable escape %q at offset %d", src[i:i+3], i)
			}
			out.WriteByte(b)
			continue
		}
		out.WriteByte(hi<<4 | lo)
		i += 2
	}
	return out.Bytes(), nil
}

func hexVal(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

// DecodeBody decodes a message body given its Content-Transfer-Encoding
// and charset, in that order: CTE decoding first (quoted-printable or
// base64; anything else — 7bit, 8bit, binary — passes through
// unchanged), then charset transcoding to UTF-8. qpMode selects strict
// or lossy handling of malformed quoted-printable escapes.
func DecodeBody(raw []byte, encoding, charset string, qpMode QuotedPrintableMode) ([]byte, error) {
	var decoded []byte
	var err error

	switch strings.ToLower(encoding) {
	case "quoted-printable":
		decoded, err = DecodeQuotedPrintable(raw, qpMode)
		if err != nil {
			return nil, err
		}
	case "base64":
		decoded, err = DecodeBase64(raw)
		if err != nil {
			return nil, err
		}
	default:
		decoded = raw
	}

	if charset == "" {
		if ValidUTF8(decoded) {
			return decoded, nil
		}
		charset = DetectCharset(decoded)
	}
	return Decode(decoded, charset)
}
