package mime

import (
	"encoding/base64"
	"strings"
)

// DecodeBase64 decodes a base64 body, ignoring any whitespace or line
// wraps the server or a mail client inserted, and tolerating missing
// trailing padding — real-world MIME bodies routinely omit it.
func DecodeBase64(src []byte) ([]byte, error) {
	cleaned := stripWhitespace(src)
	if n := len(cleaned) % 4; n != 0 {
		cleaned = append(cleaned, strings.Repeat("=", 4-n)...)
	}
	return base64.StdEncoding.DecodeString(string(cleaned))
}

func stripWhitespace(src []byte) []byte {
	out := make([]byte, 0, len(src))
	for _, b := range src {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			out = append(out, b)
		}
	}
	return out
}
