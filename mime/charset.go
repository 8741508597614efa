// Package mime decodes the quoted-printable, base64, encoded-word, and
// charset-tagged content that the IMAP engine fetches as raw bytes.
// Nothing here talks to the network; it operates purely on bytes handed
// to it by imapclient's BodyStructure walker.
package mime

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// charsetAliases maps the common mislabeled or shorthand charset names
// seen in real-world mail to their canonical IANA form, checked before
// falling through to the platform IANA table.
var charsetAliases = map[string]string{
	"utf8":              "utf-8",
	"utf-8":             "utf-8",
	"us-ascii":          "us-ascii",
	"ascii":             "us-ascii",
	"latin1":            "iso-8859-1",
	"latin-1":           "iso-8859-1",
	"iso8859-1":         "iso-8859-1",
	"cp1252":            "windows-1252",
	"windows1252":       "windows-1252",
	"ks-c-5601-1987":    "euc-kr",
	"ksc5601":           "euc-kr",
	"cp932":             "shift_jis",
	"shift-jis":         "shift_jis",
	"x-sjis":            "shift_jis",
	"gb2312":            "gbk",
	"csgb2312":          "gbk",
	"big-5":             "big5",
}

// NormalizeLabel trims, strips surrounding quotes, lowercases, and
// collapses underscores to hyphens in a charset label, the
// normalization required before alias/IANA lookup.
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.Trim(label, `"'`)
	label = strings.ToLower(label)
	label = strings.ReplaceAll(label, "_", "-")
	return label
}

// ResolveCharset resolves a (possibly mislabeled) charset name to a
// decoder, in three steps: normalize + alias table, then the platform
// IANA charset index, then UTF-8 as a last resort. "binary" resolves to
// a nil Encoding, meaning "no transformation" — the caller should treat
// the bytes as opaque.
//
// ResolveCharset never fails: an unresolvable label degrades to UTF-8
// rather than erroring.
func ResolveCharset(label string) (enc encoding.Encoding, isBinary bool) {
	norm := NormalizeLabel(label)
	if norm == "" || norm == "utf-8" {
		return nil, false
	}
	if norm == "binary" {
		return nil, true
	}
	if alias, ok := charsetAliases[norm]; ok {
		norm = alias
	}
	if e, err := ianaindex.IANA.Encoding(norm); err == nil && e != nil {
		return e, false
	}
	// Unresolved: fall back to UTF-8 (nil Encoding means "already
	// UTF-8/no transform needed").
	return nil, false
}

// Decode transforms raw into UTF-8 using the charset resolved from
// label. If the label resolves to "binary", raw is returned unchanged.
// If the label is unresolvable, raw is assumed to already be valid
// UTF-8 and is returned as-is (matching ResolveCharset's fallback).
func Decode(raw []byte, label string) ([]byte, error) {
	enc, isBinary := ResolveCharset(label)
	if isBinary || enc == nil {
		return raw, nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return raw, err
	}
	return out, nil
}

// DetectCharset sniffs a charset for parts that don't declare one in
// their metadata: scan the textual prefix for a Content-Type charset
// parameter, then an HTML meta charset tag, defaulting to UTF-8.
func DetectCharset(prefix []byte) string {
	if cs := scanContentTypeCharset(prefix); cs != "" {
		return cs
	}
	if cs := scanMetaCharset(prefix); cs != "" {
		return cs
	}
	return "utf-8"
}

func scanContentTypeCharset(prefix []byte) string {
	idx := bytes.Index(bytes.ToLower(prefix), []byte("content-type:"))
	if idx < 0 {
		return ""
	}
	return scanCharsetParam(prefix[idx:], "charset=")
}

func scanMetaCharset(prefix []byte) string {
	lower := bytes.ToLower(prefix)
	idx := bytes.Index(lower, []byte("<meta"))
	if idx < 0 {
		return ""
	}
	raw := scanCharsetParam(prefix[idx:], "charset=")
	if raw == "" {
		return ""
	}
	// A <meta charset> label follows the HTML5 encoding sniffing table
	// (browsers treat "latin1", "unicode", "iso-8859-1" etc. the way
	// htmlindex does), not plain IANA naming, so resolve it through
	// htmlindex rather than ianaindex and report back its canonical name.
	if enc, err := htmlindex.Get(raw); err == nil {
		if canon, err := htmlindex.Name(enc); err == nil {
			return canon
		}
	}
	return raw
}

func scanCharsetParam(buf []byte, key string) string {
	lower := bytes.ToLower(buf)
	idx := bytes.Index(lower, []byte(key))
	if idx < 0 {
		return ""
	}
	rest := bytes.TrimLeft(buf[idx+len(key):], `"'`)
	end := bytes.IndexAny(rest, " ;\"'>\r\n")
	if end < 0 {
		end = len(rest)
	}
	val := strings.Trim(string(rest[:end]), `"' `)
	if val == "" {
		return ""
	}
	return val
}

// ValidUTF8 reports whether b is already valid UTF-8, used by callers
// deciding whether charset decoding is necessary at all.
func ValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}
