package mime

import "testing"

func TestNormalizeLabel(t *testing.T) {
	tests := map[string]string{
		`  "ISO-8859-1"  `: "iso-8859-1",
		"UTF_8":           "utf-8",
		"'us-ascii'":      "us-ascii",
	}
	for in, want := range tests {
		if got := NormalizeLabel(in); got != want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveCharsetAliases(t *testing.T) {
	tests := []string{"utf8", "latin1", "cp1252", "ks_c_5601-1987", "cp932"}
	for _, in := range tests {
		enc, isBinary := ResolveCharset(in)
		if isBinary {
			t.Errorf("ResolveCharset(%q) reported binary, want a text encoding", in)
		}
		if in != "utf8" && enc == nil {
			t.Errorf("ResolveCharset(%q) = nil encoding, want a resolved decoder", in)
		}
	}
}

func TestResolveCharsetBinary(t *testing.T) {
	_, isBinary := ResolveCharset("binary")
	if !isBinary {
		t.Error("ResolveCharset(\"binary\") should report isBinary=true")
	}
}

func TestResolveCharsetUnknownFallsBackToUTF8(t *testing.T) {
	enc, isBinary := ResolveCharset("x-totally-made-up-charset")
	if isBinary {
		t.Error("unknown charset should not be treated as binary")
	}
	if enc != nil {
		t.Error("unresolvable charset should fall back to nil (UTF-8 passthrough)")
	}
}

func TestDecodePassthroughForUTF8(t *testing.T) {
	in := []byte("hello world")
	out, err := Decode(in, "utf-8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "hello world" {
		t.Errorf("got %q, want unchanged", out)
	}
}

func TestDetectCharsetFromContentType(t *testing.T) {
	prefix := []byte("Content-Type: text/html; charset=iso-8859-1\r\n\r\n<html>")
	if got := DetectCharset(prefix); got != "iso-8859-1" {
		t.Errorf("DetectCharset() = %q, want %q", got, "iso-8859-1")
	}
}

func TestDetectCharsetFromMetaTag(t *testing.T) {
	prefix := []byte("<html><head><meta charset=\"windows-1252\"></head>")
	if got := DetectCharset(prefix); got != "windows-1252" {
		t.Errorf("DetectCharset() = %q, want %q", got, "windows-1252")
	}
}

func TestDetectCharsetDefaultsToUTF8(t *testing.T) {
	if got := DetectCharset([]byte("no charset info here")); got != "utf-8" {
		t.Errorf("DetectCharset() = %q, want utf-8 default", got)
	}
}

func TestDetectCharsetFromMetaTagUsesHTMLEncodingTable(t *testing.T) {
	// HTML5's encoding sniffing table maps "latin1" to windows-1252, not
	// iso-8859-1 as plain IANA lookup would, because that's what
	// browsers actually render <meta charset=latin1> pages as.
	prefix := []byte("<html><head><meta charset=\"latin1\"></head>")
	if got := DetectCharset(prefix); got != "windows-1252" {
		t.Errorf("DetectCharset() = %q, want %q", got, "windows-1252")
	}
}
