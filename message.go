package imap

import (
	"strings"
	"time"
)

// Header is the summary metadata the engine extracts from a FETCH
// (ENVELOPE ...) response, suitable for list views before any body
// content is fetched.
type Header struct {
	SeqNum SequenceNumber
	UID    UID // zero if the command that produced this Header didn't request UID

	Subject   string
	From      string
	To        []string
	Cc        []string
	Date      time.Time
	MessageID string

	Flags []Flag
	// Extra holds any additional parsed envelope/header fields keyed by
	// name (e.g. "In-Reply-To", "References") that don't have a
	// first-class field above.
	Extra map[string]string

	// Parts is the flattened, depth-first list of MIME parts produced
	// by the BodyStructure walker once BODYSTRUCTURE has been fetched
	// and walked. Nil until FetchMessage (or FetchMessages) has run;
	// FetchMessageStructure returns the unwalked BodyStructure and does
	// not fill it in.
	Parts []MessagePart
}

// MessagePart is one leaf (or multipart container marker) produced by
// walking a BodyStructure.
type MessagePart struct {
	// Section is the dotted, 1-indexed path to this part, e.g. "1",
	// "1.2.1". The synthetic root container descriptor (when the top
	// level is multipart) uses Section "0".
	Section string

	Type    string // top-level content type, lowercased, e.g. "text", "image"
	Subtype string // content subtype, lowercased, e.g. "plain", "png"

	// Disposition is the Content-Disposition value ("attachment",
	// "inline"), or empty if not present.
	Disposition string
	// DispositionParams holds Content-Disposition parameters,
	// keyed lowercase (e.g. "filename").
	DispositionParams map[string]string

	// Filename is DispositionParams["filename"], resolved
	// case-insensitively, falling back to the Content-Type "name"
	// parameter when the disposition carries no filename.
	Filename string

	// ContentID is the Content-Id parameter without angle brackets, if present.
	ContentID string

	// Encoding is the lowercased Content-Transfer-Encoding, e.g.
	// "base64", "quoted-printable", "7bit".
	Encoding string

	// Charset is the declared charset parameter of the part, if any
	// (e.g. "iso-8859-1"); empty if not declared.
	Charset string

	// Size is the part's size in octets as reported by BODYSTRUCTURE.
	Size uint32

	// Raw is the raw wire-form bytes fetched for this part via
	// BODY[section]. Nil until fetched. Decoding (QP/base64/charset)
	// is the caller's responsibility via the mime package — the
	// walker never decodes.
	Raw []byte
}

// IsAttachment reports whether the part's disposition indicates an
// attachment (as opposed to an inline body part).
func (p MessagePart) IsAttachment() bool {
	return p.Disposition == "attachment" || (p.Filename != "" && p.Disposition != "inline" && p.Type != "text")
}

// Message is a fully assembled email: a Header plus its ordered MIME
// parts (and raw bytes, once fetched).
type Message struct {
	Header
}

// TextBody returns the first text/plain part, or nil if Parts has
// none. The part's Raw is nil if its bytes were not fetched.
func (m *Message) TextBody() *MessagePart {
	return m.firstPart("text", "plain")
}

// HTMLBody returns the first text/html part, or nil if Parts has
// none. The part's Raw is nil if its bytes were not fetched.
func (m *Message) HTMLBody() *MessagePart {
	return m.firstPart("text", "html")
}

// Attachments returns every part flagged as an attachment.
func (m *Message) Attachments() []MessagePart {
	var out []MessagePart
	for _, p := range m.Parts {
		if p.IsAttachment() {
			out = append(out, p)
		}
	}
	return out
}

func (m *Message) firstPart(typ, subtype string) *MessagePart {
	for i := range m.Parts {
		p := &m.Parts[i]
		if p.Type == typ && p.Subtype == subtype {
			return p
		}
	}
	return nil
}

// BodyStructureKind distinguishes the two shapes a BodyStructure node
// can take.
type BodyStructureKind int

const (
	// BodyStructureSinglePart is a leaf node: basic, text, or message/rfc822.
	BodyStructureSinglePart BodyStructureKind = iota
	// BodyStructureMultipart is a container node with nested children.
	BodyStructureMultipart
)

// BodyStructure is the recursive MIME tree the server reports for
// BODYSTRUCTURE, before any content has been fetched.
//
// It is a sum type (singlepart{...} | multipart{...}); Kind selects
// which fields are populated.
type BodyStructure struct {
	Kind BodyStructureKind

	// --- singlepart fields ---
	Type    string // lowercased top-level type: "text", "application", "image", "message", ...
	Subtype string // lowercased subtype
	Params  map[string]string
	ID      string // Content-Id, without angle brackets
	Descr   string // Content-Description
	Encoding string // Content-Transfer-Encoding, lowercased
	Size    uint32 // size in octets

	// Lines is populated for type "text" and "message/rfc822".
	Lines uint32

	// Envelope and Nested are populated only for type "message/rfc822".
	Envelope *Header
	Nested   *BodyStructure

	Disposition       string
	DispositionParams map[string]string

	// --- multipart fields ---
	Children []*BodyStructure

	// Extension carries any extension data the parser didn't have a
	// first-class field for, retained verbatim rather than discarded.
	Extension map[string]string
}

// Filename resolves the RFC 2183 filename parameter, checking
// Content-Disposition first and falling back to the Content-Type
// "name" parameter, matching real-world server behavior.
func (b *BodyStructure) Filename() string {
	if b == nil {
		return ""
	}
	for k, v := range b.DispositionParams {
		if strings.EqualFold(k, "filename") {
			return v
		}
	}
	for k, v := range b.Params {
		if strings.EqualFold(k, "name") {
			return v
		}
	}
	return ""
}
