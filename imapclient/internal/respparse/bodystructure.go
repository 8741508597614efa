package respparse

import (
	"fmt"
	"strings"

	imap "github.com/wireimap/imapkit"
)

// ToBodyStructure converts a raw BODYSTRUCTURE/BODY Value tree (as
// captured by parseFetch) into the root package's recursive
// BodyStructure type. v may be nil (no BODYSTRUCTURE was fetched).
func ToBodyStructure(v *Value) (*imap.BodyStructure, error) {
	if v == nil || v.IsNil() {
		return nil, nil
	}
	if v.Kind != ValueList {
		return nil, fmt.Errorf("respparse: BODYSTRUCTURE is not a list")
	}
	return parseBodyStructureList(v.List)
}

func parseBodyStructureList(items []Value) (*imap.BodyStructure, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("respparse: empty BODYSTRUCTURE")
	}
	if items[0].Kind == ValueList {
		return parseMultipart(items)
	}
	return parseSinglepart(items)
}

func parseMultipart(items []Value) (*imap.BodyStructure, error) {
	bs := &imap.BodyStructure{Kind: imap.BodyStructureMultipart, Type: "multipart"}

	i := 0
	for i < len(items) && items[i].Kind == ValueList {
		child, err := parseBodyStructureList(items[i].List)
		if err != nil {
			return nil, fmt.Errorf("respparse: multipart child %d: %w", i, err)
		}
		bs.Children = append(bs.Children, child)
		i++
	}
	if i >= len(items) {
		return nil, fmt.Errorf("respparse: multipart BODYSTRUCTURE missing subtype")
	}
	bs.Subtype = strings.ToLower(items[i].Str())
	i++

	if i < len(items) {
		bs.Params = parseParamList(items[i])
		i++
	}
	if i < len(items) {
		disp, dispParams := parseDisposition(items[i])
		bs.Disposition, bs.DispositionParams = disp, dispParams
		i++
	}
	bs.Extension = collectExtension(items, i)
	return bs, nil
}

func parseSinglepart(items []Value) (*imap.BodyStructure, error) {
	if len(items) < 7 {
		return nil, fmt.Errorf("respparse: singlepart BODYSTRUCTURE has %d fields, want at least 7", len(items))
	}
	bs := &imap.BodyStructure{Kind: imap.BodyStructureSinglePart}
	bs.Type = strings.ToLower(items[0].Str())
	bs.Subtype = strings.ToLower(items[1].Str())
	bs.Params = parseParamList(items[2])
	bs.ID = stripAngleBrackets(items[3].Str())
	bs.Descr = items[4].Str()
	bs.Encoding = strings.ToLower(items[5].Str())

	size, err := parseUint32(items[6].Str())
	if err != nil {
		return nil, fmt.Errorf("respparse: BODYSTRUCTURE size: %w", err)
	}
	bs.Size = size

	i := 7
	switch {
	case bs.Type == "text":
		if i < len(items) {
			lines, err := parseUint32(items[i].Str())
			if err != nil {
				return nil, fmt.Errorf("respparse: BODYSTRUCTURE lines: %w", err)
			}
			bs.Lines = lines
			i++
		}
	case bs.Type == "message" && bs.Subtype == "rfc822":
		if i+2 < len(items) {
			env, err := parseEnvelope(items[i])
			if err != nil {
				return nil, fmt.Errorf("respparse: BODYSTRUCTURE envelope: %w", err)
			}
			bs.Envelope = envelopeToHeader(env)

			nested, err := parseBodyStructureList(items[i+1].List)
			if err != nil {
				return nil, fmt.Errorf("respparse: BODYSTRUCTURE nested message: %w", err)
			}
			bs.Nested = nested

			lines, err := parseUint32(items[i+2].Str())
			if err != nil {
				return nil, fmt.Errorf("respparse: BODYSTRUCTURE nested lines: %w", err)
			}
			bs.Lines = lines
			i += 3
		}
	}

	if i < len(items) {
		// body MD5, tolerated but not surfaced as a first-class field.
		i++
	}
	if i < len(items) {
		disp, dispParams := parseDisposition(items[i])
		bs.Disposition, bs.DispositionParams = disp, dispParams
		i++
	}
	bs.Extension = collectExtension(items, i)
	return bs, nil
}

func parseParamList(v Value) map[string]string {
	if v.IsNil() || len(v.List) == 0 {
		return nil
	}
	out := map[string]string{}
	for i := 0; i+1 < len(v.List); i += 2 {
		out[strings.ToLower(v.List[i].Str())] = v.List[i+1].Str()
	}
	return out
}

func parseDisposition(v Value) (string, map[string]string) {
	if v.IsNil() || len(v.List) == 0 {
		return "", nil
	}
	disp := strings.ToLower(v.List[0].Str())
	var params map[string]string
	if len(v.List) > 1 {
		params = parseParamList(v.List[1])
	}
	return disp, params
}

func collectExtension(items []Value, from int) map[string]string {
	if from >= len(items) {
		return nil
	}
	ext := map[string]string{}
	labels := []string{"language", "location"}
	for idx, i := 0, from; i < len(items); idx, i = idx+1, i+1 {
		label := fmt.Sprintf("ext%d", idx)
		if idx < len(labels) {
			label = labels[idx]
		}
		ext[label] = items[i].Str()
	}
	return ext
}

func stripAngleBrackets(s string) string {
	return strings.Trim(s, "<>")
}

func envelopeToHeader(env *Envelope) *imap.Header {
	if env == nil {
		return nil
	}
	h := &imap.Header{
		Subject:   env.Subject,
		MessageID: stripAngleBrackets(env.MessageID),
		Extra:     map[string]string{},
	}
	if len(env.From) > 0 {
		h.From = formatEnvelopeAddress(env.From[0])
	}
	for _, a := range env.To {
		h.To = append(h.To, formatEnvelopeAddress(a))
	}
	for _, a := range env.Cc {
		h.Cc = append(h.Cc, formatEnvelopeAddress(a))
	}
	if env.InReplyTo != "" {
		h.Extra["In-Reply-To"] = env.InReplyTo
	}
	if env.Date != "" {
		h.Extra["Date"] = env.Date
	}
	return h
}

func formatEnvelopeAddress(a Address) string {
	email := a.Mailbox + "@" + a.Host
	if a.Name != "" {
		return fmt.Sprintf("%s <%s>", a.Name, email)
	}
	return email
}
