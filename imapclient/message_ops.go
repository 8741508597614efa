package imapclient

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	imap "github.com/wireimap/imapkit"
	"github.com/wireimap/imapkit/imapclient/internal/respparse"
	"github.com/wireimap/imapkit/imapclient/internal/wire"
)

const imapDateLayout = "02-Jan-2006"

func fetchVerb(useUID bool) string {
	if useUID {
		return "UID FETCH"
	}
	return "FETCH"
}

// Search issues SEARCH or UID SEARCH, returning matching sequence
// numbers or UIDs as a single IdSet.
func (e *Engine) Search(ctx context.Context, c imap.SearchCriteria, useUID bool) (*imap.SeqSet, error) {
	query := encodeSearchCriteria(c)
	verb := "SEARCH"
	if useUID {
		verb = "UID SEARCH"
	}
	result := imap.NewSeqSet()
	tagged, err := e.exec(ctx, classDefault, verb+" "+query, nil, func(r *respparse.Response) {
		if r.Untagged != nil && r.Untagged.Kind == respparse.UntaggedSearch {
			for _, id := range r.Untagged.SearchIDs {
				result.Add(imap.SequenceNumber(id))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if tagged.State != respparse.StateOK {
		return nil, &imap.CommandError{Sentinel: imap.ErrCommandFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	return result, nil
}

// Sort issues the SORT extension command (RFC 5256).
func (e *Engine) Sort(ctx context.Context, criteria []imap.SortCriterion, c imap.SearchCriteria, useUID bool) (*imap.SeqSet, error) {
	verb := "SORT"
	if useUID {
		verb = "UID SORT"
	}
	line := fmt.Sprintf("%s (%s) UTF-8 %s", verb, encodeSortCriteria(criteria), encodeSearchCriteria(c))
	result := imap.NewSeqSet()
	tagged, err := e.exec(ctx, classDefault, line, nil, func(r *respparse.Response) {
		if r.Untagged != nil && r.Untagged.Kind == respparse.UntaggedSearch {
			for _, id := range r.Untagged.SearchIDs {
				result.Add(imap.SequenceNumber(id))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if tagged.State != respparse.StateOK {
		return nil, &imap.CommandError{Sentinel: imap.ErrCommandFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	return result, nil
}

func encodeSortCriteria(criteria []imap.SortCriterion) string {
	parts := make([]string, 0, len(criteria))
	for _, c := range criteria {
		if c.Reverse {
			parts = append(parts, "REVERSE "+string(c.Key))
		} else {
			parts = append(parts, string(c.Key))
		}
	}
	if len(parts) == 0 {
		return string(imap.SortArrival)
	}
	return strings.Join(parts, " ")
}

func encodeSearchCriteria(c imap.SearchCriteria) string {
	var parts []string
	for _, t := range c.Text {
		parts = append(parts, "TEXT", quoteIMAP(t))
	}
	for _, b := range c.Body {
		parts = append(parts, "BODY", quoteIMAP(b))
	}
	for _, h := range c.HeaderField {
		parts = append(parts, "HEADER", quoteIMAP(h.Key), quoteIMAP(h.Value))
	}
	if !c.Since.IsZero() {
		parts = append(parts, "SINCE", c.Since.Format(imapDateLayout))
	}
	if !c.Before.IsZero() {
		parts = append(parts, "BEFORE", c.Before.Format(imapDateLayout))
	}
	if !c.On.IsZero() {
		parts = append(parts, "ON", c.On.Format(imapDateLayout))
	}
	if !c.SentSince.IsZero() {
		parts = append(parts, "SENTSINCE", c.SentSince.Format(imapDateLayout))
	}
	if !c.SentBefore.IsZero() {
		parts = append(parts, "SENTBEFORE", c.SentBefore.Format(imapDateLayout))
	}
	for _, f := range c.Flag {
		parts = append(parts, flagSearchKey(f, false))
	}
	for _, f := range c.NotFlag {
		parts = append(parts, flagSearchKey(f, true))
	}
	for _, s := range c.UID {
		parts = append(parts, "UID", s.String())
	}
	for _, s := range c.SeqNum {
		parts = append(parts, s.String())
	}
	if c.Larger > 0 {
		parts = append(parts, "LARGER", fmt.Sprintf("%d", c.Larger))
	}
	if c.Smaller > 0 {
		parts = append(parts, "SMALLER", fmt.Sprintf("%d", c.Smaller))
	}
	if len(parts) == 0 {
		return "ALL"
	}
	return strings.Join(parts, " ")
}

func flagSearchKey(f imap.Flag, negate bool) string {
	pos, neg := "", ""
	switch f {
	case imap.FlagSeen:
		pos, neg = "SEEN", "UNSEEN"
	case imap.FlagAnswered:
		pos, neg = "ANSWERED", "UNANSWERED"
	case imap.FlagFlagged:
		pos, neg = "FLAGGED", "UNFLAGGED"
	case imap.FlagDeleted:
		pos, neg = "DELETED", "UNDELETED"
	case imap.FlagDraft:
		pos, neg = "DRAFT", "UNDRAFT"
	default:
		if negate {
			return "UNKEYWORD " + string(f)
		}
		return "KEYWORD " + string(f)
	}
	if negate {
		return neg
	}
	return pos
}

// Copy issues COPY/UID COPY.
func (e *Engine) Copy(ctx context.Context, ids *imap.SeqSet, dest string, useUID bool) error {
	if ids.IsEmpty() {
		return imap.ErrEmptyIdentifierSet
	}
	verb := "COPY"
	if useUID {
		verb = "UID COPY"
	}
	line := fmt.Sprintf("%s %s %s", verb, ids.String(), quoteIMAP(dest))
	tagged, err := e.exec(ctx, classDefault, line, nil, nil)
	if err != nil {
		return err
	}
	return stateErr(tagged, imap.ErrCopyFailed)
}

// Store issues STORE/UID STORE to add, remove, or replace flags.
// mode is one of "+FLAGS", "-FLAGS", "FLAGS" (optionally ".SILENT").
func (e *Engine) Store(ctx context.Context, ids *imap.SeqSet, mode string, flags []imap.Flag, useUID bool) error {
	if ids.IsEmpty() {
		return imap.ErrEmptyIdentifierSet
	}
	for _, f := range flags {
		if err := imap.ValidateStoreFlag(f); err != nil {
			return err
		}
	}
	verb := "STORE"
	if useUID {
		verb = "UID STORE"
	}
	flagStrs := make([]string, len(flags))
	for i, f := range flags {
		flagStrs[i] = string(f)
	}
	line := fmt.Sprintf("%s %s %s (%s)", verb, ids.String(), mode, strings.Join(flagStrs, " "))
	tagged, err := e.exec(ctx, classDefault, line, nil, e.mailboxUpdateHandler())
	if err != nil {
		return err
	}
	return stateErr(tagged, imap.ErrStoreFailed)
}

// Expunge permanently removes \Deleted messages from the selected
// mailbox.
func (e *Engine) Expunge(ctx context.Context) error {
	tagged, err := e.exec(ctx, classDefault, "EXPUNGE", nil, e.mailboxUpdateHandler())
	if err != nil {
		return err
	}
	return stateErr(tagged, imap.ErrExpungeFailed)
}

// FetchHeaders fetches UID, FLAGS, INTERNALDATE, ENVELOPE, and
// BODYSTRUCTURE for each id in the set: "FETCH <set> (UID FLAGS
// INTERNALDATE ENVELOPE BODYSTRUCTURE BODY.PEEK[HEADER])".
func (e *Engine) FetchHeaders(ctx context.Context, ids *imap.SeqSet, useUID bool) ([]*imap.Header, error) {
	if ids.IsEmpty() {
		return nil, imap.ErrEmptyIdentifierSet
	}
	line := fmt.Sprintf("%s %s (UID FLAGS INTERNALDATE ENVELOPE BODYSTRUCTURE BODY.PEEK[HEADER])", fetchVerb(useUID), ids.String())

	var headers []*imap.Header
	tagged, err := e.exec(ctx, classDefault, line, nil, func(r *respparse.Response) {
		if r.Untagged == nil || r.Untagged.Kind != respparse.UntaggedFetch || r.Untagged.Fetch == nil {
			return
		}
		h, err := fetchDataToHeader(r.Untagged.Num, r.Untagged.Fetch)
		if err == nil {
			headers = append(headers, h)
		}
	})
	if err != nil {
		return nil, err
	}
	if tagged.State != respparse.StateOK {
		return nil, &imap.CommandError{Sentinel: imap.ErrFetchFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	return headers, nil
}

func fetchDataToHeader(seqNum uint32, fd *respparse.FetchData) (*imap.Header, error) {
	h := &imap.Header{SeqNum: imap.SequenceNumber(seqNum), Extra: map[string]string{}}
	if fd.HasUID {
		h.UID = imap.UID(fd.UID)
	}
	for _, f := range fd.Flags {
		h.Flags = append(h.Flags, imap.Flag(f))
	}
	if fd.Envelope != nil {
		env := fd.Envelope
		h.Subject = env.Subject
		if len(env.From) > 0 {
			h.From = formatAddress(env.From[0])
		}
		for _, a := range env.To {
			h.To = append(h.To, formatAddress(a))
		}
		for _, a := range env.Cc {
			h.Cc = append(h.Cc, formatAddress(a))
		}
		h.MessageID = strings.Trim(env.MessageID, "<>")
		if env.InReplyTo != "" {
			h.Extra["In-Reply-To"] = env.InReplyTo
		}
		if env.Date != "" {
			h.Extra["Date"] = env.Date
			if t, err := parseIMAPDate(env.Date); err == nil {
				h.Date = t
			}
		}
	}
	return h, nil
}

// formatAddress renders an ENVELOPE address as "Name <mailbox@host>",
// matching internal/email/list.go's formatAddress.
func formatAddress(a respparse.Address) string {
	email := a.Mailbox + "@" + a.Host
	if a.Name != "" {
		return fmt.Sprintf("%s <%s>", a.Name, email)
	}
	return email
}

func parseIMAPDate(s string) (time.Time, error) {
	return time.Parse("02-Jan-2006 15:04:05 -0700", s)
}

// FetchMessageStructure fetches and parses BODYSTRUCTURE for a single
// message, without walking it into a part list.
func (e *Engine) FetchMessageStructure(ctx context.Context, id uint32, useUID bool) (*imap.BodyStructure, error) {
	line := fmt.Sprintf("%s %d (BODYSTRUCTURE)", fetchVerb(useUID), id)

	var bs *imap.BodyStructure
	tagged, err := e.exec(ctx, classFetchPart, line, nil, func(r *respparse.Response) {
		if r.Untagged == nil || r.Untagged.Kind != respparse.UntaggedFetch || r.Untagged.Fetch == nil {
			return
		}
		if parsed, convErr := respparse.ToBodyStructure(r.Untagged.Fetch.BodyStructure); convErr == nil && parsed != nil {
			bs = parsed
		}
	})
	if err != nil {
		return nil, err
	}
	if tagged.State != respparse.StateOK {
		return nil, &imap.CommandError{Sentinel: imap.ErrFetchFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	if bs == nil {
		return nil, fmt.Errorf("%w: server did not return BODYSTRUCTURE", imap.ErrFetchFailed)
	}
	return bs, nil
}

// FetchMessagePart fetches the raw bytes of one section via
// BODY.PEEK[section], leaving \Seen untouched.
func (e *Engine) FetchMessagePart(ctx context.Context, id uint32, useUID bool, section string) ([]byte, error) {
	line := fmt.Sprintf("%s %d (BODY.PEEK[%s])", fetchVerb(useUID), id, section)

	var data []byte
	tagged, err := e.exec(ctx, classFetchPart, line, nil, func(r *respparse.Response) {
		if r.Untagged == nil || r.Untagged.Kind != respparse.UntaggedFetch || r.Untagged.Fetch == nil {
			return
		}
		for _, s := range r.Untagged.Fetch.Sections {
			if strings.EqualFold(s.Section, section) {
				data = s.Data
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if tagged.State != respparse.StateOK {
		return nil, &imap.CommandError{Sentinel: imap.ErrFetchFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	return data, nil
}

// writerSink adapts an io.Writer into a wire.LiteralSink, streaming
// each chunk straight through instead of buffering it.
type writerSink struct {
	w io.Writer
}

func (s *writerSink) StreamingBegin(int64)         {}
func (s *writerSink) StreamingBytes(b []byte) error { _, err := s.w.Write(b); return err }
func (s *writerSink) StreamingEnd()                 {}

// FetchMessagePartStreaming fetches section like FetchMessagePart, but
// writes its bytes to w as they arrive instead of buffering the whole
// literal in memory. Use it for sections that may exceed
// Options.LiteralSizeLimit (large attachments); FetchMessagePart and
// FetchAllMessageParts still buffer and so still reject a literal over
// that limit.
func (e *Engine) FetchMessagePartStreaming(ctx context.Context, id uint32, useUID bool, section string, w io.Writer) error {
	line := fmt.Sprintf("%s %d (BODY.PEEK[%s])", fetchVerb(useUID), id, section)

	e.setLiteralSink(&writerSink{w: w})
	defer e.setLiteralSink(nil)

	// A section under the literal-size cap never reaches the sink: it
	// comes back as an ordinary buffered Fetch.Sections entry, so it
	// still needs writing to w here.
	var writeErr error
	tagged, err := e.exec(ctx, classFetchPart, line, nil, func(r *respparse.Response) {
		if r.Untagged == nil || r.Untagged.Kind != respparse.UntaggedFetch || r.Untagged.Fetch == nil {
			return
		}
		for _, s := range r.Untagged.Fetch.Sections {
			if strings.EqualFold(s.Section, section) && s.Data != nil {
				if _, werr := w.Write(s.Data); werr != nil {
					writeErr = werr
				}
			}
		}
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("%w: writing fetched bytes: %v", imap.ErrFetchFailed, writeErr)
	}
	if tagged.State != respparse.StateOK {
		return &imap.CommandError{Sentinel: imap.ErrFetchFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	return nil
}

var _ wire.LiteralSink = (*writerSink)(nil)

// FetchAllMessageParts fetches BODYSTRUCTURE, walks it into a flat
// part list, and fetches each leaf section's raw bytes in turn.
func (e *Engine) FetchAllMessageParts(ctx context.Context, id uint32, useUID bool) ([]imap.MessagePart, error) {
	bs, err := e.FetchMessageStructure(ctx, id, useUID)
	if err != nil {
		return nil, err
	}
	parts := WalkBodyStructure(bs)
	for i := range parts {
		if parts[i].Section == "0" {
			continue
		}
		data, err := e.FetchMessagePart(ctx, id, useUID, parts[i].Section)
		if err != nil {
			return nil, err
		}
		parts[i].Raw = data
	}
	return parts, nil
}

// FetchMessage fetches a single message's header and every MIME part.
func (e *Engine) FetchMessage(ctx context.Context, id uint32, useUID bool) (*imap.Message, error) {
	var (
		headers []*imap.Header
		err     error
	)
	if useUID {
		headers, err = e.fetchHeadersByUID(ctx, imap.NewUIDSet(imap.UID(id)))
	} else {
		headers, err = e.FetchHeaders(ctx, imap.NewSeqSet(imap.SequenceNumber(id)), false)
	}
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: message not found", imap.ErrFetchFailed)
	}
	header := headers[0]

	parts, err := e.FetchAllMessageParts(ctx, id, useUID)
	if err != nil {
		return nil, err
	}
	header.Parts = parts
	return &imap.Message{Header: *header}, nil
}

func (e *Engine) fetchHeadersByUID(ctx context.Context, uids *imap.UIDSet) ([]*imap.Header, error) {
	line := fmt.Sprintf("UID FETCH %s (UID FLAGS INTERNALDATE ENVELOPE BODYSTRUCTURE BODY.PEEK[HEADER])", uids.String())
	var headers []*imap.Header
	tagged, err := e.exec(ctx, classDefault, line, nil, func(r *respparse.Response) {
		if r.Untagged == nil || r.Untagged.Kind != respparse.UntaggedFetch || r.Untagged.Fetch == nil {
			return
		}
		h, err := fetchDataToHeader(r.Untagged.Num, r.Untagged.Fetch)
		if err == nil {
			headers = append(headers, h)
		}
	})
	if err != nil {
		return nil, err
	}
	if tagged.State != respparse.StateOK {
		return nil, &imap.CommandError{Sentinel: imap.ErrFetchFailed, Tag: tagged.Tag, State: tagged.State.String(), Text: tagged.Text, Code: codeName(tagged.Code)}
	}
	return headers, nil
}

// FetchMessages fetches headers and every MIME part for each id in the
// set, one message at a time.
func (e *Engine) FetchMessages(ctx context.Context, ids *imap.SeqSet, useUID bool) ([]*imap.Message, error) {
	if ids.IsEmpty() {
		return nil, imap.ErrEmptyIdentifierSet
	}
	var out []*imap.Message
	for _, r := range ids.Ranges() {
		for n := r.Start; ; n++ {
			msg, err := e.FetchMessage(ctx, uint32(n), useUID)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
			if n == r.End {
				break
			}
		}
	}
	return out, nil
}
