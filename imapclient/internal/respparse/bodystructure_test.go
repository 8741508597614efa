package respparse

import (
	"testing"

	imap "github.com/wireimap/imapkit"
)

func TestParseBodyStructureSinglepartText(t *testing.T) {
	raw := `* 1 FETCH (BODYSTRUCTURE ("TEXT" "PLAIN" ("CHARSET" "UTF-8") NIL NIL "QUOTED-PRINTABLE" 1152 23))` + "\r\n"
	resp, err := Parse(mustFrame(t, raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bs, err := ToBodyStructure(resp.Untagged.Fetch.BodyStructure)
	if err != nil {
		t.Fatalf("ToBodyStructure: %v", err)
	}
	if bs.Kind != imap.BodyStructureSinglePart {
		t.Fatalf("Kind = %v, want SinglePart", bs.Kind)
	}
	if bs.Type != "text" || bs.Subtype != "plain" {
		t.Errorf("type/subtype = %s/%s", bs.Type, bs.Subtype)
	}
	if bs.Params["charset"] != "UTF-8" {
		t.Errorf("Params = %v", bs.Params)
	}
	if bs.Encoding != "quoted-printable" || bs.Size != 1152 || bs.Lines != 23 {
		t.Errorf("got %+v", bs)
	}
}

func TestParseBodyStructureMultipart(t *testing.T) {
	raw := `* 1 FETCH (BODYSTRUCTURE (("TEXT" "PLAIN" ("CHARSET" "UTF-8") NIL NIL "7BIT" 100 5)` +
		`("TEXT" "HTML" ("CHARSET" "UTF-8") NIL NIL "7BIT" 200 10) "ALTERNATIVE"))` + "\r\n"
	resp, err := Parse(mustFrame(t, raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bs, err := ToBodyStructure(resp.Untagged.Fetch.BodyStructure)
	if err != nil {
		t.Fatalf("ToBodyStructure: %v", err)
	}
	if bs.Kind != imap.BodyStructureMultipart || bs.Subtype != "alternative" {
		t.Fatalf("got %+v", bs)
	}
	if len(bs.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(bs.Children))
	}
	if bs.Children[0].Subtype != "plain" || bs.Children[1].Subtype != "html" {
		t.Errorf("children = %+v / %+v", bs.Children[0], bs.Children[1])
	}
}

func TestParseBodyStructureWithDisposition(t *testing.T) {
	raw := `* 1 FETCH (BODYSTRUCTURE ("APPLICATION" "PDF" ("NAME" "report.pdf") NIL NIL "BASE64" 40000 ` +
		`NIL ("attachment" ("FILENAME" "report.pdf")) NIL))` + "\r\n"
	resp, err := Parse(mustFrame(t, raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bs, err := ToBodyStructure(resp.Untagged.Fetch.BodyStructure)
	if err != nil {
		t.Fatalf("ToBodyStructure: %v", err)
	}
	if bs.Disposition != "attachment" {
		t.Errorf("Disposition = %q", bs.Disposition)
	}
	if bs.DispositionParams["filename"] != "report.pdf" {
		t.Errorf("DispositionParams = %v", bs.DispositionParams)
	}
	if got := bs.Filename(); got != "report.pdf" {
		t.Errorf("Filename() = %q", got)
	}
}

func TestParseBodyStructureNilIsNil(t *testing.T) {
	bs, err := ToBodyStructure(nil)
	if err != nil || bs != nil {
		t.Errorf("got %+v, %v, want nil, nil", bs, err)
	}
}
