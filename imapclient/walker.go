package imapclient

import (
	"strconv"
	"strings"

	imap "github.com/wireimap/imapkit"
)

// WalkBodyStructure flattens bs into an ordered, depth-first list of
// MessagePart descriptors (Raw left nil; FetchAllMessageParts fills it
// in). A singlepart node becomes one part at the 1-indexed section
// path built from its position among siblings. A multipart node
// contributes no part of its own — its children are recursed into
// with the path extended by the child's 1-indexed position — except
// that when bs itself is multipart, a synthetic part with Section "0"
// and the multipart's own subtype/params is appended last, so the
// caller retains the container's metadata even though it was never a
// fetchable section. Grounded on internal/email/read.go's parseBody
// walk, generalized from go-message's part tree to BodyStructure.
func WalkBodyStructure(bs *imap.BodyStructure) []imap.MessagePart {
	if bs == nil {
		return nil
	}
	var parts []imap.MessagePart
	walkNode(bs, nil, &parts)
	if bs.Kind == imap.BodyStructureMultipart {
		parts = append(parts, containerPart(bs))
	}
	return parts
}

func walkNode(bs *imap.BodyStructure, path []int, parts *[]imap.MessagePart) {
	if bs.Kind == imap.BodyStructureMultipart {
		for i, child := range bs.Children {
			walkNode(child, append(append([]int{}, path...), i+1), parts)
		}
		return
	}
	*parts = append(*parts, singlepartToPart(bs, path))
}

func singlepartToPart(bs *imap.BodyStructure, path []int) imap.MessagePart {
	section := path
	if len(section) == 0 {
		section = []int{1}
	}
	p := imap.MessagePart{
		Section:           sectionString(section),
		Type:              bs.Type,
		Subtype:           bs.Subtype,
		Disposition:       bs.Disposition,
		DispositionParams: bs.DispositionParams,
		ContentID:         bs.ID,
		Encoding:          bs.Encoding,
		Size:              bs.Size,
	}
	p.Filename = filenameParam(bs)
	p.Charset = bs.Params["charset"]
	return p
}

func containerPart(bs *imap.BodyStructure) imap.MessagePart {
	return imap.MessagePart{
		Section: "0",
		Type:    bs.Type,
		Subtype: bs.Subtype,
	}
}

func filenameParam(bs *imap.BodyStructure) string {
	for k, v := range bs.DispositionParams {
		if strings.EqualFold(k, "filename") {
			return v
		}
	}
	for k, v := range bs.Params {
		if strings.EqualFold(k, "name") {
			return v
		}
	}
	return ""
}

func sectionString(path []int) string {
	parts := make([]string, len(path))
	for i, n := range path {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
