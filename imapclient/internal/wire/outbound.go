package wire

import (
	"fmt"
	"io"
)

// Outbound writes properly CRLF-terminated command data. IMAP requires
// CRLF line endings on the wire regardless of host platform.
type Outbound struct {
	w io.Writer
}

func NewOutbound(w io.Writer) *Outbound { return &Outbound{w: w} }

// WriteCommand writes one tagged command line, e.g. "A001 NOOP".
func (o *Outbound) WriteCommand(tag, line string) error {
	_, err := fmt.Fprintf(o.w, "%s %s\r\n", tag, line)
	return err
}

// WriteLine writes a bare CRLF-terminated line, used for the segments
// of a multi-literal command that follow a continuation prompt.
func (o *Outbound) WriteLine(line string) error {
	_, err := fmt.Fprintf(o.w, "%s\r\n", line)
	return err
}

// WriteLiteral writes raw literal octets, with no added framing. The
// caller is expected to have already announced "{N}\r\n" as part of
// the preceding command text and waited for the server's "+"
// continuation prompt when the literal isn't non-synchronizing.
func (o *Outbound) WriteLiteral(data []byte) error {
	_, err := o.w.Write(data)
	return err
}

// WriteDone writes the "DONE" marker that terminates client-side IDLE.
func (o *Outbound) WriteDone() error {
	return o.WriteLine("DONE")
}
