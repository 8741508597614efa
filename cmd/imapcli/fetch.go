package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	imap "github.com/wireimap/imapkit"
)

func newFetchCmd() *cobra.Command {
	var mailbox string
	var useUID bool
	var headersOnly bool

	cmd := &cobra.Command{
		Use:   "fetch <id-set>",
		Short: "Fetch one or more messages from the selected mailbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			e, err := connectedEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Logout(ctx)

			if _, err := e.Select(ctx, mailbox); err != nil {
				return fmt.Errorf("select %s: %w", mailbox, err)
			}

			// The wire encoding of a sequence set is the same whether
			// the numbers are sequence numbers or UIDs; useUID only
			// changes which IMAP verb is issued.
			ids, err := imap.ParseIdSet[imap.SequenceNumber](args[0])
			if err != nil {
				return fmt.Errorf("parse id set: %w", err)
			}

			if headersOnly {
				headers, err := e.FetchHeaders(ctx, ids, useUID)
				if err != nil {
					return fmt.Errorf("fetch: %w", err)
				}
				for _, h := range headers {
					fmt.Printf("seq=%d uid=%d subject=%q from=%q\n", h.SeqNum, h.UID, h.Subject, h.From)
				}
				return nil
			}

			msgs, err := e.FetchMessages(ctx, ids, useUID)
			if err != nil {
				return fmt.Errorf("fetch: %w", err)
			}
			for _, m := range msgs {
				fmt.Printf("seq=%d uid=%d subject=%q from=%q\n", m.SeqNum, m.UID, m.Subject, m.From)
				if body := m.TextBody(); body != nil {
					fmt.Printf("--- text/plain (%d bytes) ---\n%s\n", len(body.Raw), body.Raw)
				}
				for _, a := range m.Attachments() {
					fmt.Printf("attachment: %s (%s/%s, %d bytes)\n", a.Filename, a.Type, a.Subtype, a.Size)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mailbox, "mailbox", "INBOX", "mailbox to select before fetching")
	cmd.Flags().BoolVar(&useUID, "uid", false, "treat the id set as UIDs instead of sequence numbers")
	cmd.Flags().BoolVar(&headersOnly, "headers-only", false, "fetch envelope/flags only, skip body structure and parts")
	return cmd
}
