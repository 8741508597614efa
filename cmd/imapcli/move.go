package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	imap "github.com/wireimap/imapkit"
)

func newMoveCmd() *cobra.Command {
	var mailbox string
	var useUID bool

	cmd := &cobra.Command{
		Use:   "move <id-set> <destination>",
		Short: "Move messages to another mailbox, using MOVE when available",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
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

			if err := e.Move(ctx, ids, args[1], useUID); err != nil {
				return fmt.Errorf("move: %w", err)
			}
			fmt.Printf("moved %s to %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&mailbox, "mailbox", "INBOX", "mailbox to select before moving")
	cmd.Flags().BoolVar(&useUID, "uid", false, "treat the id set as UIDs instead of sequence numbers")
	return cmd
}
