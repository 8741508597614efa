package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	imap "github.com/wireimap/imapkit"
)

func newSearchCmd() *cobra.Command {
	var mailbox, text, from string
	var unseen bool
	var useUID bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the selected mailbox and print matching ids",
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

			c := imap.SearchCriteria{All: true}
			if text != "" {
				c.Text = []string{text}
				c.All = false
			}
			if from != "" {
				c.HeaderField = append(c.HeaderField, imap.SearchHeaderField{Key: "FROM", Value: from})
				c.All = false
			}
			if unseen {
				c.NotFlag = append(c.NotFlag, imap.FlagSeen)
				c.All = false
			}

			ids, err := e.Search(ctx, c, useUID)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			fmt.Println(ids.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&mailbox, "mailbox", "INBOX", "mailbox to search")
	cmd.Flags().StringVar(&text, "text", "", "match TEXT against the whole message")
	cmd.Flags().StringVar(&from, "from", "", "match HEADER FROM")
	cmd.Flags().BoolVar(&unseen, "unseen", false, "restrict to messages without \\Seen")
	cmd.Flags().BoolVar(&useUID, "uid", false, "issue UID SEARCH and print UIDs")
	return cmd
}
