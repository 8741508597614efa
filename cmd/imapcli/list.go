package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var reference, pattern string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mailboxes matching a pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			e, err := connectedEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Logout(ctx)

			boxes, err := e.ListMailboxes(ctx, reference, pattern)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			for _, b := range boxes {
				marker := " "
				if !b.Selectable() {
					marker = "-"
				}
				fmt.Printf("%s %s\n", marker, b.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "LIST reference name")
	cmd.Flags().StringVar(&pattern, "pattern", "*", "LIST mailbox pattern")
	return cmd
}
