package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	imap "github.com/wireimap/imapkit"
)

func newIdleCmd() *cobra.Command {
	var mailbox string
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "idle",
		Short: "Watch a mailbox for new activity via IDLE",
		RunE: func(cmd *cobra.Command, args []string) error {
			connectCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			e, err := connectedEngine(connectCtx)
			if err != nil {
				return err
			}
			defer e.Logout(context.Background())

			if !e.Capabilities().Contains(imap.CapIdle) {
				return fmt.Errorf("idle: server does not advertise the IDLE capability")
			}
			if _, err := e.Select(connectCtx, mailbox); err != nil {
				return fmt.Errorf("select %s: %w", mailbox, err)
			}

			idleCtx, idleCancel := context.WithTimeout(context.Background(), duration)
			defer idleCancel()

			stream, err := e.Idle(idleCtx)
			if err != nil {
				return fmt.Errorf("idle: %w", err)
			}

			for {
				ev, ok, err := stream.Next(idleCtx)
				if !ok {
					doneCtx, doneCancel := context.WithTimeout(context.Background(), 10*time.Second)
					stream.Done(doneCtx)
					doneCancel()
					if err != nil {
						return fmt.Errorf("idle: %w", err)
					}
					return nil
				}
				fmt.Printf("event kind=%v num=%d flags=%v\n", ev.Kind, ev.Num, ev.Flags)
			}
		},
	}
	cmd.Flags().StringVar(&mailbox, "mailbox", "INBOX", "mailbox to watch")
	cmd.Flags().DurationVar(&duration, "duration", 5*time.Minute, "how long to stay in IDLE before returning")
	return cmd
}
