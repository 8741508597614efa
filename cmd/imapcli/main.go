// Command imapcli is a small command-line client exercising the
// imapclient engine end to end against a configured account.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wireimap/imapkit/cmd/imapcli/internal/config"
	"github.com/wireimap/imapkit/imapclient"
)

var (
	configPath string
	accountFlg string
	verbose    bool

	logger *slog.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "imapcli",
		Short: "Talk to an IMAP account from the command line",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to imapcli.yaml (default: search imapcli.yaml, ~/.config/imapcli/config.yaml, /etc/imapcli/config.yaml)")
	root.PersistentFlags().StringVar(&accountFlg, "account", "", "named account to use (default: the config file's default account)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "log wire-level trace output")

	root.AddCommand(newListCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newIdleCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newMoveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connectedEngine loads the configured account, dials it, and logs in.
// Callers are responsible for calling Logout/Disconnect on the
// returned engine once done.
func connectedEngine(ctx context.Context) (*imapclient.Engine, error) {
	path, err := config.FindConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	acct, err := cfg.Resolve(accountFlg)
	if err != nil {
		return nil, err
	}

	opts := acct.Options()
	opts.LogOutbound = verbose
	opts.LogInbound = verbose

	e := imapclient.New(opts, logger)
	if err := e.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if acct.XOAUTH2Token != "" {
		if err := e.AuthenticateXOAUTH2(ctx, acct.Username, acct.XOAUTH2Token); err != nil {
			e.Disconnect()
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		return e, nil
	}
	if err := e.Login(ctx, acct.Username, acct.Password); err != nil {
		e.Disconnect()
		return nil, fmt.Errorf("login: %w", err)
	}
	return e, nil
}
