package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/julio3266/finance-control-app-sub000/internal/common"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store a session",
		Long: `Authenticate against the remote ledger and store the session token
on this device. All other commands reuse the stored session.`,
		RunE: runLogin,
	}

	cmd.Flags().String("email", "", "account email (prompted when omitted)")
	cmd.Flags().String("password", "", "account password (prompted when omitted; prefer the prompt)")

	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	reader := bufio.NewReader(cmd.InOrStdin())
	if email == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	if password == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	store, err := initStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := newAPIClient(store)
	if err != nil {
		return err
	}

	token, err := client.Login(ctx, email, password)
	if err != nil {
		return common.NewUserError("login failed", err)
	}

	if err := store.SaveSessionToken(ctx, token); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	slog.Info("Logged in", "email", email)
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ClearSession(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}

			slog.Info("Logged out")
			return nil
		},
	}
}
