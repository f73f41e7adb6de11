package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/julio3266/finance-control-app-sub000/internal/common"
	"github.com/julio3266/finance-control-app-sub000/internal/ledger"
	"github.com/julio3266/finance-control-app-sub000/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a statement to Google Sheets",
		Long: `Export a date window of your statement to a Google Sheets spreadsheet.

Credentials are read from the GOOGLE_SHEETS_* environment variables: either
OAuth2 client credentials with a refresh token, or a service account key.`,
		RunE: runExport,
	}

	cmd.Flags().String("start", "", "window start (YYYY-MM-DD), default: first day of the current month")
	cmd.Flags().String("end", "", "window end (YYYY-MM-DD), default: today")
	cmd.Flags().String("spreadsheet-id", "", "existing spreadsheet to overwrite (default: create a new one)")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var err error
	if startFlag != "" {
		if start, err = time.Parse("2006-01-02", startFlag); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if endFlag != "" {
		if end, err = time.Parse("2006-01-02", endFlag); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}
	if end.Before(start) {
		return fmt.Errorf("--end must not precede --start")
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

	session := ledger.NewSession(client)
	session.SetFilters(ledger.Patch{
		StartDate: ledger.TimePtr(start),
		EndDate:   ledger.TimePtr(end),
	})

	if err := session.Fetch(ctx); err != nil {
		return common.NewUserError("failed to fetch the statement", err)
	}

	sections := session.Sections()
	if len(sections) == 0 {
		return fmt.Errorf("nothing to export: no transactions between %s and %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	cfg := sheets.DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		// No refresh token yet: fall back to the interactive OAuth2 flow when
		// client credentials exist, saving the token for the next run.
		clientID := os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
		clientSecret := os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
		if clientID == "" || clientSecret == "" {
			return common.NewUserError("Google Sheets is not configured", err)
		}

		token, authErr := sheets.GetOrCreateToken(ctx, sheets.OAuth2Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenFile:    common.ExpandPath("~/.config/fincontrol/sheets-token.json"),
		})
		if authErr != nil {
			return common.NewUserError("Google Sheets authentication failed", authErr)
		}

		cfg.ClientID = clientID
		cfg.ClientSecret = clientSecret
		cfg.RefreshToken = token.RefreshToken
		if cfg.RefreshToken == "" {
			return common.NewUserError("Google returned no refresh token; delete ~/.config/fincontrol/sheets-token.json and re-run", nil)
		}
		cfg.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
		cfg.SpreadsheetName = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME")
		if cfg.SpreadsheetName == "" {
			cfg.SpreadsheetName = "Transaction Statement"
		}
	}
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		cfg.SpreadsheetID = id
	}

	writer, err := sheets.NewWriter(ctx, cfg, slog.Default().With("component", "sheets"))
	if err != nil {
		return err
	}

	if err := writer.Write(ctx, sections, session.Filters()); err != nil {
		return common.NewUserError("export failed", err)
	}

	slog.Info("Statement exported",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"sections", len(sections))
	return nil
}
