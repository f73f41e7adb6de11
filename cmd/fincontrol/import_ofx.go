package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/julio3266/finance-control-app-sub000/internal/model"
	"github.com/julio3266/finance-control-app-sub000/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX (Quicken) files exported from your bank.

Parsed entries are uploaded to the remote ledger as manual, already-settled
transactions marked as imported.

Examples:
  # Import a single file
  fincontrol import-ofx ~/Downloads/statement_jan_2024.qfx

  # Import everything in a directory
  fincontrol import-ofx ~/Downloads/*.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without uploading")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	slog.Info("💸 Importing OFX files...",
		"file_count", len(allFiles),
		"dry_run", dryRun)

	var records []model.TransactionRecord
	seen := make(map[string]bool)

	parser := ofx.NewParser()
	for _, filePath := range allFiles {
		slog.Info("Processing file", "file", filepath.Base(filePath))

		f, err := os.Open(filePath) // #nosec G304
		if err != nil {
			slog.Error("Failed to open file", "file", filePath, "error", err)
			continue
		}

		parsed, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", filePath, "error", err)
			continue
		}

		added := 0
		for _, rec := range parsed {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			records = append(records, rec)
			added++
		}
		slog.Info("Parsed file",
			"file", filepath.Base(filePath),
			"transactions", len(parsed),
			"new", added)
	}

	if len(records) == 0 {
		return fmt.Errorf("no transactions found in any file")
	}

	if dryRun {
		for _, rec := range records {
			ownerKind, ownerID := rec.Owner()
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-40s  %10.2f  %s %s\n",
				rec.OccurredAt.Format("2006-01-02"),
				rec.Description,
				rec.SignedAmount(),
				ownerKind, ownerID)
		}
		slog.Info("Dry run complete, nothing uploaded", "transactions", len(records))
		return nil
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

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("Uploading transactions"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var failed int
	for _, rec := range records {
		if err := client.CreateTransaction(ctx, rec); err != nil {
			failed++
			slog.Error("Failed to upload transaction",
				"id", rec.ID,
				"description", rec.Description,
				"error", err)
		}
		_ = bar.Add(1)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d transactions failed to upload", failed, len(records))
	}

	slog.Info("Import complete", "transactions", len(records))
	return nil
}
