package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/julio3266/finance-control-app-sub000/internal/ledger"
	"github.com/julio3266/finance-control-app-sub000/internal/model"
	"github.com/julio3266/finance-control-app-sub000/internal/tui"
	"github.com/julio3266/finance-control-app-sub000/internal/tui/themes"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Browse the transaction statement",
		Long: `Browse your unified transaction statement.

By default this opens the interactive viewer for the current month. Filters
narrow the statement; supplying a start/end window switches to date-range
mode, where transactions are grouped under date headers.`,
		RunE: runExtract,
	}

	cmd.Flags().Int("month", 0, "calendar month (1-12)")
	cmd.Flags().Int("year", 0, "calendar year")
	cmd.Flags().String("start", "", "window start (YYYY-MM-DD), requires --end")
	cmd.Flags().String("end", "", "window end (YYYY-MM-DD), requires --start")
	cmd.Flags().String("type", "", "transaction type (income, expense)")
	cmd.Flags().String("status", "", "settlement status (paid, unpaid)")
	cmd.Flags().String("source", "", "feed to read (accounts, cards)")
	cmd.Flags().String("account", "", "filter by manual account id")
	cmd.Flags().String("bank-account", "", "filter by connected bank account id")
	cmd.Flags().String("card", "", "filter by credit card id")
	cmd.Flags().Int("page-size", 0, "page length in month mode")
	cmd.Flags().String("format", "tui", "output format (tui, table, json)")

	return cmd
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

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
	patch, err := filterPatchFromFlags(cmd)
	if err != nil {
		return err
	}
	session.SetFilters(patch)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "tui":
		themeName, themeErr := store.Theme(ctx)
		if themeErr != nil {
			slog.Warn("Failed to read theme preference", "error", themeErr)
		}
		return tui.Run(ctx, tui.Config{
			Session: session,
			Theme:   themes.ByName(themeName),
		})
	case "table":
		return printStatementTable(ctx, cmd, session)
	case "json":
		return printStatementJSON(ctx, cmd, session)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// filterPatchFromFlags translates the command flags into one filter patch.
func filterPatchFromFlags(cmd *cobra.Command) (ledger.Patch, error) {
	var patch ledger.Patch

	if v, _ := cmd.Flags().GetInt("month"); v != 0 {
		if v < 1 || v > 12 {
			return patch, fmt.Errorf("month must be between 1 and 12")
		}
		patch.Month = ledger.IntPtr(v)
	}
	if v, _ := cmd.Flags().GetInt("year"); v != 0 {
		patch.Year = ledger.IntPtr(v)
	}

	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	if (start == "") != (end == "") {
		return patch, fmt.Errorf("--start and --end must be supplied together")
	}
	if start != "" {
		startAt, err := time.Parse("2006-01-02", start)
		if err != nil {
			return patch, fmt.Errorf("invalid --start: %w", err)
		}
		endAt, err := time.Parse("2006-01-02", end)
		if err != nil {
			return patch, fmt.Errorf("invalid --end: %w", err)
		}
		if endAt.Before(startAt) {
			return patch, fmt.Errorf("--end must not precede --start")
		}
		patch.StartDate = ledger.TimePtr(startAt)
		patch.EndDate = ledger.TimePtr(endAt)
	}

	switch v, _ := cmd.Flags().GetString("type"); strings.ToLower(v) {
	case "":
	case "all":
		patch.Type = ledger.TypePtr(ledger.TypeAll)
	case "income":
		patch.Type = ledger.TypePtr(ledger.TypeIncome)
	case "expense":
		patch.Type = ledger.TypePtr(ledger.TypeExpense)
	default:
		return patch, fmt.Errorf("invalid --type (want income or expense)")
	}

	switch v, _ := cmd.Flags().GetString("status"); strings.ToLower(v) {
	case "":
	case "all":
		patch.Status = ledger.StatusPtr(ledger.StatusAll)
	case "paid":
		patch.Status = ledger.StatusPtr(ledger.StatusPaid)
	case "unpaid":
		patch.Status = ledger.StatusPtr(ledger.StatusUnpaid)
	default:
		return patch, fmt.Errorf("invalid --status (want paid or unpaid)")
	}

	switch v, _ := cmd.Flags().GetString("source"); strings.ToLower(v) {
	case "":
	case "accounts":
		src := ledger.SourceTypeAccounts
		patch.SourceType = &src
	case "cards":
		src := ledger.SourceTypeCards
		patch.SourceType = &src
	default:
		return patch, fmt.Errorf("invalid --source (want accounts or cards)")
	}

	if v, _ := cmd.Flags().GetString("account"); v != "" {
		patch.AccountID = ledger.StringPtr(v)
	}
	if v, _ := cmd.Flags().GetString("bank-account"); v != "" {
		patch.BankAccountID = ledger.StringPtr(v)
	}
	if v, _ := cmd.Flags().GetString("card"); v != "" {
		patch.CreditCardID = ledger.StringPtr(v)
	}
	if v, _ := cmd.Flags().GetInt("page-size"); v > 0 {
		patch.PageSize = ledger.IntPtr(v)
	}

	return patch, nil
}

// fetchAllPages drains the statement for non-interactive output.
func fetchAllPages(ctx context.Context, session *ledger.Session) error {
	if err := session.Fetch(ctx); err != nil {
		return err
	}
	for session.HasNextPage() {
		if !session.NextPage() {
			break
		}
		if err := session.Fetch(ctx); err != nil {
			return err
		}
	}
	return nil
}

func printStatementTable(ctx context.Context, cmd *cobra.Command, session *ledger.Session) error {
	if err := fetchAllPages(ctx, session); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	sections := session.Sections()
	if len(sections) == 0 {
		fmt.Fprintln(out, "No transactions for this period.")
		return nil
	}

	for _, section := range sections {
		if section.Title != "" {
			fmt.Fprintf(out, "\n%s\n", section.Title)
		}
		for _, rec := range section.Items {
			category := ""
			if rec.Category != nil {
				category = rec.Category.Label
			}
			fmt.Fprintf(out, "  %-10s  %-40s  %10.2f  %-8s  %s\n",
				rec.OccurredAt.Format("2006-01-02"),
				rec.Description,
				rec.SignedAmount(),
				rec.Paid,
				category)
		}
	}

	fmt.Fprintf(out, "\n%d transactions\n", len(session.Records()))
	return nil
}

func printStatementJSON(ctx context.Context, cmd *cobra.Command, session *ledger.Session) error {
	if err := fetchAllPages(ctx, session); err != nil {
		return err
	}

	payload := struct {
		Pagination *ledger.PaginationInfo `json:"pagination,omitempty"`
		Groups     []model.DateGroup      `json:"groups"`
	}{
		Pagination: session.Pagination(),
		Groups:     ledger.GroupsFromSections(session.Sections()),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
