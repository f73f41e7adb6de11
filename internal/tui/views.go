package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julio3266/finance-control-app-sub000/internal/common"
	"github.com/julio3266/finance-control-app-sub000/internal/ledger"
	"github.com/julio3266/finance-control-app-sub000/internal/model"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.theme.Faint.Render("Initializing...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

// refreshContent rebuilds the viewport from the session's sections and
// records which calendar day backs each content line, so scrolling can drive
// the period banner.
func (m *Model) refreshContent() {
	if !m.ready {
		return
	}

	sections := m.session.Sections()
	if len(sections) == 0 {
		m.lineDays = nil
		if m.loading {
			m.viewport.SetContent("")
		} else {
			m.viewport.SetContent(m.theme.Faint.Render("No transactions for this period."))
		}
		return
	}

	var b strings.Builder
	days := make([]time.Time, 0, len(sections)*4)

	for i, section := range sections {
		if i > 0 && section.Title != "" {
			b.WriteString("\n")
			days = append(days, section.Date)
		}
		if section.Title != "" {
			b.WriteString(m.theme.SectionHeader.Render(section.Title))
			b.WriteString("\n")
			days = append(days, section.Date)
		}
		for _, rec := range section.Items {
			b.WriteString(m.renderRecord(rec))
			b.WriteString("\n")
			days = append(days, section.Date)
		}
	}

	m.viewport.SetContent(strings.TrimRight(b.String(), "\n"))
	m.lineDays = days

	// The render itself counts as the tracker's initial visibility callback,
	// so the noise guard consumes this one and not the user's first scroll.
	m.observeViewport()
}

// renderRecord renders one transaction line.
func (m Model) renderRecord(rec model.TransactionRecord) string {
	marker := "●"
	if rec.Paid == model.PaidStatusUnpaid {
		marker = "○"
	}

	amountStyle := m.theme.Income
	if rec.Kind == model.KindExpense {
		amountStyle = m.theme.Expense
	}
	amount := amountStyle.Render(fmt.Sprintf("%+10.2f", rec.SignedAmount()))

	desc := rec.Description
	maxDesc := m.width - 20
	if runes := []rune(desc); maxDesc > 0 && len(runes) > maxDesc {
		desc = string(runes[:maxDesc-1]) + "…"
	}

	line := fmt.Sprintf("  %s %s  %s", m.theme.Faint.Render(marker), m.theme.Normal.Render(desc), amount)
	if rec.Category != nil && rec.Category.Label != "" {
		line += "  " + m.theme.Faint.Render(rec.Category.Label)
	}
	return line
}

// renderHeader renders the title, the period banner, and the filter chips.
func (m Model) renderHeader() string {
	banner := m.theme.Banner.Render(m.periodLabel())

	title := m.theme.Title.Render("Statement")
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(banner)
	if gap < 1 {
		gap = 1
	}
	top := title + strings.Repeat(" ", gap) + banner

	return lipgloss.JoinVertical(lipgloss.Left, top, m.renderFilterChips(), "")
}

// periodLabel derives the banner text. While the user scrolls a date-range
// statement, the tracker's period wins over the filter window.
func (m Model) periodLabel() string {
	if p := m.tracker.Current(); p != nil {
		return p.String()
	}

	filters := m.session.Filters()
	if filters.DateRangeActive() {
		return fmt.Sprintf("%s – %s",
			filters.StartDate.Format("02/01/2006"),
			filters.EndDate.Format("02/01/2006"))
	}
	return ledger.Period{Month: time.Month(filters.Month), Year: filters.Year}.String()
}

// renderFilterChips renders the active filter summary line.
func (m Model) renderFilterChips() string {
	filters := m.session.Filters()

	chips := []string{
		"type:" + chipValue(string(filters.Type)),
		"status:" + chipValue(string(filters.Status)),
	}
	if filters.SourceType != "" {
		chips = append(chips, "source:"+strings.ToLower(string(filters.SourceType)))
	}
	if filters.AccountID != "" {
		chips = append(chips, "account:"+filters.AccountID)
	}
	if filters.BankAccountID != "" {
		chips = append(chips, "bank:"+filters.BankAccountID)
	}
	if filters.CreditCardID != "" {
		chips = append(chips, "card:"+filters.CreditCardID)
	}

	return m.theme.Subtitle.Render(strings.Join(chips, "  "))
}

func chipValue(v string) string {
	if v == "" {
		return "all"
	}
	return strings.ToLower(v)
}

// renderFooter renders the status line and the key help.
func (m Model) renderFooter() string {
	var status string
	switch {
	case m.entering:
		status = m.rangeInput.View()
	case m.loading:
		status = m.spinner.View() + m.theme.Faint.Render(" loading...")
	case m.err != nil:
		status = m.theme.StatusError.Render("✗ " + errorText(m.err))
	case m.session.HasNextPage():
		status = m.theme.StatusInfo.Render("⏷ more available") + m.theme.Faint.Render(" (Enter to load)")
	default:
		status = m.theme.Faint.Render(fmt.Sprintf("%d transactions", len(m.session.Records())))
	}

	var help []string
	for _, b := range m.keymap.ShortHelp() {
		help = append(help, b.Help().Key+" "+b.Help().Desc)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		m.theme.Faint.Render(strings.Join(help, " · ")),
	)
}

// errorText maps fetch errors to the user-facing status text.
func errorText(err error) string {
	if errors.Is(err, common.ErrAuthenticationRequired) {
		return "session expired, run `fincontrol login`"
	}
	var remoteErr *common.RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Message != "" {
		return remoteErr.Message
	}
	return err.Error()
}
