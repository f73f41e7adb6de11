package tui

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julio3266/finance-control-app-sub000/internal/ledger"
	"github.com/julio3266/finance-control-app-sub000/internal/model"
	"github.com/julio3266/finance-control-app-sub000/internal/tui/themes"
)

func testClock() time.Time {
	return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
}

func testRecord(id, description string, kind model.RecordKind) model.TransactionRecord {
	return model.TransactionRecord{
		ID:          id,
		Description: description,
		Amount:      42.5,
		Kind:        kind,
		Paid:        model.PaidStatusPaid,
		OccurredAt:  time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		Source:      model.SourceManual,
		AccountID:   "acc-1",
	}
}

func newTestModel(t *testing.T, fetcher *ledger.MockFetcher) Model {
	t.Helper()
	session := ledger.NewSessionWithConfig(fetcher, ledger.Config{Clock: testClock})
	m := newModel(Config{Session: session, Theme: themes.Default})

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func loadStatement(t *testing.T, m Model) Model {
	t.Helper()
	err := m.session.Fetch(context.Background())
	updated, _ := m.Update(statementLoadedMsg{err: err})
	return updated.(Model)
}

func TestModel_RendersSections(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	fetcher.Enqueue(&ledger.NormalizedResponse{
		Records: []model.TransactionRecord{
			testRecord("t1", "Coffee beans", model.KindExpense),
			testRecord("t2", "Consulting", model.KindIncome),
		},
		Pagination: &ledger.PaginationInfo{CurrentPage: 1, TotalItems: 2},
	}, nil)

	m := newTestModel(t, fetcher)
	m = loadStatement(t, m)

	view := m.View()
	assert.Contains(t, view, "Coffee beans")
	assert.Contains(t, view, "Consulting")
	assert.NotContains(t, view, "10/03/2024", "month mode shows no date headers")
	assert.Contains(t, view, "March 2024", "the banner shows the filtered month")
}

func TestModel_RendersDateHeadersInRangeMode(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	m := newTestModel(t, fetcher)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	m.session.SetFilters(ledger.Patch{StartDate: ledger.TimePtr(start), EndDate: ledger.TimePtr(end)})

	fetcher.Enqueue(&ledger.NormalizedResponse{
		Records: []model.TransactionRecord{
			testRecord("t1", "Coffee beans", model.KindExpense),
		},
	}, nil)
	m = loadStatement(t, m)

	view := m.View()
	assert.Contains(t, view, "10/03/2024", "range mode groups records under their calendar day")
	assert.Contains(t, view, "01/03/2024 – 31/03/2024", "the banner shows the date window")
}

func TestModel_TrackerFollowsFirstScrollInRangeMode(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	m := newTestModel(t, fetcher)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	m.session.SetFilters(ledger.Patch{StartDate: ledger.TimePtr(start), EndDate: ledger.TimePtr(end)})
	m.tracker.SetActive(true)

	fetcher.Enqueue(&ledger.NormalizedResponse{
		Records: []model.TransactionRecord{
			testRecord("t1", "Coffee beans", model.KindExpense),
		},
	}, nil)
	m = loadStatement(t, m)

	require.Nil(t, m.tracker.Current(), "rendering alone must not move the banner")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)

	p := m.tracker.Current()
	require.NotNil(t, p, "the first scroll after a fetch drives the banner")
	assert.Equal(t, time.March, p.Month)
	assert.Equal(t, 2024, p.Year)
}

func TestRenderRecord_TruncatesOnRuneBoundary(t *testing.T) {
	m := Model{theme: themes.Default, width: 30}

	rec := testRecord("t1", strings.Repeat("ä", 24), model.KindExpense)
	line := m.renderRecord(rec)

	assert.True(t, utf8.ValidString(line), "truncation must not split a rune")
	assert.Contains(t, line, "…")
	assert.Contains(t, line, strings.Repeat("ä", 9))
}

func TestModel_EmptyState(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	fetcher.Enqueue(&ledger.NormalizedResponse{}, nil)

	m := newTestModel(t, fetcher)
	m = loadStatement(t, m)

	assert.Contains(t, m.View(), "No transactions for this period.")
}

func TestModel_CycleTypeFilter(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	m := newTestModel(t, fetcher)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	m = updated.(Model)

	assert.Equal(t, ledger.TypeIncome, m.session.Filters().Type)
	assert.True(t, m.loading)
	assert.NotNil(t, cmd, "a filter change triggers a fetch")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	m = updated.(Model)
	assert.Equal(t, ledger.TypeExpense, m.session.Filters().Type)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	m = updated.(Model)
	assert.Equal(t, ledger.TypeAll, m.session.Filters().Type)
}

func TestModel_MonthNavigation(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	m := newTestModel(t, fetcher)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = updated.(Model)

	filters := m.session.Filters()
	assert.Equal(t, 2, filters.Month)
	assert.Equal(t, 2024, filters.Year)

	// December wraps into the previous year.
	for i := 0; i < 2; i++ {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
		m = updated.(Model)
	}
	filters = m.session.Filters()
	assert.Equal(t, 12, filters.Month)
	assert.Equal(t, 2023, filters.Year)
}

func TestModel_MonthNavigationIgnoredInDateRangeMode(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	m := newTestModel(t, fetcher)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	m.session.SetFilters(ledger.Patch{StartDate: ledger.TimePtr(start), EndDate: ledger.TimePtr(end)})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = updated.(Model)

	filters := m.session.Filters()
	require.True(t, filters.DateRangeActive())
	assert.Equal(t, 0, filters.Month)
}

func TestModel_LoadMoreRequiresNextPage(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	fetcher.Enqueue(&ledger.NormalizedResponse{
		Records:    []model.TransactionRecord{testRecord("t1", "Coffee", model.KindExpense)},
		Pagination: &ledger.PaginationInfo{CurrentPage: 1, HasNextPage: false},
	}, nil)

	m := newTestModel(t, fetcher)
	m = loadStatement(t, m)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Nil(t, cmd, "no further pages means load-more is inert")
	assert.Equal(t, 1, m.session.Filters().Page)
}

func TestModel_LoadMoreAdvancesPage(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	fetcher.Enqueue(&ledger.NormalizedResponse{
		Records:    []model.TransactionRecord{testRecord("t1", "Coffee", model.KindExpense)},
		Pagination: &ledger.PaginationInfo{CurrentPage: 1, HasNextPage: true},
	}, nil)

	m := newTestModel(t, fetcher)
	m = loadStatement(t, m)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Equal(t, 2, m.session.Filters().Page)
}

func TestModel_FetchErrorShownInFooter(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	fetcher.Enqueue(nil, assertableError("the ledger is on fire"))

	m := newTestModel(t, fetcher)
	m = loadStatement(t, m)

	assert.Contains(t, m.View(), "the ledger is on fire")
}

type assertableError string

func (e assertableError) Error() string { return string(e) }

func TestModel_DateRangeEntry(t *testing.T) {
	fetcher := &ledger.MockFetcher{}
	m := newTestModel(t, fetcher)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m = updated.(Model)
	require.True(t, m.entering)

	for _, r := range "2024-01-01..2024-01-31" {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.False(t, m.entering)
	assert.NotNil(t, cmd)

	filters := m.session.Filters()
	require.True(t, filters.DateRangeActive())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *filters.StartDate)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *filters.EndDate)
	assert.Equal(t, 0, filters.Month, "entering a range leaves month mode")
}

func TestModel_DateRangeEntry_Invalid(t *testing.T) {
	m := newTestModel(t, &ledger.MockFetcher{})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m = updated.(Model)

	m.rangeInput.SetValue("backwards")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Nil(t, cmd)
	assert.Error(t, m.err)
	assert.False(t, m.session.Filters().DateRangeActive())
}

func TestParseDateRange(t *testing.T) {
	_, _, err := parseDateRange("2024-02-01..2024-01-01")
	assert.Error(t, err, "end before start is rejected")

	start, end, err := parseDateRange(" 2024-01-01 .. 2024-01-31 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestModel_QuitKeys(t *testing.T) {
	m := newTestModel(t, &ledger.MockFetcher{})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = updated.(Model)

	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View(), "the final frame is blank")
}
