// Package tui implements the interactive statement viewer: a scrolling,
// date-sectioned transaction list with filter controls, incremental page
// loading, and a period banner that follows the viewport.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julio3266/finance-control-app-sub000/internal/ledger"
	"github.com/julio3266/finance-control-app-sub000/internal/tui/themes"
)

const (
	headerHeight = 3
	footerHeight = 2
)

// Config holds the dependencies of the statement viewer.
type Config struct {
	Session *ledger.Session
	Logger  *slog.Logger
	Theme   themes.Theme
}

// statementLoadedMsg reports that an outstanding fetch resolved.
type statementLoadedMsg struct {
	err error
}

// Model is the bubbletea model of the statement viewer.
type Model struct {
	session    *ledger.Session
	tracker    *ledger.PeriodTracker
	logger     *slog.Logger
	lineDays   []time.Time
	theme      themes.Theme
	keymap     KeyMap
	viewport   viewport.Model
	spinner    spinner.Model
	rangeInput textinput.Model
	width      int
	height     int
	ready      bool
	loading    bool
	entering   bool
	quitting   bool
	err        error
}

// newModel creates a statement viewer around an existing session.
func newModel(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "tui")
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Theme.StatusInfo

	tracker := ledger.NewPeriodTracker()
	tracker.SetActive(cfg.Session.Filters().DateRangeActive())

	ti := textinput.New()
	ti.Placeholder = "2024-01-01..2024-01-31"
	ti.Prompt = "Date range: "
	ti.CharLimit = 24

	return Model{
		session:    cfg.Session,
		tracker:    tracker,
		logger:     logger,
		theme:      cfg.Theme,
		keymap:     DefaultKeyMap(),
		spinner:    sp,
		rangeInput: ti,
		loading:    true,
	}
}

// Init starts the spinner and issues the initial fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

// fetchCmd runs one session fetch off the UI goroutine.
func (m Model) fetchCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		err := session.Fetch(context.Background())
		return statementLoadedMsg{err: err}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := m.height - headerHeight - footerHeight
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = contentHeight
		}
		m.refreshContent()
		return m, nil

	case statementLoadedMsg:
		m.loading = m.session.Loading()
		m.err = msg.err
		m.refreshContent()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey dispatches one key press.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.entering {
		return m.handleRangeInput(msg)
	}

	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Refresh):
		return m.startFetch()

	case key.Matches(msg, m.keymap.CycleType):
		m.session.SetFilters(ledger.Patch{Type: ledger.TypePtr(nextType(m.session.Filters().Type))})
		return m.startFetch()

	case key.Matches(msg, m.keymap.CycleStatus):
		m.session.SetFilters(ledger.Patch{Status: ledger.StatusPtr(nextStatus(m.session.Filters().Status))})
		return m.startFetch()

	case key.Matches(msg, m.keymap.ToggleSource):
		m.session.SetFilters(ledger.Patch{SourceType: sourcePtr(nextSource(m.session.Filters().SourceType))})
		return m.startFetch()

	case key.Matches(msg, m.keymap.PrevMonth):
		return m.shiftMonth(-1)

	case key.Matches(msg, m.keymap.NextMonth):
		return m.shiftMonth(1)

	case key.Matches(msg, m.keymap.DateRange):
		m.entering = true
		m.rangeInput.SetValue("")
		return m, m.rangeInput.Focus()

	case key.Matches(msg, m.keymap.ClearFilters):
		m.session.ClearFilters()
		m.tracker.SetActive(false)
		return m.startFetch()

	case key.Matches(msg, m.keymap.LoadMore):
		if m.loading || !m.session.NextPage() {
			return m, nil
		}
		return m.startFetch()
	}

	// Everything else scrolls the viewport.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.observeViewport()

	// Infinite scroll: hitting the bottom pulls the next page.
	if m.viewport.AtBottom() && !m.loading && m.session.NextPage() {
		next, fetchCmd := m.startFetch()
		return next, tea.Batch(cmd, fetchCmd)
	}
	return m, cmd
}

// handleRangeInput runs the date-range entry prompt.
func (m Model) handleRangeInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.entering = false
		m.rangeInput.Blur()
		return m, nil

	case tea.KeyEnter:
		m.entering = false
		m.rangeInput.Blur()

		start, end, err := parseDateRange(m.rangeInput.Value())
		if err != nil {
			m.err = err
			return m, nil
		}

		m.session.SetFilters(ledger.Patch{
			StartDate: ledger.TimePtr(start),
			EndDate:   ledger.TimePtr(end),
		})
		m.tracker.SetActive(true)
		return m.startFetch()
	}

	var cmd tea.Cmd
	m.rangeInput, cmd = m.rangeInput.Update(msg)
	return m, cmd
}

// parseDateRange parses "YYYY-MM-DD..YYYY-MM-DD".
func parseDateRange(raw string) (start, end time.Time, err error) {
	parts := strings.Split(strings.TrimSpace(raw), "..")
	if len(parts) != 2 {
		return start, end, fmt.Errorf("expected start..end, e.g. 2024-01-01..2024-01-31")
	}

	start, err = time.Parse("2006-01-02", strings.TrimSpace(parts[0]))
	if err != nil {
		return start, end, fmt.Errorf("invalid start date: %w", err)
	}
	end, err = time.Parse("2006-01-02", strings.TrimSpace(parts[1]))
	if err != nil {
		return start, end, fmt.Errorf("invalid end date: %w", err)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("end date precedes start date")
	}
	return start, end, nil
}

// startFetch marks the session busy and issues a fetch.
func (m Model) startFetch() (tea.Model, tea.Cmd) {
	m.loading = true
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, m.fetchCmd())
}

// shiftMonth moves the month window. It is a no-op in date-range mode, where
// the window is explicit.
func (m Model) shiftMonth(delta int) (tea.Model, tea.Cmd) {
	filters := m.session.Filters()
	if filters.DateRangeActive() {
		return m, nil
	}

	anchor := time.Date(filters.Year, time.Month(filters.Month), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, delta, 0)
	m.session.SetFilters(ledger.Patch{
		Month: ledger.IntPtr(int(anchor.Month())),
		Year:  ledger.IntPtr(anchor.Year()),
	})
	return m.startFetch()
}

// observeViewport feeds the calendar day backing the topmost visible line to
// the period tracker.
func (m *Model) observeViewport() {
	if len(m.lineDays) == 0 {
		return
	}
	idx := m.viewport.YOffset
	if idx >= len(m.lineDays) {
		idx = len(m.lineDays) - 1
	}
	if idx < 0 {
		idx = 0
	}
	day := m.lineDays[idx]
	if !day.IsZero() {
		m.tracker.Observe(day)
	}
}

// nextType cycles the direction filter.
func nextType(t ledger.TypeFilter) ledger.TypeFilter {
	switch t {
	case ledger.TypeAll:
		return ledger.TypeIncome
	case ledger.TypeIncome:
		return ledger.TypeExpense
	default:
		return ledger.TypeAll
	}
}

// nextStatus cycles the settlement filter.
func nextStatus(s ledger.StatusFilter) ledger.StatusFilter {
	switch s {
	case ledger.StatusAll:
		return ledger.StatusPaid
	case ledger.StatusPaid:
		return ledger.StatusUnpaid
	default:
		return ledger.StatusAll
	}
}

// nextSource toggles between the account and card feeds.
func nextSource(s ledger.SourceType) ledger.SourceType {
	if s == ledger.SourceTypeCards {
		return ledger.SourceTypeAccounts
	}
	return ledger.SourceTypeCards
}

func sourcePtr(s ledger.SourceType) *ledger.SourceType {
	return &s
}
