package ledger

import (
	"sync"
	"time"
)

// Period is a calendar month/year pair.
type Period struct {
	Month time.Month
	Year  int
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: t.Month(), Year: t.Year()}
}

// String renders the period as "January 2024".
func (p Period) String() string {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// PeriodTracker observes which date section is currently topmost in a
// scrolling list and derives the calendar period shown in the synchronized
// header. It only tracks while a date-range filter is active; grouping by
// date is meaningless otherwise.
//
// The very first visibility callback after a reset fires during the initial
// render, before the user has scrolled, and is ignored as noise so a stale
// period banner is never shown before the user interacts.
type PeriodTracker struct {
	current     *Period
	active      bool
	hasScrolled bool
	primed      bool
	mu          sync.Mutex
}

// NewPeriodTracker returns a tracker in the idle state.
func NewPeriodTracker() *PeriodTracker {
	return &PeriodTracker{}
}

// SetActive switches tracking on or off. Activating, deactivating, or
// re-activating always resets the tracked state: the date-range filter
// changed, so whatever was visible before no longer applies.
func (t *PeriodTracker) SetActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = active
	t.resetLocked()
}

// Reset discards the tracked period and the has-scrolled flag, returning to
// the idle state. Called on mount and whenever the date-range filter is
// cleared or changed.
func (t *PeriodTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

func (t *PeriodTracker) resetLocked() {
	t.current = nil
	t.hasScrolled = false
	t.primed = false
}

// Observe consumes one visibility event: the calendar day of the topmost
// currently visible section. It returns the derived period, or nil while the
// tracker is inactive or still ignoring the initial render callback.
func (t *PeriodTracker) Observe(topVisible time.Time) *Period {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return nil
	}

	if !t.primed {
		// Initial render callback, not a user scroll.
		t.primed = true
		return nil
	}

	t.hasScrolled = true
	p := PeriodOf(topVisible)
	t.current = &p
	return &p
}

// Current returns the last derived period, or nil when idle.
func (t *PeriodTracker) Current() *Period {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	p := *t.current
	return &p
}

// HasScrolled reports whether the user has scrolled since the last reset.
func (t *PeriodTracker) HasScrolled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasScrolled
}
