package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/julio3266/finance-control-app-sub000/internal/model"
)

// Query is the single outbound request derived from a filter set. Zero
// fields are omitted from the wire request.
type Query struct {
	StartDate     *time.Time
	EndDate       *time.Time
	Type          TypeFilter
	Status        StatusFilter
	AccountID     string
	BankAccountID string
	CreditCardID  string
	SourceType    SourceType
	Month         int
	Year          int
	Page          int
	PageSize      int
}

// Fetcher is the contract the session requires of the remote collaborator.
// Implementations must fail with common.ErrAuthenticationRequired before any
// network I/O when no session token is available, and with *common.RemoteError
// on any other failure.
type Fetcher interface {
	FetchTransactions(ctx context.Context, q Query) (*NormalizedResponse, error)
}

// Config holds the injectable dependencies of a Session.
type Config struct {
	Clock  func() time.Time
	Logger *slog.Logger
}

// Session owns the mutable query state of one ledger screen: the active
// filter set, the accumulated record sequence, and the latest pagination
// info. All remote data flows through it; everything else reads it.
//
// Overlapping fetches are not canceled. Instead every fetch is issued a
// monotonically increasing sequence token and a response is applied only if
// its token is still the newest issued, so a slow stale response can never
// overwrite newer data (last request wins).
type Session struct {
	clock      func() time.Time
	fetcher    Fetcher
	logger     *slog.Logger
	pagination *PaginationInfo
	lastErr    error
	records    []model.TransactionRecord
	groups     []model.DateGroup
	filters    FilterSet
	seq        uint64
	inFlight   int
	mu         sync.Mutex
}

// NewSession creates a session with default dependencies.
func NewSession(fetcher Fetcher) *Session {
	return NewSessionWithConfig(fetcher, Config{})
}

// NewSessionWithConfig creates a session with explicit dependencies. A nil
// clock defaults to time.Now and a nil logger to slog.Default.
func NewSessionWithConfig(fetcher Fetcher, cfg Config) *Session {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "ledger")
	}
	return &Session{
		fetcher: fetcher,
		clock:   clock,
		logger:  logger,
		filters: DefaultFilters(clock()),
	}
}

// Filters returns the current filter set.
func (s *Session) Filters() FilterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Records returns the accumulated record sequence.
func (s *Session) Records() []model.TransactionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TransactionRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Pagination returns the latest server-reported cursor metadata, or nil when
// the last query used the unbounded mode.
func (s *Session) Pagination() *PaginationInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pagination == nil {
		return nil
	}
	p := *s.pagination
	return &p
}

// Sections projects the accumulated records through the date grouping engine
// under the current filters.
func (s *Session) Sections() []Section {
	s.mu.Lock()
	records := s.records
	filters := s.filters
	groups := s.groups
	s.mu.Unlock()
	return ProjectSections(records, filters, groups)
}

// Loading reports whether any fetch is outstanding. Refresh and load-more
// share this one flag.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// LastError returns the error of the most recent applied fetch, or nil.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// HasNextPage reports whether the server advertised another page.
func (s *Session) HasNextPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination != nil && s.pagination.HasNextPage
}

// SetFilters merges a partial update into the current filter set. Changing
// any field other than the page cursor resets the page to 1 and discards the
// accumulated records, unless the caller explicitly re-supplied the page:
// stale records from old pages must never appear under a new page-1 result.
func (s *Session) SetFilters(patch Patch) FilterSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.apply(s.filters)
	changed := !next.equalIdentity(s.filters)

	if changed && !patch.hasPage() {
		next.Page = 1
		s.discardLocked()
	}

	s.filters = next
	return next
}

// ClearFilters resets to the default filter set and discards accumulated
// records.
func (s *Session) ClearFilters() FilterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = DefaultFilters(s.clock())
	s.discardLocked()
	return s.filters
}

// NextPage advances the page cursor without discarding accumulated records.
// It is a no-op when the server reported no further pages.
func (s *Session) NextPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pagination == nil || !s.pagination.HasNextPage {
		return false
	}
	s.filters.Page++
	return true
}

func (s *Session) discardLocked() {
	s.records = nil
	s.pagination = nil
	s.groups = nil
	s.lastErr = nil
}

// Fetch issues one request for the current filter state and reconciles the
// response into the session. On a page-1 response (or when no prior
// pagination existed) the record sequence is replaced wholesale; on a later
// page it is appended in server order. Pagination info is always replaced.
//
// A response that resolves after a newer request was issued, or after the
// filter identity changed, is discarded. Fetch errors are recorded and
// returned but never clear records accumulated by earlier pages.
func (s *Session) Fetch(ctx context.Context) error {
	s.mu.Lock()
	issued := s.filters
	query := BuildQuery(issued)
	s.seq++
	seq := s.seq
	s.inFlight++
	s.mu.Unlock()

	s.logger.Debug("Fetching transactions",
		"seq", seq,
		"page", query.Page,
		"page_size", query.PageSize)

	resp, err := s.fetcher.FetchTransactions(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	if seq != s.seq {
		s.logger.Debug("Discarding stale response", "seq", seq, "newest", s.seq)
		return nil
	}
	if !s.filters.equalIdentity(issued) {
		s.logger.Debug("Discarding response for superseded filters", "seq", seq)
		return nil
	}

	if err != nil {
		s.lastErr = err
		return err
	}
	s.lastErr = nil

	if issued.Page <= 1 || s.pagination == nil {
		s.records = resp.Records
	} else {
		s.records = append(s.records, resp.Records...)
	}
	s.pagination = resp.Pagination
	s.groups = resp.Groups

	s.logger.Debug("Applied response",
		"seq", seq,
		"received", len(resp.Records),
		"accumulated", len(s.records))

	return nil
}

// BuildQuery translates a filter set into the single outbound query. A
// start/end window forces the unbounded page size and omits month/year:
// date-range queries return their own internal grouping and are not paged.
// Month/year mode falls back to the default page length when the caller set
// none.
func BuildQuery(f FilterSet) Query {
	q := Query{
		Type:          f.Type,
		Status:        f.Status,
		AccountID:     f.AccountID,
		BankAccountID: f.BankAccountID,
		CreditCardID:  f.CreditCardID,
		SourceType:    f.SourceType,
		Page:          f.Page,
		PageSize:      f.PageSize,
	}
	if q.Page < 1 {
		q.Page = 1
	}

	if f.DateRangeActive() {
		q.StartDate = copyTime(f.StartDate)
		q.EndDate = copyTime(f.EndDate)
		q.PageSize = UnboundedPageSize
		q.Month, q.Year = 0, 0
		return q
	}

	q.Month = f.Month
	q.Year = f.Year
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	return q
}
