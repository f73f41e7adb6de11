// Package ledger implements the unified transaction ledger query engine: it
// owns the active filter set, orchestrates fetches against the remote API,
// normalizes heterogeneous response shapes, accumulates paged results, and
// projects date-sectioned groups for display.
package ledger

import (
	"time"
)

// TypeFilter narrows the ledger to a transaction direction.
type TypeFilter string

// Type filter values accepted by the remote API.
const (
	TypeAll     TypeFilter = "all"
	TypeIncome  TypeFilter = "INCOME"
	TypeExpense TypeFilter = "EXPENSE"
)

// StatusFilter narrows the ledger by settlement status.
type StatusFilter string

// Status filter values accepted by the remote API.
const (
	StatusAll    StatusFilter = "all"
	StatusPaid   StatusFilter = "paid"
	StatusUnpaid StatusFilter = "unpaid"
)

// SourceType selects which feed the remote API should read from.
type SourceType string

// Source types accepted by the remote API.
const (
	SourceTypeAccounts SourceType = "ACCOUNTS"
	SourceTypeCards    SourceType = "CARDS"
)

// DefaultPageSize is the page length used in month/year mode unless the
// caller overrides it.
const DefaultPageSize = 20

// UnboundedPageSize asks the server for the whole window in one response.
const UnboundedPageSize = 0

// FilterSet holds the active query parameters. The time window is exclusively
// month/year or exclusively start/end date; the account selector is
// exclusively a manual account or a bank account. Zero values mean "unset".
type FilterSet struct {
	StartDate     *time.Time
	EndDate       *time.Time
	Type          TypeFilter
	Status        StatusFilter
	AccountID     string
	BankAccountID string
	CreditCardID  string
	SourceType    SourceType
	Month         int // 1-12, 0 when unset
	Year          int
	Page          int // 1-based
	PageSize      int // 0 = unbounded
}

// DefaultFilters returns the filter set a fresh session starts from: the
// current calendar month, everything included, first page.
func DefaultFilters(now time.Time) FilterSet {
	return FilterSet{
		Type:     TypeAll,
		Status:   StatusAll,
		Month:    int(now.Month()),
		Year:     now.Year(),
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// DateRangeActive reports whether the filter set is in date-range mode.
func (f FilterSet) DateRangeActive() bool {
	return f.StartDate != nil && f.EndDate != nil
}

// identity is the filter state excluding the page cursor. Two filter sets
// with the same identity address the same logical result set, so their pages
// may be accumulated together.
func (f FilterSet) identity() FilterSet {
	f.Page = 0
	return f
}

// equalIdentity reports whether two filter sets differ only by page.
func (f FilterSet) equalIdentity(other FilterSet) bool {
	a, b := f.identity(), other.identity()
	if !equalTimePtr(a.StartDate, b.StartDate) || !equalTimePtr(a.EndDate, b.EndDate) {
		return false
	}
	a.StartDate, a.EndDate = nil, nil
	b.StartDate, b.EndDate = nil, nil
	return a == b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Patch is a partial filter update. Nil fields are left untouched, which is
// how an explicit page supplied by the caller is told apart from an absent
// one. Clearing a string selector is done by setting it to the empty string.
type Patch struct {
	Type          *TypeFilter
	Status        *StatusFilter
	AccountID     *string
	BankAccountID *string
	CreditCardID  *string
	SourceType    *SourceType
	Month         *int
	Year          *int
	StartDate     *time.Time
	EndDate       *time.Time
	Page          *int
	PageSize      *int
}

// hasPage reports whether the caller explicitly supplied a page cursor.
func (p Patch) hasPage() bool {
	return p.Page != nil
}

// apply merges the patch into a copy of f, enforcing the two mutual-exclusion
// invariants: manual account vs bank account, and month/year vs start/end.
func (p Patch) apply(f FilterSet) FilterSet {
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.AccountID != nil {
		f.AccountID = *p.AccountID
		if f.AccountID != "" {
			f.BankAccountID = ""
		}
	}
	if p.BankAccountID != nil {
		f.BankAccountID = *p.BankAccountID
		if f.BankAccountID != "" {
			f.AccountID = ""
		}
	}
	if p.CreditCardID != nil {
		f.CreditCardID = *p.CreditCardID
	}
	if p.SourceType != nil {
		f.SourceType = *p.SourceType
	}
	if p.Month != nil || p.Year != nil {
		if p.Month != nil {
			f.Month = *p.Month
		}
		if p.Year != nil {
			f.Year = *p.Year
		}
		if f.Month != 0 || f.Year != 0 {
			f.StartDate, f.EndDate = nil, nil
		}
	}
	if p.StartDate != nil || p.EndDate != nil {
		if p.StartDate != nil {
			f.StartDate = copyTime(p.StartDate)
		}
		if p.EndDate != nil {
			f.EndDate = copyTime(p.EndDate)
		}
		// A half-open patch must not strand the filter set with no time
		// window at all; month mode survives until the range is complete.
		if f.StartDate != nil && f.EndDate != nil {
			f.Month, f.Year = 0, 0
		}
	}
	if p.Page != nil {
		f.Page = *p.Page
	}
	if p.PageSize != nil {
		f.PageSize = *p.PageSize
	}
	return f
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Helpers for building patches inline.

// TypePtr returns a pointer to v for use in a Patch.
func TypePtr(v TypeFilter) *TypeFilter { return &v }

// StatusPtr returns a pointer to v for use in a Patch.
func StatusPtr(v StatusFilter) *StatusFilter { return &v }

// StringPtr returns a pointer to v for use in a Patch.
func StringPtr(v string) *string { return &v }

// IntPtr returns a pointer to v for use in a Patch.
func IntPtr(v int) *int { return &v }

// TimePtr returns a pointer to v for use in a Patch.
func TimePtr(v time.Time) *time.Time { return &v }
