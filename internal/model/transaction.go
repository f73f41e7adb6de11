// Package model defines the core domain types shared across the application.
package model

import (
	"fmt"
	"math"
	"time"
)

// RecordSource indicates where a transaction originated.
type RecordSource string

const (
	// SourceManual marks transactions the user entered by hand.
	SourceManual RecordSource = "manual"
	// SourceExternal marks transactions synced from a connected institution.
	SourceExternal RecordSource = "external"
)

// RecordKind indicates the direction of a transaction.
type RecordKind string

const (
	// KindIncome represents money coming in.
	KindIncome RecordKind = "INCOME"
	// KindExpense represents money going out.
	KindExpense RecordKind = "EXPENSE"
)

// PaidStatus is the tri-state settlement flag on a transaction.
type PaidStatus string

const (
	// PaidStatusPaid means the transaction has been settled.
	PaidStatusPaid PaidStatus = "paid"
	// PaidStatusUnpaid means the transaction is still pending settlement.
	PaidStatusUnpaid PaidStatus = "unpaid"
	// PaidStatusNone means settlement does not apply (e.g. card feed entries).
	PaidStatusNone PaidStatus = ""
)

// Category describes the user-assigned category of a transaction.
type Category struct {
	ID    string
	Label string
	Icon  string
	Color string
}

// TransactionRecord is a single financial movement, normalized from either a
// manually entered ledger or an externally synchronized account/card feed.
// Instances are created fresh on every fetch and never mutated afterwards.
type TransactionRecord struct {
	OccurredAt    time.Time
	ID            string
	Description   string
	AccountID     string // manual account
	BankAccountID string // external/synced account
	CreditCardID  string // credit instrument
	Source        RecordSource
	Kind          RecordKind
	Paid          PaidStatus
	Category      *Category
	Amount        float64 // unsigned magnitude; direction lives in Kind
	Imported      bool
}

// SignedAmount returns the amount with direction encoded in the sign:
// positive for income, negative for expenses.
func (t *TransactionRecord) SignedAmount() float64 {
	if t.Kind == KindExpense {
		return -t.Amount
	}
	return t.Amount
}

// CalendarDay returns the record's occurrence date truncated to the local
// calendar day, which is the grouping key for date-sectioned display.
func (t *TransactionRecord) CalendarDay() time.Time {
	y, m, d := t.OccurredAt.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// Owner returns the single owning-account reference, or empty strings for an
// orphan record.
func (t *TransactionRecord) Owner() (kind, id string) {
	switch {
	case t.AccountID != "":
		return "account", t.AccountID
	case t.BankAccountID != "":
		return "bankAccount", t.BankAccountID
	case t.CreditCardID != "":
		return "creditCard", t.CreditCardID
	}
	return "", ""
}

// Validate checks the structural invariants of a record: a finite amount, a
// displayable identity (id, timestamp, description) and at most one
// owning-account reference.
func (t *TransactionRecord) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction is missing an id")
	}
	if t.Description == "" {
		return fmt.Errorf("transaction %s is missing a description", t.ID)
	}
	if t.OccurredAt.IsZero() {
		return fmt.Errorf("transaction %s is missing a timestamp", t.ID)
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return fmt.Errorf("transaction %s has a non-finite amount", t.ID)
	}
	owners := 0
	for _, id := range []string{t.AccountID, t.BankAccountID, t.CreditCardID} {
		if id != "" {
			owners++
		}
	}
	if owners > 1 {
		return fmt.Errorf("transaction %s references %d owning accounts", t.ID, owners)
	}
	return nil
}

// DateGroup is a server- or client-computed bucket of transactions that share
// a calendar day. Transactions within a group are ordered newest first.
type DateGroup struct {
	Date         time.Time
	Transactions []TransactionRecord
}
