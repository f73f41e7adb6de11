package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionRecord_Validate(t *testing.T) {
	base := func() TransactionRecord {
		return TransactionRecord{
			ID:          "txn-1",
			Description: "Groceries",
			OccurredAt:  time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
			Amount:      42.50,
			Kind:        KindExpense,
			Source:      SourceManual,
			AccountID:   "acc-1",
		}
	}

	tests := []struct {
		mutate  func(*TransactionRecord)
		name    string
		wantErr bool
	}{
		{
			name:    "valid record",
			mutate:  func(*TransactionRecord) {},
			wantErr: false,
		},
		{
			name:    "orphan record is valid",
			mutate:  func(r *TransactionRecord) { r.AccountID = "" },
			wantErr: false,
		},
		{
			name:    "missing id",
			mutate:  func(r *TransactionRecord) { r.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing description",
			mutate:  func(r *TransactionRecord) { r.Description = "" },
			wantErr: true,
		},
		{
			name:    "missing timestamp",
			mutate:  func(r *TransactionRecord) { r.OccurredAt = time.Time{} },
			wantErr: true,
		},
		{
			name:    "non-finite amount",
			mutate:  func(r *TransactionRecord) { r.Amount = math.NaN() },
			wantErr: true,
		},
		{
			name: "two owning accounts",
			mutate: func(r *TransactionRecord) {
				r.BankAccountID = "bank-1"
			},
			wantErr: true,
		},
		{
			name: "account and credit card",
			mutate: func(r *TransactionRecord) {
				r.CreditCardID = "card-1"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base()
			tt.mutate(&rec)
			err := rec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransactionRecord_SignedAmount(t *testing.T) {
	income := TransactionRecord{Kind: KindIncome, Amount: 100}
	expense := TransactionRecord{Kind: KindExpense, Amount: 100}

	assert.Equal(t, 100.0, income.SignedAmount())
	assert.Equal(t, -100.0, expense.SignedAmount())
}

func TestTransactionRecord_CalendarDay(t *testing.T) {
	rec := TransactionRecord{
		OccurredAt: time.Date(2024, 3, 15, 23, 45, 12, 0, time.Local),
	}
	day := rec.CalendarDay()

	assert.Equal(t, 2024, day.Year())
	assert.Equal(t, time.March, day.Month())
	assert.Equal(t, 15, day.Day())
	assert.Equal(t, 0, day.Hour())
}

func TestTransactionRecord_Owner(t *testing.T) {
	tests := []struct {
		name     string
		record   TransactionRecord
		wantKind string
		wantID   string
	}{
		{"manual account", TransactionRecord{AccountID: "a1"}, "account", "a1"},
		{"bank account", TransactionRecord{BankAccountID: "b1"}, "bankAccount", "b1"},
		{"credit card", TransactionRecord{CreditCardID: "c1"}, "creditCard", "c1"},
		{"orphan", TransactionRecord{}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, id := tt.record.Owner()
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
