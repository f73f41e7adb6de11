package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julio3266/finance-control-app-sub000/internal/ledger"
	"github.com/julio3266/finance-control-app-sub000/internal/model"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "oauth credentials",
			mutate: func(c *Config) { c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "refresh" },
		},
		{
			name:   "service account",
			mutate: func(c *Config) { c.ServiceAccountPath = "/tmp/key.json" },
		},
		{
			name:    "no auth configured",
			mutate:  func(*Config) {},
			wantErr: true,
		},
		{
			name: "both auth methods",
			mutate: func(c *Config) {
				c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "refresh"
				c.ServiceAccountPath = "/tmp/key.json"
			},
			wantErr: true,
		},
		{
			name: "zero batch size",
			mutate: func(c *Config) {
				c.ServiceAccountPath = "/tmp/key.json"
				c.BatchSize = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriter_PrepareStatementData(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	sections := []ledger.Section{
		{
			Title: "15/03/2024",
			Date:  day,
			Items: []model.TransactionRecord{
				{
					ID:          "t1",
					Description: "Salary",
					Amount:      1000,
					Kind:        model.KindIncome,
					Paid:        model.PaidStatusPaid,
					OccurredAt:  day.Add(9 * time.Hour),
					Source:      model.SourceManual,
					AccountID:   "acc-1",
					Category:    &model.Category{ID: "c1", Label: "Work"},
				},
				{
					ID:          "t2",
					Description: "Groceries",
					Amount:      250,
					Kind:        model.KindExpense,
					Paid:        model.PaidStatusPaid,
					OccurredAt:  day.Add(12 * time.Hour),
					Source:      model.SourceManual,
					AccountID:   "acc-1",
				},
			},
		},
	}

	w := &Writer{config: DefaultConfig()}
	values := w.prepareStatementData(sections, ledger.FilterSet{Month: 3, Year: 2024})

	require.NotEmpty(t, values)
	assert.Equal(t, []any{"Transaction Statement", "March 2024"}, values[0])

	assert.Contains(t, values, []any{"Income", 1000.0})
	assert.Contains(t, values, []any{"Expenses", 250.0})
	assert.Contains(t, values, []any{"Net", 750.0})
	assert.Contains(t, values, []any{"Transactions", 2})

	assert.Contains(t, values, []any{"15/03/2024"})
	assert.Contains(t, values, []any{"2024-03-15", "Salary", "INCOME", "paid", 1000.0, "Work", "manual"})
	assert.Contains(t, values, []any{"2024-03-15", "Groceries", "EXPENSE", "paid", -250.0, "", "manual"})
}

func TestPeriodLabel_DateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	label := periodLabel(ledger.FilterSet{StartDate: &start, EndDate: &end})

	assert.Equal(t, "Jan 1, 2024 - Feb 29, 2024", label)
}
