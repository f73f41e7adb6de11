package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/julio3266/finance-control-app-sub000/internal/model"
)

// PaginationInfo is the server-reported cursor metadata. It is absent when
// the query used the unbounded/date-range mode.
type PaginationInfo struct {
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPreviousPage"`
}

// NormalizedResponse is the canonical in-memory shape of any ledger payload:
// a flat record sequence, optional pagination, and the server's own date
// grouping when it supplied one.
type NormalizedResponse struct {
	Pagination *PaginationInfo
	Records    []model.TransactionRecord
	Groups     []model.DateGroup
}

// payloadShape tags the classified form of a raw payload.
type payloadShape int

const (
	shapeBareArray payloadShape = iota
	shapeFlat
	shapeGrouped
)

// wireCategory mirrors the category object on the wire.
type wireCategory struct {
	ID    string `json:"id"`
	Label string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// wireRecord mirrors a transaction on the wire. Amount is kept raw because
// the server has been observed to send both numbers and strings.
type wireRecord struct {
	ID            string          `json:"id"`
	Description   string          `json:"description"`
	Amount        json.RawMessage `json:"amount"`
	Type          string          `json:"type"`
	Date          string          `json:"date"`
	Paid          *bool           `json:"paid"`
	Category      *wireCategory   `json:"category"`
	AccountID     string          `json:"accountId"`
	BankAccountID string          `json:"bankAccountId"`
	CreditCardID  string          `json:"creditCardId"`
	Imported      bool            `json:"imported"`
}

// wireGroup mirrors one date bucket of a grouped payload.
type wireGroup struct {
	Date         string            `json:"date"`
	Transactions []json.RawMessage `json:"transactions"`
}

// wireEnvelope mirrors the {data, pagination, summary?} wrapper.
type wireEnvelope struct {
	Data       []json.RawMessage `json:"data"`
	Pagination *PaginationInfo   `json:"pagination"`
}

// NormalizePayload classifies a raw API payload once and maps it into the
// canonical NormalizedResponse. Malformed records are dropped, never
// surfaced: the server is an independently evolving collaborator and a
// partial payload must not take the whole screen down.
func NormalizePayload(raw []byte) (*NormalizedResponse, error) {
	shape, envelope, err := classifyPayload(raw)
	if err != nil {
		return nil, err
	}

	switch shape {
	case shapeBareArray, shapeFlat:
		records := decodeRecords(envelope.Data, false)
		return &NormalizedResponse{
			Records:    records,
			Pagination: envelope.Pagination,
		}, nil

	case shapeGrouped:
		groups := decodeGroups(envelope.Data)
		// The flat view of a grouped payload preserves group order, then
		// in-group order.
		var records []model.TransactionRecord
		for _, g := range groups {
			records = append(records, g.Transactions...)
		}
		return &NormalizedResponse{
			Records:    records,
			Pagination: envelope.Pagination,
			Groups:     groups,
		}, nil
	}

	return nil, fmt.Errorf("unrecognized payload shape")
}

// classifyPayload decides which of the three accepted shapes the payload is:
// a bare record array, {data: records, pagination}, or {data: date groups,
// pagination, summary?}. Grouped data is recognized by the first element of
// data exposing both a date key and a transactions key.
func classifyPayload(raw []byte) (payloadShape, *wireEnvelope, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0, nil, fmt.Errorf("empty payload")
	}

	if trimmed[0] == '[' {
		var data []json.RawMessage
		if err := json.Unmarshal(trimmed, &data); err != nil {
			return 0, nil, fmt.Errorf("failed to decode payload array: %w", err)
		}
		return shapeBareArray, &wireEnvelope{Data: data}, nil
	}

	var envelope wireEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return 0, nil, fmt.Errorf("failed to decode payload envelope: %w", err)
	}

	if len(envelope.Data) > 0 && isGroupElement(envelope.Data[0]) {
		return shapeGrouped, &envelope, nil
	}
	return shapeFlat, &envelope, nil
}

// isGroupElement probes one data element for the grouped form.
func isGroupElement(raw json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, hasDate := probe["date"]
	_, hasTxns := probe["transactions"]
	return hasDate && hasTxns
}

// decodeRecords maps raw record elements into the canonical model, dropping
// anything malformed. When strict is set, records additionally need a full
// display identity (id, timestamp, description); flat lists only require a
// finite amount.
func decodeRecords(elements []json.RawMessage, strict bool) []model.TransactionRecord {
	records := make([]model.TransactionRecord, 0, len(elements))
	for _, element := range elements {
		rec, ok := decodeRecord(element, strict)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func decodeRecord(raw json.RawMessage, strict bool) (model.TransactionRecord, bool) {
	var wire wireRecord
	if err := json.Unmarshal(raw, &wire); err != nil {
		slog.Debug("Dropping undecodable transaction", "error", err)
		return model.TransactionRecord{}, false
	}

	amount, ok := parseAmount(wire.Amount)
	if !ok {
		slog.Debug("Dropping transaction with malformed amount", "id", wire.ID)
		return model.TransactionRecord{}, false
	}

	occurredAt, _ := parseWireDate(wire.Date)

	rec := model.TransactionRecord{
		ID:            wire.ID,
		Description:   wire.Description,
		OccurredAt:    occurredAt,
		AccountID:     wire.AccountID,
		BankAccountID: wire.BankAccountID,
		CreditCardID:  wire.CreditCardID,
		Imported:      wire.Imported,
	}

	// Direction: the type field wins; otherwise the sign of the amount.
	switch {
	case wire.Type == string(model.KindIncome):
		rec.Kind = model.KindIncome
	case wire.Type == string(model.KindExpense):
		rec.Kind = model.KindExpense
	case amount < 0:
		rec.Kind = model.KindExpense
	default:
		rec.Kind = model.KindIncome
	}
	rec.Amount = math.Abs(amount)

	if wire.Paid != nil {
		if *wire.Paid {
			rec.Paid = model.PaidStatusPaid
		} else {
			rec.Paid = model.PaidStatusUnpaid
		}
	}

	if wire.BankAccountID != "" {
		rec.Source = model.SourceExternal
	} else {
		rec.Source = model.SourceManual
	}

	if wire.Category != nil {
		rec.Category = &model.Category{
			ID:    wire.Category.ID,
			Label: wire.Category.Label,
			Icon:  wire.Category.Icon,
			Color: wire.Category.Color,
		}
	}

	if strict {
		if err := rec.Validate(); err != nil {
			slog.Debug("Dropping partial grouped transaction", "error", err)
			return model.TransactionRecord{}, false
		}
	}

	return rec, true
}

// decodeGroups maps raw group elements, validating each member record and
// dropping groups left empty after validation.
func decodeGroups(elements []json.RawMessage) []model.DateGroup {
	groups := make([]model.DateGroup, 0, len(elements))
	for _, element := range elements {
		var wire wireGroup
		if err := json.Unmarshal(element, &wire); err != nil {
			slog.Debug("Dropping undecodable date group", "error", err)
			continue
		}

		date, ok := parseWireDate(wire.Date)
		if !ok {
			slog.Debug("Dropping date group with malformed date", "date", wire.Date)
			continue
		}

		records := decodeRecords(wire.Transactions, true)
		if len(records) == 0 {
			continue
		}

		groups = append(groups, model.DateGroup{
			Date:         date,
			Transactions: records,
		})
	}
	return groups
}

// parseAmount accepts a JSON number or a numeric string and rejects anything
// non-finite.
func parseAmount(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseWireDate accepts the date layouts the server is known to emit.
func parseWireDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
