// Package ofx parses OFX/QFX statement files into manual ledger records so
// historical statements can be imported into the remote ledger.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/julio3266/finance-control-app-sub000/internal/model"
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Mixed-case SEVERITY values (should be INFO, WARN, or ERROR).
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style files sometimes drop the closing angle bracket on a line's
	// opening tag.
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX file into ledger records. Bank statement
// entries become account-owned records, credit-card statement entries become
// card-owned records; all are marked manual and imported.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader) ([]model.TransactionRecord, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var records []model.TransactionRecord
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		accountID := string(stmt.BankAcctFrom.AcctID)
		for _, ofxTx := range stmt.BankTranList.Transactions {
			records = append(records, p.convertTransaction(ofxTx, accountID, ""))
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		cardID := string(stmt.CCAcctFrom.AcctID)
		for _, ofxTx := range stmt.BankTranList.Transactions {
			records = append(records, p.convertTransaction(ofxTx, "", cardID))
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(records),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return records, nil
}

// convertTransaction converts one OFX transaction to a ledger record. OFX
// amounts are negative for debits.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID, cardID string) model.TransactionRecord {
	amount, _ := ofxTx.TrnAmt.Float64()

	kind := model.KindIncome
	if amount < 0 {
		kind = model.KindExpense
		amount = -amount
	}

	return model.TransactionRecord{
		ID:           string(ofxTx.FiTID),
		Description:  p.extractDescription(ofxTx),
		OccurredAt:   ofxTx.DtPosted.Time,
		Amount:       amount,
		Kind:         kind,
		Paid:         model.PaidStatusPaid, // statement entries are settled
		Source:       model.SourceManual,
		AccountID:    accountID,
		CreditCardID: cardID,
		Imported:     true,
	}
}

// extractDescription tries to get a clean description from OFX data.
func (p *Parser) extractDescription(tx ofxgo.Transaction) string {
	// PAYEE carries the cleanest name when present.
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := strings.TrimSpace(string(tx.Name))

	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " date fragments add nothing to a dated record.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return strings.TrimSpace(name)
}

// isGenericDescription reports whether a NAME field carries no merchant
// information of its own.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PAYMENT",
		"WITHDRAWAL",
		"DEPOSIT",
		"CHECK",
		"POS",
	}
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, g := range generic {
		if upper == g {
			return true
		}
	}
	return false
}
