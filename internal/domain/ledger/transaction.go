package ledger

import (
	"strings"
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one payment received from (or refunded to) a client.
// It carries no tenant id; ownership is inherited from the client it is attached to.
type Transaction struct {
	shared.BaseAggregateRoot
	ClientID       uuid.UUID
	ClientCategory client.Category
	ClientName     string
	Date           time.Time
	ReceivedAmount decimal.Decimal
	RefundAmount   decimal.Decimal
	Notes          string
}

// NewTransaction records a payment against an account
func NewTransaction(
	account client.LedgerAccount,
	date time.Time,
	received, refund decimal.Decimal,
	notes string,
) (*Transaction, error) {
	if account == nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client is required")
	}
	if err := validateAmounts(received, refund); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Transaction date is required")
	}

	tx := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          account.GetID(),
		ClientCategory:    account.Category(),
		ClientName:        account.DisplayName(),
		Date:              truncateToDay(date),
		ReceivedAmount:    received,
		RefundAmount:      refund,
		Notes:             strings.TrimSpace(notes),
	}
	return tx, nil
}

// Net returns received minus refund
func (t *Transaction) Net() decimal.Decimal {
	return t.ReceivedAmount.Sub(t.RefundAmount)
}

// Amendment is a partial edit; nil fields keep their prior value
type Amendment struct {
	Date           *time.Time
	ReceivedAmount *decimal.Decimal
	RefundAmount   *decimal.Decimal
	Notes          *string
}

// Amend applies the patch and returns the change in net amount (newNet - oldNet)
func (t *Transaction) Amend(a Amendment) (decimal.Decimal, error) {
	received := t.ReceivedAmount
	if a.ReceivedAmount != nil {
		received = *a.ReceivedAmount
	}
	refund := t.RefundAmount
	if a.RefundAmount != nil {
		refund = *a.RefundAmount
	}
	if err := validateAmounts(received, refund); err != nil {
		return decimal.Zero, err
	}
	if a.Date != nil && a.Date.IsZero() {
		return decimal.Zero, shared.NewDomainError("INVALID_DATE", "Transaction date is required")
	}

	oldNet := t.Net()
	t.ReceivedAmount = received
	t.RefundAmount = refund
	if a.Date != nil {
		t.Date = truncateToDay(*a.Date)
	}
	if a.Notes != nil {
		t.Notes = strings.TrimSpace(*a.Notes)
	}
	t.Touch()
	return t.Net().Sub(oldNet), nil
}

// ParseDate parses a YYYY-MM-DD transaction date
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(client.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_DATE", "Date must use the YYYY-MM-DD format")
	}
	return d, nil
}

func validateAmounts(received, refund decimal.Decimal) error {
	if received.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "received_amount cannot be negative")
	}
	if refund.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "refund_amount cannot be negative")
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
