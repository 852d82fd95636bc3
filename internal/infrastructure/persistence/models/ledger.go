package models

import (
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for a ledger Transaction.
// Rows carry no tenant id; they are reached through their client.
type TransactionModel struct {
	AggregateModel
	ClientID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientType     client.Category `gorm:"type:varchar(3);not null"`
	ClientName     string          `gorm:"type:varchar(200);not null"`
	Date           time.Time       `gorm:"type:date;not null"`
	ReceivedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	RefundAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Notes          string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ClientID:          m.ClientID,
		ClientCategory:    m.ClientType,
		ClientName:        m.ClientName,
		Date:              m.Date.UTC(),
		ReceivedAmount:    m.ReceivedAmount,
		RefundAmount:      m.RefundAmount,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(t *ledger.Transaction) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.ClientID = t.ClientID
	m.ClientType = t.ClientCategory
	m.ClientName = t.ClientName
	m.Date = t.Date
	m.ReceivedAmount = t.ReceivedAmount
	m.RefundAmount = t.RefundAmount
	m.Notes = t.Notes
}

// NewTransactionModelFromDomain creates a persistence model from a domain Transaction
func NewTransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
