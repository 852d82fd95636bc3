package models

import (
	"encoding/json"
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var modelLogger = zap.L().Named("persistence.models")

// B2CClientModel is the persistence model for the B2CClient aggregate
type B2CClientModel struct {
	TenantAggregateModel
	Name              string            `gorm:"type:varchar(200);not null"`
	Email             string            `gorm:"type:varchar(200);not null"`
	Phone             string            `gorm:"type:varchar(50)"`
	Address           string            `gorm:"type:text"`
	PassportNumber    string            `gorm:"type:varchar(50);not null;index"`
	Destination       string            `gorm:"type:varchar(200);not null"`
	VisaType          string            `gorm:"type:varchar(100)"`
	Notes             string            `gorm:"type:text"`
	ClientType        client.ClientType `gorm:"type:varchar(30);not null"`
	AssociatedB2BID   *uuid.UUID        `gorm:"column:associated_b2b_id;type:uuid;index"`
	Status            client.Status     `gorm:"type:varchar(30);not null;index"`
	StatusHistoryJSON string            `gorm:"column:status_history;type:jsonb;not null;default:'[]'"`
	ContractAmount    decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	InitialPayment    decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	DueAmount         decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	IsArchived        bool              `gorm:"not null;default:false;index"`
	ArchivedAt        *time.Time
	ArchivedReason    string `gorm:"type:varchar(500)"`
	HadTransactions   bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (B2CClientModel) TableName() string {
	return "b2c_clients"
}

// ToDomain converts the persistence model to a domain B2CClient
func (m *B2CClientModel) ToDomain() *client.B2CClient {
	c := &client.B2CClient{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		B2CProfile: client.B2CProfile{
			Name:           m.Name,
			Email:          m.Email,
			Phone:          m.Phone,
			Address:        m.Address,
			PassportNumber: m.PassportNumber,
			Destination:    m.Destination,
			VisaType:       m.VisaType,
			Notes:          m.Notes,
		},
		Balance: client.Balance{
			ContractAmount: m.ContractAmount,
			InitialPayment: m.InitialPayment,
			DueAmount:      m.DueAmount,
		},
		ClientType:      m.ClientType,
		AssociatedB2BID: m.AssociatedB2BID,
		Status:          m.Status,
		StatusHistory:   make([]client.StatusEntry, 0),
		IsArchived:      m.IsArchived,
		ArchivedAt:      m.ArchivedAt,
		ArchivedReason:  m.ArchivedReason,
		HadTransactions: m.HadTransactions,
	}

	if m.StatusHistoryJSON != "" && m.StatusHistoryJSON != "[]" {
		var history []client.StatusEntry
		if err := json.Unmarshal([]byte(m.StatusHistoryJSON), &history); err != nil {
			modelLogger.Warn("failed to parse status_history JSON",
				zap.String("client_id", m.ID.String()),
				zap.Error(err))
		} else {
			c.StatusHistory = history
		}
	}
	return c
}

// FromDomain populates the persistence model from a domain B2CClient
func (m *B2CClientModel) FromDomain(c *client.B2CClient) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.PassportNumber = c.PassportNumber
	m.Destination = c.Destination
	m.VisaType = c.VisaType
	m.Notes = c.Notes
	m.ClientType = c.ClientType
	m.AssociatedB2BID = c.AssociatedB2BID
	m.Status = c.Status
	m.ContractAmount = c.ContractAmount
	m.InitialPayment = c.InitialPayment
	m.DueAmount = c.DueAmount
	m.IsArchived = c.IsArchived
	m.ArchivedAt = c.ArchivedAt
	m.ArchivedReason = c.ArchivedReason
	m.HadTransactions = c.HadTransactions

	m.StatusHistoryJSON = "[]"
	if len(c.StatusHistory) > 0 {
		if b, err := json.Marshal(c.StatusHistory); err == nil {
			m.StatusHistoryJSON = string(b)
		}
	}
}

// NewB2CClientModelFromDomain creates a persistence model from a domain B2CClient
func NewB2CClientModelFromDomain(c *client.B2CClient) *B2CClientModel {
	m := &B2CClientModel{}
	m.FromDomain(c)
	return m
}

// B2BClientModel is the persistence model for the B2BClient aggregate.
// NameKey holds the folded business name that backs per-tenant name uniqueness.
type B2BClientModel struct {
	TenantAggregateModel
	Name           string          `gorm:"type:varchar(200);not null"`
	NameKey        string          `gorm:"type:varchar(200);not null;index"`
	Email          string          `gorm:"type:varchar(200);not null"`
	Phone          string          `gorm:"type:varchar(50)"`
	Address        string          `gorm:"type:text"`
	BusinessType   string          `gorm:"type:varchar(100);not null"`
	Notes          string          `gorm:"type:text"`
	ContractAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	InitialPayment decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DueAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (B2BClientModel) TableName() string {
	return "b2b_clients"
}

// ToDomain converts the persistence model to a domain B2BClient
func (m *B2BClientModel) ToDomain() *client.B2BClient {
	return &client.B2BClient{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		B2BProfile: client.B2BProfile{
			Name:         m.Name,
			Email:        m.Email,
			Phone:        m.Phone,
			Address:      m.Address,
			BusinessType: m.BusinessType,
			Notes:        m.Notes,
		},
		Balance: client.Balance{
			ContractAmount: m.ContractAmount,
			InitialPayment: m.InitialPayment,
			DueAmount:      m.DueAmount,
		},
	}
}

// FromDomain populates the persistence model from a domain B2BClient
func (m *B2BClientModel) FromDomain(c *client.B2BClient) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Name = c.Name
	m.NameKey = c.NameKey()
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.BusinessType = c.BusinessType
	m.Notes = c.Notes
	m.ContractAmount = c.ContractAmount
	m.InitialPayment = c.InitialPayment
	m.DueAmount = c.DueAmount
}

// NewB2BClientModelFromDomain creates a persistence model from a domain B2BClient
func NewB2BClientModelFromDomain(c *client.B2BClient) *B2BClientModel {
	m := &B2BClientModel{}
	m.FromDomain(c)
	return m
}
