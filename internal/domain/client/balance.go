package client

import (
	"github.com/agency/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Balance tracks what a client owes.
// DueAmount == ContractAmount - InitialPayment - sum(net of attached transactions).
type Balance struct {
	ContractAmount decimal.Decimal
	InitialPayment decimal.Decimal
	DueAmount      decimal.Decimal
}

// NewBalance opens a balance for a new client
func NewBalance(contract, initialPayment decimal.Decimal) (Balance, error) {
	if err := validateAmount("contract_amount", contract); err != nil {
		return Balance{}, err
	}
	if err := validateAmount("initial_payment", initialPayment); err != nil {
		return Balance{}, err
	}
	return Balance{
		ContractAmount: contract,
		InitialPayment: initialPayment,
		DueAmount:      contract.Sub(initialPayment),
	}, nil
}

// PaidAmount returns everything received so far, net of refunds
func (b Balance) PaidAmount() decimal.Decimal {
	return b.ContractAmount.Sub(b.DueAmount)
}

// Revalue re-derives the due amount after a contract edit.
// A nil contract keeps the current value; payment is an additional upfront payment.
func (b *Balance) Revalue(contract, payment *decimal.Decimal) error {
	if contract == nil && payment == nil {
		return nil
	}
	newContract := b.ContractAmount
	if contract != nil {
		if err := validateAmount("contract_amount", *contract); err != nil {
			return err
		}
		newContract = *contract
	}
	extra := decimal.Zero
	if payment != nil {
		if err := validateAmount("initial_payment", *payment); err != nil {
			return err
		}
		extra = *payment
	}

	paid := b.PaidAmount()
	b.ContractAmount = newContract
	b.InitialPayment = b.InitialPayment.Add(extra)
	b.DueAmount = newContract.Sub(paid.Add(extra))
	return nil
}

// applyNet reduces the due amount by a net payment (negative values increase it)
func (b *Balance) applyNet(net decimal.Decimal) {
	b.DueAmount = b.DueAmount.Sub(net)
}

// ExpectedDue returns the due amount implied by the given ledger net total
func (b Balance) ExpectedDue(ledgerNet decimal.Decimal) decimal.Decimal {
	return b.ContractAmount.Sub(b.InitialPayment).Sub(ledgerNet)
}

func validateAmount(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", field+" cannot be negative")
	}
	return nil
}
