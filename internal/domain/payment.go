package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType tags how a payment was intended to be applied.
type PaymentType string

const (
	PaymentTypeRegular        PaymentType = "REGULAR"
	PaymentTypeCapitalPayment PaymentType = "CAPITAL_PAYMENT"
	PaymentTypeFullSettlement PaymentType = "FULL_SETTLEMENT"
)

// IsValid reports whether the payment type is a known value.
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeRegular, PaymentTypeCapitalPayment, PaymentTypeFullSettlement:
		return true
	}
	return false
}

// Payment is an immutable ledger entry against a loan. Rows are only ever
// appended: a reversal is a new row with every component negated, linked to
// the original through ReversesPaymentID.
type Payment struct {
	ID                int32           `json:"id"`
	LoanID            int32           `json:"loanId"`
	Reference         uuid.UUID       `json:"reference"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	CapitalApplied    decimal.Decimal `json:"capitalApplied"`
	InterestApplied   decimal.Decimal `json:"interestApplied"`
	LateFeeApplied    decimal.Decimal `json:"lateFeeApplied"`
	Type              PaymentType     `json:"type"`
	PaymentDate       time.Time       `json:"paymentDate"`
	ReversesPaymentID *int32          `json:"reversesPaymentId,omitempty"`
	ReversalReason    *string         `json:"reversalReason,omitempty"`
	CreatedBy         int32           `json:"createdBy"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// IsReversal reports whether this row undoes a prior payment.
func (p *Payment) IsReversal() bool {
	return p.TotalAmount.IsNegative()
}

// ComponentsSum returns capital + interest + late fee, which must equal
// TotalAmount exactly on every ledger row.
func (p *Payment) ComponentsSum() decimal.Decimal {
	return p.CapitalApplied.Add(p.InterestApplied).Add(p.LateFeeApplied)
}

// Validate checks the ledger invariants of a payment row.
func (p *Payment) Validate() error {
	if p.TotalAmount.IsZero() {
		return ErrInvalidPaymentAmount
	}
	if !p.ComponentsSum().Equal(p.TotalAmount) {
		return ErrInvalidPaymentAmount
	}
	if !p.Type.IsValid() {
		return ErrPaymentTypeInvalid
	}
	return nil
}

// PaymentComponents is an explicit late-fee/interest/capital split supplied
// by the caller instead of the allocation waterfall.
type PaymentComponents struct {
	CapitalApplied  decimal.Decimal `json:"capitalApplied"`
	InterestApplied decimal.Decimal `json:"interestApplied"`
	LateFeeApplied  decimal.Decimal `json:"lateFeeApplied"`
}

// PaymentRepository is the persistence port for the append-only ledger.
// There are intentionally no update or delete operations.
type PaymentRepository interface {
	CreateTx(tx interface{}, payment *Payment) (*Payment, error)
	GetByID(id int32) (*Payment, error)
	GetByIDTx(tx interface{}, id int32) (*Payment, error)
	GetByLoanID(loanID int32) ([]*Payment, error)
	// HasReversalTx reports whether a reversal row already references the
	// given payment.
	HasReversalTx(tx interface{}, paymentID int32) (bool, error)
	// SumApplied returns the net capital, interest and late fee applied to a
	// loan across all rows; reversals cancel out through their signs.
	SumApplied(loanID int32) (capital, interest, lateFee decimal.Decimal, err error)
	SumAppliedTx(tx interface{}, loanID int32) (capital, interest, lateFee decimal.Decimal, err error)
}
