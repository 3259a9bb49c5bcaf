package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStructure identifies how the finance cost of a loan is computed.
type LoanStructure string

const (
	// StructureInterestBearing accrues interest on the declining balance.
	StructureInterestBearing LoanStructure = "INTEREST_BEARING"
	// StructureFlatRate spreads a fixed total finance charge evenly across installments.
	StructureFlatRate LoanStructure = "FLAT_RATE"
)

// IsValid reports whether the structure is a known value.
func (s LoanStructure) IsValid() bool {
	return s == StructureInterestBearing || s == StructureFlatRate
}

// PaymentFrequency is the cadence of the installment schedule.
type PaymentFrequency string

const (
	FrequencyDaily    PaymentFrequency = "DAILY"
	FrequencyWeekly   PaymentFrequency = "WEEKLY"
	FrequencyBiweekly PaymentFrequency = "BIWEEKLY"
	FrequencyMonthly  PaymentFrequency = "MONTHLY"
)

// IsValid reports whether the frequency is a known value.
func (f PaymentFrequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// PeriodsPerYear returns the number of installment periods per year used to
// convert an annual rate into a per-period rate. Daily uses the banker's
// 360-day year.
func (f PaymentFrequency) PeriodsPerYear() int64 {
	switch f {
	case FrequencyDaily:
		return 360
	case FrequencyWeekly:
		return 52
	case FrequencyBiweekly:
		return 26
	case FrequencyMonthly:
		return 12
	}
	return 0
}

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	StatusActive   LoanStatus = "ACTIVE"
	StatusOverdue  LoanStatus = "OVERDUE"
	StatusPaid     LoanStatus = "PAID"
	StatusCanceled LoanStatus = "CANCELED"
)

// CanApplyPayment reports whether the loan accepts payments (or reversals)
// in this status. PAID and CANCELED are terminal for the ledger.
func (s LoanStatus) CanApplyPayment() bool {
	return s == StatusActive || s == StatusOverdue
}

// CanCancel reports whether the loan may be canceled from this status.
// Cancel is a manual, irreversible override reachable only from
// ACTIVE/OVERDUE; it freezes the loan without zeroing the balance.
func (s LoanStatus) CanCancel() bool {
	return s == StatusActive || s == StatusOverdue
}

// IsTerminal reports whether the status admits no further transitions.
func (s LoanStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusCanceled
}

// Loan is a lending agreement. RemainingCapital equals PrincipalAmount minus
// the sum of all non-reversed capital applied, is never negative, and only
// grows back through an explicit payment reversal.
type Loan struct {
	ID                 int32            `json:"id"`
	ClientID           int32            `json:"clientId"`
	Structure          LoanStructure    `json:"structure"`
	PrincipalAmount    decimal.Decimal  `json:"principalAmount"`
	AnnualInterestRate *decimal.Decimal `json:"annualInterestRate,omitempty"`
	TotalFinanceCharge *decimal.Decimal `json:"totalFinanceCharge,omitempty"`
	PaymentFrequency   PaymentFrequency `json:"paymentFrequency"`
	TermCount          int32            `json:"termCount"`
	InstallmentAmount  decimal.Decimal  `json:"installmentAmount"`
	RemainingCapital   decimal.Decimal  `json:"remainingCapital"`
	Status             LoanStatus       `json:"status"`
	NextDueDate        *time.Time       `json:"nextDueDate,omitempty"`
	Guarantees         *string          `json:"guarantees,omitempty"`
	CreatedBy          int32            `json:"createdBy"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// Validate checks the origination invariants of a loan.
func (l *Loan) Validate() error {
	if l.ClientID <= 0 {
		return ErrLoanClientRequired
	}
	if l.PrincipalAmount.LessThanOrEqual(decimal.Zero) {
		return ErrLoanPrincipalInvalid
	}
	if l.TermCount < 1 {
		return ErrLoanTermInvalid
	}
	if !l.Structure.IsValid() {
		return ErrLoanStructureInvalid
	}
	if !l.PaymentFrequency.IsValid() {
		return ErrLoanFrequencyInvalid
	}
	if l.Structure == StructureInterestBearing && l.AnnualInterestRate == nil {
		return ErrLoanRateRequired
	}
	if l.Structure == StructureFlatRate && l.TotalFinanceCharge == nil {
		return ErrLoanChargeRequired
	}
	return nil
}

// LoanSummary is derived by aggregating the payment ledger; it is never a
// stored field.
type LoanSummary struct {
	LoanID           int32           `json:"loanId"`
	Status           LoanStatus      `json:"status"`
	PrincipalAmount  decimal.Decimal `json:"principalAmount"`
	RemainingCapital decimal.Decimal `json:"remainingCapital"`
	CapitalPaid      decimal.Decimal `json:"capitalPaid"`
	InterestPaid     decimal.Decimal `json:"interestPaid"`
	LateFeePaid      decimal.Decimal `json:"lateFeePaid"`
	Progress         float64         `json:"progress"`
}

// LoanRepository is the persistence port for loans. Methods with a Tx suffix
// run inside a store transaction opened by the caller.
type LoanRepository interface {
	CreateTx(tx interface{}, loan *Loan) (*Loan, error)
	GetByID(id int32) (*Loan, error)
	// GetByIDForUpdateTx reads the loan under a row lock so concurrent
	// payments against the same loan serialize on the balance mutation.
	GetByIDForUpdateTx(tx interface{}, id int32) (*Loan, error)
	UpdateBalanceStatusTx(tx interface{}, id int32, remainingCapital decimal.Decimal, status LoanStatus, nextDueDate *time.Time) error
	UpdateStatusTx(tx interface{}, id int32, status LoanStatus) error
	// MarkOverdueBefore flags ACTIVE loans whose next due date has passed.
	// The status filter makes repeat calls no-ops.
	MarkOverdueBefore(today time.Time) (int64, error)
}
