package service

import (
	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
)

// AllocationInput is the loan state a payment is allocated against.
type AllocationInput struct {
	Amount           decimal.Decimal
	LateFeeDue       decimal.Decimal
	InterestDue      decimal.Decimal
	RemainingCapital decimal.Decimal
}

// Allocation is the outcome of splitting a payment across the waterfall.
// Excess is the portion left after capital is fully retired; it is surfaced
// to the caller and never silently carried forward.
type Allocation struct {
	CapitalApplied  decimal.Decimal
	InterestApplied decimal.Decimal
	LateFeeApplied  decimal.Decimal
	NewBalance      decimal.Decimal
	Excess          decimal.Decimal
}

// Allocate splits a payment amount across the waterfall: outstanding late
// fee first, then accrued interest for the current period, then capital.
// The applied components always sum exactly to Amount minus Excess.
func Allocate(in AllocationInput) (Allocation, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return Allocation{}, domain.ErrInvalidPaymentAmount
	}

	remaining := in.Amount

	lateFee := decimal.Min(remaining, decimal.Max(in.LateFeeDue, decimal.Zero))
	remaining = remaining.Sub(lateFee)

	interest := decimal.Min(remaining, decimal.Max(in.InterestDue, decimal.Zero))
	remaining = remaining.Sub(interest)

	capital := decimal.Min(remaining, decimal.Max(in.RemainingCapital, decimal.Zero))
	excess := remaining.Sub(capital)

	newBalance := decimal.Max(in.RemainingCapital.Sub(capital), decimal.Zero).Round(2)

	return Allocation{
		CapitalApplied:  capital,
		InterestApplied: interest,
		LateFeeApplied:  lateFee,
		NewBalance:      newBalance,
		Excess:          excess,
	}, nil
}

// AllocateComponents validates an explicit split supplied by the caller
// instead of the waterfall. The components must sum exactly to the total and
// the capital portion must not overshoot the remaining balance.
func AllocateComponents(total decimal.Decimal, components domain.PaymentComponents, remainingCapital decimal.Decimal) (Allocation, error) {
	if total.LessThanOrEqual(decimal.Zero) {
		return Allocation{}, domain.ErrInvalidPaymentAmount
	}
	sum := components.CapitalApplied.Add(components.InterestApplied).Add(components.LateFeeApplied)
	if !sum.Equal(total) {
		return Allocation{}, domain.ErrInvalidPaymentAmount
	}
	if components.CapitalApplied.GreaterThan(remainingCapital) {
		return Allocation{}, domain.ErrInvalidPaymentAmount
	}
	if components.CapitalApplied.IsNegative() || components.InterestApplied.IsNegative() || components.LateFeeApplied.IsNegative() {
		return Allocation{}, domain.ErrInvalidPaymentAmount
	}

	newBalance := decimal.Max(remainingCapital.Sub(components.CapitalApplied), decimal.Zero).Round(2)

	return Allocation{
		CapitalApplied:  components.CapitalApplied,
		InterestApplied: components.InterestApplied,
		LateFeeApplied:  components.LateFeeApplied,
		NewBalance:      newBalance,
	}, nil
}

// InterestDueFor computes the interest accrued for the current period:
// declining-balance interest for interest-bearing loans, the flat per-period
// share of the finance charge otherwise.
func InterestDueFor(loan *domain.Loan) decimal.Decimal {
	if loan.RemainingCapital.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	switch loan.Structure {
	case domain.StructureInterestBearing:
		if loan.AnnualInterestRate == nil {
			return decimal.Zero
		}
		r := PeriodRate(*loan.AnnualInterestRate, loan.PaymentFrequency)
		return loan.RemainingCapital.Mul(r).Round(2)
	case domain.StructureFlatRate:
		if loan.TotalFinanceCharge == nil || loan.TermCount < 1 {
			return decimal.Zero
		}
		return loan.TotalFinanceCharge.Div(decimal.NewFromInt(int64(loan.TermCount))).Round(2)
	}
	return decimal.Zero
}
