package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAllocate_WaterfallOrder(t *testing.T) {
	alloc, err := Allocate(AllocationInput{
		Amount:           decimal.NewFromInt(500),
		LateFeeDue:       decimal.NewFromInt(50),
		InterestDue:      decimal.NewFromInt(100),
		RemainingCapital: decimal.NewFromInt(5000),
	})
	assert.NoError(t, err)
	assert.Equal(t, "50.00", alloc.LateFeeApplied.StringFixed(2))
	assert.Equal(t, "100.00", alloc.InterestApplied.StringFixed(2))
	assert.Equal(t, "350.00", alloc.CapitalApplied.StringFixed(2))
	assert.Equal(t, "4650.00", alloc.NewBalance.StringFixed(2))
	assert.True(t, alloc.Excess.IsZero())
}

func TestAllocate_AmountTooSmallForLateFee(t *testing.T) {
	alloc, err := Allocate(AllocationInput{
		Amount:           decimal.NewFromInt(30),
		LateFeeDue:       decimal.NewFromInt(50),
		InterestDue:      decimal.NewFromInt(100),
		RemainingCapital: decimal.NewFromInt(5000),
	})
	assert.NoError(t, err)
	assert.Equal(t, "30.00", alloc.LateFeeApplied.StringFixed(2))
	assert.True(t, alloc.InterestApplied.IsZero())
	assert.True(t, alloc.CapitalApplied.IsZero())
	assert.Equal(t, "5000.00", alloc.NewBalance.StringFixed(2))
}

func TestAllocate_ExcessSurfacedNotCarried(t *testing.T) {
	alloc, err := Allocate(AllocationInput{
		Amount:           decimal.NewFromInt(1000),
		LateFeeDue:       decimal.Zero,
		InterestDue:      decimal.NewFromInt(20),
		RemainingCapital: decimal.NewFromInt(500),
	})
	assert.NoError(t, err)
	assert.Equal(t, "500.00", alloc.CapitalApplied.StringFixed(2))
	assert.Equal(t, "480.00", alloc.Excess.StringFixed(2))
	assert.True(t, alloc.NewBalance.IsZero())
}

func TestAllocate_ComponentsSumToAmount(t *testing.T) {
	alloc, err := Allocate(AllocationInput{
		Amount:           decimal.NewFromFloat(123.45),
		LateFeeDue:       decimal.NewFromFloat(10.11),
		InterestDue:      decimal.NewFromFloat(22.22),
		RemainingCapital: decimal.NewFromInt(1000),
	})
	assert.NoError(t, err)

	sum := alloc.LateFeeApplied.Add(alloc.InterestApplied).Add(alloc.CapitalApplied)
	assert.True(t, sum.Equal(decimal.NewFromFloat(123.45)),
		"components sum to %s, want 123.45", sum)
}

func TestAllocate_ZeroAmountRejected(t *testing.T) {
	_, err := Allocate(AllocationInput{
		Amount:           decimal.Zero,
		RemainingCapital: decimal.NewFromInt(1000),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentAmount)
}

func TestAllocate_NegativeAmountRejected(t *testing.T) {
	_, err := Allocate(AllocationInput{
		Amount:           decimal.NewFromInt(-100),
		RemainingCapital: decimal.NewFromInt(1000),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentAmount)
}

func TestAllocate_NegativeDuesClampToZero(t *testing.T) {
	alloc, err := Allocate(AllocationInput{
		Amount:           decimal.NewFromInt(100),
		LateFeeDue:       decimal.NewFromInt(-10),
		InterestDue:      decimal.NewFromInt(-20),
		RemainingCapital: decimal.NewFromInt(1000),
	})
	assert.NoError(t, err)
	assert.True(t, alloc.LateFeeApplied.IsZero())
	assert.True(t, alloc.InterestApplied.IsZero())
	assert.Equal(t, "100.00", alloc.CapitalApplied.StringFixed(2))
}

func TestAllocateComponents_Valid(t *testing.T) {
	alloc, err := AllocateComponents(decimal.NewFromInt(1000), domain.PaymentComponents{
		CapitalApplied:  decimal.NewFromInt(800),
		InterestApplied: decimal.NewFromInt(150),
		LateFeeApplied:  decimal.NewFromInt(50),
	}, decimal.NewFromInt(5000))
	assert.NoError(t, err)
	assert.Equal(t, "4200.00", alloc.NewBalance.StringFixed(2))
}

func TestAllocateComponents_SumMismatchRejected(t *testing.T) {
	_, err := AllocateComponents(decimal.NewFromInt(1000), domain.PaymentComponents{
		CapitalApplied:  decimal.NewFromInt(400),
		InterestApplied: decimal.NewFromInt(150),
		LateFeeApplied:  decimal.NewFromInt(50),
	}, decimal.NewFromInt(5000))
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentAmount)
}

func TestAllocateComponents_CapitalOvershootRejected(t *testing.T) {
	_, err := AllocateComponents(decimal.NewFromInt(1000), domain.PaymentComponents{
		CapitalApplied: decimal.NewFromInt(1000),
	}, decimal.NewFromInt(500))
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentAmount)
}

func TestAllocateComponents_NegativeComponentRejected(t *testing.T) {
	_, err := AllocateComponents(decimal.NewFromInt(100), domain.PaymentComponents{
		CapitalApplied:  decimal.NewFromInt(200),
		InterestApplied: decimal.NewFromInt(-100),
	}, decimal.NewFromInt(5000))
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentAmount)
}

func TestInterestDueFor_InterestBearing(t *testing.T) {
	rate := decimal.NewFromInt(24)
	loan := &domain.Loan{
		Structure:          domain.StructureInterestBearing,
		AnnualInterestRate: &rate,
		PaymentFrequency:   domain.FrequencyMonthly,
		RemainingCapital:   decimal.NewFromInt(10000),
	}

	// 2% per month on the declining balance.
	assert.Equal(t, "200.00", InterestDueFor(loan).StringFixed(2))

	loan.RemainingCapital = decimal.NewFromInt(5000)
	assert.Equal(t, "100.00", InterestDueFor(loan).StringFixed(2))
}

func TestInterestDueFor_FlatRate(t *testing.T) {
	charge := decimal.NewFromInt(500)
	loan := &domain.Loan{
		Structure:          domain.StructureFlatRate,
		TotalFinanceCharge: &charge,
		PaymentFrequency:   domain.FrequencyWeekly,
		TermCount:          4,
		RemainingCapital:   decimal.NewFromInt(5000),
	}

	// Flat share is constant regardless of the balance.
	assert.Equal(t, "125.00", InterestDueFor(loan).StringFixed(2))

	loan.RemainingCapital = decimal.NewFromInt(100)
	assert.Equal(t, "125.00", InterestDueFor(loan).StringFixed(2))
}

func TestInterestDueFor_SettledLoan(t *testing.T) {
	rate := decimal.NewFromInt(24)
	loan := &domain.Loan{
		Structure:          domain.StructureInterestBearing,
		AnnualInterestRate: &rate,
		PaymentFrequency:   domain.FrequencyMonthly,
		RemainingCapital:   decimal.Zero,
	}
	assert.True(t, InterestDueFor(loan).IsZero())
}
