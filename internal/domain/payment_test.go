package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaymentValidate(t *testing.T) {
	payment := &Payment{
		LoanID:          1,
		TotalAmount:     decimal.NewFromInt(1000),
		CapitalApplied:  decimal.NewFromInt(800),
		InterestApplied: decimal.NewFromInt(150),
		LateFeeApplied:  decimal.NewFromInt(50),
		Type:            PaymentTypeRegular,
	}
	if err := payment.Validate(); err != nil {
		t.Fatalf("Expected valid payment, got %v", err)
	}
}

func TestPaymentValidate_ZeroAmount(t *testing.T) {
	payment := &Payment{
		LoanID:      1,
		TotalAmount: decimal.Zero,
		Type:        PaymentTypeRegular,
	}
	if err := payment.Validate(); err != ErrInvalidPaymentAmount {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidPaymentAmount)
	}
}

func TestPaymentValidate_ComponentsMustSumToTotal(t *testing.T) {
	payment := &Payment{
		LoanID:          1,
		TotalAmount:     decimal.NewFromInt(1000),
		CapitalApplied:  decimal.NewFromInt(400),
		InterestApplied: decimal.NewFromInt(150),
		LateFeeApplied:  decimal.NewFromInt(50),
		Type:            PaymentTypeRegular,
	}
	if err := payment.Validate(); err != ErrInvalidPaymentAmount {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidPaymentAmount)
	}
}

func TestPaymentValidate_UnknownType(t *testing.T) {
	payment := &Payment{
		LoanID:         1,
		TotalAmount:    decimal.NewFromInt(100),
		CapitalApplied: decimal.NewFromInt(100),
		Type:           PaymentType("WIRE"),
	}
	if err := payment.Validate(); err != ErrPaymentTypeInvalid {
		t.Errorf("Validate() = %v, want %v", err, ErrPaymentTypeInvalid)
	}
}

func TestPaymentIsReversal(t *testing.T) {
	original := &Payment{TotalAmount: decimal.NewFromInt(500)}
	if original.IsReversal() {
		t.Error("Positive payment should not be a reversal")
	}

	reversal := &Payment{TotalAmount: decimal.NewFromInt(-500)}
	if !reversal.IsReversal() {
		t.Error("Negative payment should be a reversal")
	}
}

func TestPaymentValidate_NegatedReversalRowIsValid(t *testing.T) {
	// A reversal row negates every component; the sum invariant still holds.
	payment := &Payment{
		LoanID:          1,
		TotalAmount:     decimal.NewFromInt(-1000),
		CapitalApplied:  decimal.NewFromInt(-800),
		InterestApplied: decimal.NewFromInt(-150),
		LateFeeApplied:  decimal.NewFromInt(-50),
		Type:            PaymentTypeRegular,
	}
	if err := payment.Validate(); err != nil {
		t.Errorf("Expected valid reversal row, got %v", err)
	}
}
