package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoanStatusTransitions(t *testing.T) {
	tests := []struct {
		status     LoanStatus
		canPay     bool
		canCancel  bool
		isTerminal bool
	}{
		{StatusActive, true, true, false},
		{StatusOverdue, true, true, false},
		{StatusPaid, false, false, true},
		{StatusCanceled, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.CanApplyPayment(); got != tt.canPay {
				t.Errorf("CanApplyPayment() = %v, want %v", got, tt.canPay)
			}
			if got := tt.status.CanCancel(); got != tt.canCancel {
				t.Errorf("CanCancel() = %v, want %v", got, tt.canCancel)
			}
			if got := tt.status.IsTerminal(); got != tt.isTerminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.isTerminal)
			}
		})
	}
}

func TestPaymentFrequencyPeriodsPerYear(t *testing.T) {
	tests := []struct {
		frequency PaymentFrequency
		periods   int64
	}{
		{FrequencyDaily, 360},
		{FrequencyWeekly, 52},
		{FrequencyBiweekly, 26},
		{FrequencyMonthly, 12},
		{PaymentFrequency("QUARTERLY"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			if got := tt.frequency.PeriodsPerYear(); got != tt.periods {
				t.Errorf("PeriodsPerYear() = %d, want %d", got, tt.periods)
			}
		})
	}
}

func validLoan() *Loan {
	rate := decimal.NewFromInt(24)
	return &Loan{
		ClientID:           1,
		Structure:          StructureInterestBearing,
		PrincipalAmount:    decimal.NewFromInt(10000),
		AnnualInterestRate: &rate,
		PaymentFrequency:   FrequencyMonthly,
		TermCount:          12,
	}
}

func TestLoanValidate(t *testing.T) {
	if err := validLoan().Validate(); err != nil {
		t.Fatalf("Expected valid loan, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Loan)
		wantErr error
	}{
		{"missing client", func(l *Loan) { l.ClientID = 0 }, ErrLoanClientRequired},
		{"zero principal", func(l *Loan) { l.PrincipalAmount = decimal.Zero }, ErrLoanPrincipalInvalid},
		{"negative principal", func(l *Loan) { l.PrincipalAmount = decimal.NewFromInt(-1) }, ErrLoanPrincipalInvalid},
		{"zero term", func(l *Loan) { l.TermCount = 0 }, ErrLoanTermInvalid},
		{"unknown structure", func(l *Loan) { l.Structure = "BALLOON" }, ErrLoanStructureInvalid},
		{"unknown frequency", func(l *Loan) { l.PaymentFrequency = "QUARTERLY" }, ErrLoanFrequencyInvalid},
		{"interest-bearing without rate", func(l *Loan) { l.AnnualInterestRate = nil }, ErrLoanRateRequired},
		{"flat-rate without charge", func(l *Loan) {
			l.Structure = StructureFlatRate
			l.TotalFinanceCharge = nil
		}, ErrLoanChargeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := validLoan()
			tt.mutate(loan)
			if err := loan.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
