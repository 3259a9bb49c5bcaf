package service

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
)

// LoanTerms are the inputs of the amortization calculator.
type LoanTerms struct {
	Principal     decimal.Decimal
	AnnualRate    decimal.Decimal // percent per year, interest-bearing only
	FinanceCharge decimal.Decimal // total charge, flat-rate only
	Frequency     domain.PaymentFrequency
	TermCount     int
	Structure     domain.LoanStructure
}

// ScheduleLine is one row of the display amortization table.
type ScheduleLine struct {
	Number       int             `json:"number"`
	DueDate      time.Time       `json:"dueDate"`
	TotalPayment decimal.Decimal `json:"totalPayment"`
	Interest     decimal.Decimal `json:"interest"`
	Capital      decimal.Decimal `json:"capital"`
	Balance      decimal.Decimal `json:"balance"`
}

// ComputeInstallment returns the per-period installment amount for the terms.
//
// FLAT_RATE: (principal + financeCharge) / n, rounded to 2 decimals; the
// rounding drift is absorbed by the last schedule row so the schedule sums
// exactly to principal + financeCharge.
//
// INTEREST_BEARING: the standard amortizing formula
// P * r / (1 - (1+r)^-n) with r the per-period rate derived from the annual
// rate and the payment frequency. r = 0 degenerates to an even split.
func ComputeInstallment(terms LoanTerms) decimal.Decimal {
	if terms.TermCount <= 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(terms.TermCount))

	if terms.Structure == domain.StructureFlatRate {
		return terms.Principal.Add(terms.FinanceCharge).Div(n).Round(2)
	}

	r := PeriodRate(terms.AnnualRate, terms.Frequency)
	if r.IsZero() {
		return terms.Principal.Div(n).Round(2)
	}

	// The power term needs float64; convert back to decimal immediately.
	rf := r.InexactFloat64()
	factor := math.Pow(1+rf, float64(terms.TermCount))
	payment := terms.Principal.InexactFloat64() * rf * factor / (factor - 1)
	return decimal.NewFromFloat(payment).Round(2)
}

// PeriodRate converts an annual percentage rate into the per-period decimal
// rate for the given frequency.
func PeriodRate(annualRate decimal.Decimal, frequency domain.PaymentFrequency) decimal.Decimal {
	periods := frequency.PeriodsPerYear()
	if periods == 0 {
		return decimal.Zero
	}
	return annualRate.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(periods))
}

// BuildSchedule produces the full amortization table for display. The last
// row absorbs rounding drift so the capital column sums exactly to the
// principal and, for flat-rate loans, the total column sums exactly to
// principal + financeCharge.
func BuildSchedule(terms LoanTerms, startDate time.Time) []ScheduleLine {
	if terms.TermCount <= 0 || terms.Principal.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	installment := ComputeInstallment(terms)
	lines := make([]ScheduleLine, 0, terms.TermCount)
	remaining := terms.Principal
	dueDate := startDate

	for i := 1; i <= terms.TermCount; i++ {
		dueDate = StepDueDate(dueDate, terms.Frequency)

		var interest, capital, total decimal.Decimal
		if terms.Structure == domain.StructureFlatRate {
			interest = terms.FinanceCharge.Div(decimal.NewFromInt(int64(terms.TermCount))).Round(2)
			capital = installment.Sub(interest)
			if i == terms.TermCount {
				capital = remaining
				interest = terms.FinanceCharge.Sub(interest.Mul(decimal.NewFromInt(int64(terms.TermCount - 1))))
			}
		} else {
			r := PeriodRate(terms.AnnualRate, terms.Frequency)
			interest = remaining.Mul(r).Round(2)
			capital = installment.Sub(interest)
			if i == terms.TermCount {
				capital = remaining
			}
		}
		total = capital.Add(interest)
		remaining = remaining.Sub(capital)

		lines = append(lines, ScheduleLine{
			Number:       i,
			DueDate:      dueDate,
			TotalPayment: total,
			Interest:     interest,
			Capital:      capital,
			Balance:      remaining,
		})
	}

	return lines
}

// StepDueDate advances a due date by one period. This is the single stepping
// function shared by schedule generation, late-fee day counting and maturity
// date computation.
func StepDueDate(date time.Time, frequency domain.PaymentFrequency) time.Time {
	switch frequency {
	case domain.FrequencyDaily:
		return date.AddDate(0, 0, 1)
	case domain.FrequencyWeekly:
		return date.AddDate(0, 0, 7)
	case domain.FrequencyBiweekly:
		return date.AddDate(0, 0, 14)
	case domain.FrequencyMonthly:
		return date.AddDate(0, 1, 0)
	}
	return date
}

// MaturityDate returns the due date of the final installment, used by the
// document layer for legal maturity.
func MaturityDate(startDate time.Time, frequency domain.PaymentFrequency, termCount int) time.Time {
	date := startDate
	for i := 0; i < termCount; i++ {
		date = StepDueDate(date, frequency)
	}
	return date
}
