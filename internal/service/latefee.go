package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
)

// ComputeLateFee returns the accrued penalty for an overdue amount under the
// given policy. Days within the grace period accrue nothing; a negative
// daysLate (early or on-time payment) clamps to zero and never produces a
// negative fee.
func ComputeLateFee(overdueAmount decimal.Decimal, daysLate int, policy domain.LateFeePolicy) decimal.Decimal {
	if daysLate < 0 {
		daysLate = 0
	}
	if daysLate <= policy.GracePeriodDays {
		return decimal.Zero
	}
	if overdueAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	switch policy.Kind {
	case domain.LateFeePercentageDaily:
		effectiveDays := daysLate - policy.GracePeriodDays
		return overdueAmount.
			Mul(policy.Value).
			Div(decimal.NewFromInt(100)).
			Mul(decimal.NewFromInt(int64(effectiveDays))).
			Round(2)
	case domain.LateFeeFixed:
		return policy.Value.Round(2)
	}
	return decimal.Zero
}

// DaysLate counts whole days between a due date and the as-of date, clamped
// at zero when the due date has not passed.
func DaysLate(dueDate, asOf time.Time) int {
	if !asOf.After(dueDate) {
		return 0
	}
	return int(asOf.Sub(dueDate).Hours() / 24)
}
