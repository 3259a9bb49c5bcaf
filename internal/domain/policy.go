package domain

import "github.com/shopspring/decimal"

// LateFeeKind selects how a late fee accrues on an overdue installment.
type LateFeeKind string

const (
	// LateFeePercentageDaily accrues value% of the overdue amount per day
	// beyond the grace period.
	LateFeePercentageDaily LateFeeKind = "PERCENTAGE_DAILY"
	// LateFeeFixed is a flat charge per overdue situation, independent of
	// how late the payment is.
	LateFeeFixed LateFeeKind = "FIXED"
)

// IsValid reports whether the kind is a known value.
func (k LateFeeKind) IsValid() bool {
	return k == LateFeePercentageDaily || k == LateFeeFixed
}

// LateFeePolicy is the business-wide penalty configuration. It is always
// passed into the engine explicitly, never read from ambient state.
type LateFeePolicy struct {
	Kind            LateFeeKind
	Value           decimal.Decimal
	GracePeriodDays int
}

// Validate checks the policy is well formed.
func (p LateFeePolicy) Validate() error {
	if !p.Kind.IsValid() {
		return ErrLateFeePolicyInvalid
	}
	if p.Value.IsNegative() || p.GracePeriodDays < 0 {
		return ErrLateFeePolicyInvalid
	}
	return nil
}
