package domain

import "errors"

// Engine errors. These are propagated unmodified to the HTTP layer, which
// maps them to problem-details responses.
var (
	ErrLoanNotFound         = errors.New("loan not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentNotAllowed    = errors.New("loan status does not allow this operation")
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")

	ErrLoanClientRequired   = errors.New("client is required")
	ErrLoanPrincipalInvalid = errors.New("principal amount must be positive")
	ErrLoanTermInvalid      = errors.New("term count must be at least 1")
	ErrLoanStructureInvalid = errors.New("loan structure must be INTEREST_BEARING or FLAT_RATE")
	ErrLoanFrequencyInvalid = errors.New("payment frequency must be DAILY, WEEKLY, BIWEEKLY or MONTHLY")
	ErrLoanRateRequired     = errors.New("annual interest rate is required for interest-bearing loans")
	ErrLoanChargeRequired   = errors.New("total finance charge is required for flat-rate loans")
	ErrLateFeePolicyInvalid = errors.New("late fee policy must be PERCENTAGE_DAILY or FIXED")
	ErrPaymentTypeInvalid   = errors.New("payment type must be REGULAR, CAPITAL_PAYMENT or FULL_SETTLEMENT")
)
