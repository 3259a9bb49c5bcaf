package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
)

// PaymentService is the ledger transaction coordinator. Every mutation runs
// as one atomic unit: the loan row is re-read under a row lock, the payment
// is validated and allocated, the immutable ledger row is appended, the
// schedule coverage is recomputed and the loan balance/status updated. Any
// failure inside the unit rolls the whole thing back.
type PaymentService struct {
	tx           domain.TxManager
	loanRepo     domain.LoanRepository
	paymentRepo  domain.PaymentRepository
	scheduleRepo domain.ScheduleRepository
	policy       domain.LateFeePolicy
	now          func() time.Time
}

// NewPaymentService creates a new PaymentService. The late fee policy is
// injected explicitly so the engine never reads ambient configuration.
func NewPaymentService(tx domain.TxManager, loanRepo domain.LoanRepository, paymentRepo domain.PaymentRepository, scheduleRepo domain.ScheduleRepository, policy domain.LateFeePolicy) *PaymentService {
	return &PaymentService{
		tx:           tx,
		loanRepo:     loanRepo,
		paymentRepo:  paymentRepo,
		scheduleRepo: scheduleRepo,
		policy:       policy,
		now:          time.Now,
	}
}

// ApplyPaymentInput contains input for applying a payment to a loan.
type ApplyPaymentInput struct {
	LoanID      int32
	TotalAmount decimal.Decimal
	Type        domain.PaymentType
	PaymentDate *time.Time // defaults to now
	Components  *domain.PaymentComponents
	CreatedBy   int32
}

// ApplyPaymentResult is the outcome of a successful payment application.
// StatusChanged reports whether the loan's status differs from before the
// mutation: settlement to PAID, an overdue loan brought current, or
// payment-time overdue detection.
type ApplyPaymentResult struct {
	Payment       *domain.Payment
	NewBalance    decimal.Decimal
	LoanStatus    domain.LoanStatus
	StatusChanged bool
}

// ApplyPayment allocates and records a payment against a loan.
func (s *PaymentService) ApplyPayment(ctx context.Context, input ApplyPaymentInput) (*ApplyPaymentResult, error) {
	if input.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidPaymentAmount
	}
	if !input.Type.IsValid() {
		return nil, domain.ErrPaymentTypeInvalid
	}

	paymentDate := s.now()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	var result *ApplyPaymentResult
	err := s.tx.WithinTx(ctx, func(tx interface{}) error {
		loan, err := s.loanRepo.GetByIDForUpdateTx(tx, input.LoanID)
		if err != nil {
			return err
		}
		if !loan.Status.CanApplyPayment() {
			return domain.ErrPaymentNotAllowed
		}

		entries, err := s.scheduleRepo.GetByLoanIDTx(tx, loan.ID)
		if err != nil {
			return err
		}

		alloc, err := s.allocateFor(loan, entries, input, paymentDate)
		if err != nil {
			return err
		}

		// Excess beyond full settlement is rejected so the stored ledger
		// components always sum exactly to the tendered amount.
		if alloc.Excess.IsPositive() {
			return domain.ErrInvalidPaymentAmount
		}
		if input.Type == domain.PaymentTypeFullSettlement && !alloc.NewBalance.IsZero() {
			return domain.ErrInvalidPaymentAmount
		}

		payment := &domain.Payment{
			LoanID:          loan.ID,
			Reference:       uuid.New(),
			TotalAmount:     input.TotalAmount,
			CapitalApplied:  alloc.CapitalApplied,
			InterestApplied: alloc.InterestApplied,
			LateFeeApplied:  alloc.LateFeeApplied,
			Type:            input.Type,
			PaymentDate:     paymentDate,
			CreatedBy:       input.CreatedBy,
		}
		if err := payment.Validate(); err != nil {
			return err
		}

		created, err := s.paymentRepo.CreateTx(tx, payment)
		if err != nil {
			return err
		}

		newStatus, nextDue, err := s.refreshSchedule(tx, loan, entries, alloc.NewBalance, paymentDate)
		if err != nil {
			return err
		}

		if err := s.loanRepo.UpdateBalanceStatusTx(tx, loan.ID, alloc.NewBalance, newStatus, nextDue); err != nil {
			return err
		}

		result = &ApplyPaymentResult{
			Payment:       created,
			NewBalance:    alloc.NewBalance,
			LoanStatus:    newStatus,
			StatusChanged: newStatus != loan.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// allocateFor computes the component split for a payment according to its
// type, or validates explicitly supplied components.
func (s *PaymentService) allocateFor(loan *domain.Loan, entries []*domain.ScheduleEntry, input ApplyPaymentInput, asOf time.Time) (Allocation, error) {
	if input.Components != nil {
		return AllocateComponents(input.TotalAmount, *input.Components, loan.RemainingCapital)
	}

	if input.Type == domain.PaymentTypeCapitalPayment {
		return AllocateComponents(input.TotalAmount, domain.PaymentComponents{
			CapitalApplied: input.TotalAmount,
		}, loan.RemainingCapital)
	}

	overdueAmount, daysLate := overdueState(entries, asOf)
	return Allocate(AllocationInput{
		Amount:           input.TotalAmount,
		LateFeeDue:       ComputeLateFee(overdueAmount, daysLate, s.policy),
		InterestDue:      InterestDueFor(loan),
		RemainingCapital: loan.RemainingCapital,
	})
}

// ReversePaymentInput identifies a payment to undo. Reason, when present, is
// stored on the reversal row for audit.
type ReversePaymentInput struct {
	PaymentID  int32
	ReversedBy int32
	Reason     *string
}

// ReversePayment appends a fully negated ledger row for a prior payment and
// restores its capital to the loan. Reversing a reversal, or a payment that
// already has one, is rejected; so is any activity on a canceled loan.
func (s *PaymentService) ReversePayment(ctx context.Context, input ReversePaymentInput) (*ApplyPaymentResult, error) {
	var result *ApplyPaymentResult
	err := s.tx.WithinTx(ctx, func(tx interface{}) error {
		original, err := s.paymentRepo.GetByIDTx(tx, input.PaymentID)
		if err != nil {
			return err
		}
		if original.IsReversal() {
			return domain.ErrPaymentNotAllowed
		}
		reversed, err := s.paymentRepo.HasReversalTx(tx, original.ID)
		if err != nil {
			return err
		}
		if reversed {
			return domain.ErrPaymentNotAllowed
		}

		loan, err := s.loanRepo.GetByIDForUpdateTx(tx, original.LoanID)
		if err != nil {
			return err
		}
		if loan.Status == domain.StatusCanceled {
			return domain.ErrPaymentNotAllowed
		}

		now := s.now()
		reversal := &domain.Payment{
			LoanID:            loan.ID,
			Reference:         uuid.New(),
			TotalAmount:       original.TotalAmount.Neg(),
			CapitalApplied:    original.CapitalApplied.Neg(),
			InterestApplied:   original.InterestApplied.Neg(),
			LateFeeApplied:    original.LateFeeApplied.Neg(),
			Type:              original.Type,
			PaymentDate:       now,
			ReversesPaymentID: &original.ID,
			ReversalReason:    input.Reason,
			CreatedBy:         input.ReversedBy,
		}

		created, err := s.paymentRepo.CreateTx(tx, reversal)
		if err != nil {
			return err
		}

		newBalance := decimal.Min(
			loan.RemainingCapital.Add(original.CapitalApplied),
			loan.PrincipalAmount,
		).Round(2)

		entries, err := s.scheduleRepo.GetByLoanIDTx(tx, loan.ID)
		if err != nil {
			return err
		}
		newStatus, nextDue, err := s.refreshSchedule(tx, loan, entries, newBalance, now)
		if err != nil {
			return err
		}

		if err := s.loanRepo.UpdateBalanceStatusTx(tx, loan.ID, newBalance, newStatus, nextDue); err != nil {
			return err
		}

		result = &ApplyPaymentResult{
			Payment:       created,
			NewBalance:    newBalance,
			LoanStatus:    newStatus,
			StatusChanged: newStatus != loan.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetPayments lists the ledger rows of a loan.
func (s *PaymentService) GetPayments(loanID int32) ([]*domain.Payment, error) {
	if _, err := s.loanRepo.GetByID(loanID); err != nil {
		return nil, err
	}
	return s.paymentRepo.GetByLoanID(loanID)
}

// GetLoanSummary aggregates the payment ledger into paid-to-date totals and
// a progress percentage. Nothing here is stored.
func (s *PaymentService) GetLoanSummary(loanID int32) (*domain.LoanSummary, error) {
	loan, err := s.loanRepo.GetByID(loanID)
	if err != nil {
		return nil, err
	}
	capital, interest, lateFee, err := s.paymentRepo.SumApplied(loanID)
	if err != nil {
		return nil, err
	}

	progress := 0.0
	if loan.PrincipalAmount.IsPositive() {
		paid := loan.PrincipalAmount.Sub(loan.RemainingCapital)
		progress, _ = paid.Div(loan.PrincipalAmount).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}

	return &domain.LoanSummary{
		LoanID:           loan.ID,
		Status:           loan.Status,
		PrincipalAmount:  loan.PrincipalAmount,
		RemainingCapital: loan.RemainingCapital,
		CapitalPaid:      capital,
		InterestPaid:     interest,
		LateFeePaid:      lateFee,
		Progress:         progress,
	}, nil
}

// refreshSchedule recomputes installment coverage from the net ledger sums,
// persists the row status changes and derives the loan's resulting status
// and next due date. Coverage is deterministic: the net capital+interest
// paid is walked against the rows in sequence, so a reversal naturally
// un-covers rows without mutating ledger history.
func (s *PaymentService) refreshSchedule(tx interface{}, loan *domain.Loan, entries []*domain.ScheduleEntry, newBalance decimal.Decimal, asOf time.Time) (domain.LoanStatus, *time.Time, error) {
	capital, interest, _, err := s.paymentRepo.SumAppliedTx(tx, loan.ID)
	if err != nil {
		return loan.Status, nil, err
	}

	updates, overdueLeft, nextDue := coverSchedule(entries, capital.Add(interest), asOf)
	if len(updates) > 0 {
		if err := s.scheduleRepo.UpdateStatusesTx(tx, updates); err != nil {
			return loan.Status, nil, err
		}
	}

	switch {
	case newBalance.IsZero():
		return domain.StatusPaid, nil, nil
	case overdueLeft:
		return domain.StatusOverdue, nextDue, nil
	default:
		return domain.StatusActive, nextDue, nil
	}
}

// coverSchedule walks the installment rows in order, consuming the paid pool
// row by row. Covered rows become PAID; uncovered rows past due become
// OVERDUE, the rest PENDING. Only rows whose status actually changes are
// returned.
func coverSchedule(entries []*domain.ScheduleEntry, paidPool decimal.Decimal, asOf time.Time) (updates []domain.ScheduleStatusUpdate, overdueLeft bool, nextDue *time.Time) {
	asOf = dateOnly(asOf)
	for _, entry := range entries {
		var target domain.ScheduleStatus
		if paidPool.GreaterThanOrEqual(entry.ExpectedAmount) {
			paidPool = paidPool.Sub(entry.ExpectedAmount)
			target = domain.SchedulePaid
		} else if entry.DueDate.Before(asOf) {
			target = domain.ScheduleOverdue
		} else {
			target = domain.SchedulePending
		}

		if target != domain.SchedulePaid && nextDue == nil {
			due := entry.DueDate
			nextDue = &due
		}
		if target == domain.ScheduleOverdue {
			overdueLeft = true
		}
		if target != entry.Status {
			updates = append(updates, domain.ScheduleStatusUpdate{ID: entry.ID, Status: target})
		}
	}
	return updates, overdueLeft, nextDue
}

// dateOnly truncates a timestamp to its calendar date. Due dates are stored
// at date granularity, so an installment due today is not yet past due no
// matter the time of day the comparison runs.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// overdueState sums the expected amounts of installments already past due
// and counts days late from the earliest of them. Rows past due count even
// if the sweeper has not flagged them yet (payment-time detection).
func overdueState(entries []*domain.ScheduleEntry, asOf time.Time) (decimal.Decimal, int) {
	asOf = dateOnly(asOf)
	overdueAmount := decimal.Zero
	daysLate := 0
	for _, entry := range entries {
		if entry.Status == domain.SchedulePaid {
			continue
		}
		if entry.DueDate.Before(asOf) {
			overdueAmount = overdueAmount.Add(entry.ExpectedAmount)
			if d := DaysLate(entry.DueDate, asOf); d > daysLate {
				daysLate = d
			}
		}
	}
	return overdueAmount, daysLate
}
