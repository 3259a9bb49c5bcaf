package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
)

// LoanService handles loan origination and lifecycle operations.
type LoanService struct {
	tx           domain.TxManager
	loanRepo     domain.LoanRepository
	scheduleRepo domain.ScheduleRepository
	now          func() time.Time
}

// NewLoanService creates a new LoanService.
func NewLoanService(tx domain.TxManager, loanRepo domain.LoanRepository, scheduleRepo domain.ScheduleRepository) *LoanService {
	return &LoanService{
		tx:           tx,
		loanRepo:     loanRepo,
		scheduleRepo: scheduleRepo,
		now:          time.Now,
	}
}

// CreateLoanInput contains input for originating a loan.
type CreateLoanInput struct {
	ClientID           int32
	Structure          domain.LoanStructure
	PrincipalAmount    decimal.Decimal
	AnnualInterestRate *decimal.Decimal
	TotalFinanceCharge *decimal.Decimal
	PaymentFrequency   domain.PaymentFrequency
	TermCount          int32
	StartDate          *time.Time // defaults to today
	Guarantees         *string
	CreatedBy          int32
}

func (in CreateLoanInput) terms() LoanTerms {
	terms := LoanTerms{
		Principal: in.PrincipalAmount,
		Frequency: in.PaymentFrequency,
		TermCount: int(in.TermCount),
		Structure: in.Structure,
	}
	if in.AnnualInterestRate != nil {
		terms.AnnualRate = *in.AnnualInterestRate
	}
	if in.TotalFinanceCharge != nil {
		terms.FinanceCharge = *in.TotalFinanceCharge
	}
	return terms
}

// CreateLoan originates a loan: computes the installment, generates the
// installment schedule and persists loan plus schedule rows in a single
// transaction. The loan starts ACTIVE with its full principal outstanding.
func (s *LoanService) CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.Loan, error) {
	startDate := s.now()
	if input.StartDate != nil {
		startDate = *input.StartDate
	}

	loan := &domain.Loan{
		ClientID:           input.ClientID,
		Structure:          input.Structure,
		PrincipalAmount:    input.PrincipalAmount,
		AnnualInterestRate: input.AnnualInterestRate,
		TotalFinanceCharge: input.TotalFinanceCharge,
		PaymentFrequency:   input.PaymentFrequency,
		TermCount:          input.TermCount,
		RemainingCapital:   input.PrincipalAmount.Round(2),
		Status:             domain.StatusActive,
		Guarantees:         input.Guarantees,
		CreatedBy:          input.CreatedBy,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	terms := input.terms()
	loan.InstallmentAmount = ComputeInstallment(terms)
	lines := BuildSchedule(terms, startDate)
	if len(lines) > 0 {
		firstDue := lines[0].DueDate
		loan.NextDueDate = &firstDue
	}

	var created *domain.Loan
	err := s.tx.WithinTx(ctx, func(tx interface{}) error {
		var err error
		created, err = s.loanRepo.CreateTx(tx, loan)
		if err != nil {
			return err
		}

		entries := make([]*domain.ScheduleEntry, len(lines))
		for i, line := range lines {
			entries[i] = &domain.ScheduleEntry{
				LoanID:            created.ID,
				InstallmentNumber: int32(line.Number),
				DueDate:           line.DueDate,
				ExpectedAmount:    line.TotalPayment,
				Status:            domain.SchedulePending,
			}
		}
		return s.scheduleRepo.CreateBatchTx(tx, entries)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// validateTerms checks the calculation inputs without requiring a client,
// so previews can run before a client is attached.
func (in CreateLoanInput) validateTerms() error {
	if in.PrincipalAmount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrLoanPrincipalInvalid
	}
	if in.TermCount < 1 {
		return domain.ErrLoanTermInvalid
	}
	if !in.Structure.IsValid() {
		return domain.ErrLoanStructureInvalid
	}
	if !in.PaymentFrequency.IsValid() {
		return domain.ErrLoanFrequencyInvalid
	}
	if in.Structure == domain.StructureInterestBearing && in.AnnualInterestRate == nil {
		return domain.ErrLoanRateRequired
	}
	if in.Structure == domain.StructureFlatRate && in.TotalFinanceCharge == nil {
		return domain.ErrLoanChargeRequired
	}
	return nil
}

// PreviewSchedule computes the installment and full amortization table
// without persisting anything; the front office shows it before origination.
func (s *LoanService) PreviewSchedule(input CreateLoanInput) (decimal.Decimal, []ScheduleLine, error) {
	if err := input.validateTerms(); err != nil {
		return decimal.Zero, nil, err
	}

	startDate := s.now()
	if input.StartDate != nil {
		startDate = *input.StartDate
	}

	terms := input.terms()
	return ComputeInstallment(terms), BuildSchedule(terms, startDate), nil
}

// GetLoan retrieves a loan by ID.
func (s *LoanService) GetLoan(id int32) (*domain.Loan, error) {
	return s.loanRepo.GetByID(id)
}

// GetSchedule retrieves the persisted installment rows of a loan.
func (s *LoanService) GetSchedule(loanID int32) ([]*domain.ScheduleEntry, error) {
	if _, err := s.loanRepo.GetByID(loanID); err != nil {
		return nil, err
	}
	return s.scheduleRepo.GetByLoanID(loanID)
}

// CancelLoan freezes a loan from further activity. It is legal only from
// ACTIVE or OVERDUE, does not zero the balance and writes no payment row.
func (s *LoanService) CancelLoan(ctx context.Context, id int32) (*domain.Loan, error) {
	var canceled *domain.Loan
	err := s.tx.WithinTx(ctx, func(tx interface{}) error {
		loan, err := s.loanRepo.GetByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		if !loan.Status.CanCancel() {
			return domain.ErrPaymentNotAllowed
		}
		if err := s.loanRepo.UpdateStatusTx(tx, id, domain.StatusCanceled); err != nil {
			return err
		}
		loan.Status = domain.StatusCanceled
		canceled = loan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}
