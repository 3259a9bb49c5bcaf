package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
	"github.com/solcredito/prestamos-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func newSweeperForTest() (*SweeperService, *testutil.MockLoanRepository, *testutil.MockScheduleRepository) {
	loanRepo := testutil.NewMockLoanRepository()
	scheduleRepo := testutil.NewMockScheduleRepository()
	svc := NewSweeperService(loanRepo, scheduleRepo)
	svc.now = func() time.Time { return time.Date(2026, 1, 20, 14, 30, 0, 0, time.UTC) }
	return svc, loanRepo, scheduleRepo
}

func seedSweepLoan(t *testing.T, loanRepo *testutil.MockLoanRepository, scheduleRepo *testutil.MockScheduleRepository, nextDue time.Time) *domain.Loan {
	t.Helper()

	loan, err := loanRepo.CreateTx(nil, &domain.Loan{
		ClientID:         1,
		Structure:        domain.StructureFlatRate,
		PrincipalAmount:  decimal.NewFromInt(1000),
		PaymentFrequency: domain.FrequencyWeekly,
		TermCount:        2,
		RemainingCapital: decimal.NewFromInt(1000),
		Status:           domain.StatusActive,
		NextDueDate:      &nextDue,
	})
	assert.NoError(t, err)

	err = scheduleRepo.CreateBatchTx(nil, []*domain.ScheduleEntry{
		{
			LoanID:            loan.ID,
			InstallmentNumber: 1,
			DueDate:           nextDue,
			ExpectedAmount:    decimal.NewFromInt(500),
			Status:            domain.SchedulePending,
		},
		{
			LoanID:            loan.ID,
			InstallmentNumber: 2,
			DueDate:           nextDue.AddDate(0, 0, 7),
			ExpectedAmount:    decimal.NewFromInt(500),
			Status:            domain.SchedulePending,
		},
	})
	assert.NoError(t, err)
	return loan
}

func TestSweep_FlagsPastDueRows(t *testing.T) {
	svc, loanRepo, scheduleRepo := newSweeperForTest()
	loan := seedSweepLoan(t, loanRepo, scheduleRepo, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	result, err := svc.Sweep()
	assert.NoError(t, err)
	// One schedule row and one loan flipped.
	assert.Equal(t, int64(2), result.Affected)

	assert.Equal(t, domain.StatusOverdue, loanRepo.Loans[loan.ID].Status)
	entries, _ := scheduleRepo.GetByLoanID(loan.ID)
	assert.Equal(t, domain.ScheduleOverdue, entries[0].Status)
	assert.Equal(t, domain.SchedulePending, entries[1].Status)
}

func TestSweep_Idempotent(t *testing.T) {
	svc, loanRepo, scheduleRepo := newSweeperForTest()
	seedSweepLoan(t, loanRepo, scheduleRepo, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	first, err := svc.Sweep()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), first.Affected)

	second, err := svc.Sweep()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), second.Affected)
}

func TestSweep_DueTodayIsNotOverdue(t *testing.T) {
	svc, loanRepo, scheduleRepo := newSweeperForTest()
	// Due today: the clock is truncated to the date, so today never flags.
	loan := seedSweepLoan(t, loanRepo, scheduleRepo, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC))

	result, err := svc.Sweep()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), result.Affected)
	assert.Equal(t, domain.StatusActive, loanRepo.Loans[loan.ID].Status)
}

func TestSweep_IgnoresTerminalLoans(t *testing.T) {
	svc, loanRepo, scheduleRepo := newSweeperForTest()
	loan := seedSweepLoan(t, loanRepo, scheduleRepo, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	loanRepo.Loans[loan.ID].Status = domain.StatusCanceled

	// Schedule rows still flip, the loan does not.
	result, err := svc.Sweep()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), result.Affected)
	assert.Equal(t, domain.StatusCanceled, loanRepo.Loans[loan.ID].Status)
}
