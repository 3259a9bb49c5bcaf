package service

import (
	"time"

	"github.com/solcredito/prestamos-backend/internal/domain"
)

// SweeperService runs the periodic overdue detection pass. It is idempotent:
// both updates filter on the current row state, so running it twice in a day
// affects zero rows the second time.
type SweeperService struct {
	loanRepo     domain.LoanRepository
	scheduleRepo domain.ScheduleRepository
	now          func() time.Time
}

// NewSweeperService creates a new SweeperService.
func NewSweeperService(loanRepo domain.LoanRepository, scheduleRepo domain.ScheduleRepository) *SweeperService {
	return &SweeperService{
		loanRepo:     loanRepo,
		scheduleRepo: scheduleRepo,
		now:          time.Now,
	}
}

// Sweep flags every PENDING installment past its due date as OVERDUE and
// every ACTIVE loan whose next due date has passed as OVERDUE, returning the
// total number of rows affected.
func (s *SweeperService) Sweep() (*domain.SweepResult, error) {
	today := s.today()

	scheduleRows, err := s.scheduleRepo.MarkOverdueBefore(today)
	if err != nil {
		return nil, err
	}

	loanRows, err := s.loanRepo.MarkOverdueBefore(today)
	if err != nil {
		return nil, err
	}

	return &domain.SweepResult{Affected: scheduleRows + loanRows}, nil
}

// today truncates the clock to a date so a due date of today is not yet
// overdue.
func (s *SweeperService) today() time.Time {
	return dateOnly(s.now())
}
