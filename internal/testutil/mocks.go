package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
)

// MockTxManager is a mock implementation of domain.TxManager. It runs the
// callback with a nil transaction handle; the mock repositories ignore it.
type MockTxManager struct {
	BeginErr  error
	CommitErr error
	Calls     int
}

// NewMockTxManager creates a new MockTxManager
func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithinTx runs fn with a nil transaction handle
func (m *MockTxManager) WithinTx(ctx context.Context, fn func(tx interface{}) error) error {
	m.Calls++
	if m.BeginErr != nil {
		return m.BeginErr
	}
	if err := fn(nil); err != nil {
		return err
	}
	return m.CommitErr
}

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans  map[int32]*domain.Loan
	nextID int32

	CreateErr        error
	GetErr           error
	UpdateBalanceErr error
	UpdateStatusErr  error
	MarkOverdueFn    func(today time.Time) (int64, error)
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{Loans: make(map[int32]*domain.Loan)}
}

// CreateTx inserts a loan
func (m *MockLoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	created := *loan
	created.ID = m.nextID
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	m.Loans[created.ID] = &created
	return &created, nil
}

// GetByID retrieves a loan by ID
func (m *MockLoanRepository) GetByID(id int32) (*domain.Loan, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if loan, ok := m.Loans[id]; ok {
		copied := *loan
		return &copied, nil
	}
	return nil, domain.ErrLoanNotFound
}

// GetByIDForUpdateTx retrieves a loan by ID; locking is a no-op in tests
func (m *MockLoanRepository) GetByIDForUpdateTx(tx interface{}, id int32) (*domain.Loan, error) {
	return m.GetByID(id)
}

// UpdateBalanceStatusTx updates the balance, status and next due date of a loan
func (m *MockLoanRepository) UpdateBalanceStatusTx(tx interface{}, id int32, remainingCapital decimal.Decimal, status domain.LoanStatus, nextDueDate *time.Time) error {
	if m.UpdateBalanceErr != nil {
		return m.UpdateBalanceErr
	}
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.RemainingCapital = remainingCapital
	loan.Status = status
	loan.NextDueDate = nextDueDate
	loan.UpdatedAt = time.Now()
	return nil
}

// UpdateStatusTx updates only the status of a loan
func (m *MockLoanRepository) UpdateStatusTx(tx interface{}, id int32, status domain.LoanStatus) error {
	if m.UpdateStatusErr != nil {
		return m.UpdateStatusErr
	}
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.Status = status
	loan.UpdatedAt = time.Now()
	return nil
}

// MarkOverdueBefore flags ACTIVE loans whose next due date has passed
func (m *MockLoanRepository) MarkOverdueBefore(today time.Time) (int64, error) {
	if m.MarkOverdueFn != nil {
		return m.MarkOverdueFn(today)
	}
	var affected int64
	for _, loan := range m.Loans {
		if loan.Status == domain.StatusActive && loan.NextDueDate != nil && loan.NextDueDate.Before(today) {
			loan.Status = domain.StatusOverdue
			affected++
		}
	}
	return affected, nil
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments map[int32]*domain.Payment
	nextID   int32

	CreateErr error
	GetErr    error
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{Payments: make(map[int32]*domain.Payment)}
}

// CreateTx appends a ledger row
func (m *MockPaymentRepository) CreateTx(tx interface{}, payment *domain.Payment) (*domain.Payment, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	created := *payment
	created.ID = m.nextID
	if created.Reference == uuid.Nil {
		created.Reference = uuid.New()
	}
	created.CreatedAt = time.Now()
	m.Payments[created.ID] = &created
	return &created, nil
}

// GetByID retrieves a payment by ID
func (m *MockPaymentRepository) GetByID(id int32) (*domain.Payment, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if payment, ok := m.Payments[id]; ok {
		copied := *payment
		return &copied, nil
	}
	return nil, domain.ErrPaymentNotFound
}

// GetByIDTx retrieves a payment by ID inside a transaction
func (m *MockPaymentRepository) GetByIDTx(tx interface{}, id int32) (*domain.Payment, error) {
	return m.GetByID(id)
}

// GetByLoanID retrieves all ledger rows of a loan ordered by ID
func (m *MockPaymentRepository) GetByLoanID(loanID int32) ([]*domain.Payment, error) {
	var result []*domain.Payment
	for id := int32(1); id <= m.nextID; id++ {
		if payment, ok := m.Payments[id]; ok && payment.LoanID == loanID {
			copied := *payment
			result = append(result, &copied)
		}
	}
	return result, nil
}

// HasReversalTx reports whether a reversal row references the payment
func (m *MockPaymentRepository) HasReversalTx(tx interface{}, paymentID int32) (bool, error) {
	for _, payment := range m.Payments {
		if payment.ReversesPaymentID != nil && *payment.ReversesPaymentID == paymentID {
			return true, nil
		}
	}
	return false, nil
}

// SumApplied returns the net components applied to a loan
func (m *MockPaymentRepository) SumApplied(loanID int32) (capital, interest, lateFee decimal.Decimal, err error) {
	for _, payment := range m.Payments {
		if payment.LoanID != loanID {
			continue
		}
		capital = capital.Add(payment.CapitalApplied)
		interest = interest.Add(payment.InterestApplied)
		lateFee = lateFee.Add(payment.LateFeeApplied)
	}
	return capital, interest, lateFee, nil
}

// SumAppliedTx returns the net components applied to a loan inside a transaction
func (m *MockPaymentRepository) SumAppliedTx(tx interface{}, loanID int32) (capital, interest, lateFee decimal.Decimal, err error) {
	return m.SumApplied(loanID)
}

// MockScheduleRepository is a mock implementation of domain.ScheduleRepository
type MockScheduleRepository struct {
	Entries map[int32]*domain.ScheduleEntry
	nextID  int32

	CreateErr error
	UpdateErr error
}

// NewMockScheduleRepository creates a new MockScheduleRepository
func NewMockScheduleRepository() *MockScheduleRepository {
	return &MockScheduleRepository{Entries: make(map[int32]*domain.ScheduleEntry)}
}

// CreateBatchTx inserts schedule rows in bulk
func (m *MockScheduleRepository) CreateBatchTx(tx interface{}, entries []*domain.ScheduleEntry) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, entry := range entries {
		m.nextID++
		created := *entry
		created.ID = m.nextID
		created.CreatedAt = time.Now()
		created.UpdatedAt = created.CreatedAt
		m.Entries[created.ID] = &created
	}
	return nil
}

// GetByLoanID retrieves the schedule of a loan ordered by installment number
func (m *MockScheduleRepository) GetByLoanID(loanID int32) ([]*domain.ScheduleEntry, error) {
	var result []*domain.ScheduleEntry
	for id := int32(1); id <= m.nextID; id++ {
		if entry, ok := m.Entries[id]; ok && entry.LoanID == loanID {
			copied := *entry
			result = append(result, &copied)
		}
	}
	return result, nil
}

// GetByLoanIDTx retrieves the schedule of a loan inside a transaction
func (m *MockScheduleRepository) GetByLoanIDTx(tx interface{}, loanID int32) ([]*domain.ScheduleEntry, error) {
	return m.GetByLoanID(loanID)
}

// UpdateStatusesTx applies status changes to schedule rows
func (m *MockScheduleRepository) UpdateStatusesTx(tx interface{}, updates []domain.ScheduleStatusUpdate) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for _, update := range updates {
		if entry, ok := m.Entries[update.ID]; ok {
			entry.Status = update.Status
			entry.UpdatedAt = time.Now()
		}
	}
	return nil
}

// MarkOverdueBefore flags PENDING rows whose due date has passed
func (m *MockScheduleRepository) MarkOverdueBefore(today time.Time) (int64, error) {
	var affected int64
	for _, entry := range m.Entries {
		if entry.Status == domain.SchedulePending && entry.DueDate.Before(today) {
			entry.Status = domain.ScheduleOverdue
			affected++
		}
	}
	return affected, nil
}
