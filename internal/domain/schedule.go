package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleStatus is the state of a single expected installment.
type ScheduleStatus string

const (
	SchedulePending ScheduleStatus = "PENDING"
	SchedulePaid    ScheduleStatus = "PAID"
	ScheduleOverdue ScheduleStatus = "OVERDUE"
)

// ScheduleEntry is one expected installment of a loan. Rows are created in
// bulk at origination and mutated only by the sweeper (PENDING to OVERDUE)
// and by payment application when the installment is covered.
type ScheduleEntry struct {
	ID                int32           `json:"id"`
	LoanID            int32           `json:"loanId"`
	InstallmentNumber int32           `json:"installmentNumber"`
	DueDate           time.Time       `json:"dueDate"`
	ExpectedAmount    decimal.Decimal `json:"expectedAmount"`
	Status            ScheduleStatus  `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ScheduleStatusUpdate is a pending status change for one schedule row.
type ScheduleStatusUpdate struct {
	ID     int32
	Status ScheduleStatus
}

// SweepResult reports how many rows an overdue sweep flagged.
type SweepResult struct {
	Affected int64 `json:"affected"`
}

// ScheduleRepository is the persistence port for installment rows.
type ScheduleRepository interface {
	CreateBatchTx(tx interface{}, entries []*ScheduleEntry) error
	GetByLoanID(loanID int32) ([]*ScheduleEntry, error)
	GetByLoanIDTx(tx interface{}, loanID int32) ([]*ScheduleEntry, error)
	UpdateStatusesTx(tx interface{}, updates []ScheduleStatusUpdate) error
	// MarkOverdueBefore flags PENDING rows whose due date has passed. The
	// status filter makes repeat calls no-ops.
	MarkOverdueBefore(today time.Time) (int64, error)
}
