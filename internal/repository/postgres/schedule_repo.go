package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solcredito/prestamos-backend/internal/domain"
)

const scheduleColumns = `id, loan_id, installment_number, due_date, expected_amount,
	status, created_at, updated_at`

// ScheduleRepository implements domain.ScheduleRepository using PostgreSQL.
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// CreateBatchTx bulk-inserts the installment rows of a loan at origination.
func (r *ScheduleRepository) CreateBatchTx(tx interface{}, entries []*domain.ScheduleEntry) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	ctx := context.Background()

	batch := &pgx.Batch{}
	for _, entry := range entries {
		expected, err := decimalToPgNumeric(entry.ExpectedAmount)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO payment_schedules (loan_id, installment_number, due_date, expected_amount, status)
			VALUES ($1, $2, $3, $4, $5)`,
			entry.LoanID, entry.InstallmentNumber, entry.DueDate, expected, entry.Status,
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetByLoanID lists the installment rows of a loan in sequence order.
func (r *ScheduleRepository) GetByLoanID(loanID int32) ([]*domain.ScheduleEntry, error) {
	return r.getByLoanID(r.pool, loanID)
}

// GetByLoanIDTx is GetByLoanID within a transaction.
func (r *ScheduleRepository) GetByLoanIDTx(tx interface{}, loanID int32) ([]*domain.ScheduleEntry, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.getByLoanID(pgxTx, loanID)
}

func (r *ScheduleRepository) getByLoanID(q querier, loanID int32) ([]*domain.ScheduleEntry, error) {
	rows, err := q.Query(context.Background(),
		`SELECT `+scheduleColumns+` FROM payment_schedules WHERE loan_id = $1 ORDER BY installment_number`,
		loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.ScheduleEntry
	for rows.Next() {
		entry, err := scanScheduleEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// UpdateStatusesTx applies a set of row status changes within a transaction.
func (r *ScheduleRepository) UpdateStatusesTx(tx interface{}, updates []domain.ScheduleStatusUpdate) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	ctx := context.Background()

	batch := &pgx.Batch{}
	for _, update := range updates {
		batch.Queue(
			`UPDATE payment_schedules SET status = $2, updated_at = now() WHERE id = $1`,
			update.ID, update.Status,
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()
	for range updates {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// MarkOverdueBefore flags PENDING rows whose due date precedes today. The
// status filter makes this a no-op on rows already OVERDUE or PAID.
func (r *ScheduleRepository) MarkOverdueBefore(today time.Time) (int64, error) {
	tag, err := r.pool.Exec(context.Background(), `
		UPDATE payment_schedules
		SET status = $1, updated_at = now()
		WHERE status = $2 AND due_date < $3`,
		domain.ScheduleOverdue, domain.SchedulePending, today,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanScheduleEntry(row pgx.Row) (*domain.ScheduleEntry, error) {
	var (
		entry     domain.ScheduleEntry
		dueDate   pgtype.Date
		expected  pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&entry.ID, &entry.LoanID, &entry.InstallmentNumber, &dueDate,
		&expected, &entry.Status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.DueDate = dueDate.Time
	entry.ExpectedAmount = pgNumericToDecimal(expected)
	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time
	return &entry, nil
}
