package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
)

const loanColumns = `id, client_id, structure, principal_amount, annual_interest_rate,
	total_finance_charge, payment_frequency, term_count, installment_amount,
	remaining_capital, status, next_due_date, guarantees, created_by, created_at, updated_at`

// LoanRepository implements domain.LoanRepository using PostgreSQL.
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

// CreateTx inserts a new loan within a transaction.
func (r *LoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	principal, err := decimalToPgNumeric(loan.PrincipalAmount)
	if err != nil {
		return nil, err
	}
	installment, err := decimalToPgNumeric(loan.InstallmentAmount)
	if err != nil {
		return nil, err
	}
	remaining, err := decimalToPgNumeric(loan.RemainingCapital)
	if err != nil {
		return nil, err
	}

	rate := pgtype.Numeric{}
	if loan.AnnualInterestRate != nil {
		if rate, err = decimalToPgNumeric(*loan.AnnualInterestRate); err != nil {
			return nil, err
		}
	}
	charge := pgtype.Numeric{}
	if loan.TotalFinanceCharge != nil {
		if charge, err = decimalToPgNumeric(*loan.TotalFinanceCharge); err != nil {
			return nil, err
		}
	}

	nextDue := pgtype.Date{}
	if loan.NextDueDate != nil {
		nextDue = pgtype.Date{Time: *loan.NextDueDate, Valid: true}
	}
	guarantees := pgtype.Text{}
	if loan.Guarantees != nil {
		guarantees = pgtype.Text{String: *loan.Guarantees, Valid: true}
	}

	row := pgxTx.QueryRow(ctx, `
		INSERT INTO loans (client_id, structure, principal_amount, annual_interest_rate,
			total_finance_charge, payment_frequency, term_count, installment_amount,
			remaining_capital, status, next_due_date, guarantees, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+loanColumns,
		loan.ClientID, loan.Structure, principal, rate, charge, loan.PaymentFrequency,
		loan.TermCount, installment, remaining, loan.Status, nextDue, guarantees, loan.CreatedBy,
	)
	return scanLoan(row)
}

// GetByID retrieves a loan by its ID.
func (r *LoanRepository) GetByID(id int32) (*domain.Loan, error) {
	return r.getByID(context.Background(), r.pool, id, "")
}

// GetByIDForUpdateTx retrieves a loan under a row lock so the caller's
// read-modify-write of the balance serializes with concurrent payments.
func (r *LoanRepository) GetByIDForUpdateTx(tx interface{}, id int32) (*domain.Loan, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.getByID(context.Background(), pgxTx, id, " FOR UPDATE")
}

func (r *LoanRepository) getByID(ctx context.Context, q querier, id int32, suffix string) (*domain.Loan, error) {
	row := q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`+suffix, id)
	loan, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// UpdateBalanceStatusTx writes the loan's new balance, status and next due
// date after a ledger mutation.
func (r *LoanRepository) UpdateBalanceStatusTx(tx interface{}, id int32, remainingCapital decimal.Decimal, status domain.LoanStatus, nextDueDate *time.Time) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	remaining, err := decimalToPgNumeric(remainingCapital)
	if err != nil {
		return err
	}
	nextDue := pgtype.Date{}
	if nextDueDate != nil {
		nextDue = pgtype.Date{Time: *nextDueDate, Valid: true}
	}

	tag, err := pgxTx.Exec(context.Background(), `
		UPDATE loans
		SET remaining_capital = $2, status = $3, next_due_date = $4, updated_at = now()
		WHERE id = $1`,
		id, remaining, status, nextDue,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// UpdateStatusTx writes only the loan status (used by cancel).
func (r *LoanRepository) UpdateStatusTx(tx interface{}, id int32, status domain.LoanStatus) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	tag, err := pgxTx.Exec(context.Background(),
		`UPDATE loans SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// MarkOverdueBefore flags ACTIVE loans whose next due date precedes today.
// The status filter makes this a no-op on loans already OVERDUE.
func (r *LoanRepository) MarkOverdueBefore(today time.Time) (int64, error) {
	tag, err := r.pool.Exec(context.Background(), `
		UPDATE loans
		SET status = $1, updated_at = now()
		WHERE status = $2 AND next_due_date IS NOT NULL AND next_due_date < $3`,
		domain.StatusOverdue, domain.StatusActive, today,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan       domain.Loan
		principal  pgtype.Numeric
		rate       pgtype.Numeric
		charge     pgtype.Numeric
		install    pgtype.Numeric
		remaining  pgtype.Numeric
		nextDue    pgtype.Date
		guarantees pgtype.Text
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	err := row.Scan(
		&loan.ID, &loan.ClientID, &loan.Structure, &principal, &rate, &charge,
		&loan.PaymentFrequency, &loan.TermCount, &install, &remaining,
		&loan.Status, &nextDue, &guarantees, &loan.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.PrincipalAmount = pgNumericToDecimal(principal)
	loan.InstallmentAmount = pgNumericToDecimal(install)
	loan.RemainingCapital = pgNumericToDecimal(remaining)
	if rate.Valid {
		d := pgNumericToDecimal(rate)
		loan.AnnualInterestRate = &d
	}
	if charge.Valid {
		d := pgNumericToDecimal(charge)
		loan.TotalFinanceCharge = &d
	}
	if nextDue.Valid {
		loan.NextDueDate = &nextDue.Time
	}
	if guarantees.Valid {
		loan.Guarantees = &guarantees.String
	}
	loan.CreatedAt = createdAt.Time
	loan.UpdatedAt = updatedAt.Time
	return &loan, nil
}
