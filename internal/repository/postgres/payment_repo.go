package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
)

const paymentColumns = `id, loan_id, reference, total_amount, capital_applied,
	interest_applied, late_fee_applied, payment_type, payment_date,
	reverses_payment_id, reversal_reason, created_by, created_at`

// PaymentRepository implements domain.PaymentRepository using PostgreSQL.
// The payments table is append-only: this type deliberately has no update or
// delete methods.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// CreateTx appends a ledger row within a transaction.
func (r *PaymentRepository) CreateTx(tx interface{}, payment *domain.Payment) (*domain.Payment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	total, err := decimalToPgNumeric(payment.TotalAmount)
	if err != nil {
		return nil, err
	}
	capital, err := decimalToPgNumeric(payment.CapitalApplied)
	if err != nil {
		return nil, err
	}
	interest, err := decimalToPgNumeric(payment.InterestApplied)
	if err != nil {
		return nil, err
	}
	lateFee, err := decimalToPgNumeric(payment.LateFeeApplied)
	if err != nil {
		return nil, err
	}

	reverses := pgtype.Int4{}
	if payment.ReversesPaymentID != nil {
		reverses = pgtype.Int4{Int32: *payment.ReversesPaymentID, Valid: true}
	}
	reason := pgtype.Text{}
	if payment.ReversalReason != nil {
		reason = pgtype.Text{String: *payment.ReversalReason, Valid: true}
	}

	row := pgxTx.QueryRow(context.Background(), `
		INSERT INTO payments (loan_id, reference, total_amount, capital_applied,
			interest_applied, late_fee_applied, payment_type, payment_date,
			reverses_payment_id, reversal_reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+paymentColumns,
		payment.LoanID, payment.Reference, total, capital, interest, lateFee,
		payment.Type, payment.PaymentDate, reverses, reason, payment.CreatedBy,
	)
	return scanPayment(row)
}

// GetByID retrieves a payment by its ID.
func (r *PaymentRepository) GetByID(id int32) (*domain.Payment, error) {
	return r.getByID(r.pool, id)
}

// GetByIDTx retrieves a payment by its ID within a transaction.
func (r *PaymentRepository) GetByIDTx(tx interface{}, id int32) (*domain.Payment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.getByID(pgxTx, id)
}

func (r *PaymentRepository) getByID(q querier, id int32) (*domain.Payment, error) {
	row := q.QueryRow(context.Background(),
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	payment, err := scanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetByLoanID lists a loan's ledger rows in insertion order.
func (r *PaymentRepository) GetByLoanID(loanID int32) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+paymentColumns+` FROM payments WHERE loan_id = $1 ORDER BY id`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// HasReversalTx reports whether a reversal row already references the given
// payment.
func (r *PaymentRepository) HasReversalTx(tx interface{}, paymentID int32) (bool, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = pgxTx.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM payments WHERE reverses_payment_id = $1)`, paymentID,
	).Scan(&exists)
	return exists, err
}

// SumApplied returns the net capital, interest and late fee applied to a
// loan. Reversal rows carry negative components, so a plain SUM nets them.
func (r *PaymentRepository) SumApplied(loanID int32) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	return r.sumApplied(r.pool, loanID)
}

// SumAppliedTx is SumApplied within a transaction.
func (r *PaymentRepository) SumAppliedTx(tx interface{}, loanID int32) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	return r.sumApplied(pgxTx, loanID)
}

func (r *PaymentRepository) sumApplied(q querier, loanID int32) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	var capital, interest, lateFee pgtype.Numeric
	err := q.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(capital_applied), 0),
		       COALESCE(SUM(interest_applied), 0),
		       COALESCE(SUM(late_fee_applied), 0)
		FROM payments WHERE loan_id = $1`, loanID,
	).Scan(&capital, &interest, &lateFee)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	return pgNumericToDecimal(capital), pgNumericToDecimal(interest), pgNumericToDecimal(lateFee), nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		payment   domain.Payment
		total     pgtype.Numeric
		capital   pgtype.Numeric
		interest  pgtype.Numeric
		lateFee   pgtype.Numeric
		date      pgtype.Timestamptz
		reverses  pgtype.Int4
		reason    pgtype.Text
		createdAt pgtype.Timestamptz
	)
	err := row.Scan(
		&payment.ID, &payment.LoanID, &payment.Reference, &total, &capital,
		&interest, &lateFee, &payment.Type, &date, &reverses, &reason,
		&payment.CreatedBy, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	payment.TotalAmount = pgNumericToDecimal(total)
	payment.CapitalApplied = pgNumericToDecimal(capital)
	payment.InterestApplied = pgNumericToDecimal(interest)
	payment.LateFeeApplied = pgNumericToDecimal(lateFee)
	payment.PaymentDate = date.Time
	if reverses.Valid {
		payment.ReversesPaymentID = &reverses.Int32
	}
	if reason.Valid {
		payment.ReversalReason = &reason.String
	}
	payment.CreatedAt = createdAt.Time
	return &payment, nil
}
