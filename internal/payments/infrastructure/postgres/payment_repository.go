package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dues "amicale-backend/internal/dues/domain"
	payments "amicale-backend/internal/payments/domain"
)

const paymentColumns = "id, member_id, period, amount, method, reference, recorded_by, created_at"

// PaymentRepository persists payments in PostgreSQL.
type PaymentRepository struct {
	db    *sql.DB
	table string
}

// PaymentRepositoryOption configures the repository.
type PaymentRepositoryOption func(*PaymentRepository)

// WithPaymentsTable overrides the payments table name.
func WithPaymentsTable(table string) PaymentRepositoryOption {
	return func(r *PaymentRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewPaymentRepository constructs a repository backed by db.
func NewPaymentRepository(db *sql.DB, opts ...PaymentRepositoryOption) *PaymentRepository {
	repo := &PaymentRepository{db: db, table: "payments"}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *payments.Payment) error {
	if payment == nil {
		return errors.New("payments: nil payment")
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, r.table, paymentColumns)
	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.MemberID,
		payment.Period.String(),
		payment.Amount,
		payment.Method,
		payment.Reference,
		payment.RecordedBy,
		payment.CreatedAt,
	)
	return err
}

// ListByMember returns a member's payments, newest first.
func (r *PaymentRepository) ListByMember(ctx context.Context, memberID string) ([]payments.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE member_id = $1 ORDER BY created_at DESC, id`, paymentColumns, r.table)
	return r.list(ctx, query, memberID)
}

// ListByPeriod returns payments for a period, newest first.
func (r *PaymentRepository) ListByPeriod(ctx context.Context, period dues.Period) ([]payments.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE period = $1 ORDER BY created_at DESC, id`, paymentColumns, r.table)
	return r.list(ctx, query, period.String())
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]payments.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []payments.Payment
	for rows.Next() {
		var payment payments.Payment
		var period string
		err := rows.Scan(
			&payment.ID,
			&payment.MemberID,
			&period,
			&payment.Amount,
			&payment.Method,
			&payment.Reference,
			&payment.RecordedBy,
			&payment.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		payment.Period = dues.Period(period)
		result = append(result, payment)
	}
	return result, rows.Err()
}
