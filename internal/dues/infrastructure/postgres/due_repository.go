package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dues "amicale-backend/internal/dues/domain"
)

const defaultDuesTable = "member_dues"

const dueColumns = "id, member_id, period, expected_amount, paid_amount, remaining_amount, status, description, created_at, updated_at"

// DueRepository is a Postgres implementation for member dues.
type DueRepository struct {
	db    *sql.DB
	table string
}

// DueOption configures the repository.
type DueOption func(*DueRepository)

// WithDuesTable overrides the default table.
func WithDuesTable(table string) DueOption {
	return func(repo *DueRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewDueRepository constructs a repository with defaults.
func NewDueRepository(db *sql.DB, opts ...DueOption) *DueRepository {
	repo := &DueRepository{db: db, table: defaultDuesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Create inserts a due record.
func (r *DueRepository) Create(ctx context.Context, due *dues.MemberDue) error {
	if r == nil || r.db == nil {
		return errors.New("due repo: nil db")
	}
	if due == nil {
		return dues.ErrNilDue
	}
	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`, r.table, dueColumns)
	_, err := r.db.ExecContext(ctx, query,
		due.ID, due.MemberID, due.Period.String(),
		due.ExpectedAmount, due.PaidAmount, due.RemainingAmount,
		string(due.Status), due.Description, due.CreatedAt, due.UpdatedAt,
	)
	return err
}

// Update persists the mutable due fields.
func (r *DueRepository) Update(ctx context.Context, due *dues.MemberDue) error {
	if r == nil || r.db == nil {
		return errors.New("due repo: nil db")
	}
	if due == nil {
		return dues.ErrNilDue
	}
	query := fmt.Sprintf(`
UPDATE %s
SET expected_amount = $1, paid_amount = $2, remaining_amount = $3,
	status = $4, description = $5, updated_at = $6
WHERE id = $7`, r.table)
	result, err := r.db.ExecContext(ctx, query,
		due.ExpectedAmount, due.PaidAmount, due.RemainingAmount,
		string(due.Status), due.Description, due.UpdatedAt, due.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return dues.ErrDueNotFound
	}
	return nil
}

// FindByMemberAndPeriod loads one due record, nil when absent.
func (r *DueRepository) FindByMemberAndPeriod(ctx context.Context, memberID string, period dues.Period) (*dues.MemberDue, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("due repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE member_id = $1 AND period = $2
LIMIT 1`, dueColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, memberID, period.String())
	due, err := scanDue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return due, err
}

// ListByPeriod returns a period's due records.
func (r *DueRepository) ListByPeriod(ctx context.Context, period dues.Period) ([]dues.MemberDue, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE period = $1
ORDER BY member_id`, dueColumns, r.table)
	return r.list(ctx, query, period.String())
}

// ListByMember returns a member's due history, newest period first.
func (r *DueRepository) ListByMember(ctx context.Context, memberID string) ([]dues.MemberDue, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE member_id = $1
ORDER BY period DESC`, dueColumns, r.table)
	return r.list(ctx, query, memberID)
}

// ListPendingBefore returns pending dues of periods strictly before the cutoff.
func (r *DueRepository) ListPendingBefore(ctx context.Context, before dues.Period) ([]dues.MemberDue, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE status = $1 AND period < $2
ORDER BY period, member_id`, dueColumns, r.table)
	return r.list(ctx, query, string(dues.StatusPending), before.String())
}

// DistinctPeriods returns every period with at least one due record.
func (r *DueRepository) DistinctPeriods(ctx context.Context) ([]dues.Period, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("due repo: nil db")
	}
	query := fmt.Sprintf(`SELECT DISTINCT period FROM %s ORDER BY period`, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dues.Period
	for rows.Next() {
		var period string
		if err := rows.Scan(&period); err != nil {
			return nil, err
		}
		result = append(result, dues.Period(period))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *DueRepository) list(ctx context.Context, query string, args ...any) ([]dues.MemberDue, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("due repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dues.MemberDue
	for rows.Next() {
		due, err := scanDue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *due)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDue(row rowScanner) (*dues.MemberDue, error) {
	var due dues.MemberDue
	var period, status string
	err := row.Scan(
		&due.ID, &due.MemberID, &period,
		&due.ExpectedAmount, &due.PaidAmount, &due.RemainingAmount,
		&status, &due.Description, &due.CreatedAt, &due.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	due.Period = dues.Period(period)
	due.Status = dues.DueStatus(status)
	return &due, nil
}
