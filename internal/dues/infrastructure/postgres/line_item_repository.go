package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dues "amicale-backend/internal/dues/domain"
)

const defaultLineItemsTable = "billing_line_items"

// LineItemRepository is a Postgres implementation for line items.
type LineItemRepository struct {
	db    *sql.DB
	table string
}

// LineItemOption configures the repository.
type LineItemOption func(*LineItemRepository)

// WithLineItemsTable overrides the default table.
func WithLineItemsTable(table string) LineItemOption {
	return func(repo *LineItemRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewLineItemRepository constructs a repository with defaults.
func NewLineItemRepository(db *sql.DB, opts ...LineItemOption) *LineItemRepository {
	repo := &LineItemRepository{db: db, table: defaultLineItemsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Create inserts a line item.
func (r *LineItemRepository) Create(ctx context.Context, item *dues.LineItem) error {
	if r == nil || r.db == nil {
		return errors.New("line item repo: nil db")
	}
	if item == nil {
		return dues.ErrLineItemNotFound
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, period, kind, label, amount, beneficiary_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Period.String(), string(item.Kind), item.Label,
		item.Amount, nullableString(item.BeneficiaryID), item.CreatedAt, item.UpdatedAt,
	)
	return err
}

// Delete removes a line item by id.
func (r *LineItemRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("line item repo: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return dues.ErrLineItemNotFound
	}
	return nil
}

// ListByPeriod returns a period's line items in creation order.
func (r *LineItemRepository) ListByPeriod(ctx context.Context, period dues.Period) ([]dues.LineItem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("line item repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, period, kind, label, amount, beneficiary_id, created_at, updated_at
FROM %s
WHERE period = $1
ORDER BY created_at, id`, r.table)
	rows, err := r.db.QueryContext(ctx, query, period.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []dues.LineItem
	for rows.Next() {
		var item dues.LineItem
		var periodKey, kind string
		var beneficiary sql.NullString
		if err := rows.Scan(&item.ID, &periodKey, &kind, &item.Label, &item.Amount, &beneficiary, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.Period = dues.Period(periodKey)
		item.Kind = dues.LineKind(kind)
		if beneficiary.Valid {
			item.BeneficiaryID = beneficiary.String
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
