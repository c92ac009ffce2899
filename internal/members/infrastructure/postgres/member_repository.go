package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	members "amicale-backend/internal/members/domain"
)

const memberColumns = "id, full_name, email, password_hash, role, status, joined_at, created_at, updated_at"

// MemberRepository persists members in PostgreSQL.
type MemberRepository struct {
	db    *sql.DB
	table string
}

// MemberRepositoryOption configures the repository.
type MemberRepositoryOption func(*MemberRepository)

// WithMembersTable overrides the members table name.
func WithMembersTable(table string) MemberRepositoryOption {
	return func(r *MemberRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewMemberRepository constructs a repository backed by db.
func NewMemberRepository(db *sql.DB, opts ...MemberRepositoryOption) *MemberRepository {
	repo := &MemberRepository{db: db, table: "members"}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Create inserts a member.
func (r *MemberRepository) Create(ctx context.Context, member *members.Member) error {
	if member == nil {
		return errors.New("members: nil member")
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, r.table, memberColumns)
	_, err := r.db.ExecContext(ctx, query,
		member.ID,
		member.FullName,
		member.Email,
		member.PasswordHash,
		member.Role,
		member.Status,
		member.JoinedAt,
		member.CreatedAt,
		member.UpdatedAt,
	)
	return err
}

// Update rewrites a member row.
func (r *MemberRepository) Update(ctx context.Context, member *members.Member) error {
	if member == nil {
		return errors.New("members: nil member")
	}
	query := fmt.Sprintf(`UPDATE %s
SET full_name = $2, email = $3, password_hash = $4, role = $5, status = $6, updated_at = $7
WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query,
		member.ID,
		member.FullName,
		member.Email,
		member.PasswordHash,
		member.Role,
		member.Status,
		member.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return members.ErrNotFound
	}
	return nil
}

// GetByID loads one member, or nil when absent.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*members.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, memberColumns, r.table)
	return r.getOne(ctx, query, id)
}

// GetByEmail loads one member by email, or nil when absent.
func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*members.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1`, memberColumns, r.table)
	return r.getOne(ctx, query, email)
}

// List returns all members ordered by name.
func (r *MemberRepository) List(ctx context.Context) ([]members.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY full_name, id`, memberColumns, r.table)
	return r.list(ctx, query)
}

// ListActive returns billable members ordered by name.
func (r *MemberRepository) ListActive(ctx context.Context) ([]members.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE status = $1 ORDER BY full_name, id`, memberColumns, r.table)
	return r.list(ctx, query, members.StatusActive)
}

func (r *MemberRepository) getOne(ctx context.Context, query string, arg any) (*members.Member, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	member, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *MemberRepository) list(ctx context.Context, query string, args ...any) ([]members.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []members.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *member)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*members.Member, error) {
	var member members.Member
	err := row.Scan(
		&member.ID,
		&member.FullName,
		&member.Email,
		&member.PasswordHash,
		&member.Role,
		&member.Status,
		&member.JoinedAt,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}
