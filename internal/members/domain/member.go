package members

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive = "active"
	StatusLeft   = "left"
)

// Member is a registered association member.
type Member struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         string
	Status       string
	JoinedAt     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewMember creates an active member. The password hash is set by the
// application service.
func NewMember(fullName, email, role string) (*Member, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" {
		return nil, ErrEmptyName
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	now := time.Now().UTC()
	return &Member{
		ID:        uuid.New().String(),
		FullName:  fullName,
		Email:     email,
		Role:      role,
		Status:    StatusActive,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsActive reports whether the member is billable.
func (m *Member) IsActive() bool { return m != nil && m.Status == StatusActive }

// Deactivate marks the member as having left the association.
func (m *Member) Deactivate() {
	m.Status = StatusLeft
	m.UpdatedAt = time.Now().UTC()
}
