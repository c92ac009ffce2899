package application

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"amicale-backend/internal/auth"
	duesapp "amicale-backend/internal/dues/application"
	members "amicale-backend/internal/members/domain"
)

// Service handles member registration and authentication.
type Service struct {
	repo   members.Repository
	logger *slog.Logger
}

// NewService constructs the service.
func NewService(repo members.Repository, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("member service: nil repository")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}, nil
}

// Register creates an active member with a hashed password. An empty role
// defaults to member; only known roles are accepted.
func (s *Service) Register(ctx context.Context, fullName, email, password, role string) (*members.Member, error) {
	if len(password) < 8 {
		return nil, members.ErrWeakPassword
	}
	if role == "" {
		role = string(auth.RoleMember)
	}
	if _, ok := auth.NormalizeRole(role); !ok {
		return nil, members.ErrInvalidRole
	}

	member, err := members.NewMember(fullName, email, role)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByEmail(ctx, member.Email)
	if err != nil && !errors.Is(err, members.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, members.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	member.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, member); err != nil {
		return nil, err
	}
	s.logger.Info("member registered", "member_id", member.ID, "role", member.Role)
	return member, nil
}

// Authenticate verifies email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*members.Member, error) {
	member, err := s.repo.GetByEmail(ctx, email)
	if err != nil || member == nil {
		return nil, members.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return nil, members.ErrInvalidCredentials
	}
	return member, nil
}

// Deactivate marks a member as having left. Their due history is kept.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if member == nil {
		return members.ErrNotFound
	}
	member.Deactivate()
	if err := s.repo.Update(ctx, member); err != nil {
		return err
	}
	s.logger.Info("member deactivated", "member_id", id)
	return nil
}

// Get loads one member.
func (s *Service) Get(ctx context.Context, id string) (*members.Member, error) {
	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, members.ErrNotFound
	}
	return member, nil
}

// List returns all members.
func (s *Service) List(ctx context.Context) ([]members.Member, error) {
	return s.repo.List(ctx)
}

// Directory adapts the member repository to the dues services' view.
type Directory struct {
	repo members.Repository
}

// NewDirectory constructs a directory over the member repository.
func NewDirectory(repo members.Repository) *Directory {
	return &Directory{repo: repo}
}

// ListAll returns every member as a directory entry.
func (d *Directory) ListAll(ctx context.Context) ([]duesapp.Member, error) {
	all, err := d.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toDirectory(all), nil
}

// ListActive returns billable members as directory entries.
func (d *Directory) ListActive(ctx context.Context) ([]duesapp.Member, error) {
	active, err := d.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return toDirectory(active), nil
}

func toDirectory(list []members.Member) []duesapp.Member {
	result := make([]duesapp.Member, 0, len(list))
	for _, member := range list {
		result = append(result, duesapp.Member{ID: member.ID, FullName: member.FullName})
	}
	return result
}
