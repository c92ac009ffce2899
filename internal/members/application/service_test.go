package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	members "amicale-backend/internal/members/domain"
	"amicale-backend/internal/members/infrastructure/memory"
)

func newTestService(t *testing.T) (*Service, *memory.MemberRepository) {
	t.Helper()
	repo := memory.NewMemberRepository()
	service, err := NewService(repo, slog.Default())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, repo
}

func TestRegisterAndAuthenticate(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	member, err := service.Register(ctx, "Alice Martin", "Alice@Example.com", "s3cret-pass", "treasurer")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if member.Email != "alice@example.com" {
		t.Fatalf("email must be normalized, got %q", member.Email)
	}
	if member.PasswordHash == "" || member.PasswordHash == "s3cret-pass" {
		t.Fatal("password must be stored hashed")
	}

	got, err := service.Authenticate(ctx, "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != member.ID {
		t.Fatalf("expected member %s, got %s", member.ID, got.ID)
	}

	if _, err := service.Authenticate(ctx, "alice@example.com", "wrong-pass"); !errors.Is(err, members.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Authenticate(ctx, "nobody@example.com", "s3cret-pass"); !errors.Is(err, members.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, "Alice", "alice@example.com", "short", ""); !errors.Is(err, members.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, err := service.Register(ctx, "Alice", "alice@example.com", "s3cret-pass", "president"); !errors.Is(err, members.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := service.Register(ctx, "", "alice@example.com", "s3cret-pass", ""); !errors.Is(err, members.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := service.Register(ctx, "Alice", "not-an-email", "s3cret-pass", ""); !errors.Is(err, members.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	if _, err := service.Register(ctx, "Alice", "alice@example.com", "s3cret-pass", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.Register(ctx, "Alice Again", "ALICE@example.com", "s3cret-pass", ""); !errors.Is(err, members.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestDeactivateRemovesFromBilling(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	member, err := service.Register(ctx, "Alice Martin", "alice@example.com", "s3cret-pass", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := service.Deactivate(ctx, member.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	directory := NewDirectory(repo)
	active, err := directory.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("deactivated member must not be billable, got %d", len(active))
	}
	// Still resolvable for historic breakdowns.
	all, err := directory.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("deactivated member must stay in the directory, got %d", len(all))
	}

	if err := service.Deactivate(ctx, "unknown"); !errors.Is(err, members.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
