package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	dues "amicale-backend/internal/dues/domain"
	duesmemory "amicale-backend/internal/dues/infrastructure/memory"
	payments "amicale-backend/internal/payments/domain"
	paymentsmemory "amicale-backend/internal/payments/infrastructure/memory"
)

func newPaymentFixture(t *testing.T) (*Service, *duesmemory.DueRepository) {
	t.Helper()
	duesRepo := duesmemory.NewDueRepository()
	service, err := NewService(paymentsmemory.NewPaymentRepository(), duesRepo, slog.Default())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, duesRepo
}

func seedDue(t *testing.T, repo *duesmemory.DueRepository, memberID string, period dues.Period, expected string) *dues.MemberDue {
	t.Helper()
	item, err := dues.NewFlatFee(period, "Monthly membership", decimal.RequireFromString(expected))
	if err != nil {
		t.Fatalf("flat fee: %v", err)
	}
	due, err := dues.NewMemberDue(dues.Evaluate(memberID, period, []dues.LineItem{*item}, nil))
	if err != nil {
		t.Fatalf("new due: %v", err)
	}
	if err := repo.Create(context.Background(), due); err != nil {
		t.Fatalf("create due: %v", err)
	}
	return due
}

func TestRecordPaymentUpdatesDue(t *testing.T) {
	service, duesRepo := newPaymentFixture(t)
	ctx := context.Background()
	period := dues.Period("2024-03")
	due := seedDue(t, duesRepo, "m1", period, "60.00")

	payment, updated, err := service.Record(ctx, "m1", period, decimal.RequireFromString("20.00"), payments.MethodTransfer, "SEPA-42", "treasurer-1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if payment.Reference != "SEPA-42" || payment.RecordedBy != "treasurer-1" {
		t.Fatalf("payment metadata lost: %+v", payment)
	}
	if updated.PaidAmount.String() != "20" {
		t.Fatalf("expected paid 20, got %s", updated.PaidAmount)
	}
	if updated.Status != dues.StatusPartiallyPaid {
		t.Fatalf("expected partially_paid, got %s", updated.Status)
	}

	stored, ok := duesRepo.Get(due.ID)
	if !ok {
		t.Fatal("due disappeared")
	}
	if stored.RemainingAmount.String() != "40" {
		t.Fatalf("expected remaining 40 persisted, got %s", stored.RemainingAmount)
	}

	history, err := service.ListByMember(ctx, "m1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(history))
	}
}

func TestRecordPaymentRequiresDue(t *testing.T) {
	service, _ := newPaymentFixture(t)
	_, _, err := service.Record(context.Background(), "m1", dues.Period("2024-03"), decimal.RequireFromString("20.00"), payments.MethodCash, "", "")
	if !errors.Is(err, ErrNoDue) {
		t.Fatalf("expected ErrNoDue, got %v", err)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	service, duesRepo := newPaymentFixture(t)
	ctx := context.Background()
	period := dues.Period("2024-03")
	seedDue(t, duesRepo, "m1", period, "60.00")

	if _, _, err := service.Record(ctx, "m1", period, decimal.Zero, payments.MethodCash, "", ""); !errors.Is(err, payments.ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount, got %v", err)
	}
	if _, _, err := service.Record(ctx, "m1", period, decimal.RequireFromString("5.00"), "cheque", "", ""); !errors.Is(err, payments.ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
	if _, _, err := service.Record(ctx, "", period, decimal.RequireFromString("5.00"), payments.MethodCash, "", ""); !errors.Is(err, payments.ErrEmptyMemberID) {
		t.Fatalf("expected ErrEmptyMemberID, got %v", err)
	}
}
