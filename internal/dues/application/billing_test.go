package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	dues "amicale-backend/internal/dues/domain"
	"amicale-backend/internal/dues/infrastructure/memory"
)

func newBillingFixture(t *testing.T, members ...Member) (*BillingService, *memory.LineItemRepository, *memory.DueRepository) {
	t.Helper()
	lineItems := memory.NewLineItemRepository()
	duesRepo := memory.NewDueRepository()
	service, err := NewBillingService(lineItems, duesRepo, stubDirectory{members: members}, slog.Default())
	if err != nil {
		t.Fatalf("new billing service: %v", err)
	}
	return service, lineItems, duesRepo
}

func TestPlanFlatFeeRejectsSecond(t *testing.T) {
	service, _, _ := newBillingFixture(t)
	ctx := context.Background()

	if _, err := service.PlanFlatFee(ctx, "2024-03", "Monthly membership", decimal.RequireFromString("10.00")); err != nil {
		t.Fatalf("first flat fee: %v", err)
	}
	if _, err := service.PlanFlatFee(ctx, "2024-03", "Another fee", decimal.RequireFromString("5.00")); !errors.Is(err, dues.ErrDuplicateFlatFee) {
		t.Fatalf("expected ErrDuplicateFlatFee, got %v", err)
	}
	// A different period gets its own flat fee.
	if _, err := service.PlanFlatFee(ctx, "2024-04", "Monthly membership", decimal.RequireFromString("10.00")); err != nil {
		t.Fatalf("next period flat fee: %v", err)
	}
}

func TestBillPeriodCreatesDuesForActiveMembers(t *testing.T) {
	service, _, duesRepo := newBillingFixture(t,
		Member{ID: "m1", FullName: "Alice Martin"},
		Member{ID: "m2", FullName: "Bruno Keller"},
	)
	ctx := context.Background()

	if _, err := service.PlanFlatFee(ctx, "2024-03", "Monthly membership", decimal.RequireFromString("10.00")); err != nil {
		t.Fatalf("plan flat fee: %v", err)
	}
	if _, err := service.PlanBenefit(ctx, "2024-03", "Birth gift", decimal.RequireFromString("50.00"), "m1"); err != nil {
		t.Fatalf("plan benefit: %v", err)
	}

	created, err := service.BillPeriod(ctx, "2024-03")
	if err != nil {
		t.Fatalf("bill period: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 dues created, got %d", created)
	}

	m1Due, err := duesRepo.FindByMemberAndPeriod(ctx, "m1", dues.Period("2024-03"))
	if err != nil || m1Due == nil {
		t.Fatalf("m1 due missing: %v", err)
	}
	if m1Due.ExpectedAmount.String() != "10" {
		t.Fatalf("beneficiary owes only the flat fee, got %s", m1Due.ExpectedAmount)
	}
	m2Due, err := duesRepo.FindByMemberAndPeriod(ctx, "m2", dues.Period("2024-03"))
	if err != nil || m2Due == nil {
		t.Fatalf("m2 due missing: %v", err)
	}
	if m2Due.ExpectedAmount.String() != "60" {
		t.Fatalf("expected 60, got %s", m2Due.ExpectedAmount)
	}
}

func TestBillPeriodIsIncremental(t *testing.T) {
	service, _, _ := newBillingFixture(t, Member{ID: "m1"}, Member{ID: "m2"})
	ctx := context.Background()

	if _, err := service.PlanFlatFee(ctx, "2024-03", "Monthly membership", decimal.RequireFromString("10.00")); err != nil {
		t.Fatalf("plan flat fee: %v", err)
	}
	if created, err := service.BillPeriod(ctx, "2024-03"); err != nil || created != 2 {
		t.Fatalf("first billing: created=%d err=%v", created, err)
	}
	// Rebilling creates nothing new.
	if created, err := service.BillPeriod(ctx, "2024-03"); err != nil || created != 0 {
		t.Fatalf("second billing: created=%d err=%v", created, err)
	}
}

func TestBillPeriodRequiresFlatFee(t *testing.T) {
	service, _, _ := newBillingFixture(t, Member{ID: "m1"})
	ctx := context.Background()

	if _, err := service.PlanBenefit(ctx, "2024-03", "Birth gift", decimal.RequireFromString("50.00"), "m1"); err != nil {
		t.Fatalf("plan benefit: %v", err)
	}
	if _, err := service.BillPeriod(ctx, "2024-03"); !errors.Is(err, dues.ErrMissingFlatFee) {
		t.Fatalf("expected ErrMissingFlatFee, got %v", err)
	}
}

func TestRemoveLineItem(t *testing.T) {
	service, _, _ := newBillingFixture(t)
	ctx := context.Background()

	item, err := service.PlanFlatFee(ctx, "2024-03", "Monthly membership", decimal.RequireFromString("10.00"))
	if err != nil {
		t.Fatalf("plan flat fee: %v", err)
	}
	if err := service.RemoveLineItem(ctx, item.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := service.RemoveLineItem(ctx, item.ID); !errors.Is(err, dues.ErrLineItemNotFound) {
		t.Fatalf("expected ErrLineItemNotFound, got %v", err)
	}
	items, err := service.ListLineItems(ctx, "2024-03")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty schedule, got %d items", len(items))
	}
}
