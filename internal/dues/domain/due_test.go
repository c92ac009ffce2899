package dues

import (
	"testing"

	"github.com/shopspring/decimal"
)

func newTestDue(t *testing.T, memberID string, items []LineItem) *MemberDue {
	t.Helper()
	due, err := NewMemberDue(Evaluate(memberID, Period("2024-03"), items, nil))
	if err != nil {
		t.Fatalf("new due: %v", err)
	}
	return due
}

func TestNewMemberDue(t *testing.T) {
	period := Period("2024-03")
	items := []LineItem{
		mustFlatFee(t, period, "10.00"),
		mustBenefit(t, period, "Birth gift", "50.00", "m1"),
	}
	due := newTestDue(t, "m2", items)

	if due.ExpectedAmount.String() != "60" {
		t.Fatalf("expected 60, got %s", due.ExpectedAmount)
	}
	if !due.PaidAmount.IsZero() {
		t.Fatalf("expected zero paid, got %s", due.PaidAmount)
	}
	if !due.RemainingAmount.Equal(due.ExpectedAmount) {
		t.Fatalf("expected remaining == expected, got %s", due.RemainingAmount)
	}
	if due.Status != StatusPending {
		t.Fatalf("expected pending, got %s", due.Status)
	}
}

func TestRecordPayment(t *testing.T) {
	period := Period("2024-03")
	items := []LineItem{mustFlatFee(t, period, "60.00")}
	due := newTestDue(t, "m2", items)

	if err := due.RecordPayment(decimal.RequireFromString("20.00")); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if due.Status != StatusPartiallyPaid {
		t.Fatalf("expected partially_paid, got %s", due.Status)
	}
	if due.RemainingAmount.String() != "40" {
		t.Fatalf("expected remaining 40, got %s", due.RemainingAmount)
	}

	if err := due.RecordPayment(decimal.RequireFromString("40.00")); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if due.Status != StatusPaid {
		t.Fatalf("expected paid, got %s", due.Status)
	}
	if !due.RemainingAmount.IsZero() {
		t.Fatalf("expected remaining 0, got %s", due.RemainingAmount)
	}

	if err := due.RecordPayment(decimal.Zero); err != ErrNonPositiveAmount {
		t.Fatalf("expected ErrNonPositiveAmount, got %v", err)
	}
}

func TestRecordPaymentOverpayClampsRemaining(t *testing.T) {
	period := Period("2024-03")
	due := newTestDue(t, "m2", []LineItem{mustFlatFee(t, period, "10.00")})

	if err := due.RecordPayment(decimal.RequireFromString("25.00")); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if !due.RemainingAmount.IsZero() {
		t.Fatalf("expected remaining clamped to 0, got %s", due.RemainingAmount)
	}
	if due.Status != StatusPaid {
		t.Fatalf("expected paid, got %s", due.Status)
	}
}

func TestApplyAssessmentPreservesPaidAmount(t *testing.T) {
	period := Period("2024-03")
	due := newTestDue(t, "m2", []LineItem{
		mustFlatFee(t, period, "10.00"),
		mustBenefit(t, period, "Birth gift", "45.00", "m1"),
	})
	if err := due.RecordPayment(decimal.RequireFromString("20.00")); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	// The benefit was corrected from 45 to 50 after billing.
	changed := due.ApplyAssessment(Evaluate("m2", period, []LineItem{
		mustFlatFee(t, period, "10.00"),
		mustBenefit(t, period, "Birth gift", "50.00", "m1"),
	}, nil))

	if !changed {
		t.Fatal("expected change to be reported")
	}
	if due.ExpectedAmount.String() != "60" {
		t.Fatalf("expected 60, got %s", due.ExpectedAmount)
	}
	if due.PaidAmount.String() != "20" {
		t.Fatalf("paid amount must be preserved, got %s", due.PaidAmount)
	}
	if due.RemainingAmount.String() != "40" {
		t.Fatalf("expected remaining 40, got %s", due.RemainingAmount)
	}
	if due.Status != StatusPartiallyPaid {
		t.Fatalf("expected partially_paid, got %s", due.Status)
	}
}

func TestApplyAssessmentIdempotent(t *testing.T) {
	period := Period("2024-03")
	items := []LineItem{mustFlatFee(t, period, "10.00")}
	due := newTestDue(t, "m2", items)

	if changed := due.ApplyAssessment(Evaluate("m2", period, items, nil)); changed {
		t.Fatal("unchanged assessment must not report a change")
	}
}

func TestApplyAssessmentPreservesOverdue(t *testing.T) {
	period := Period("2024-03")
	due := newTestDue(t, "m2", []LineItem{mustFlatFee(t, period, "10.00")})
	if !due.MarkOverdue() {
		t.Fatal("expected pending due to become overdue")
	}

	due.ApplyAssessment(Evaluate("m2", period, []LineItem{mustFlatFee(t, period, "15.00")}, nil))
	if due.Status != StatusOverdue {
		t.Fatalf("overdue must survive reconciliation, got %s", due.Status)
	}
}

func TestMarkOverdueOnlyPending(t *testing.T) {
	period := Period("2024-03")
	due := newTestDue(t, "m2", []LineItem{mustFlatFee(t, period, "10.00")})
	if err := due.RecordPayment(decimal.RequireFromString("5.00")); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if due.MarkOverdue() {
		t.Fatal("partially paid due must not be marked overdue")
	}
}
