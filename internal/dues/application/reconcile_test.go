package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	dues "amicale-backend/internal/dues/domain"
	"amicale-backend/internal/dues/infrastructure/memory"
	"amicale-backend/internal/dues/notify"
)

type stubDirectory struct {
	members []Member
	err     error
}

func (d stubDirectory) ListAll(context.Context) ([]Member, error)    { return d.members, d.err }
func (d stubDirectory) ListActive(context.Context) ([]Member, error) { return d.members, d.err }

type recordingNotifier struct {
	messages []notify.ReconcileMessage
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.ReconcileMessage) error {
	n.messages = append(n.messages, msg)
	return nil
}

type fixture struct {
	lineItems *memory.LineItemRepository
	duesRepo  *memory.DueRepository
	notifier  *recordingNotifier
	service   *ReconcileService
}

func newFixture(t *testing.T, members ...Member) *fixture {
	t.Helper()
	f := &fixture{
		lineItems: memory.NewLineItemRepository(),
		duesRepo:  memory.NewDueRepository(),
		notifier:  &recordingNotifier{},
	}
	service, err := NewReconcileService(f.lineItems, f.duesRepo, stubDirectory{members: members}, f.notifier, slog.Default())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.service = service
	return f
}

func (f *fixture) addFlatFee(t *testing.T, period dues.Period, amount string) *dues.LineItem {
	t.Helper()
	item, err := dues.NewFlatFee(period, "Monthly membership", decimal.RequireFromString(amount))
	if err != nil {
		t.Fatalf("flat fee: %v", err)
	}
	if err := f.lineItems.Create(context.Background(), item); err != nil {
		t.Fatalf("create flat fee: %v", err)
	}
	return item
}

func (f *fixture) addBenefit(t *testing.T, period dues.Period, label, amount, beneficiaryID string) *dues.LineItem {
	t.Helper()
	item, err := dues.NewBenefit(period, label, decimal.RequireFromString(amount), beneficiaryID)
	if err != nil {
		t.Fatalf("benefit: %v", err)
	}
	if err := f.lineItems.Create(context.Background(), item); err != nil {
		t.Fatalf("create benefit: %v", err)
	}
	return item
}

func (f *fixture) billMember(t *testing.T, memberID string, period dues.Period) *dues.MemberDue {
	t.Helper()
	ctx := context.Background()
	items, err := f.lineItems.ListByPeriod(ctx, period)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	due, err := dues.NewMemberDue(dues.Evaluate(memberID, period, items, nil))
	if err != nil {
		t.Fatalf("new due: %v", err)
	}
	if err := f.duesRepo.Create(ctx, due); err != nil {
		t.Fatalf("create due: %v", err)
	}
	return due
}

func TestReconcileFixesDriftAndPreservesPayments(t *testing.T) {
	period := dues.Period("2024-03")
	f := newFixture(t, Member{ID: "m1", FullName: "Alice Martin"}, Member{ID: "m2", FullName: "Bruno Keller"})
	f.addFlatFee(t, period, "10.00")
	benefit := f.addBenefit(t, period, "Birth gift", "45.00", "m1")
	f.billMember(t, "m1", period)
	m2Due := f.billMember(t, "m2", period)

	// m2 pays 20 before the benefit amount is corrected.
	if err := m2Due.RecordPayment(decimal.RequireFromString("20.00")); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if err := f.duesRepo.Update(context.Background(), m2Due); err != nil {
		t.Fatalf("persist payment: %v", err)
	}

	// Correct the benefit from 45 to 50.
	if err := f.lineItems.Delete(context.Background(), benefit.ID); err != nil {
		t.Fatalf("delete benefit: %v", err)
	}
	f.addBenefit(t, period, "Birth gift", "50.00", "m1")

	report, err := f.service.Run(context.Background(), period.String(), false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Checked != 2 {
		t.Fatalf("expected 2 checked, got %d", report.Checked)
	}
	if report.Errored != 0 || report.PeriodsSkipped != 0 {
		t.Fatalf("unexpected errors in report: %+v", report)
	}

	stored, ok := f.duesRepo.Get(m2Due.ID)
	if !ok {
		t.Fatal("due disappeared")
	}
	if stored.ExpectedAmount.String() != "60" {
		t.Fatalf("expected 60, got %s", stored.ExpectedAmount)
	}
	if stored.PaidAmount.String() != "20" {
		t.Fatalf("paid amount must survive reconciliation, got %s", stored.PaidAmount)
	}
	if stored.RemainingAmount.String() != "40" {
		t.Fatalf("expected remaining 40, got %s", stored.RemainingAmount)
	}
	if stored.Status != dues.StatusPartiallyPaid {
		t.Fatalf("expected partially_paid, got %s", stored.Status)
	}
	if len(f.notifier.messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.messages))
	}
}

func TestReconcileIdempotent(t *testing.T) {
	period := dues.Period("2024-03")
	f := newFixture(t, Member{ID: "m1"}, Member{ID: "m2"})
	f.addFlatFee(t, period, "10.00")
	f.addBenefit(t, period, "Birth gift", "50.00", "m1")
	f.billMember(t, "m1", period)
	f.billMember(t, "m2", period)

	first, err := f.service.Run(context.Background(), period.String(), false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := f.service.Run(context.Background(), period.String(), false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Updated != 0 || second.Updated != 0 {
		t.Fatalf("billing already matched the schedule, expected no updates: %d then %d", first.Updated, second.Updated)
	}
	if f.duesRepo.Updates != 0 {
		t.Fatalf("expected no persisted updates, got %d", f.duesRepo.Updates)
	}
}

func TestReconcileSkipsStructurallyBrokenPeriod(t *testing.T) {
	broken := dues.Period("2024-02")
	healthy := dues.Period("2024-03")
	f := newFixture(t, Member{ID: "m1"}, Member{ID: "m2"})

	// The broken period lost its flat fee after billing.
	fee := f.addFlatFee(t, broken, "10.00")
	f.billMember(t, "m1", broken)
	if err := f.lineItems.Delete(context.Background(), fee.ID); err != nil {
		t.Fatalf("delete fee: %v", err)
	}

	f.addFlatFee(t, healthy, "10.00")
	f.billMember(t, "m1", healthy)
	f.addBenefit(t, healthy, "Wedding gift", "30.00", "m1")

	report, err := f.service.Run(context.Background(), "", false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.PeriodsSkipped != 1 {
		t.Fatalf("expected 1 skipped period, got %d", report.PeriodsSkipped)
	}
	var brokenReport *PeriodReport
	for i := range report.Periods {
		if report.Periods[i].Period == broken {
			brokenReport = &report.Periods[i]
		}
	}
	if brokenReport == nil || !brokenReport.Skipped() {
		t.Fatalf("broken period not reported as skipped: %+v", report.Periods)
	}
	if brokenReport.Checked != 0 || brokenReport.Updated != 0 {
		t.Fatalf("skipped period must not touch records: %+v", brokenReport)
	}
	// The healthy period is still processed in the same run.
	if report.Checked != 1 {
		t.Fatalf("expected the healthy period's record checked, got %d", report.Checked)
	}
}

func TestReconcileDryRunPersistsNothing(t *testing.T) {
	period := dues.Period("2024-03")
	f := newFixture(t, Member{ID: "m1"}, Member{ID: "m2"})
	fee := f.addFlatFee(t, period, "10.00")
	due := f.billMember(t, "m2", period)
	if err := f.lineItems.Delete(context.Background(), fee.ID); err != nil {
		t.Fatalf("delete fee: %v", err)
	}
	f.addFlatFee(t, period, "15.00")

	report, err := f.service.Run(context.Background(), period.String(), true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Updated != 1 {
		t.Fatalf("dry run must report the staged update, got %d", report.Updated)
	}
	if f.duesRepo.Updates != 0 {
		t.Fatalf("dry run must not persist, got %d updates", f.duesRepo.Updates)
	}
	stored, _ := f.duesRepo.Get(due.ID)
	if stored.ExpectedAmount.String() != "10" {
		t.Fatalf("stored record must be untouched, got %s", stored.ExpectedAmount)
	}
	if len(f.notifier.messages) != 0 {
		t.Fatalf("dry run must not notify, got %d messages", len(f.notifier.messages))
	}
}

func TestReconcileToleratesRecordPersistenceErrors(t *testing.T) {
	period := dues.Period("2024-03")
	f := newFixture(t, Member{ID: "m1"}, Member{ID: "m2"})
	fee := f.addFlatFee(t, period, "10.00")
	f.billMember(t, "m1", period)
	f.billMember(t, "m2", period)
	if err := f.lineItems.Delete(context.Background(), fee.ID); err != nil {
		t.Fatalf("delete fee: %v", err)
	}
	f.addFlatFee(t, period, "12.00")

	f.duesRepo.UpdateErr = errors.New("connection reset")
	report, err := f.service.Run(context.Background(), period.String(), false)
	if err != nil {
		t.Fatalf("persistence errors must not abort the run: %v", err)
	}
	if report.Checked != 2 {
		t.Fatalf("expected both records checked, got %d", report.Checked)
	}
	if report.Errored != 2 {
		t.Fatalf("expected 2 errored records, got %d", report.Errored)
	}
	if report.Updated != 0 {
		t.Fatalf("failed updates must not count as updated, got %d", report.Updated)
	}
}

func TestReconcileInvalidPeriodFailsSetup(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.Run(context.Background(), "not-a-period", false); !errors.Is(err, dues.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t, Member{ID: "m1"}, Member{ID: "m2"})
	old := dues.Period("2024-01")
	current := dues.Period("2024-03")

	f.addFlatFee(t, old, "10.00")
	f.billMember(t, "m1", old)
	paid := f.billMember(t, "m2", old)
	if err := paid.RecordPayment(decimal.RequireFromString("10.00")); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if err := f.duesRepo.Update(context.Background(), paid); err != nil {
		t.Fatalf("persist payment: %v", err)
	}

	f.addFlatFee(t, current, "10.00")
	f.billMember(t, "m1", current)

	marked, err := f.service.MarkOverdue(context.Background(), current)
	if err != nil {
		t.Fatalf("mark overdue: %v", err)
	}
	if marked != 1 {
		t.Fatalf("expected 1 marked, got %d", marked)
	}
	list, err := f.duesRepo.ListByMember(context.Background(), "m1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, due := range list {
		switch due.Period {
		case old:
			if due.Status != dues.StatusOverdue {
				t.Fatalf("old pending due must be overdue, got %s", due.Status)
			}
		case current:
			if due.Status != dues.StatusPending {
				t.Fatalf("current period must stay pending, got %s", due.Status)
			}
		}
	}
}
