package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	dues "amicale-backend/internal/dues/domain"
	"amicale-backend/internal/dues/notify"
	"amicale-backend/internal/observability/metrics"
)

// Member is the directory view of a member used for billing and breakdowns.
type Member struct {
	ID       string
	FullName string
}

// MemberDirectory exposes the member lookups the dues services need.
type MemberDirectory interface {
	ListAll(ctx context.Context) ([]Member, error)
	ListActive(ctx context.Context) ([]Member, error)
}

// DueChange describes one staged (or applied) due update.
type DueChange struct {
	MemberID     string          `json:"member_id"`
	OldExpected  decimal.Decimal `json:"old_expected"`
	NewExpected  decimal.Decimal `json:"new_expected"`
	OldRemaining decimal.Decimal `json:"old_remaining"`
	NewRemaining decimal.Decimal `json:"new_remaining"`
}

// PeriodReport is the reconciliation outcome for one period.
type PeriodReport struct {
	Period          dues.Period `json:"period"`
	Checked         int         `json:"checked"`
	Updated         int         `json:"updated"`
	Errored         int         `json:"errored"`
	StructuralError string      `json:"structural_error,omitempty"`
	Changes         []DueChange `json:"changes,omitempty"`
}

// Skipped reports whether the period was skipped for a structural error.
func (r PeriodReport) Skipped() bool { return r.StructuralError != "" }

// Report is the outcome of a whole reconciliation run. Under dry run the
// counts describe what would change.
type Report struct {
	DryRun         bool           `json:"dry_run"`
	Periods        []PeriodReport `json:"periods"`
	Checked        int            `json:"checked"`
	Updated        int            `json:"updated"`
	Errored        int            `json:"errored"`
	PeriodsSkipped int            `json:"periods_skipped"`
}

// ReconcileService brings member due records back into agreement with the
// evaluator output, without disturbing recorded payments.
type ReconcileService struct {
	lineItems dues.LineItemRepository
	duesRepo  dues.DueRepository
	directory MemberDirectory
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewReconcileService constructs the service. notifier may be nil.
func NewReconcileService(
	lineItems dues.LineItemRepository,
	duesRepo dues.DueRepository,
	directory MemberDirectory,
	notifier notify.Notifier,
	logger *slog.Logger,
) (*ReconcileService, error) {
	if lineItems == nil {
		return nil, errors.New("reconcile service: nil line item repository")
	}
	if duesRepo == nil {
		return nil, errors.New("reconcile service: nil due repository")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		lineItems: lineItems,
		duesRepo:  duesRepo,
		directory: directory,
		notifier:  notifier,
		logger:    logger,
	}, nil
}

// Run reconciles one period, or every period with due records when period is
// empty. Structural errors skip their period; persistence errors skip their
// record; both are counted and never abort the run. Returns an error only
// when the run could not start at all.
func (s *ReconcileService) Run(ctx context.Context, period string, dryRun bool) (Report, error) {
	start := time.Now()
	report := Report{DryRun: dryRun}

	periods, err := s.targetPeriods(ctx, period)
	if err != nil {
		metrics.ObserveReconcileRun(metrics.ResultError, time.Since(start), 0, 0, 0)
		return report, err
	}

	resolver := s.nameResolver(ctx)

	for _, p := range periods {
		periodReport := s.reconcilePeriod(ctx, p, dryRun, resolver)
		report.Periods = append(report.Periods, periodReport)
		report.Checked += periodReport.Checked
		report.Updated += periodReport.Updated
		report.Errored += periodReport.Errored
		if periodReport.Skipped() {
			report.PeriodsSkipped++
		}
	}

	result := metrics.ResultSuccess
	if report.Errored > 0 || report.PeriodsSkipped > 0 {
		result = metrics.ResultError
	}
	metrics.ObserveReconcileRun(result, time.Since(start), report.Updated, report.Errored, report.PeriodsSkipped)

	s.logger.Info("reconciliation finished",
		"period", period,
		"dry_run", dryRun,
		"checked", report.Checked,
		"updated", report.Updated,
		"errored", report.Errored,
		"periods_skipped", report.PeriodsSkipped,
	)

	if !dryRun && s.notifier != nil && (report.Updated > 0 || report.Errored > 0 || report.PeriodsSkipped > 0) {
		msg := notify.ReconcileMessage{
			Period:         period,
			DryRun:         dryRun,
			Checked:        report.Checked,
			Updated:        report.Updated,
			Errored:        report.Errored,
			PeriodsSkipped: report.PeriodsSkipped,
			PeriodErrors:   periodErrors(report.Periods),
		}
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.Warn("reconcile notification failed", "error", err)
		}
	}

	return report, nil
}

func (s *ReconcileService) targetPeriods(ctx context.Context, period string) ([]dues.Period, error) {
	if period != "" {
		parsed, err := dues.ParsePeriod(period)
		if err != nil {
			return nil, err
		}
		return []dues.Period{parsed}, nil
	}
	return s.duesRepo.DistinctPeriods(ctx)
}

func (s *ReconcileService) nameResolver(ctx context.Context) dues.MemberNameResolver {
	if s.directory == nil {
		return nil
	}
	all, err := s.directory.ListAll(ctx)
	if err != nil {
		s.logger.Warn("member directory unavailable, breakdowns use raw ids", "error", err)
		return nil
	}
	names := make(map[string]string, len(all))
	for _, member := range all {
		names[member.ID] = member.FullName
	}
	return func(memberID string) string { return names[memberID] }
}

func (s *ReconcileService) reconcilePeriod(ctx context.Context, period dues.Period, dryRun bool, resolver dues.MemberNameResolver) PeriodReport {
	report := PeriodReport{Period: period}

	items, err := s.lineItems.ListByPeriod(ctx, period)
	if err != nil {
		report.StructuralError = err.Error()
		s.logger.Error("line item load failed, period skipped", "period", period, "error", err)
		return report
	}
	if err := dues.ValidateSchedule(period, items); err != nil {
		report.StructuralError = err.Error()
		s.logger.Error("period schedule invalid, period skipped", "period", period, "error", err)
		return report
	}

	records, err := s.duesRepo.ListByPeriod(ctx, period)
	if err != nil {
		report.StructuralError = err.Error()
		s.logger.Error("due load failed, period skipped", "period", period, "error", err)
		return report
	}

	for i := range records {
		due := records[i]
		report.Checked++

		assessment := dues.Evaluate(due.MemberID, period, items, resolver)
		oldExpected := due.ExpectedAmount
		oldRemaining := due.RemainingAmount
		if !due.ApplyAssessment(assessment) {
			continue
		}

		report.Updated++
		report.Changes = append(report.Changes, DueChange{
			MemberID:     due.MemberID,
			OldExpected:  oldExpected,
			NewExpected:  due.ExpectedAmount,
			OldRemaining: oldRemaining,
			NewRemaining: due.RemainingAmount,
		})
		s.logger.Info("due drifted",
			"period", period,
			"member_id", due.MemberID,
			"expected", due.ExpectedAmount.StringFixed(2),
			"remaining", due.RemainingAmount.StringFixed(2),
			"dry_run", dryRun,
		)

		if dryRun {
			continue
		}
		if err := s.duesRepo.Update(ctx, &due); err != nil {
			report.Updated--
			report.Errored++
			s.logger.Error("due update failed", "period", period, "member_id", due.MemberID, "error", err)
		}
	}

	return report
}

// MarkOverdue flips pending dues of periods strictly before the cutoff to
// overdue. Returns how many records changed.
func (s *ReconcileService) MarkOverdue(ctx context.Context, before dues.Period) (int, error) {
	if _, err := dues.ParsePeriod(before.String()); err != nil {
		return 0, err
	}
	pending, err := s.duesRepo.ListPendingBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	marked := 0
	for i := range pending {
		due := pending[i]
		if !due.MarkOverdue() {
			continue
		}
		if err := s.duesRepo.Update(ctx, &due); err != nil {
			s.logger.Error("overdue update failed", "period", due.Period, "member_id", due.MemberID, "error", err)
			continue
		}
		marked++
	}
	if marked > 0 {
		s.logger.Info("dues marked overdue", "before", before, "marked", marked)
	}
	return marked, nil
}

func periodErrors(periods []PeriodReport) map[string]any {
	result := make(map[string]any)
	for _, p := range periods {
		if p.StructuralError != "" {
			result[p.Period.String()] = p.StructuralError
		} else if p.Errored > 0 {
			result[p.Period.String()] = p.Errored
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
