package notify

import "context"

// ReconcileMessage summarizes one reconciliation run for operators.
type ReconcileMessage struct {
	Period         string         `json:"period,omitempty"`
	DryRun         bool           `json:"dry_run"`
	Checked        int            `json:"checked"`
	Updated        int            `json:"updated"`
	Errored        int            `json:"errored"`
	PeriodsSkipped int            `json:"periods_skipped"`
	PeriodErrors   map[string]any `json:"period_errors,omitempty"`
}

// Notifier sends reconciliation notifications.
type Notifier interface {
	Notify(ctx context.Context, msg ReconcileMessage) error
}
