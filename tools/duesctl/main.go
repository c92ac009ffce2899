package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	duesapp "amicale-backend/internal/dues/application"
	dues "amicale-backend/internal/dues/domain"
	duesrepo "amicale-backend/internal/dues/infrastructure/postgres"
	duesinterfaces "amicale-backend/internal/dues/interfaces"
	membersapp "amicale-backend/internal/members/application"
	membersrepo "amicale-backend/internal/members/infrastructure/postgres"
	"amicale-backend/internal/observability/logging"
	paymentsrepo "amicale-backend/internal/payments/infrastructure/postgres"
)

// duesctl is the treasurer's command line: reconcile, bill, mark overdue
// and export without going through the HTTP API.
func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type toolkit struct {
	db        *sql.DB
	billing   *duesapp.BillingService
	reconcile *duesapp.ReconcileService
	directory *membersapp.Directory
	members   *membersrepo.MemberRepository
	payments  *paymentsrepo.PaymentRepository
	currency  string
}

func openToolkit() (*toolkit, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("PG_DSN")
	}
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL or PG_DSN is required")
	}
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	logger := logging.New()
	duesCfg, err := duesapp.LoadConfig()
	if err != nil {
		db.Close()
		return nil, err
	}
	memberRepo := membersrepo.NewMemberRepository(db)
	directory := membersapp.NewDirectory(memberRepo)
	lineItemRepo := duesrepo.NewLineItemRepository(db)
	dueRepo := duesrepo.NewDueRepository(db)

	billing, err := duesapp.NewBillingService(lineItemRepo, dueRepo, directory, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	reconcile, err := duesapp.NewReconcileService(lineItemRepo, dueRepo, directory, nil, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &toolkit{
		db:        db,
		billing:   billing,
		reconcile: reconcile,
		directory: directory,
		members:   memberRepo,
		payments:  paymentsrepo.NewPaymentRepository(db),
		currency:  duesCfg.Currency,
	}, nil
}

func (t *toolkit) Close() { _ = t.db.Close() }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "duesctl",
		Short:         "Operate the dues ledger from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReconcileCmd())
	root.AddCommand(newBillCmd())
	root.AddCommand(newOverdueCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newStatementCmd())
	return root
}

func newReconcileCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reconcile [period]",
		Short: "Recompute expected dues and fix drifted records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openToolkit()
			if err != nil {
				return err
			}
			defer t.Close()

			period := ""
			if len(args) == 1 {
				period = args[0]
			}
			report, err := t.reconcile.Run(cmd.Context(), period, dryRun)
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without persisting")
	return cmd
}

func printReport(cmd *cobra.Command, report duesapp.Report) {
	mode := "applied"
	if report.DryRun {
		mode = "dry run"
	}
	cmd.Printf("reconciliation (%s): %d checked, %d updated, %d errored, %d periods skipped\n",
		mode, report.Checked, report.Updated, report.Errored, report.PeriodsSkipped)
	for _, period := range report.Periods {
		if period.Skipped() {
			cmd.Printf("  %s: skipped (%s)\n", period.Period, period.StructuralError)
			continue
		}
		for _, change := range period.Changes {
			cmd.Printf("  %s %s: expected %s -> %s, remaining %s -> %s\n",
				period.Period, change.MemberID,
				change.OldExpected.StringFixed(2), change.NewExpected.StringFixed(2),
				change.OldRemaining.StringFixed(2), change.NewRemaining.StringFixed(2))
		}
	}
}

func newBillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bill <period>",
		Short: "Create due records for every active member in a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openToolkit()
			if err != nil {
				return err
			}
			defer t.Close()

			created, err := t.billing.BillPeriod(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("billed %s: %d dues created\n", args[0], created)
			return nil
		},
	}
}

func newOverdueCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Flag pending dues from periods before the cutoff as overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openToolkit()
			if err != nil {
				return err
			}
			defer t.Close()

			cutoff := dues.PeriodOf(time.Now().UTC())
			if asOf != "" {
				cutoff, err = dues.ParsePeriod(asOf)
				if err != nil {
					return err
				}
			}
			flagged, err := t.reconcile.MarkOverdue(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			cmd.Printf("marked %d dues overdue (periods before %s)\n", flagged, cutoff)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "cutoff period (YYYY-MM), defaults to the current month")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <period>",
		Short: "Write a period's dues ledger as an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openToolkit()
			if err != nil {
				return err
			}
			defer t.Close()

			period, err := dues.ParsePeriod(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			items, err := t.billing.ListLineItems(ctx, args[0])
			if err != nil {
				return err
			}
			list, err := t.billing.DuesByPeriod(ctx, args[0])
			if err != nil {
				return err
			}
			data, err := duesinterfaces.BuildPeriodDuesXLSX(period, t.currency, items, list, nameResolver(ctx, t.directory))
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("dues-%s.xlsx", period)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			cmd.Printf("wrote %s (%d dues)\n", out, len(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file, defaults to dues-<period>.xlsx")
	return cmd
}

func newStatementCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "statement <member-id>",
		Short: "Write a member's statement as a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openToolkit()
			if err != nil {
				return err
			}
			defer t.Close()

			ctx := cmd.Context()
			member, err := t.members.GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			if member == nil {
				return fmt.Errorf("member %s not found", args[0])
			}
			list, err := t.billing.DuesByMember(ctx, member.ID)
			if err != nil {
				return err
			}
			history, err := t.payments.ListByMember(ctx, member.ID)
			if err != nil {
				return err
			}
			data, err := duesinterfaces.BuildMemberStatementPDF(member, t.currency, list, history)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("statement-%s.pdf", member.ID)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file, defaults to statement-<member-id>.pdf")
	return cmd
}

func nameResolver(ctx context.Context, directory *membersapp.Directory) dues.MemberNameResolver {
	all, err := directory.ListAll(ctx)
	if err != nil {
		return nil
	}
	names := make(map[string]string, len(all))
	for _, member := range all {
		names[member.ID] = member.FullName
	}
	return func(memberID string) string { return names[memberID] }
}
