package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	dues "amicale-backend/internal/dues/domain"
	"amicale-backend/internal/observability/metrics"
)

// BillingService plans a period's charges and creates member due records.
type BillingService struct {
	lineItems dues.LineItemRepository
	duesRepo  dues.DueRepository
	directory MemberDirectory
	logger    *slog.Logger
}

// NewBillingService constructs the service.
func NewBillingService(
	lineItems dues.LineItemRepository,
	duesRepo dues.DueRepository,
	directory MemberDirectory,
	logger *slog.Logger,
) (*BillingService, error) {
	if lineItems == nil {
		return nil, errors.New("billing service: nil line item repository")
	}
	if duesRepo == nil {
		return nil, errors.New("billing service: nil due repository")
	}
	if directory == nil {
		return nil, errors.New("billing service: nil member directory")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BillingService{
		lineItems: lineItems,
		duesRepo:  duesRepo,
		directory: directory,
		logger:    logger,
	}, nil
}

// PlanFlatFee creates the mandatory fee for a period. A period carries
// exactly one flat fee.
func (s *BillingService) PlanFlatFee(ctx context.Context, period, label string, amount decimal.Decimal) (*dues.LineItem, error) {
	parsed, err := dues.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	existing, err := s.lineItems.ListByPeriod(ctx, parsed)
	if err != nil {
		return nil, err
	}
	for _, item := range existing {
		if item.IsFlatFee() {
			return nil, dues.ErrDuplicateFlatFee
		}
	}
	item, err := dues.NewFlatFee(parsed, label, amount)
	if err != nil {
		return nil, err
	}
	if err := s.lineItems.Create(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("flat fee planned", "period", parsed, "amount", amount.StringFixed(2))
	return item, nil
}

// PlanBenefit creates an assistance charge for a period.
func (s *BillingService) PlanBenefit(ctx context.Context, period, label string, amount decimal.Decimal, beneficiaryID string) (*dues.LineItem, error) {
	parsed, err := dues.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	item, err := dues.NewBenefit(parsed, label, amount, beneficiaryID)
	if err != nil {
		return nil, err
	}
	if beneficiaryID == "" {
		// Charged to everyone with nobody exempt; flagged for operators.
		s.logger.Warn("benefit planned without beneficiary", "period", parsed, "label", label)
	}
	if err := s.lineItems.Create(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("benefit planned", "period", parsed, "label", label, "amount", amount.StringFixed(2))
	return item, nil
}

// RemoveLineItem deletes a charge definition. Existing dues are brought back
// into agreement by the next reconciliation run.
func (s *BillingService) RemoveLineItem(ctx context.Context, id string) error {
	if id == "" {
		return dues.ErrLineItemNotFound
	}
	return s.lineItems.Delete(ctx, id)
}

// ListLineItems returns a period's charge definitions.
func (s *BillingService) ListLineItems(ctx context.Context, period string) ([]dues.LineItem, error) {
	parsed, err := dues.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	return s.lineItems.ListByPeriod(ctx, parsed)
}

// BillPeriod creates a due record for every active member not yet billed in
// the period. Billing requires a structurally valid schedule; drift on
// already-billed members is reconciliation's job.
func (s *BillingService) BillPeriod(ctx context.Context, period string) (int, error) {
	parsed, err := dues.ParsePeriod(period)
	if err != nil {
		return 0, err
	}
	items, err := s.lineItems.ListByPeriod(ctx, parsed)
	if err != nil {
		return 0, err
	}
	if err := dues.ValidateSchedule(parsed, items); err != nil {
		return 0, err
	}

	active, err := s.directory.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	names := make(map[string]string, len(active))
	for _, member := range active {
		names[member.ID] = member.FullName
	}
	resolver := func(memberID string) string { return names[memberID] }

	created := 0
	for _, member := range active {
		existing, err := s.duesRepo.FindByMemberAndPeriod(ctx, member.ID, parsed)
		if err != nil {
			s.logger.Error("due lookup failed", "period", parsed, "member_id", member.ID, "error", err)
			continue
		}
		if existing != nil {
			continue
		}
		due, err := dues.NewMemberDue(dues.Evaluate(member.ID, parsed, items, resolver))
		if err != nil {
			return created, err
		}
		if err := s.duesRepo.Create(ctx, due); err != nil {
			s.logger.Error("due create failed", "period", parsed, "member_id", member.ID, "error", err)
			continue
		}
		created++
	}

	metrics.AddDuesCreated(created)
	s.logger.Info("period billed", "period", parsed, "created", created, "members", len(active))
	return created, nil
}

// DuesByPeriod returns every due record of a period.
func (s *BillingService) DuesByPeriod(ctx context.Context, period string) ([]dues.MemberDue, error) {
	parsed, err := dues.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	return s.duesRepo.ListByPeriod(ctx, parsed)
}

// DuesByMember returns a member's full due history.
func (s *BillingService) DuesByMember(ctx context.Context, memberID string) ([]dues.MemberDue, error) {
	if memberID == "" {
		return nil, dues.ErrEmptyMemberID
	}
	return s.duesRepo.ListByMember(ctx, memberID)
}
