package dues

import "context"

// LineItemRepository persists the charge definitions of billing periods.
type LineItemRepository interface {
	Create(ctx context.Context, item *LineItem) error
	Delete(ctx context.Context, id string) error
	// ListByPeriod returns items in a stable order (creation order).
	ListByPeriod(ctx context.Context, period Period) ([]LineItem, error)
}

// DueRepository persists member due records.
type DueRepository interface {
	Create(ctx context.Context, due *MemberDue) error
	Update(ctx context.Context, due *MemberDue) error
	FindByMemberAndPeriod(ctx context.Context, memberID string, period Period) (*MemberDue, error)
	ListByPeriod(ctx context.Context, period Period) ([]MemberDue, error)
	ListByMember(ctx context.Context, memberID string) ([]MemberDue, error)
	// ListPendingBefore returns pending dues of periods strictly before the cutoff.
	ListPendingBefore(ctx context.Context, before Period) ([]MemberDue, error)
	// DistinctPeriods returns every period with at least one due record.
	DistinctPeriods(ctx context.Context) ([]Period, error)
}
