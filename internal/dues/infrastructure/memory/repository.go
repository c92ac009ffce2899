package memory

import (
	"context"
	"sort"
	"sync"

	dues "amicale-backend/internal/dues/domain"
)

// LineItemRepository is an in-memory repository for line items.
type LineItemRepository struct {
	mu    sync.RWMutex
	items map[string]dues.LineItem
	order []string
}

// NewLineItemRepository constructs a repository.
func NewLineItemRepository() *LineItemRepository {
	return &LineItemRepository{items: make(map[string]dues.LineItem)}
}

// Create stores a line item.
func (r *LineItemRepository) Create(ctx context.Context, item *dues.LineItem) error {
	_ = ctx
	if item == nil {
		return dues.ErrLineItemNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[item.ID]; !exists {
		r.order = append(r.order, item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

// Delete removes a line item.
func (r *LineItemRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[id]; !exists {
		return dues.ErrLineItemNotFound
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListByPeriod returns items in insertion order.
func (r *LineItemRepository) ListByPeriod(ctx context.Context, period dues.Period) ([]dues.LineItem, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []dues.LineItem
	for _, id := range r.order {
		item := r.items[id]
		if item.Period == period {
			result = append(result, item)
		}
	}
	return result, nil
}

// DueRepository is an in-memory repository for member dues.
type DueRepository struct {
	mu   sync.RWMutex
	data map[string]dues.MemberDue

	// UpdateErr, when set, is returned by Update to simulate persistence
	// failures in tests.
	UpdateErr error
	// Updates counts successful Update calls.
	Updates int
}

// NewDueRepository constructs a repository.
func NewDueRepository() *DueRepository {
	return &DueRepository{data: make(map[string]dues.MemberDue)}
}

// Create stores a due record.
func (r *DueRepository) Create(ctx context.Context, due *dues.MemberDue) error {
	_ = ctx
	if due == nil {
		return dues.ErrNilDue
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[due.ID] = *due
	return nil
}

// Update overwrites a stored due record.
func (r *DueRepository) Update(ctx context.Context, due *dues.MemberDue) error {
	_ = ctx
	if due == nil {
		return dues.ErrNilDue
	}
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[due.ID]; !exists {
		return dues.ErrDueNotFound
	}
	r.data[due.ID] = *due
	r.Updates++
	return nil
}

// FindByMemberAndPeriod loads one due record, nil when absent.
func (r *DueRepository) FindByMemberAndPeriod(ctx context.Context, memberID string, period dues.Period) (*dues.MemberDue, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, due := range r.data {
		if due.MemberID == memberID && due.Period == period {
			copy := due
			return &copy, nil
		}
	}
	return nil, nil
}

// ListByPeriod returns a period's due records ordered by member id.
func (r *DueRepository) ListByPeriod(ctx context.Context, period dues.Period) ([]dues.MemberDue, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []dues.MemberDue
	for _, due := range r.data {
		if due.Period == period {
			result = append(result, due)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MemberID < result[j].MemberID })
	return result, nil
}

// ListByMember returns a member's due records, newest period first.
func (r *DueRepository) ListByMember(ctx context.Context, memberID string) ([]dues.MemberDue, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []dues.MemberDue
	for _, due := range r.data {
		if due.MemberID == memberID {
			result = append(result, due)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[j].Period.Before(result[i].Period) })
	return result, nil
}

// ListPendingBefore returns pending dues of periods strictly before the cutoff.
func (r *DueRepository) ListPendingBefore(ctx context.Context, before dues.Period) ([]dues.MemberDue, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []dues.MemberDue
	for _, due := range r.data {
		if due.Status == dues.StatusPending && due.Period.Before(before) {
			result = append(result, due)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MemberID < result[j].MemberID })
	return result, nil
}

// DistinctPeriods returns every period with at least one due record.
func (r *DueRepository) DistinctPeriods(ctx context.Context) ([]dues.Period, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[dues.Period]struct{})
	for _, due := range r.data {
		seen[due.Period] = struct{}{}
	}
	var result []dues.Period
	for period := range seen {
		result = append(result, period)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	return result, nil
}

// Get returns a stored due by id for assertion convenience.
func (r *DueRepository) Get(id string) (dues.MemberDue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	due, ok := r.data[id]
	return due, ok
}
