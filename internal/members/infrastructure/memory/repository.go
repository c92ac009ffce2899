package memory

import (
	"context"
	"sort"
	"sync"

	members "amicale-backend/internal/members/domain"
)

// MemberRepository is an in-memory member store for tests.
type MemberRepository struct {
	mu    sync.Mutex
	items map[string]members.Member
}

// NewMemberRepository constructs an empty repository.
func NewMemberRepository() *MemberRepository {
	return &MemberRepository{items: make(map[string]members.Member)}
}

// Create inserts a member.
func (r *MemberRepository) Create(_ context.Context, member *members.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[member.ID] = *member
	return nil
}

// Update rewrites a member.
func (r *MemberRepository) Update(_ context.Context, member *members.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[member.ID]; !ok {
		return members.ErrNotFound
	}
	r.items[member.ID] = *member
	return nil
}

// GetByID loads one member, or nil when absent.
func (r *MemberRepository) GetByID(_ context.Context, id string) (*members.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if member, ok := r.items[id]; ok {
		copied := member
		return &copied, nil
	}
	return nil, nil
}

// GetByEmail loads one member by email, or nil when absent.
func (r *MemberRepository) GetByEmail(_ context.Context, email string) (*members.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.items {
		if member.Email == email {
			copied := member
			return &copied, nil
		}
	}
	return nil, nil
}

// List returns all members ordered by name.
func (r *MemberRepository) List(_ context.Context) ([]members.Member, error) {
	return r.filtered(func(members.Member) bool { return true }), nil
}

// ListActive returns billable members ordered by name.
func (r *MemberRepository) ListActive(_ context.Context) ([]members.Member, error) {
	return r.filtered(func(m members.Member) bool { return m.Status == members.StatusActive }), nil
}

func (r *MemberRepository) filtered(keep func(members.Member) bool) []members.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []members.Member
	for _, member := range r.items {
		if keep(member) {
			result = append(result, member)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FullName != result[j].FullName {
			return result[i].FullName < result[j].FullName
		}
		return result[i].ID < result[j].ID
	})
	return result
}
