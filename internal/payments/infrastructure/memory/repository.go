package memory

import (
	"context"
	"sync"

	dues "amicale-backend/internal/dues/domain"
	payments "amicale-backend/internal/payments/domain"
)

// PaymentRepository is an in-memory payment store for tests.
type PaymentRepository struct {
	mu    sync.Mutex
	items []payments.Payment
}

// NewPaymentRepository constructs an empty repository.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

// Create appends a payment.
func (r *PaymentRepository) Create(_ context.Context, payment *payments.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *payment)
	return nil
}

// ListByMember returns a member's payments in insertion order.
func (r *PaymentRepository) ListByMember(_ context.Context, memberID string) ([]payments.Payment, error) {
	return r.filtered(func(p payments.Payment) bool { return p.MemberID == memberID }), nil
}

// ListByPeriod returns a period's payments in insertion order.
func (r *PaymentRepository) ListByPeriod(_ context.Context, period dues.Period) ([]payments.Payment, error) {
	return r.filtered(func(p payments.Payment) bool { return p.Period == period }), nil
}

func (r *PaymentRepository) filtered(keep func(payments.Payment) bool) []payments.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []payments.Payment
	for _, payment := range r.items {
		if keep(payment) {
			result = append(result, payment)
		}
	}
	return result
}
