package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dues "amicale-backend/internal/dues/domain"
)

const (
	MethodCash     = "cash"
	MethodTransfer = "transfer"
	MethodCard     = "card"
)

var (
	// ErrInvalidMethod is returned for an unknown payment method.
	ErrInvalidMethod = errors.New("payments: invalid method")
	// ErrNonPositiveAmount is returned when an amount is zero or negative.
	ErrNonPositiveAmount = errors.New("payments: non-positive amount")
	// ErrEmptyMemberID is returned when a member id is empty.
	ErrEmptyMemberID = errors.New("payments: empty member id")
)

// Payment is a recorded contribution against one member due.
type Payment struct {
	ID         string
	MemberID   string
	Period     dues.Period
	Amount     decimal.Decimal
	Method     string
	Reference  string
	RecordedBy string
	CreatedAt  time.Time
}

// NewPayment validates and creates a payment record.
func NewPayment(memberID string, period dues.Period, amount decimal.Decimal, method, reference, recordedBy string) (*Payment, error) {
	if memberID == "" {
		return nil, ErrEmptyMemberID
	}
	if _, err := dues.ParsePeriod(period.String()); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	switch method {
	case MethodCash, MethodTransfer, MethodCard:
	default:
		return nil, ErrInvalidMethod
	}
	return &Payment{
		ID:         uuid.New().String(),
		MemberID:   memberID,
		Period:     period,
		Amount:     amount,
		Method:     method,
		Reference:  reference,
		RecordedBy: recordedBy,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Repository persists payments.
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	ListByMember(ctx context.Context, memberID string) ([]Payment, error)
	ListByPeriod(ctx context.Context, period dues.Period) ([]Payment, error)
}
