package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	dues "amicale-backend/internal/dues/domain"
	"amicale-backend/internal/observability/metrics"
	payments "amicale-backend/internal/payments/domain"
)

// ErrNoDue is returned when a payment targets a member/period with no due.
var ErrNoDue = errors.New("payments: no due for member and period")

// Service records payments against member dues. It is the only writer of
// a due's paid amount.
type Service struct {
	payments payments.Repository
	duesRepo dues.DueRepository
	logger   *slog.Logger
}

// NewService constructs the service.
func NewService(paymentRepo payments.Repository, duesRepo dues.DueRepository, logger *slog.Logger) (*Service, error) {
	if paymentRepo == nil {
		return nil, errors.New("payment service: nil payment repository")
	}
	if duesRepo == nil {
		return nil, errors.New("payment service: nil due repository")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{payments: paymentRepo, duesRepo: duesRepo, logger: logger}, nil
}

// Record applies a payment to the member's due for the period and persists
// both. The due must already exist; payments never create dues.
func (s *Service) Record(
	ctx context.Context,
	memberID string,
	period dues.Period,
	amount decimal.Decimal,
	method, reference, recordedBy string,
) (*payments.Payment, *dues.MemberDue, error) {
	payment, err := payments.NewPayment(memberID, period, amount, method, reference, recordedBy)
	if err != nil {
		return nil, nil, err
	}

	due, err := s.duesRepo.FindByMemberAndPeriod(ctx, memberID, period)
	if err != nil {
		return nil, nil, err
	}
	if due == nil {
		return nil, nil, ErrNoDue
	}
	if err := due.RecordPayment(amount); err != nil {
		return nil, nil, err
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, nil, err
	}
	if err := s.duesRepo.Update(ctx, due); err != nil {
		return nil, nil, err
	}

	metrics.IncPaymentRecorded(payment.Method)
	s.logger.Info("payment recorded",
		"payment_id", payment.ID,
		"member_id", memberID,
		"period", period.String(),
		"amount", amount.StringFixed(2),
		"method", method,
		"status", string(due.Status),
	)
	return payment, due, nil
}

// ListByMember returns a member's payment history.
func (s *Service) ListByMember(ctx context.Context, memberID string) ([]payments.Payment, error) {
	return s.payments.ListByMember(ctx, memberID)
}

// ListByPeriod returns payments recorded for a period.
func (s *Service) ListByPeriod(ctx context.Context, period dues.Period) ([]payments.Payment, error) {
	return s.payments.ListByPeriod(ctx, period)
}
