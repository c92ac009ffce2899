package dues

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DueStatus is the derived payment state of a member due.
type DueStatus string

const (
	StatusPending       DueStatus = "pending"
	StatusPartiallyPaid DueStatus = "partially_paid"
	StatusPaid          DueStatus = "paid"
	StatusOverdue       DueStatus = "overdue"
)

// MemberDue is one member's obligation for one period, derived from the
// period's line items. ExpectedAmount, RemainingAmount, Description and
// Status are owned by reconciliation; PaidAmount is owned by payment
// recording. Records are never deleted, only superseded by new periods.
type MemberDue struct {
	ID              string
	MemberID        string
	Period          Period
	ExpectedAmount  decimal.Decimal
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          DueStatus
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewMemberDue creates the due record for a member freshly billed in a period.
func NewMemberDue(assessment Assessment) (*MemberDue, error) {
	if assessment.MemberID == "" {
		return nil, ErrEmptyMemberID
	}
	if _, err := ParsePeriod(assessment.Period.String()); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &MemberDue{
		ID:              uuid.New().String(),
		MemberID:        assessment.MemberID,
		Period:          assessment.Period,
		ExpectedAmount:  assessment.Total,
		PaidAmount:      decimal.Zero,
		RemainingAmount: assessment.Total,
		Status:          DeriveStatus(decimal.Zero, assessment.Total, StatusPending),
		Description:     assessment.Description(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// DeriveStatus recomputes the status from scratch: paid when nothing remains,
// partially paid when something was paid and something remains, otherwise a
// previously set overdue flag is preserved and pending is the default.
func DeriveStatus(paid, remaining decimal.Decimal, previous DueStatus) DueStatus {
	if remaining.Sign() <= 0 {
		return StatusPaid
	}
	if paid.Sign() > 0 {
		return StatusPartiallyPaid
	}
	if previous == StatusOverdue {
		return StatusOverdue
	}
	return StatusPending
}

// ApplyAssessment brings the due back into agreement with a fresh evaluator
// result, preserving PaidAmount. It reports whether anything changed.
func (d *MemberDue) ApplyAssessment(assessment Assessment) bool {
	newExpected := assessment.Total
	newRemaining := clampNonNegative(newExpected.Sub(d.PaidAmount))
	newDescription := assessment.Description()
	newStatus := DeriveStatus(d.PaidAmount, newRemaining, d.Status)

	if d.ExpectedAmount.Equal(newExpected) &&
		d.RemainingAmount.Equal(newRemaining) &&
		d.Description == newDescription &&
		d.Status == newStatus {
		return false
	}

	d.ExpectedAmount = newExpected
	d.RemainingAmount = newRemaining
	d.Description = newDescription
	d.Status = newStatus
	d.UpdatedAt = time.Now().UTC()
	return true
}

// RecordPayment adds a payment against the due and rederives the remainder
// and status. ExpectedAmount and Description are untouched.
func (d *MemberDue) RecordPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	d.PaidAmount = d.PaidAmount.Add(amount)
	d.RemainingAmount = clampNonNegative(d.ExpectedAmount.Sub(d.PaidAmount))
	d.Status = DeriveStatus(d.PaidAmount, d.RemainingAmount, d.Status)
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkOverdue flips a pending due to overdue. It reports whether it changed.
func (d *MemberDue) MarkOverdue() bool {
	if d.Status != StatusPending {
		return false
	}
	d.Status = StatusOverdue
	d.UpdatedAt = time.Now().UTC()
	return true
}

func clampNonNegative(value decimal.Decimal) decimal.Decimal {
	if value.Sign() < 0 {
		return decimal.Zero
	}
	return value
}
