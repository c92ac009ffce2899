package dues

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineKind tags the two charge variants a period can carry.
type LineKind string

const (
	// LineKindFlatFee is the mandatory membership fee every member owes.
	LineKindFlatFee LineKind = "flat_fee"
	// LineKindBenefit is an assistance charge earmarked for one beneficiary.
	LineKindBenefit LineKind = "benefit"
)

// LineItem is one charge type active for one billing period.
// The Kind tag replaces a boolean-plus-nullable-field shape: a flat fee never
// carries a beneficiary, a benefit usually does. A benefit with an empty
// BeneficiaryID is charged to everyone with nobody exempt; upstream planning
// data occasionally produces this and it is preserved as-is.
type LineItem struct {
	ID            string
	Period        Period
	Kind          LineKind
	Label         string
	Amount        decimal.Decimal
	BeneficiaryID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewFlatFee creates the mandatory fee for a period.
func NewFlatFee(period Period, label string, amount decimal.Decimal) (*LineItem, error) {
	return newLineItem(period, LineKindFlatFee, label, amount, "")
}

// NewBenefit creates an assistance charge for a period. beneficiaryID may be
// empty when the beneficiary is unknown.
func NewBenefit(period Period, label string, amount decimal.Decimal, beneficiaryID string) (*LineItem, error) {
	return newLineItem(period, LineKindBenefit, label, amount, beneficiaryID)
}

func newLineItem(period Period, kind LineKind, label string, amount decimal.Decimal, beneficiaryID string) (*LineItem, error) {
	if _, err := ParsePeriod(period.String()); err != nil {
		return nil, err
	}
	if label == "" {
		return nil, ErrEmptyLabel
	}
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	now := time.Now().UTC()
	return &LineItem{
		ID:            uuid.New().String(),
		Period:        period,
		Kind:          kind,
		Label:         label,
		Amount:        amount,
		BeneficiaryID: beneficiaryID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsFlatFee reports whether the item is the period's mandatory fee.
func (i LineItem) IsFlatFee() bool { return i.Kind == LineKindFlatFee }

// ValidateSchedule checks the line item invariant for a period:
// exactly one flat fee, every item belonging to the period.
func ValidateSchedule(period Period, items []LineItem) error {
	flatFees := 0
	for _, item := range items {
		if item.Period != period {
			return ErrPeriodMismatch
		}
		if item.IsFlatFee() {
			flatFees++
		}
	}
	if flatFees == 0 {
		return ErrMissingFlatFee
	}
	if flatFees > 1 {
		return ErrDuplicateFlatFee
	}
	return nil
}
