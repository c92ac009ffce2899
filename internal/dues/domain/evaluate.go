package dues

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MemberNameResolver resolves a member id to a display name for breakdowns.
// It may return an empty string when the name is unknown.
type MemberNameResolver func(memberID string) string

// AssessmentLine is one entry of a member's dues breakdown.
type AssessmentLine struct {
	Kind            LineKind
	Label           string
	Amount          decimal.Decimal
	BeneficiaryID   string
	BeneficiaryName string
	// Exempt marks a benefit the member receives and therefore does not fund.
	Exempt bool
}

// Assessment is the evaluator output for one member and one period.
type Assessment struct {
	MemberID string
	Period   Period
	Total    decimal.Decimal
	Lines    []AssessmentLine
}

// Evaluate computes the amount a member owes for a period from the full set
// of line items active in that period. It is a pure function: a flat fee is
// owed by every member unconditionally; a benefit is owed by every member
// except its beneficiary; a benefit with no beneficiary is owed by everyone.
// Summation is commutative, so item ordering does not affect the total.
func Evaluate(memberID string, period Period, items []LineItem, names MemberNameResolver) Assessment {
	assessment := Assessment{
		MemberID: memberID,
		Period:   period,
		Total:    decimal.Zero,
	}

	for _, item := range items {
		line := AssessmentLine{
			Kind:          item.Kind,
			Label:         item.Label,
			Amount:        item.Amount,
			BeneficiaryID: item.BeneficiaryID,
		}
		if item.Kind == LineKindBenefit && item.BeneficiaryID != "" && names != nil {
			line.BeneficiaryName = names(item.BeneficiaryID)
		}
		if item.Kind == LineKindBenefit && item.BeneficiaryID != "" && item.BeneficiaryID == memberID {
			line.Exempt = true
		} else {
			assessment.Total = assessment.Total.Add(item.Amount)
		}
		assessment.Lines = append(assessment.Lines, line)
	}

	return assessment
}

// Description renders the human-readable breakdown stored on the due record.
// The flat fee is listed first, then benefits in their input order.
func (a Assessment) Description() string {
	var parts []string
	for _, line := range a.Lines {
		if line.Kind == LineKindFlatFee {
			parts = append(parts, fmt.Sprintf("Flat fee: %s", line.Amount.StringFixed(2)))
		}
	}
	for _, line := range a.Lines {
		if line.Kind != LineKindBenefit {
			continue
		}
		name := line.BeneficiaryName
		if name == "" {
			name = line.BeneficiaryID
		}
		switch {
		case line.Exempt:
			parts = append(parts, fmt.Sprintf("%s: %s (waived, you are the beneficiary)", line.Label, line.Amount.StringFixed(2)))
		case name != "":
			parts = append(parts, fmt.Sprintf("%s for %s: %s", line.Label, name, line.Amount.StringFixed(2)))
		default:
			parts = append(parts, fmt.Sprintf("%s: %s", line.Label, line.Amount.StringFixed(2)))
		}
	}
	parts = append(parts, fmt.Sprintf("Total: %s", a.Total.StringFixed(2)))
	return strings.Join(parts, "; ")
}
