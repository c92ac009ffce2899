package dues

import "errors"

var (
	// ErrInvalidPeriod is returned when a period key is not YYYY-MM.
	ErrInvalidPeriod = errors.New("dues: invalid period")
	// ErrMissingFlatFee is returned when a period has no flat fee line item.
	ErrMissingFlatFee = errors.New("dues: missing flat fee")
	// ErrDuplicateFlatFee is returned when a period has more than one flat fee.
	ErrDuplicateFlatFee = errors.New("dues: duplicate flat fee")
	// ErrPeriodMismatch is returned when a line item belongs to another period.
	ErrPeriodMismatch = errors.New("dues: line item period mismatch")
	// ErrEmptyLabel is returned when a line item has no label.
	ErrEmptyLabel = errors.New("dues: empty label")
	// ErrNonPositiveAmount is returned when an amount is zero or negative.
	ErrNonPositiveAmount = errors.New("dues: non-positive amount")
	// ErrEmptyMemberID is returned when a member id is empty.
	ErrEmptyMemberID = errors.New("dues: empty member id")
	// ErrLineItemNotFound is returned when a line item does not exist.
	ErrLineItemNotFound = errors.New("dues: line item not found")
	// ErrDueNotFound is returned when a member due does not exist.
	ErrDueNotFound = errors.New("dues: due not found")
	// ErrNilDue is returned when persisting a nil due.
	ErrNilDue = errors.New("dues: nil due")
	// ErrDueAlreadyBilled is returned when billing a member twice for a period.
	ErrDueAlreadyBilled = errors.New("dues: member already billed for period")
)
