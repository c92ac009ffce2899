package dues

import "time"

const periodLayout = "2006-01"

// Period is the persisted key of a monthly billing cycle (YYYY-MM).
type Period string

// ParsePeriod validates a YYYY-MM key.
func ParsePeriod(value string) (Period, error) {
	if _, err := time.Parse(periodLayout, value); err != nil {
		return "", ErrInvalidPeriod
	}
	return Period(value), nil
}

// PeriodOf returns the period containing the given instant.
func PeriodOf(t time.Time) Period {
	return Period(t.UTC().Format(periodLayout))
}

// String returns the raw key for storage.
func (p Period) String() string { return string(p) }

// Time returns the first instant of the period in UTC.
func (p Period) Time() time.Time {
	t, err := time.Parse(periodLayout, string(p))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Before reports whether p is an earlier cycle than other.
func (p Period) Before(other Period) bool {
	return p.Time().Before(other.Time())
}
