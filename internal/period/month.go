// Package period holds the billing calendar arithmetic: reference months
// in YYYY-MM form and due-date computation for a billing day.
package period

import (
	"errors"
	"fmt"
	"time"
)

// MinBillingDay and MaxBillingDay bound the configurable day-of-month a
// subscription bills on. Day 29-31 is rejected at subscription creation;
// DueDate still clamps so legacy rows with an out-of-range day resolve to
// a real date instead of overflowing into the next month.
const (
	MinBillingDay = 1
	MaxBillingDay = 28
)

var ErrInvalidMonth = errors.New("invalid_reference_month")

// Month is a calendar month in YYYY-MM form.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return Month{}, ErrInvalidMonth
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing t, evaluated in UTC.
func MonthOf(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// String renders the month in YYYY-MM form.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsZero reports whether the month is unset.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Next advances by exactly one calendar month, wrapping year boundaries.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Compare orders months chronologically: -1 if m precedes other, 0 if
// equal, +1 if m follows other.
func (m Month) Compare(other Month) int {
	switch {
	case m.Year != other.Year:
		if m.Year < other.Year {
			return -1
		}
		return 1
	case m.Month != other.Month:
		if m.Month < other.Month {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Before reports whether m precedes other.
func (m Month) Before(other Month) bool { return m.Compare(other) < 0 }

// After reports whether m follows other.
func (m Month) After(other Month) bool { return m.Compare(other) > 0 }

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	// Day zero of the following month is the last day of this one.
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DueDate returns midnight UTC at day min(billingDay, days in month).
// Total for any billingDay >= 1; out-of-range days are clamped here
// rather than rejected so that the function stays error-free.
func DueDate(m Month, billingDay int) time.Time {
	if billingDay < MinBillingDay {
		billingDay = MinBillingDay
	}
	if days := m.Days(); billingDay > days {
		billingDay = days
	}
	return time.Date(m.Year, m.Month, billingDay, 0, 0, 0, 0, time.UTC)
}

// ValidBillingDay reports whether day may be stored on a subscription.
func ValidBillingDay(day int) bool {
	return day >= MinBillingDay && day <= MaxBillingDay
}
