package entity

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day in the clinic's time zone, formatted YYYY-MM-DD.
// The zero value means "not set". Normalised values compare lexically.
type Date string

func DateOf(t time.Time, loc *time.Location) Date {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return Date(t.Format(DateLayout))
}

// ParseDate accepts YYYY-MM-DD, RFC3339 timestamps and the dotted or
// slashed forms found in older records.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	s = strings.NewReplacer(".", "-", "/", "-").Replace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date(t.Format(DateLayout)), nil
	}
	if t, err := time.Parse("2006-1-2", s); err == nil {
		return Date(t.Format(DateLayout)), nil
	}
	if len(s) > 10 {
		if t, err := time.Parse(DateLayout, s[:10]); err == nil {
			return Date(t.Format(DateLayout)), nil
		}
	}
	return "", fmt.Errorf("invalid date %q", s)
}

func (d Date) IsZero() bool { return d == "" }

func (d Date) Before(o Date) bool { return d != "" && o != "" && d < o }

func (d Date) After(o Date) bool { return d != "" && o != "" && d > o }

func (d Date) String() string { return string(d) }

// Midnight returns the first instant of the day in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d Date) AddDays(n int) Date {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return d
	}
	return Date(t.AddDate(0, 0, n).Format(DateLayout))
}

// Month returns the YYYY-MM key of the date.
func (d Date) Month() string {
	if len(d) < 7 {
		return ""
	}
	return string(d[:7])
}

// Within reports whether d lies in [from, to], both inclusive.
func (d Date) Within(from, to Date) bool {
	return d != "" && d >= from && d <= to
}

// MonthBounds returns the first and last day of a YYYY-MM month.
func MonthBounds(yearMonth string) (Date, Date, error) {
	t, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q: expected YYYY-MM", yearMonth)
	}
	first := t
	last := t.AddDate(0, 1, -1)
	return Date(first.Format(DateLayout)), Date(last.Format(DateLayout)), nil
}

// PreviousMonth returns the YYYY-MM key of the month before yearMonth.
func PreviousMonth(yearMonth string) (string, error) {
	t, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return "", fmt.Errorf("invalid month %q: expected YYYY-MM", yearMonth)
	}
	return t.AddDate(0, -1, 0).Format("2006-01"), nil
}
