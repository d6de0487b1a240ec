// Package calendar holds the timezone-neutral Date type and the tolerant
// parsers used to read dates and times out of the booking store.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

// Date is a calendar day normalized to UTC midnight. Two Dates are equal
// iff their ISO representations match.
type Date struct {
	t time.Time
}

// NewDate builds a Date at UTC midnight. Out-of-range days roll over the
// same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseISO parses a strict YYYY-MM-DD string.
func ParseISO(s string) (Date, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("calendar: invalid ISO date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// Time returns the UTC midnight instant of the day.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// ISO formats the day as YYYY-MM-DD.
func (d Date) ISO() string { return d.t.Format(isoLayout) }

func (d Date) String() string { return d.ISO() }

// Format formats the day with a time layout.
func (d Date) Format(layout string) string { return d.t.Format(layout) }

// AddDays shifts the day by n calendar days.
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.ISO() == o.ISO() }

// DaysUntil returns the number of days from d to o (negative when o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int((o.t.Unix() - d.t.Unix()) / 86400)
}

// WeekdayNumber numbers the week the way the store does: 1 = Sunday through
// 7 = Saturday.
func (d Date) WeekdayNumber() int { return int(d.t.Weekday()) + 1 }

// MarshalText encodes the Date as ISO.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.ISO()), nil
}

// UnmarshalText decodes a strict ISO date.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseISO(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Range enumerates every day in [start, end], inclusive. It returns an empty
// slice when end is before start.
func Range(start, end Date) []Date {
	if end.Before(start) {
		return []Date{}
	}
	days := make([]Date, 0, start.DaysUntil(end)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Representations lists every textual form the store is known to use for d:
// ISO, DD/MM/YY, MM/DD/YY, DD/MM/YYYY and MM/DD/YYYY. Duplicates (days where
// day == month) are dropped.
func Representations(d Date) []string {
	forms := []string{
		d.ISO(),
		d.t.Format("02/01/06"),
		d.t.Format("01/02/06"),
		d.t.Format("02/01/2006"),
		d.t.Format("01/02/2006"),
	}
	seen := make(map[string]struct{}, len(forms))
	out := forms[:0]
	for _, f := range forms {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// StoreFormat renders d the way the store writes dates back (MM/DD/YYYY).
func StoreFormat(d Date) string {
	return d.t.Format("01/02/2006")
}
