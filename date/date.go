// Package date provides a calendar date with day granularity.
package date

import (
	"fmt"
	"time"
)

// Format is the ISO-8601 layout used to store dates.
const Format = "2006-01-02"

const readFormat = "2006-1-2" // accepts single-digit month/day on read

// Date represents a day. The zero value means "no date".
type Date struct {
	y int
	m time.Month
	d int
}

// time returns the canonical time.Time of that day (midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// New returns a normalized Date for the given year, month, and day.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Today returns the current local date.
func Today() Date { return New(time.Now().Date()) }

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d == Date{} }

// Year returns the year of d.
func (d Date) Year() int { return d.y }

// Month returns the month of d.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// Add returns d shifted by n days.
func (d Date) Add(n int) Date { return New(d.y, d.m, d.d+n) }

// Before reports whether d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// DaysSince returns the number of days from x to d (negative when d is before x).
func (d Date) DaysSince(x Date) int {
	return int(d.time().Sub(x.time()).Hours() / 24)
}

// String formats d as YYYY-MM-DD. The zero date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format(Format)
}

// Display formats d as DD/MM/YYYY for receipts.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format("02/01/2006")
}

// Parse parses a YYYY-MM-DD date. An empty string yields the zero date.
func Parse(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(readFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", s, Format, err)
	}
	return New(t.Date()), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}
