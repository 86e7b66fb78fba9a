package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the canonical DD/MM/YYYY date format.
const DisplayLayout = "02/01/2006"

const monthLabelLayout = "January 2006"

// Accepted wire layouts, tried in order. Times are discarded: the calendar
// date is taken as written, without converting between time zones.
var wireLayouts = []string{
	DisplayLayout,
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidMonth = errors.New("invalid month label")
)

// Date is a calendar date stored as UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Display formats the date as DD/MM/YYYY.
func (d Date) Display() string {
	return d.Format(DisplayLayout)
}

// ISO formats the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (d Date) String() string {
	return d.Display()
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.Display()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseWireDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON keeps the DD/MM/YYYY form; the embedded time.Time would
// otherwise emit RFC 3339.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Display())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	return d.UnmarshalText([]byte(s))
}

// ParseWireDate parses a date as found on the wire or in user input.
func ParseWireDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range wireLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// MonthLabel returns the month group a date belongs to, e.g. "March 2024".
// It is the only place month labels are built.
func MonthLabel(d Date) string {
	return d.Format(monthLabelLayout)
}

// ParseMonthLabel inverts MonthLabel, returning the first day of the month.
func ParseMonthLabel(label string) (time.Time, error) {
	t, err := time.Parse(monthLabelLayout, label)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, label)
	}
	return t, nil
}
