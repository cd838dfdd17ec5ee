package daterange

import (
	"errors"
	"regexp"
	"time"
)

// Layout is the only accepted wire format for stay dates.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDate  = errors.New("daterange: date must be YYYY-MM-DD")
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a strict YYYY-MM-DD civil date. The result is pinned to
// midnight UTC only as a zone-free carrier: no conversion is ever applied, so
// day arithmetic is not affected by the host timezone or DST.
func ParseDate(raw string) (time.Time, bool) {
	if len(raw) != len(Layout) || !datePattern.MatchString(raw) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(Layout, raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Format renders a civil date back to YYYY-MM-DD.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// Nights returns the number of nights between two YYYY-MM-DD dates. Malformed
// input and non-positive differences yield 0.
func Nights(checkIn, checkOut string) int {
	in, ok := ParseDate(checkIn)
	if !ok {
		return 0
	}
	out, ok := ParseDate(checkOut)
	if !ok {
		return 0
	}
	return daysBetween(in, out)
}

// NextDay returns the date one day after raw, used as the minimum checkout.
func NextDay(raw string) (string, bool) {
	t, ok := ParseDate(raw)
	if !ok {
		return "", false
	}
	return Format(t.AddDate(0, 0, 1)), true
}

func daysBetween(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// DateRange represents a half-open interval [checkIn, checkOut) of civil dates.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: civil(checkIn), CheckOut: civil(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a validated range from two YYYY-MM-DD strings.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, ok := ParseDate(checkIn)
	if !ok {
		return DateRange{}, ErrInvalidDate
	}
	out, ok := ParseDate(checkOut)
	if !ok {
		return DateRange{}, ErrInvalidDate
	}
	return New(in, out)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() {
		return 0
	}
	return daysBetween(dr.CheckIn, dr.CheckOut)
}

// Extend moves the checkout keeping the checkin.
func (dr DateRange) Extend(checkOut time.Time) (DateRange, error) {
	return New(dr.CheckIn, checkOut)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = civil(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

func (dr DateRange) Equal(other DateRange) bool {
	return dr.CheckIn.Equal(other.CheckIn) && dr.CheckOut.Equal(other.CheckOut)
}

func (dr DateRange) CheckInString() string  { return Format(dr.CheckIn) }
func (dr DateRange) CheckOutString() string { return Format(dr.CheckOut) }

// civil drops the clock and zone of t while keeping its calendar date.
func civil(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
