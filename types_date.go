package taxlots

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

// DateFormat is the format used to represent dates as strings in ISO-8601 format.
const DateFormat = "2006-01-02" // write date format

const Day = 24 * time.Hour

// Date represents a trade date with day-level granularity.
//
// Dates are comparable values and can be used as map keys.
type Date struct {
	y int        // year
	m time.Month // month
	d int        // day
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Today returns the current local day.
func Today() Date { return NewDate(time.Now().Date()) }

// Year returns the tax year of the date.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns current day of the month.
func (d Date) Day() int { return d.d }

// String format the date in ISO-8601.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format(DateFormat)
}

// IsZero returns true if the date is the zero value.
func (d Date) IsZero() bool {
	return d.y == 0 && d.m == 0 && d.d == 0
}

// time returns a time.Time that is a canonical representation of that day (at midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Compare returns -1, 0 or +1 when d is before, equal or after x.
func (d Date) Compare(x Date) int { return d.time().Compare(x.time()) }

// Add returns a new Date with the given number of days added.
func (d Date) Add(i int) Date { return NewDate(d.y, d.m, d.d+i) }

// AddYears returns the same calendar day i years later.
// The 29th of February becomes the 1st of March on non leap years.
func (d Date) AddYears(i int) Date { return NewDate(d.y+i, d.m, d.d) }

// DaysUntil returns the number of calendar days from d to x, negative if x is before d.
func (d Date) DaysUntil(x Date) int {
	return int(x.time().Sub(d.time()) / Day)
}

// ParseDate parses a Date from a string. It is lenient and accepts formats like "2025-7-1".
// Broker exports with a time of day ("2021-03-04T15:30:00+0100") are truncated to the day.
func ParseDate(str string) (Date, error) {
	str = strings.TrimSpace(str)
	on, err := time.Parse(readDateFormat, str)
	if err != nil {
		// try the long format
		on, err = time.Parse("2006-01-02T15:04:05-0700", str)
	}
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, DateFormat, err)
	}
	return NewDate(on.Date()), nil
}

// MustParse is like ParseDate but panics on error.
func MustParse(str string) Date {
	d, err := ParseDate(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// UnmarshalJSON implements the json specific way to unmarshall a date from a json string.
func (j *Date) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	if str == "" {
		*j = Date{}
		return nil
	}
	d, err := ParseDate(str)
	if err != nil {
		return fmt.Errorf("invalid date in data file: %w", err)
	}
	*j = d
	return nil
}

func (j Date) MarshalJSON() ([]byte, error) {
	str := j.String()
	return json.Marshal(&str)
}

// check that a Date pointer is a valid json marshall/unmarshaller type.
var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)
