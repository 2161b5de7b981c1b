// Package timestamp holds the UTC moment used as a "since" boundary.
//
// A Timestamp keeps the six calendar fields exactly as they were given
// (from the clock, from command-line arguments or from the state file) and
// only checks that they form a real date when it is turned into a time.Time.
package timestamp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the textual form of a validated Timestamp.
const Layout = "2006-01-02 15:04:05"

// ErrMalformed is returned when the six fields do not form a valid date/time.
var ErrMalformed = errors.New("timestamp malformed")

// Field is one of the six stored values, kept in its original representation.
type Field string

// Int returns the field as an integer.
func (f Field) Int() (int, error) {
	return strconv.Atoi(string(f))
}

// MarshalJSON writes integer-looking fields as JSON numbers and anything else
// as a JSON string.
func (f Field) MarshalJSON() ([]byte, error) {
	if n, err := f.Int(); err == nil && strconv.Itoa(n) == string(f) {
		return []byte(string(f)), nil
	}
	return json.Marshal(string(f))
}

// UnmarshalJSON accepts both JSON numbers and JSON strings.
func (f *Field) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Field(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timestamp field must be a number or a string, got %s", data)
	}
	*f = Field(n.String())
	return nil
}

// Timestamp is a UTC moment stored as six fields. Two Timestamps are equal
// (==) when all six stored fields are equal.
type Timestamp struct {
	Year   Field `json:"YYYY"`
	Month  Field `json:"MM"`
	Day    Field `json:"DD"`
	Hour   Field `json:"hh"`
	Minute Field `json:"mm"`
	Second Field `json:"ss"`
}

// Now captures the current UTC wall-clock time.
func Now() Timestamp {
	return FromTime(time.Now())
}

// FromTime copies the fields of t, converted to UTC. Sub-second precision is dropped.
func FromTime(t time.Time) Timestamp {
	t = t.UTC()
	return Timestamp{
		Year:   Field(strconv.Itoa(t.Year())),
		Month:  Field(strconv.Itoa(int(t.Month()))),
		Day:    Field(strconv.Itoa(t.Day())),
		Hour:   Field(strconv.Itoa(t.Hour())),
		Minute: Field(strconv.Itoa(t.Minute())),
		Second: Field(strconv.Itoa(t.Second())),
	}
}

// New builds a Timestamp from six raw values without validating them.
func New(year, month, day, hour, minute, second string) Timestamp {
	return Timestamp{
		Year:   Field(year),
		Month:  Field(month),
		Day:    Field(day),
		Hour:   Field(hour),
		Minute: Field(minute),
		Second: Field(second),
	}
}

// FromArgs builds a Timestamp from the positional arguments
// "YYYY MM DD hh mm ss". Only the argument count is checked here.
func FromArgs(args []string) (Timestamp, error) {
	if len(args) != len(FieldNames) {
		return Timestamp{}, fmt.Errorf("expected %d timestamp fields (%s), got %d",
			len(FieldNames), strings.Join(FieldNames[:], " "), len(args))
	}
	return New(args[0], args[1], args[2], args[3], args[4], args[5]), nil
}

// FieldNames lists the persisted keys in calendar order.
var FieldNames = [6]string{"YYYY", "MM", "DD", "hh", "mm", "ss"}

// Complete reports whether every field carries a value.
func (ts Timestamp) Complete() bool {
	return ts.Year != "" && ts.Month != "" && ts.Day != "" &&
		ts.Hour != "" && ts.Minute != "" && ts.Second != ""
}

// Instant converts the fields to a time.Time in UTC, failing with ErrMalformed
// when they do not describe a real calendar moment.
func (ts Timestamp) Instant() (time.Time, error) {
	year, err := ts.Year.Int()
	if err != nil {
		return time.Time{}, ts.malformed("year", err)
	}
	month, err := ts.Month.Int()
	if err != nil {
		return time.Time{}, ts.malformed("month", err)
	}
	day, err := ts.Day.Int()
	if err != nil {
		return time.Time{}, ts.malformed("day", err)
	}
	hour, err := ts.Hour.Int()
	if err != nil {
		return time.Time{}, ts.malformed("hour", err)
	}
	minute, err := ts.Minute.Int()
	if err != nil {
		return time.Time{}, ts.malformed("minute", err)
	}
	second, err := ts.Second.Int()
	if err != nil {
		return time.Time{}, ts.malformed("second", err)
	}

	if year < 1 || year > 9999 {
		return time.Time{}, ts.malformed("year", fmt.Errorf("%d out of range", year))
	}

	// time.Date normalizes overflowing values (month 13, day 32, ...), so a
	// valid moment is one whose fields survive the round trip unchanged.
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return time.Time{}, ts.malformed("date", errors.New("not a calendar date/time"))
	}

	return t, nil
}

// Format renders the validated moment as "YYYY-MM-DD hh:mm:ss".
func (ts Timestamp) Format() (string, error) {
	t, err := ts.Instant()
	if err != nil {
		return "", err
	}
	return t.Format(Layout), nil
}

// String returns Format's result, or the raw fields when they are malformed.
func (ts Timestamp) String() string {
	s, err := ts.Format()
	if err != nil {
		return ts.raw()
	}
	return s
}

func (ts Timestamp) malformed(field string, cause error) error {
	return fmt.Errorf("%w? %s in %q: %v", ErrMalformed, field, ts.raw(), cause)
}

func (ts Timestamp) raw() string {
	return fmt.Sprintf("%s %s %s %s %s %s",
		ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second)
}
