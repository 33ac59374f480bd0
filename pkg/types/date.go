package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date wire format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day. Backends sometimes send full
// timestamps for date columns; those keep the date as written, whatever the offset.
type Date string

func NewDate(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

func Today(now func() time.Time) Date {
	if now == nil {
		now = time.Now
	}
	return NewDate(now())
}

func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("date is required")
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return NewDate(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return NewDate(t), nil
	}
	return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
}

func (d Date) String() string { return string(d) }

func (d Date) IsZero() bool { return d == "" }

func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

// Before compares two dates; YYYY-MM-DD sorts lexically.
func (d Date) Before(other Date) bool { return string(d) < string(other) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if raw == "" {
		*d = ""
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as YYYY-MM-DD text.
func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ""
		return nil
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}
