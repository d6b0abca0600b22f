package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date without a clock. It travels as YYYY-MM-DD on the
// wire and maps to Postgres DATE columns.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC of its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return Date{Time: t}, nil
}

// String renders YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes as "YYYY-MM-DD", or null for the zero date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as a DATE literal.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan reads DATE columns which drivers surface as time.Time, strings or bytes.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	case nil:
		return fmt.Errorf("date: null value")
	default:
		return fmt.Errorf("date: unsupported type %T", src)
	}
}

func (d *Date) scanString(raw string) error {
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
