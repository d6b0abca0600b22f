package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a minute-precision wall clock time stored as minutes since midnight.
type TimeOfDay int

// MinutesPerDay bounds TimeOfDay values.
const MinutesPerDay = 24 * 60

// ParseTimeOfDay parses HH:MM (24h).
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	return parseClock(raw, "15:04")
}

func parseClock(raw, layout string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(layout, raw)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals.
func MustTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Valid reports whether t falls inside a day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

// On combines the time with a calendar date in the date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, date.Location())
}

// MarshalJSON encodes as "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes "HH:MM".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the time as a TIME literal.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String() + ":00", nil
}

// Scan reads TIME columns which drivers surface as strings, bytes or time.Time.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = TimeOfDay(v.Hour()*60 + v.Minute())
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	case nil:
		return fmt.Errorf("time of day: null value")
	default:
		return fmt.Errorf("time of day: unsupported type %T", src)
	}
}

func (t *TimeOfDay) scanString(raw string) error {
	// Postgres TIME comes back as HH:MM:SS, possibly with fractional seconds.
	if idx := strings.IndexByte(raw, '.'); idx > 0 {
		raw = raw[:idx]
	}
	layout := "15:04"
	if strings.Count(raw, ":") == 2 {
		layout = "15:04:05"
	}
	parsed, err := parseClock(raw, layout)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
