// Package types contains common types used across the application
package types

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout is the 14-digit wire format, yyyyMMddHHmmss.
const TimestampLayout = "20060102150405"

// ErrInvalidTimestamp reports a value that is not in TimestampLayout.
var ErrInvalidTimestamp = errors.New("invalid timestamp; must be yyyyMMddHHmmss")

// Timestamp is a second-precision UTC instant rendered as yyyyMMddHHmmss.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to seconds and converts it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

// ParseTimestamp parses a yyyyMMddHHmmss string as UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	if len(s) != len(TimestampLayout) {
		return Timestamp{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return Timestamp{Time: t}, nil
}

// String renders the timestamp in TimestampLayout.
func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON renders the timestamp as a JSON string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

// UnmarshalJSON accepts a JSON string in TimestampLayout.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimestamp, data)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the timestamp as Unix seconds.
func (t Timestamp) Value() (driver.Value, error) {
	return t.Unix(), nil
}

// Scan reads Unix seconds written by Value.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		t.Time = time.Unix(v, 0).UTC()
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan timestamp: %w", err)
		}
		t.Time = time.Unix(n, 0).UTC()
	case nil:
		t.Time = time.Time{}
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
	return nil
}
