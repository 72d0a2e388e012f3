package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are accepted when a timestamp arrives as text, either from
// an ingest file or from a driver that does not decode the column type.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// NullTime is a nullable timestamp that scans from time.Time or text.
type NullTime struct {
	Time  time.Time
	Valid bool
}

// NewNullTime returns a valid NullTime for t.
func NewNullTime(t time.Time) NullTime {
	return NullTime{Time: t, Valid: true}
}

// ParseTimestamp parses s using the accepted layouts. Empty input yields an
// invalid NullTime and no error.
func ParseTimestamp(s string) (NullTime, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0000-00-00" || s == "0000-00-00 00:00:00" {
		return NullTime{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewNullTime(t.UTC()), nil
		}
	}
	return NullTime{}, fmt.Errorf("invalid timestamp %q", s)
}

// Scan implements sql.Scanner.
func (n *NullTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*n = NullTime{}
		return nil
	case time.Time:
		*n = NewNullTime(v.UTC())
		return nil
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		*n = parsed
		return nil
	case []byte:
		parsed, err := ParseTimestamp(string(v))
		if err != nil {
			return err
		}
		*n = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into NullTime", value)
	}
}

// Value implements driver.Valuer.
func (n NullTime) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Time.UTC(), nil
}

// String formats the timestamp as RFC3339, or "" when null.
func (n NullTime) String() string {
	if !n.Valid {
		return ""
	}
	return n.Time.UTC().Format(time.RFC3339)
}

// StringPtr is String with nil for null.
func (n NullTime) StringPtr() *string {
	if !n.Valid {
		return nil
	}
	s := n.String()
	return &s
}

// MarshalJSON encodes null or an RFC3339 string.
func (n NullTime) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String())
}

// UnmarshalJSON accepts null or any accepted timestamp layout.
func (n *NullTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// MarshalYAML encodes null or an RFC3339 string.
func (n NullTime) MarshalYAML() (any, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.String(), nil
}

func formatInt(v *int64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatInt(*v, 10)
	return &s
}

func formatFloat(v *float64) *string {
	if v == nil {
		return nil
	}
	s := FormatFloat(*v)
	return &s
}

// FormatFloat renders a coverage value in its shortest exact form.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
