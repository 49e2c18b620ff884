package sqldb

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// timeLayouts are the textual forms drivers hand back for timestamp columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Time scans a timestamp column regardless of whether the driver returns
// time.Time or text. The value is normalized to UTC.
type Time struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Time{}
		return nil
	case time.Time:
		*t = Time{Time: v.UTC(), Valid: true}
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case int64:
		*t = Time{Time: time.Unix(v, 0).UTC(), Valid: true}
		return nil
	default:
		return fmt.Errorf("sqldb: cannot scan %T into Time", src)
	}
}

func (t *Time) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Time{Time: parsed.UTC(), Valid: true}
			return nil
		}
	}
	return fmt.Errorf("sqldb: unrecognized timestamp %q", s)
}

// Value implements driver.Valuer.
func (t Time) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time.UTC(), nil
}

// Ptr returns nil for NULL.
func (t Time) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
