package model

import (
    "bytes"
    "database/sql/driver"
    "encoding/json"
    "fmt"
    "time"
)

// Timestamp is a nullable point in time that accepts the formats clients
// and drivers actually produce: RFC 3339 and "YYYY-MM-DD HH:MM:SS" on the
// wire; time.Time, []byte or string from the database.  The zero value is
// rendered as JSON null and stored as SQL NULL.
type Timestamp struct {
    time.Time
}

var timestampLayouts = []string{
    time.RFC3339Nano,
    "2006-01-02 15:04:05.999999999-07:00",
    "2006-01-02 15:04:05.999999999",
    "2006-01-02T15:04:05",
    "2006-01-02 15:04",
    "2006-01-02",
}

// ParseTimestamp parses s using the first matching layout.  Layouts without
// a zone are interpreted as UTC.
func ParseTimestamp(s string) (Timestamp, error) {
    for _, layout := range timestampLayouts {
        if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
            return Timestamp{Time: t}, nil
        }
    }
    return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
    if t.IsZero() {
        return []byte("null"), nil
    }
    return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
    if bytes.Equal(b, []byte("null")) {
        *t = Timestamp{}
        return nil
    }
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        return fmt.Errorf("timestamp must be a string: %w", err)
    }
    if s == "" {
        *t = Timestamp{}
        return nil
    }
    parsed, err := ParseTimestamp(s)
    if err != nil {
        return err
    }
    *t = parsed
    return nil
}

// Value implements driver.Valuer.
func (t Timestamp) Value() (driver.Value, error) {
    if t.IsZero() {
        return nil, nil
    }
    return t.Time.UTC(), nil
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
    switch v := src.(type) {
    case nil:
        *t = Timestamp{}
        return nil
    case time.Time:
        *t = Timestamp{Time: v}
        return nil
    case []byte:
        return t.scanString(string(v))
    case string:
        return t.scanString(v)
    }
    return fmt.Errorf("cannot scan %T into Timestamp", src)
}

func (t *Timestamp) scanString(s string) error {
    parsed, err := ParseTimestamp(s)
    if err != nil {
        return err
    }
    *t = parsed
    return nil
}
