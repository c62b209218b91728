package crm

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date is a timestamp that remembers its source text. Values that cannot be
// parsed decode without error and report Valid() == false.
type Date struct {
	Time time.Time
	Raw  string
}

// ParseDate parses the supported layouts.
func ParseDate(s string) Date {
	raw := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Date{Time: t.UTC(), Raw: raw}
		}
	}
	return Date{Raw: raw}
}

// DateOf wraps an already parsed instant.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return Date{Time: t.UTC(), Raw: t.UTC().Format(time.RFC3339)}
}

// Valid reports whether the date carries a usable instant.
func (d Date) Valid() bool {
	return !d.Time.IsZero()
}

// String returns the raw text, falling back to RFC3339.
func (d Date) String() string {
	if d.Raw != "" {
		return d.Raw
	}
	if d.Valid() {
		return d.Time.Format(time.RFC3339)
	}
	return ""
}

// UnmarshalText implements encoding.TextUnmarshaler; it never fails.
func (d *Date) UnmarshalText(b []byte) error {
	*d = ParseDate(string(b))
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
