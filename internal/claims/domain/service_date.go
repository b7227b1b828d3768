package domain

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

var serviceDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ServiceDate accepts ISO 8601 timestamps with or without a zone, or a bare
// date. Zoneless values are read as UTC.
type ServiceDate struct {
	time.Time
}

// UnmarshalJSON parses the accepted layouts.
func (d *ServiceDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("service_date must be a string: %w", err)
	}
	for _, layout := range serviceDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("service_date %q is not an ISO 8601 date or timestamp", raw)
}

// MarshalJSON writes RFC 3339 in UTC.
func (d ServiceDate) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.UTC().Format(time.RFC3339Nano))), nil
}
