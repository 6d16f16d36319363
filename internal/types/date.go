package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date (YYYY-MM-DD) without a time component.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) *Date {
	y, m, d := t.Date()
	return &Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (*Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &Date{Time: t}, nil
}

// String implements fmt.Stringer
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	str := string(data)
	if str == "null" {
		return nil
	}
	if str == `""` {
		return fmt.Errorf("date must be YYYY-MM-DD, got an empty string")
	}
	// Trim quotes
	if len(str) > 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	var err error
	d.Time, err = time.Parse(dateLayout, str)
	return err
}

// Within reports whether the date falls in [from, to]; nil bounds are open.
func (d *Date) Within(from, to *Date) bool {
	if d == nil {
		return false
	}
	if from != nil && d.Before(from.Time) {
		return false
	}
	if to != nil && d.After(to.Time) {
		return false
	}
	return true
}

func (d *Date) clone() *Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
