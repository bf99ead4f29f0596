// Package schedule owns the weekly class-schedule representation shared by
// every caller: the wire codec for the legacy string form, the structured
// entry model, and the overlap validator. Both the request-validation path
// and the persistence path go through this package so the two can never
// drift apart.
package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Days lists the recognised day tokens in canonical display order.
var Days = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Defaults applied by the lenient codec when a field is missing.
const (
	DefaultDay   = "Mon"
	DefaultStart = "09:00"
	DefaultEnd   = "10:00"
)

// Entry is one recurring weekly time block. Start and End are zero-padded
// "HH:MM" 24h strings; lexicographic comparison is valid because the format
// is fixed width.
type Entry struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Complete reports whether all three fields are present.
func (e Entry) Complete() bool {
	return e.Day != "" && e.Start != "" && e.End != ""
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s-%s", e.Day, e.Start, e.End)
}

// DayIndex returns the position of day within the week, or -1 when the token
// is not one of the recognised days.
func DayIndex(day string) int {
	for i, d := range Days {
		if d == day {
			return i
		}
	}
	return -1
}

// Set is an ordered sequence of entries, semantically a set per class.
type Set []Entry

// Value serialises the set as a JSON array for JSONB storage. An empty or nil
// set is stored as [] so reads never see SQL NULL.
func (s Set) Value() (driver.Value, error) {
	if s == nil {
		s = Set{}
	}
	return json.Marshal(s)
}

// Scan accepts both the structured JSON array and legacy rows that still hold
// the free-text string form, migrating the latter on read.
func (s *Set) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = Set{}
		return nil
	case []byte:
		parsed, err := Normalize(v)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	case string:
		parsed, err := Normalize([]byte(v))
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	default:
		return fmt.Errorf("schedule: cannot scan %T", src)
	}
}
