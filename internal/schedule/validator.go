package schedule

import (
	"fmt"
	"sort"
	"strings"
)

// ViolationKind classifies a schedule validation failure.
type ViolationKind string

const (
	ViolationIncomplete   ViolationKind = "incomplete"
	ViolationInvalidRange ViolationKind = "invalid-range"
	ViolationOverlap      ViolationKind = "overlap"
)

// Violation describes one offending entry or pair of entries.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	Day     string        `json:"day,omitempty"`
	Entry   Entry         `json:"entry"`
	Message string        `json:"message"`
}

// ValidationError carries the full list of violations found in a set.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "schedule validation failed"
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "schedule validation failed: " + strings.Join(msgs, "; ")
}

// Validate checks every entry and collects all violations rather than
// stopping at the first, so a caller can surface the complete picture.
// Incomplete entries are reported and excluded from the range and overlap
// checks; entries with an inverted or zero-length range are reported and
// excluded from the overlap sweep.
func Validate(entries Set) []Violation {
	var violations []Violation
	byDay := make(map[string]Set)

	for _, e := range entries {
		if e.Start == "" || e.End == "" {
			violations = append(violations, Violation{
				Kind:    ViolationIncomplete,
				Day:     e.Day,
				Entry:   e,
				Message: fmt.Sprintf("entry for %s is missing a start or end time", e.Day),
			})
			continue
		}
		if e.Start >= e.End {
			violations = append(violations, Violation{
				Kind:    ViolationInvalidRange,
				Day:     e.Day,
				Entry:   e,
				Message: fmt.Sprintf("start time must be before end time for %s", e.Day),
			})
			continue
		}
		byDay[e.Day] = append(byDay[e.Day], e)
	}

	// Deterministic report order across runs.
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		di, dj := DayIndex(days[i]), DayIndex(days[j])
		if di != dj {
			return di < dj
		}
		return days[i] < days[j]
	})

	for _, day := range days {
		group := byDay[day]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Start < group[j].Start })
		// Sorted-interval sweep: once sorted by start, any overlap shows
		// up between an adjacent pair.
		for i := 1; i < len(group); i++ {
			if group[i].Start < group[i-1].End {
				violations = append(violations, Violation{
					Kind:    ViolationOverlap,
					Day:     day,
					Entry:   group[i],
					Message: fmt.Sprintf("schedule entries overlap on %s (%s and %s)", day, group[i-1], group[i]),
				})
			}
		}
	}

	return violations
}
