package schedule

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Mode selects how the codec treats malformed entries.
type Mode int

const (
	// Lenient repairs malformed entries with defaults, favouring
	// availability over strictness at the boundary.
	Lenient Mode = iota
	// Strict rejects malformed entries with a ValidationError instead of
	// silently repairing them.
	Strict
)

// Codec converts between the legacy free-text schedule string and the
// structured entry form.
type Codec struct {
	Mode Mode
}

var (
	entryPattern = regexp.MustCompile(`([A-Za-z]+)\s+(\d{1,2}:\d{2})-(\d{1,2}:\d{2})`)
	segmentSplit = regexp.MustCompile(`[;,]`)
)

// ParseString parses a legacy schedule string such as
// "Mon 09:00-10:00; Wed 14:00-15:30" into entries, preserving textual order.
// Segments are split on ';' or ','. In Strict mode segments with missing
// fields yield a *ValidationError; in Lenient mode they are defaulted.
func (c Codec) ParseString(raw string) (Set, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Set{}, nil
	}

	var out Set
	var violations []Violation
	for _, part := range segmentSplit.Split(raw, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var entry Entry
		if m := entryPattern.FindStringSubmatch(part); m != nil {
			entry = Entry{Day: m[1], Start: padTime(m[2]), End: padTime(m[3])}
		} else {
			// Fall back to "<day> <start>-<end>" with loose splitting.
			fields := strings.SplitN(part, " ", 2)
			entry.Day = fields[0]
			if len(fields) > 1 {
				times := strings.SplitN(fields[1], "-", 2)
				entry.Start = padTime(strings.TrimSpace(times[0]))
				if len(times) > 1 {
					entry.End = padTime(strings.TrimSpace(times[1]))
				}
			}
		}

		if !entry.Complete() {
			if c.Mode == Strict {
				violations = append(violations, Violation{
					Kind:    ViolationIncomplete,
					Day:     entry.Day,
					Entry:   entry,
					Message: fmt.Sprintf("segment %q is missing day, start or end", part),
				})
				continue
			}
			entry = applyDefaults(entry)
		}
		out = append(out, entry)
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	if out == nil {
		out = Set{}
	}
	return out, nil
}

// Coerce passes structured entries through, defaulting or rejecting
// incomplete ones according to the codec mode.
func (c Codec) Coerce(entries []Entry) (Set, error) {
	out := make(Set, 0, len(entries))
	var violations []Violation
	for _, entry := range entries {
		entry.Start = padTime(entry.Start)
		entry.End = padTime(entry.End)
		if !entry.Complete() {
			if c.Mode == Strict {
				violations = append(violations, Violation{
					Kind:    ViolationIncomplete,
					Day:     entry.Day,
					Entry:   entry,
					Message: "entry is missing day, start or end",
				})
				continue
			}
			entry = applyDefaults(entry)
		}
		out = append(out, entry)
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return out, nil
}

// Format renders entries back into the legacy string form, sorted by day of
// week then start time. The input is not mutated; an empty set renders as "".
func Format(entries Set) string {
	if len(entries) == 0 {
		return ""
	}
	sorted := make(Set, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := DayIndex(sorted[i].Day), DayIndex(sorted[j].Day)
		if di != dj {
			return di < dj
		}
		return sorted[i].Start < sorted[j].Start
	})
	parts := make([]string, len(sorted))
	for i, e := range sorted {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}

// Normalize converts a persisted schedule value into structured form: a JSON
// array passes through, a JSON or bare legacy string is parsed, and
// null/empty becomes the empty set. Always lenient (read-time migration must
// not fail on data already in the store), and idempotent.
func Normalize(raw []byte) (Set, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Set{}, nil
	}

	codec := Codec{Mode: Lenient}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err == nil {
		return codec.Coerce(entries)
	}

	var legacy string
	if err := json.Unmarshal(raw, &legacy); err == nil {
		return codec.ParseString(legacy)
	}

	// Oldest rows stored the bare string without JSON quoting.
	return codec.ParseString(trimmed)
}

func applyDefaults(e Entry) Entry {
	if e.Day == "" {
		e.Day = DefaultDay
	}
	if e.Start == "" {
		e.Start = DefaultStart
	}
	if e.End == "" {
		e.End = DefaultEnd
	}
	return e
}

// padTime zero-pads "9:00" to "09:00" so the fixed-width lexicographic
// comparison invariant holds for every stored entry.
func padTime(t string) string {
	if len(t) == 4 && t[1] == ':' {
		return "0" + t
	}
	return t
}
