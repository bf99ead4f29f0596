package schedule

import (
	"encoding/json"
	"fmt"
)

// Input accepts the schedule wire format on requests: either the legacy
// string form or a JSON array of entries. Use a *Input field to distinguish
// "absent" from "present but empty" on partial updates.
type Input struct {
	entries Set
	raw     string
	isRaw   bool
}

// FromString builds an Input carrying the legacy string form.
func FromString(raw string) Input {
	return Input{raw: raw, isRaw: true}
}

// FromEntries builds an Input carrying structured entries.
func FromEntries(entries []Entry) Input {
	return Input{entries: entries}
}

func (in *Input) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err == nil {
		in.entries = entries
		in.isRaw = false
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		in.raw = raw
		in.isRaw = true
		return nil
	}
	if string(data) == "null" {
		*in = Input{}
		return nil
	}
	return fmt.Errorf("schedule: expected string or array of entries")
}

func (in Input) MarshalJSON() ([]byte, error) {
	if in.isRaw {
		return json.Marshal(in.raw)
	}
	if in.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(in.entries)
}

// Resolve converts the wire value into a structured set using the codec.
func (c Codec) Resolve(in Input) (Set, error) {
	if in.isRaw {
		return c.ParseString(in.raw)
	}
	return c.Coerce(in.entries)
}
