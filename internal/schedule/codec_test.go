package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringLegacyFormat(t *testing.T) {
	codec := Codec{}

	set, err := codec.ParseString("Mon 09:00-10:00; Wed 14:00-15:30")
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, Entry{Day: "Mon", Start: "09:00", End: "10:00"}, set[0])
	assert.Equal(t, Entry{Day: "Wed", Start: "14:00", End: "15:30"}, set[1])
}

func TestParseStringCommaSeparator(t *testing.T) {
	codec := Codec{}

	set, err := codec.ParseString("Tue 10:00-11:00, Thu 10:00-11:00")
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, "Tue", set[0].Day)
	assert.Equal(t, "Thu", set[1].Day)
}

func TestParseStringPadsSingleDigitHours(t *testing.T) {
	codec := Codec{}

	set, err := codec.ParseString("Fri 9:00-10:30")
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, Entry{Day: "Fri", Start: "09:00", End: "10:30"}, set[0])
}

func TestParseStringEmpty(t *testing.T) {
	codec := Codec{}

	set, err := codec.ParseString("")
	require.NoError(t, err)
	assert.Empty(t, set)

	set, err = codec.ParseString(" ; , ")
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestParseStringLenientRepairsMalformedSegment(t *testing.T) {
	codec := Codec{Mode: Lenient}

	set, err := codec.ParseString("Mon")
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, Entry{Day: "Mon", Start: DefaultStart, End: DefaultEnd}, set[0])
}

func TestParseStringStrictRejectsMalformedSegment(t *testing.T) {
	codec := Codec{Mode: Strict}

	_, err := codec.ParseString("Mon 09:00-10:00; Tue")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, ViolationIncomplete, verr.Violations[0].Kind)
}

func TestParseStringPreservesTextualOrder(t *testing.T) {
	codec := Codec{}

	set, err := codec.ParseString("Wed 14:00-15:00; Mon 09:00-10:00")
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, "Wed", set[0].Day)
	assert.Equal(t, "Mon", set[1].Day)
}

func TestCoerceLenientFillsDefaults(t *testing.T) {
	codec := Codec{Mode: Lenient}

	set, err := codec.Coerce([]Entry{{Start: "11:00"}})
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, Entry{Day: DefaultDay, Start: "11:00", End: DefaultEnd}, set[0])
}

func TestCoerceStrictRejectsIncomplete(t *testing.T) {
	codec := Codec{Mode: Strict}

	_, err := codec.Coerce([]Entry{{Day: "Mon"}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ViolationIncomplete, verr.Violations[0].Kind)
}

func TestFormatSortsByDayThenStart(t *testing.T) {
	set := Set{
		{Day: "Wed", Start: "14:00", End: "15:30"},
		{Day: "Mon", Start: "11:00", End: "12:00"},
		{Day: "Mon", Start: "09:00", End: "10:00"},
	}

	assert.Equal(t, "Mon 09:00-10:00; Mon 11:00-12:00; Wed 14:00-15:30", Format(set))
	// Input order untouched.
	assert.Equal(t, "Wed", set[0].Day)
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "", Format(Set{}))
}

func TestParseFormatRoundTrip(t *testing.T) {
	codec := Codec{}
	original := Set{
		{Day: "Mon", Start: "09:00", End: "10:00"},
		{Day: "Tue", Start: "10:00", End: "12:00"},
		{Day: "Fri", Start: "08:00", End: "09:30"},
	}

	parsed, err := codec.ParseString(Format(original))
	require.NoError(t, err)
	assert.ElementsMatch(t, original, parsed)
}

func TestResolveInputForms(t *testing.T) {
	codec := Codec{}

	fromRaw, err := codec.Resolve(FromString("Mon 09:00-10:00"))
	require.NoError(t, err)
	fromEntries, err := codec.Resolve(FromEntries([]Entry{{Day: "Mon", Start: "09:00", End: "10:00"}}))
	require.NoError(t, err)
	assert.Equal(t, fromRaw, fromEntries)
}
