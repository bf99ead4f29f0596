package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeJSONArray(t *testing.T) {
	set, err := Normalize([]byte(`[{"day":"Mon","start":"09:00","end":"10:00"}]`))
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, Entry{Day: "Mon", Start: "09:00", End: "10:00"}, set[0])
}

func TestNormalizeJSONString(t *testing.T) {
	set, err := Normalize([]byte(`"Mon 09:00-10:00; Wed 14:00-15:30"`))
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, "Wed", set[1].Day)
}

func TestNormalizeBareLegacyString(t *testing.T) {
	set, err := Normalize([]byte("Mon 09:00-10:00"))
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "Mon", set[0].Day)
}

func TestNormalizeEmptyAndNull(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte(""), []byte("null"), []byte("  ")} {
		set, err := Normalize(raw)
		require.NoError(t, err)
		assert.Empty(t, set)
	}
}

func TestNormalizeRepairsPartialEntries(t *testing.T) {
	set, err := Normalize([]byte(`[{"day":"Tue"}]`))
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, Entry{Day: "Tue", Start: DefaultStart, End: DefaultEnd}, set[0])
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := [][]byte{
		[]byte(`"Mon 09:00-10:00; Tue 10:00-12:00"`),
		[]byte(`[{"day":"Fri","start":"08:00","end":"09:30"}]`),
		[]byte(`[{"day":"Wed"}]`),
		[]byte("null"),
	}
	for _, raw := range inputs {
		once, err := Normalize(raw)
		require.NoError(t, err)

		encoded, err := json.Marshal(once)
		require.NoError(t, err)
		twice, err := Normalize(encoded)
		require.NoError(t, err)

		assert.Equal(t, once, twice)
	}
}

func TestSetScanHandlesLegacyAndStructuredRows(t *testing.T) {
	var fromArray Set
	require.NoError(t, fromArray.Scan([]byte(`[{"day":"Mon","start":"09:00","end":"10:00"}]`)))
	require.Len(t, fromArray, 1)

	var fromString Set
	require.NoError(t, fromString.Scan(`"Mon 09:00-10:00"`))
	assert.Equal(t, fromArray, fromString)

	var fromNil Set
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)
}

func TestSetValueMarshalsEmptyAsArray(t *testing.T) {
	var s Set
	v, err := s.Value()
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(v.([]byte)))
}

func TestInputUnmarshalBothForms(t *testing.T) {
	var fromString Input
	require.NoError(t, json.Unmarshal([]byte(`"Mon 09:00-10:00"`), &fromString))

	var fromArray Input
	require.NoError(t, json.Unmarshal([]byte(`[{"day":"Mon","start":"09:00","end":"10:00"}]`), &fromArray))

	codec := Codec{}
	a, err := codec.Resolve(fromString)
	require.NoError(t, err)
	b, err := codec.Resolve(fromArray)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
