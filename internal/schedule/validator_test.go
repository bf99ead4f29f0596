package schedule

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCleanSet(t *testing.T) {
	set := Set{
		{Day: "Mon", Start: "09:00", End: "10:00"},
		{Day: "Wed", Start: "14:00", End: "15:30"},
	}
	assert.Empty(t, Validate(set))
}

func TestValidateBackToBackIsNotOverlap(t *testing.T) {
	set := Set{
		{Day: "Mon", Start: "09:00", End: "10:00"},
		{Day: "Mon", Start: "10:00", End: "11:00"},
	}
	assert.Empty(t, Validate(set))
}

func TestValidateDetectsOverlap(t *testing.T) {
	set := Set{
		{Day: "Mon", Start: "09:00", End: "10:30"},
		{Day: "Mon", Start: "10:00", End: "11:00"},
	}

	violations := Validate(set)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationOverlap, violations[0].Kind)
	assert.Equal(t, "Mon", violations[0].Day)
}

func TestValidateSameDayDifferentDaysNoOverlap(t *testing.T) {
	set := Set{
		{Day: "Mon", Start: "09:00", End: "10:30"},
		{Day: "Tue", Start: "10:00", End: "11:00"},
	}
	assert.Empty(t, Validate(set))
}

func TestValidateIncompleteEntry(t *testing.T) {
	set := Set{{Day: "Mon", Start: "09:00"}}

	violations := Validate(set)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationIncomplete, violations[0].Kind)
}

func TestValidateInvertedRange(t *testing.T) {
	set := Set{{Day: "Mon", Start: "10:00", End: "09:00"}}

	violations := Validate(set)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationInvalidRange, violations[0].Kind)
	assert.Equal(t, "Mon", violations[0].Day)
}

func TestValidateZeroLengthRange(t *testing.T) {
	set := Set{{Day: "Tue", Start: "09:00", End: "09:00"}}

	violations := Validate(set)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationInvalidRange, violations[0].Kind)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	set := Set{
		{Day: "Mon", Start: "10:00", End: "09:00"},
		{Day: "Tue", Start: "09:00", End: "11:00"},
		{Day: "Tue", Start: "10:00", End: "12:00"},
		{Day: "Wed", Start: "08:00"},
	}

	violations := Validate(set)
	require.Len(t, violations, 3)

	kinds := make(map[ViolationKind]int)
	for _, v := range violations {
		kinds[v.Kind]++
	}
	assert.Equal(t, 1, kinds[ViolationInvalidRange])
	assert.Equal(t, 1, kinds[ViolationOverlap])
	assert.Equal(t, 1, kinds[ViolationIncomplete])
}

func TestValidateVerdictIsOrderIndependent(t *testing.T) {
	set := Set{
		{Day: "Mon", Start: "09:00", End: "10:30"},
		{Day: "Mon", Start: "10:00", End: "11:00"},
		{Day: "Tue", Start: "08:00", End: "09:00"},
		{Day: "Fri", Start: "13:00", End: "14:00"},
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make(Set, len(set))
		copy(shuffled, set)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		violations := Validate(shuffled)
		require.Len(t, violations, 1)
		assert.Equal(t, ViolationOverlap, violations[0].Kind)
		assert.Equal(t, "Mon", violations[0].Day)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Violations: []Violation{
		{Kind: ViolationOverlap, Day: "Mon", Message: "schedule entries overlap on Mon"},
	}}
	assert.Contains(t, err.Error(), "overlap on Mon")
}
