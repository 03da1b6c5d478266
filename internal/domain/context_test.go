package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/vaniila/timetable-solver/pkg/errors"
)

func baseInput() *SolveInput {
	return &SolveInput{
		Teachers:     []Teacher{{ID: 1, Name: "Alice"}},
		Classes:      []Class{{ID: 10, Name: "Class 1"}},
		Subjects:     []Subject{{ID: 20, Name: "Math"}},
		Rooms:        []Room{{ID: 30, Name: "Room A"}},
		Requirements: []Requirement{{ID: 100, Teacher: 1, Class: 10, Subject: 20, Hours: 3}},
	}
}

func TestNewContextValidInput(t *testing.T) {
	ctx, err := NewContext(baseInput())
	require.NoError(t, err)
	assert.Equal(t, 0, ctx.TeacherIndex[1])
	assert.Equal(t, FullWeek, ctx.AvailabilityOf(1))
}

func TestNewContextUnknownTeacherReference(t *testing.T) {
	in := baseInput()
	in.Requirements[0].Teacher = 999

	_, err := NewContext(in)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.KindUnknownReference, appErr.Kind)
}

func TestNewContextRejectsEmptyRoomList(t *testing.T) {
	in := baseInput()
	in.RoomCompatibility = RoomCompatibility{20: {}}

	_, err := NewContext(in)
	require.Error(t, err)
}

func TestAvailabilityMask(t *testing.T) {
	mask := AvailabilityMask(0b01010)
	assert.True(t, mask.Has(Tuesday))
	assert.True(t, mask.Has(Thursday))
	assert.False(t, mask.Has(Monday))
	assert.Equal(t, 2, mask.PopCount())
	assert.Equal(t, AvailabilityMask(0b00010), mask.And(AvailabilityMask(0b00011)))
}

func TestPairableRelationGlobalAndPerClass(t *testing.T) {
	rel := NewPairableRelation()
	rel.AddGlobalGroup(1, 2)
	rel.AddClassGroup(10, 3, 4)

	assert.True(t, rel.IsPairable(10, 1, 2))
	assert.True(t, rel.IsPairable(99, 1, 2))
	assert.True(t, rel.IsPairable(10, 3, 4))
	assert.False(t, rel.IsPairable(99, 3, 4))
	assert.False(t, rel.IsPairable(10, 1, 1))
}

func TestGroupedRuleClassGroupOf(t *testing.T) {
	rule := GroupedRule{
		Subject:        20,
		TeacherSet:     []ID{1, 2},
		ClassPartition: [][]ID{{10, 11}, {12, 13}},
	}
	assert.True(t, rule.HasTeacher(1))
	assert.False(t, rule.HasTeacher(3))
	assert.Equal(t, 0, rule.ClassGroupOf(11))
	assert.Equal(t, 1, rule.ClassGroupOf(12))
	assert.Equal(t, -1, rule.ClassGroupOf(999))
}
