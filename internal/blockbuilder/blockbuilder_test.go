package blockbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaniila/timetable-solver/internal/domain"
)

func mustContext(t *testing.T, in *domain.SolveInput) *domain.Context {
	t.Helper()
	ctx, err := domain.NewContext(in)
	require.NoError(t, err)
	return ctx
}

func TestBuildSingletonOnly(t *testing.T) {
	in := &domain.SolveInput{
		Teachers:     []domain.Teacher{{ID: 1}},
		Classes:      []domain.Class{{ID: 10}},
		Subjects:     []domain.Subject{{ID: 20}},
		Requirements: []domain.Requirement{{ID: 100, Teacher: 1, Class: 10, Subject: 20, Hours: 4}},
		Pairable:     domain.NewPairableRelation(),
	}
	ctx := mustContext(t, in)

	blocks, err := Build(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 4, blocks[0].Hours)
	assert.Len(t, blocks[0].Members, 1)
}

// TestBuildPairableFusion reproduces spec's S3 scenario: two pairable
// subjects for one class, equal hours, fuse into a single pair block
// with no singleton residue.
func TestBuildPairableFusion(t *testing.T) {
	pairable := domain.NewPairableRelation()
	pairable.AddGlobalGroup(20, 21)

	in := &domain.SolveInput{
		Teachers: []domain.Teacher{{ID: 1}, {ID: 2}},
		Classes:  []domain.Class{{ID: 10}},
		Subjects: []domain.Subject{{ID: 20}, {ID: 21}},
		Requirements: []domain.Requirement{
			{ID: 100, Teacher: 1, Class: 10, Subject: 20, Hours: 2},
			{ID: 101, Teacher: 2, Class: 10, Subject: 21, Hours: 2},
		},
		Pairable: pairable,
	}
	ctx := mustContext(t, in)

	blocks, err := Build(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].Hours)
	assert.Len(t, blocks[0].Members, 2)
}

// TestBuildGroupedPowerBlock reproduces spec's S4 scenario: one subject
// grouped across three teachers teaching three disjoint classes in the
// same partition, fusing into a single power block.
func TestBuildGroupedPowerBlock(t *testing.T) {
	in := &domain.SolveInput{
		Teachers: []domain.Teacher{{ID: 40}, {ID: 41}, {ID: 42}},
		Classes:  []domain.Class{{ID: 6}, {ID: 7}, {ID: 8}, {ID: 9}},
		Subjects: []domain.Subject{{ID: 11}},
		Requirements: []domain.Requirement{
			{ID: 200, Teacher: 40, Class: 6, Subject: 11, Hours: 2},
			{ID: 201, Teacher: 41, Class: 7, Subject: 11, Hours: 2},
			{ID: 202, Teacher: 42, Class: 8, Subject: 11, Hours: 2},
		},
		Pairable: domain.NewPairableRelation(),
		Grouped: []domain.GroupedRule{{
			Subject:        11,
			TeacherSet:     []domain.ID{40, 41, 42},
			ClassPartition: [][]domain.ID{{6, 7, 8, 9}},
		}},
	}
	ctx := mustContext(t, in)

	blocks, err := Build(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].Hours)
	assert.Len(t, blocks[0].Members, 3)
	assert.ElementsMatch(t, []domain.ID{40, 41, 42}, blocks[0].Teachers())
	assert.ElementsMatch(t, []domain.ID{6, 7, 8}, blocks[0].Classes())
	assert.Equal(t, 3, blocks[0].RoomsNeeded(), "one room per co-teaching teacher")
}

func TestRoomsNeededCountsDistinctSubjectTeacherPairs(t *testing.T) {
	in := &domain.SolveInput{
		Teachers:     []domain.Teacher{{ID: 1}},
		Classes:      []domain.Class{{ID: 10}},
		Subjects:     []domain.Subject{{ID: 20}},
		Requirements: []domain.Requirement{{ID: 100, Teacher: 1, Class: 10, Subject: 20, Hours: 4}},
		Pairable:     domain.NewPairableRelation(),
	}
	ctx := mustContext(t, in)

	blocks, err := Build(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 1, blocks[0].RoomsNeeded(), "a singleton block needs exactly one room")
}

func TestBuildConservesTotalHours(t *testing.T) {
	pairable := domain.NewPairableRelation()
	pairable.AddGlobalGroup(20, 21)

	in := &domain.SolveInput{
		Teachers: []domain.Teacher{{ID: 1}, {ID: 2}, {ID: 3}},
		Classes:  []domain.Class{{ID: 10}},
		Subjects: []domain.Subject{{ID: 20}, {ID: 21}, {ID: 22}},
		Requirements: []domain.Requirement{
			{ID: 100, Teacher: 1, Class: 10, Subject: 20, Hours: 3},
			{ID: 101, Teacher: 2, Class: 10, Subject: 21, Hours: 2},
			{ID: 102, Teacher: 3, Class: 10, Subject: 22, Hours: 1},
		},
		Pairable: pairable,
	}
	ctx := mustContext(t, in)

	blocks, err := Build(ctx)
	require.NoError(t, err)

	total := map[domain.ID]int{}
	for _, b := range blocks {
		for _, m := range b.Members {
			total[m.ID] += b.Hours
		}
	}
	for _, r := range in.Requirements {
		assert.Equal(t, r.Hours, total[r.ID], "requirement %d hours not conserved", r.ID)
	}
}

func TestMasksIntersectTeacherAvailability(t *testing.T) {
	in := &domain.SolveInput{
		Teachers:     []domain.Teacher{{ID: 1}, {ID: 2}},
		Classes:      []domain.Class{{ID: 10}},
		Subjects:     []domain.Subject{{ID: 20}},
		Requirements: []domain.Requirement{{ID: 100, Teacher: 1, Class: 10, Subject: 20, Hours: 2}},
		Availability: map[domain.ID]domain.AvailabilityMask{1: domain.AvailabilityMask(0b00011)},
		Pairable:     domain.NewPairableRelation(),
	}
	ctx := mustContext(t, in)

	blocks, err := Build(ctx)
	require.NoError(t, err)
	masks := Masks(ctx, blocks)
	require.Len(t, masks, 1)
	assert.Equal(t, domain.AvailabilityMask(0b00011), masks[0])
}
