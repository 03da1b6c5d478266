package solve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaniila/timetable-solver/internal/domain"
	"github.com/vaniila/timetable-solver/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Generations:     6,
		PopulationSize:  10,
		MutationRate:    0.25,
		Alphas:          config.Alphas{Teacher: 1, Class: 1, Border: 0.5},
		Horizon:         8,
		DayTimeBudgetMs: 500,
		Seed:            1,
		ElitismCount:    1,
		RelativeGap:     0.1,
		FitnessShape:    config.ShapeQuadratic,
	}
}

func smallInput() *domain.SolveInput {
	pairable := domain.NewPairableRelation()
	pairable.AddGlobalGroup(21, 22)
	return &domain.SolveInput{
		Teachers: []domain.Teacher{{ID: 1}, {ID: 2}},
		Classes:  []domain.Class{{ID: 10}},
		Subjects: []domain.Subject{{ID: 20}, {ID: 21}, {ID: 22}},
		Requirements: []domain.Requirement{
			{ID: 100, Teacher: 1, Class: 10, Subject: 20, Hours: 3},
			{ID: 101, Teacher: 2, Class: 10, Subject: 21, Hours: 2},
			{ID: 102, Teacher: 2, Class: 10, Subject: 22, Hours: 2},
		},
		Pairable: pairable,
	}
}

func TestSolveEndToEnd(t *testing.T) {
	plan, err := Solve(context.Background(), testConfig(), smallInput(), nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.RunID)
	assert.Len(t, plan.Days, domain.WeekdayCount)
	assert.NotNil(t, plan.Chromosome)
}

func TestSolveRejectsUnknownReference(t *testing.T) {
	in := smallInput()
	in.Requirements[0].Teacher = 999

	_, err := Solve(context.Background(), testConfig(), in, nil, nil)
	require.Error(t, err)
}

func TestEncodeDecodeChromosomeRoundTrips(t *testing.T) {
	plan, err := Solve(context.Background(), testConfig(), smallInput(), nil, nil)
	require.NoError(t, err)

	data := EncodeChromosome(plan.Blocks, plan.Chromosome)
	decoded, err := DecodeChromosome(plan.Blocks, data)
	require.NoError(t, err)
	assert.Equal(t, plan.Chromosome.Data, decoded.Data)
}

func TestDecodeChromosomeRejectsMismatchedBlockList(t *testing.T) {
	plan, err := Solve(context.Background(), testConfig(), smallInput(), nil, nil)
	require.NoError(t, err)

	data := EncodeChromosome(plan.Blocks, plan.Chromosome)
	_, err = DecodeChromosome(plan.Blocks[:len(plan.Blocks)-1], data)
	require.Error(t, err)
}
