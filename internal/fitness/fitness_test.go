package fitness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaniila/timetable-solver/internal/blockbuilder"
	"github.com/vaniila/timetable-solver/internal/chromatrix"
	"github.com/vaniila/timetable-solver/internal/domain"
	"github.com/vaniila/timetable-solver/pkg/config"
)

func buildFixture(t *testing.T) (*domain.Context, []blockbuilder.Block) {
	t.Helper()
	in := &domain.SolveInput{
		Teachers: []domain.Teacher{{ID: 1}},
		Classes:  []domain.Class{{ID: 10}},
		Subjects: []domain.Subject{{ID: 20, Border: true}},
		Requirements: []domain.Requirement{
			{ID: 100, Teacher: 1, Class: 10, Subject: 20, Hours: 7},
		},
		Pairable: domain.NewPairableRelation(),
	}
	ctx, err := domain.NewContext(in)
	require.NoError(t, err)
	blocks, err := blockbuilder.Build(ctx)
	require.NoError(t, err)
	return ctx, blocks
}

func TestAxisRewardPeaksAtFullDayLoad(t *testing.T) {
	assert.Equal(t, 2.0, axisReward(config.ShapeQuadratic, fullDayLoad))
	// 2 - 3² is negative, and the quadratic reward is clipped at zero.
	assert.Equal(t, 0.0, axisReward(config.ShapeQuadratic, fullDayLoad-3))
}

func TestBorderBonusLadder(t *testing.T) {
	assert.Equal(t, 0.0, borderBonus(0))
	assert.Equal(t, 1.0, borderBonus(1))
	assert.Equal(t, 0.5, borderBonus(2))
	assert.Equal(t, -1.0, borderBonus(3))
}

func TestEvaluateAggregatesTeacherAndClassAxes(t *testing.T) {
	ctx, blocks := buildFixture(t)
	idx := BuildIndex(ctx, blocks)

	chrom := chromatrix.New(len(blocks))
	chrom.Set(domain.Monday, 0, 2)
	chrom.Set(domain.Tuesday, 0, 2)
	chrom.Set(domain.Wednesday, 0, 2)
	chrom.Set(domain.Thursday, 0, 1)

	alphas := config.Alphas{Teacher: 1, Class: 1, Border: 1}
	score := Evaluate(idx, chrom, config.ShapeQuadratic, alphas)

	assert.Equal(t, 2, score.Axis.TeacherDay[0][domain.Monday])
	assert.Equal(t, 2, score.Axis.ClassDay[0][domain.Monday])
	assert.Equal(t, 2, score.Axis.BorderCount[0][domain.Monday])
	assert.NotZero(t, score.Total)
	require.Len(t, score.PerTeacher, 1)
	require.Len(t, score.PerClass, 1)
	// Every teacher day carries at most 2 hours, where the quadratic
	// reward is already clipped to zero; the class total is the border
	// ladder alone (0.5 + 0.5 + 0.5 + 1).
	assert.Equal(t, 0.0, score.PerTeacher[0])
	assert.NotZero(t, score.PerClass[0])
}

// TestEvaluateNormalisesByEntityCount reproduces spec §4.4: the teacher
// term is divided by the teacher count and the class term by the class
// count. Two teachers each carrying the same 7-hour Monday load must
// average to the same teacher-axis contribution as one teacher carrying
// that load alone.
func TestEvaluateNormalisesByEntityCount(t *testing.T) {
	singleCtx, singleBlocks := buildFixture(t)
	singleIdx := BuildIndex(singleCtx, singleBlocks)
	singleChrom := chromatrix.New(len(singleBlocks))
	singleChrom.Set(domain.Monday, 0, singleBlocks[0].Hours)

	in := &domain.SolveInput{
		Teachers: []domain.Teacher{{ID: 1}, {ID: 2}},
		Classes:  []domain.Class{{ID: 10}},
		Subjects: []domain.Subject{{ID: 20}},
		Requirements: []domain.Requirement{
			{ID: 100, Teacher: 1, Class: 10, Subject: 20, Hours: 7},
			{ID: 101, Teacher: 2, Class: 10, Subject: 20, Hours: 7},
		},
		Pairable: domain.NewPairableRelation(),
	}
	doubleCtx, err := domain.NewContext(in)
	require.NoError(t, err)
	doubleBlocks, err := blockbuilder.Build(doubleCtx)
	require.NoError(t, err)
	doubleIdx := BuildIndex(doubleCtx, doubleBlocks)
	doubleChrom := chromatrix.New(len(doubleBlocks))
	for b, blk := range doubleBlocks {
		doubleChrom.Set(domain.Monday, b, blk.Hours)
	}

	alphas := config.Alphas{Teacher: 1, Class: 0, Border: 0}
	singleScore := Evaluate(singleIdx, singleChrom, config.ShapeQuadratic, alphas)
	doubleScore := Evaluate(doubleIdx, doubleChrom, config.ShapeQuadratic, alphas)

	assert.InDelta(t, singleScore.Total, doubleScore.Total, 1e-9,
		"normalising by teacher count should equalise per-teacher average reward")
}

func TestGaussianShapeAlsoPeaksAtFullDayLoad(t *testing.T) {
	atPeak := axisReward(config.ShapeGaussian, fullDayLoad)
	offPeak := axisReward(config.ShapeGaussian, fullDayLoad-4)
	assert.Greater(t, atPeak, offPeak)
}
