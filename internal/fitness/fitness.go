// Package fitness scores a chromosome's day distribution (C4): axis sums
// over teachers and classes reward days that approach a full teaching
// load, and a border bonus ladder rewards keeping border-subject hours
// within the two slots a class's day boundary can actually hold. The
// reward curve and border ladder are original_source's evolutionary.py
// fitness function, kept as a quadratic normative shape with an
// alternative Gaussian shape selectable through config.FitnessShape
// (spec §9's Open Question on the reward curve).
package fitness

import (
	"math"

	"github.com/vaniila/timetable-solver/internal/blockbuilder"
	"github.com/vaniila/timetable-solver/internal/chromatrix"
	"github.com/vaniila/timetable-solver/internal/domain"
	"github.com/vaniila/timetable-solver/pkg/config"
)

// fullDayLoad is the hour count at which the axis reward peaks: a
// teacher or class day with exactly this many scheduled hours is
// considered ideally dense.
const fullDayLoad = 7

// gaussianSigma shapes the alternative reward curve so it falls to about
// half its peak (≈1.0) at ±sqrt(2) hours from fullDayLoad, where the
// quadratic curve reaches zero. The Gaussian itself never reaches zero.
const gaussianSigma = 1.2

// Index precomputes, once per block list, the lookups C4 needs on every
// chromosome in a population: which dense teacher/class indices each
// block touches, and whether the block carries a border subject.
type Index struct {
	BlockTeachers [][]int
	BlockClasses  [][]int
	BorderBlock   []bool
	NumTeachers   int
	NumClasses    int
}

// BuildIndex derives an Index from ctx and the fused block list.
func BuildIndex(ctx *domain.Context, blocks []blockbuilder.Block) *Index {
	idx := &Index{
		BlockTeachers: make([][]int, len(blocks)),
		BlockClasses:  make([][]int, len(blocks)),
		BorderBlock:   make([]bool, len(blocks)),
		NumTeachers:   len(ctx.Input.Teachers),
		NumClasses:    len(ctx.Input.Classes),
	}
	for b, block := range blocks {
		for _, t := range block.Teachers() {
			idx.BlockTeachers[b] = append(idx.BlockTeachers[b], ctx.TeacherIndex[t])
		}
		for _, c := range block.Classes() {
			idx.BlockClasses[b] = append(idx.BlockClasses[b], ctx.ClassIndex[c])
		}
		for _, s := range block.Subjects() {
			if ctx.IsBorder(s) {
				idx.BorderBlock[b] = true
				break
			}
		}
	}
	return idx
}

// Axis holds the per-teacher-day and per-class-day hour sums a
// chromosome produced; Score.PerTeacher/PerClass fold these into the
// per-entity totals C5's axis-aware crossover actually compares.
type Axis struct {
	TeacherDay  [][]int // [teacher][day]
	ClassDay    [][]int // [class][day]
	BorderCount [][]int // [class][day]
}

// Score is one chromosome's fitness evaluation. PerTeacher and PerClass
// hold each entity's own alpha-weighted reward total (border bonus
// folded into PerClass), retained so C5's axis-aware crossover can
// compare the same entity across two parents without recomputing the
// reward shape.
type Score struct {
	Total      float64
	Axis       Axis
	PerTeacher []float64
	PerClass   []float64
}

// Evaluate scores chrom against idx under the configured reward shape
// and axis weights.
func Evaluate(idx *Index, chrom *chromatrix.Chromosome, shape config.FitnessShape, alphas config.Alphas) Score {
	axis := Axis{
		TeacherDay:  make([][]int, idx.NumTeachers),
		ClassDay:    make([][]int, idx.NumClasses),
		BorderCount: make([][]int, idx.NumClasses),
	}
	for t := range axis.TeacherDay {
		axis.TeacherDay[t] = make([]int, domain.WeekdayCount)
	}
	for c := range axis.ClassDay {
		axis.ClassDay[c] = make([]int, domain.WeekdayCount)
		axis.BorderCount[c] = make([]int, domain.WeekdayCount)
	}

	for b := 0; b < chrom.Blocks; b++ {
		for d := domain.Weekday(0); d < domain.WeekdayCount; d++ {
			hours := int(chrom.At(d, b))
			if hours == 0 {
				continue
			}
			for _, t := range idx.BlockTeachers[b] {
				axis.TeacherDay[t][d] += hours
			}
			for _, c := range idx.BlockClasses[b] {
				axis.ClassDay[c][d] += hours
				if idx.BorderBlock[b] {
					axis.BorderCount[c][d] += hours
				}
			}
		}
	}

	perTeacher := make([]float64, idx.NumTeachers)
	perClass := make([]float64, idx.NumClasses)
	var teacherSum, classSum, borderSum float64

	for t := range axis.TeacherDay {
		for d := 0; d < domain.WeekdayCount; d++ {
			r := alphas.Teacher * axisReward(shape, axis.TeacherDay[t][d])
			perTeacher[t] += r
			teacherSum += r
		}
	}
	for c := range axis.ClassDay {
		for d := 0; d < domain.WeekdayCount; d++ {
			r := alphas.Class * axisReward(shape, axis.ClassDay[c][d])
			b := alphas.Border * borderBonus(axis.BorderCount[c][d])
			perClass[c] += r + b
			classSum += r
			borderSum += b
		}
	}

	// §4.4: normalise the teacher term by teacher count and the class
	// term by class count so the two axes weigh in regardless of how
	// many teachers versus classes the input carries.
	teacherCount := float64(idx.NumTeachers)
	if teacherCount == 0 {
		teacherCount = 1
	}
	classCount := float64(idx.NumClasses)
	if classCount == 0 {
		classCount = 1
	}
	total := teacherSum/teacherCount + classSum/classCount + borderSum

	return Score{Total: total, Axis: axis, PerTeacher: perTeacher, PerClass: perClass}
}

// axisReward scores one (entity, day) hour sum against the full-day
// target of fullDayLoad hours.
func axisReward(shape config.FitnessShape, hours int) float64 {
	delta := float64(fullDayLoad - hours)
	switch shape {
	case config.ShapeGaussian:
		return 2 * math.Exp(-(delta*delta)/(2*gaussianSigma*gaussianSigma))
	default:
		return math.Max(0, 2-delta*delta)
	}
}

// borderBonus scores how many border-subject hours compete for a
// class-day's two border slots (first and last hour): none is neutral,
// one or two fit cleanly, more than two cannot.
func borderBonus(k int) float64 {
	switch {
	case k == 0:
		return 0
	case k == 1:
		return 1
	case k == 2:
		return 0.5
	default:
		return -1
	}
}
