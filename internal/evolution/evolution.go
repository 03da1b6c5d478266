// Package evolution runs the day-distribution genetic algorithm (C5):
// a population of chromatrix.Chromosome values bred and mutated across
// a fixed number of generations, scored each generation by
// internal/fitness, with elitism carrying the best individuals forward
// unchanged. Crossover operates in two flavors, both per spec §4.5: for
// each class (or teacher), copy that entity's columns from whichever
// parent scored higher on fitness.Score.PerClass (or PerTeacher) for
// that entity — mirroring original_source's evolutionary.py choice of
// crossing over along whichever axis the fitness function rewards. This
// is column-granular, so the child never needs chromatrix.Repair to
// restore the column-sum invariant; mutation instead nudges one hour
// between two of a block's available days, which is repair-free by
// construction too. Repair remains a defensive pass run once per child
// regardless, matching the teacher's habit of validating state it has
// reasoned should already be valid.
package evolution

import (
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vaniila/timetable-solver/internal/blockbuilder"
	"github.com/vaniila/timetable-solver/internal/chromatrix"
	"github.com/vaniila/timetable-solver/internal/domain"
	"github.com/vaniila/timetable-solver/internal/fitness"
	"github.com/vaniila/timetable-solver/pkg/config"
	"github.com/vaniila/timetable-solver/pkg/logger"
	"github.com/vaniila/timetable-solver/pkg/metrics"
)

const tournamentSize = 3

// Member pairs a chromosome with its cached fitness evaluation so the
// population never re-scores an unchanged individual.
type Member struct {
	Chromosome *chromatrix.Chromosome
	Score      fitness.Score
}

// Result is the outcome of a full evolutionary run.
type Result struct {
	Best        *chromatrix.Chromosome
	BestScore   fitness.Score
	Generations int
}

// Run drives the generational loop to completion and returns the best
// chromosome found. Each initial population slot and each generation's
// breeding step draw from their own seed substream, so re-running with
// the same config.Seed reproduces the same population.
func Run(cfg *config.Config, blocks []blockbuilder.Block, masks []domain.AvailabilityMask, idx *fitness.Index, collector *metrics.Collector, log *zap.Logger) (*Result, error) {
	hours := blockbuilder.Hours(blocks)

	population, err := initialPopulation(cfg, hours, masks, idx)
	if err != nil {
		return nil, err
	}

	var best Member
	for gen := 0; gen < cfg.Generations; gen++ {
		start := time.Now()

		sortPopulation(population)
		best = population[0]

		next := make([]Member, 0, cfg.PopulationSize)
		for i := 0; i < cfg.ElitismCount && i < len(population); i++ {
			next = append(next, population[i])
		}

		rng := substreamRNG(cfg.Seed, int64(gen)+1)
		for len(next) < cfg.PopulationSize {
			parentA := tournamentSelect(rng, population)
			parentB := tournamentSelect(rng, population)

			var child *chromatrix.Chromosome
			if rng.Intn(2) == 1 {
				child = crossoverTeacherAxis(parentA, parentB, blocks, idx)
			} else {
				child = crossoverClassAxis(parentA, parentB, blocks, idx)
			}
			mutate(rng, child, hours, masks, cfg.MutationRate)
			chromatrix.Repair(rng, child, hours, masks)

			score := fitness.Evaluate(idx, child, cfg.FitnessShape, cfg.Alphas)
			next = append(next, Member{Chromosome: child, Score: score})
		}
		population = next

		elapsed := time.Since(start)
		collector.ObserveGeneration(best.Score.Total, elapsed)
		if log != nil {
			log.Debug("generation complete", logger.GenerationFields(gen, best.Score.Total, elapsed)...)
		}
	}

	sortPopulation(population)
	best = population[0]

	return &Result{Best: best.Chromosome, BestScore: best.Score, Generations: cfg.Generations}, nil
}

func initialPopulation(cfg *config.Config, hours []int, masks []domain.AvailabilityMask, idx *fitness.Index) ([]Member, error) {
	population := make([]Member, cfg.PopulationSize)
	for i := 0; i < cfg.PopulationSize; i++ {
		rng := substreamRNG(cfg.Seed, -int64(i)-1)
		chrom, err := chromatrix.Sample(rng, hours, masks)
		if err != nil {
			return nil, err
		}
		population[i] = Member{
			Chromosome: chrom,
			Score:      fitness.Evaluate(idx, chrom, cfg.FitnessShape, cfg.Alphas),
		}
	}
	return population, nil
}

// substreamRNG derives a disjoint RNG stream for slot i from the run
// seed so every slot's draws are reproducible independent of execution
// order, letting a caller parallelize population evaluation safely.
func substreamRNG(seed, slot int64) *rand.Rand {
	const stride = 1_000_003
	return rand.New(rand.NewSource(seed + slot*stride))
}

func sortPopulation(population []Member) {
	sort.Slice(population, func(i, j int) bool {
		return population[i].Score.Total > population[j].Score.Total
	})
}

func tournamentSelect(rng *rand.Rand, population []Member) Member {
	best := population[rng.Intn(len(population))]
	for i := 1; i < tournamentSize; i++ {
		candidate := population[rng.Intn(len(population))]
		if candidate.Score.Total > best.Score.Total {
			best = candidate
		}
	}
	return best
}

// crossoverClassAxis builds a child by deciding, for each class c, which
// parent scored higher on fitness.Score.PerClass[c], then copying every
// column touching c from that parent. A block spanning more than one
// class (a grouped/power block) is claimed by whichever of its classes
// is resolved first and left alone afterward, since its single column
// cannot follow two parents at once. Because whole columns move, each
// already sums to hours[b]; the child is valid without touching any
// cell individually.
func crossoverClassAxis(a, b Member, blocks []blockbuilder.Block, idx *fitness.Index) *chromatrix.Chromosome {
	return axisCrossover(a, b, blocks, idx.NumClasses, idx.BlockClasses, a.Score.PerClass, b.Score.PerClass)
}

// crossoverTeacherAxis is crossoverClassAxis's teacher-axis analogue,
// driven by fitness.Score.PerTeacher instead.
func crossoverTeacherAxis(a, b Member, blocks []blockbuilder.Block, idx *fitness.Index) *chromatrix.Chromosome {
	return axisCrossover(a, b, blocks, idx.NumTeachers, idx.BlockTeachers, a.Score.PerTeacher, b.Score.PerTeacher)
}

// axisCrossover walks entities 0..entityCount in order; for each one not
// yet claimed by an earlier entity, it picks the parent with the higher
// per-entity fitness and copies every unclaimed block touching that
// entity (per blockEntities) from it. Any block touching no entity on
// this axis (shouldn't occur given blockbuilder's invariants) falls back
// to parent a so every column is still assigned.
func axisCrossover(a, b Member, blocks []blockbuilder.Block, entityCount int, blockEntities [][]int, perEntityA, perEntityB []float64) *chromatrix.Chromosome {
	child := chromatrix.New(len(blocks))
	claimed := make([]bool, len(blocks))

	for e := 0; e < entityCount; e++ {
		src := a.Chromosome
		if perEntityB[e] > perEntityA[e] {
			src = b.Chromosome
		}
		for blk, entities := range blockEntities {
			if claimed[blk] {
				continue
			}
			for _, be := range entities {
				if be == e {
					copyColumn(child, src, blk)
					claimed[blk] = true
					break
				}
			}
		}
	}

	for blk := range claimed {
		if !claimed[blk] {
			copyColumn(child, a.Chromosome, blk)
		}
	}
	return child
}

// copyColumn copies every weekday's cell for block blk from src into
// child.
func copyColumn(child, src *chromatrix.Chromosome, blk int) {
	for d := domain.Weekday(0); d < domain.WeekdayCount; d++ {
		child.Set(d, blk, src.At(d, blk))
	}
}

// mutate migrates one hour between two of a block's available days,
// with independent probability cfg.MutationRate per block. A migration
// never changes the column sum.
func mutate(rng *rand.Rand, chrom *chromatrix.Chromosome, hours []int, masks []domain.AvailabilityMask, rate float64) {
	for b := 0; b < chrom.Blocks; b++ {
		if hours[b] == 0 || rng.Float64() >= rate {
			continue
		}
		var from, to []domain.Weekday
		for d := domain.Weekday(0); d < domain.WeekdayCount; d++ {
			if !masks[b].Has(d) {
				continue
			}
			if chrom.At(d, b) > 0 {
				from = append(from, d)
			}
			if chrom.At(d, b) < chromatrix.MaxPerDay {
				to = append(to, d)
			}
		}
		if len(from) == 0 || len(to) == 0 {
			continue
		}
		src := from[rng.Intn(len(from))]
		dst := to[rng.Intn(len(to))]
		if src == dst {
			continue
		}
		chrom.Set(src, b, chrom.At(src, b)-1)
		chrom.Set(dst, b, chrom.At(dst, b)+1)
	}
}

