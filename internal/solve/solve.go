// Package solve orchestrates one end-to-end timetable solve: C2 block
// fusion, C5's evolutionary day distribution (seeded and validated as
// C3 chromosomes, scored by C4), and C6's per-day intraday placement.
// It is the in-memory, database-free reconstruction of the teacher's
// ScheduleGeneratorService.Generate/Save pair
// (internal/service/schedule_generator_service.go): validate the
// request, check the preconditions the domain actually needs, build the
// result, score it, and hand back a plan the caller can persist however
// it likes.
package solve

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaniila/timetable-solver/internal/blockbuilder"
	"github.com/vaniila/timetable-solver/internal/chromatrix"
	"github.com/vaniila/timetable-solver/internal/dayscheduler"
	"github.com/vaniila/timetable-solver/internal/domain"
	"github.com/vaniila/timetable-solver/internal/evolution"
	"github.com/vaniila/timetable-solver/internal/fitness"
	"github.com/vaniila/timetable-solver/pkg/config"
	appErrors "github.com/vaniila/timetable-solver/pkg/errors"
	"github.com/vaniila/timetable-solver/pkg/logger"
	"github.com/vaniila/timetable-solver/pkg/metrics"
)

// Plan is one solve's complete output: the fused blocks, the winning
// chromosome, its fitness, every day's intraday placement, and any
// non-fatal warnings (solver_timeout downgrades) collected along the
// way. RunID identifies this solve in its log lines; a persisted
// chromosome is matched back to its block list by the block-list hash
// in its header (EncodeChromosome), which does not carry the RunID.
type Plan struct {
	RunID      string
	Seed       int64
	Blocks     []blockbuilder.Block
	Chromosome *chromatrix.Chromosome
	Fitness    float64
	Generations int
	Days       []dayscheduler.DayPlan
	Warnings   []*appErrors.Error
}

// Solve runs the full pipeline against input under cfg, reporting
// progress through log and collector. It returns the spec's tagged
// errors unwrapped: invalid_configuration or unknown_reference from
// domain.NewContext, infeasible_block from block fusion or chromosome
// sampling, and day_infeasible or solver_timeout (as a hard error, only
// when a day could not be placed at all) from the per-day scheduler.
func Solve(ctx context.Context, cfg *config.Config, input *domain.SolveInput, collector *metrics.Collector, log *zap.Logger) (*Plan, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	dctx, err := domain.NewContext(input)
	if err != nil {
		return nil, err
	}

	blocks, err := blockbuilder.Build(dctx)
	if err != nil {
		return nil, err
	}
	masks := blockbuilder.Masks(dctx, blocks)
	idx := fitness.BuildIndex(dctx, blocks)

	runID := uuid.NewString()
	if log != nil {
		log.Info("solve started", logger.RunFields(runID, cfg.Seed)...)
	}

	result, err := evolution.Run(cfg, blocks, masks, idx, collector, log)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		RunID:       runID,
		Seed:        cfg.Seed,
		Blocks:      blocks,
		Chromosome:  result.Best,
		Fitness:     result.BestScore.Total,
		Generations: result.Generations,
	}

	budget := time.Duration(cfg.DayTimeBudgetMs) * time.Millisecond
	for day := domain.Weekday(0); day < domain.WeekdayCount; day++ {
		select {
		case <-ctx.Done():
			return nil, appErrors.Wrap(ctx.Err(), appErrors.KindInternal, "solve cancelled")
		default:
		}

		dayPlan, err := dayscheduler.Schedule(dctx, blocks, result.Best, day, cfg.Horizon, budget, collector)
		if err != nil {
			return nil, err
		}
		plan.Days = append(plan.Days, *dayPlan)
		if dayPlan.Warning != nil {
			plan.Warnings = append(plan.Warnings, dayPlan.Warning)
			if log != nil {
				log.Warn("day solve downgraded to best feasible solution", logger.DayFields(int(day), "feasible", 0, 0)...)
			}
		}
	}

	return plan, nil
}
