// Command solve runs one demonstration timetable solve end to end:
// it loads configuration the way the teacher's api-gateway binary
// does, builds a logger and a metrics collector, assembles a small
// sample SolveInput, and prints the resulting plan. It intentionally
// carries no HTTP server — spec.md's non-goals exclude any outer
// transport surface — but an operator embedding this module in a
// service can mount (*metrics.Collector).Handler() on their own mux.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/vaniila/timetable-solver/internal/domain"
	"github.com/vaniila/timetable-solver/internal/solve"
	"github.com/vaniila/timetable-solver/pkg/config"
	"github.com/vaniila/timetable-solver/pkg/logger"
	"github.com/vaniila/timetable-solver/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	input := sampleInput()

	plan, err := solve.Solve(context.Background(), cfg, input, collector, logr)
	if err != nil {
		logr.Sugar().Fatalw("solve failed", "error", err)
	}

	fmt.Printf("run %s: fitness=%.2f generations=%d blocks=%d warnings=%d\n",
		plan.RunID, plan.Fitness, plan.Generations, len(plan.Blocks), len(plan.Warnings))
	for _, day := range plan.Days {
		fmt.Printf("  day %d: %d placements\n", day.Day, len(day.Placements))
	}
}

// sampleInput builds a small, internally consistent SolveInput: two
// classes, three teachers, four subjects (one border, two pairable),
// two rooms, and a handful of requirements — enough to exercise block
// fusion, the evolutionary loop, and per-day placement without needing
// an external data source.
func sampleInput() *domain.SolveInput {
	const (
		tAlice domain.ID = 1
		tBob   domain.ID = 2
		tCarol domain.ID = 3

		cOne domain.ID = 10
		cTwo domain.ID = 11

		sMath    domain.ID = 20
		sPhysics domain.ID = 21
		sArt     domain.ID = 22
		sMusic   domain.ID = 23

		rMain  domain.ID = 30
		rAnnex domain.ID = 31
	)

	pairable := domain.NewPairableRelation()
	pairable.AddGlobalGroup(sArt, sMusic)

	return &domain.SolveInput{
		Teachers: []domain.Teacher{
			{ID: tAlice, Name: "Alice"},
			{ID: tBob, Name: "Bob"},
			{ID: tCarol, Name: "Carol"},
		},
		Classes: []domain.Class{
			{ID: cOne, Name: "Class 1"},
			{ID: cTwo, Name: "Class 2"},
		},
		Subjects: []domain.Subject{
			{ID: sMath, Name: "Mathematics"},
			{ID: sPhysics, Name: "Physics", Border: true},
			{ID: sArt, Name: "Art"},
			{ID: sMusic, Name: "Music"},
		},
		Rooms: []domain.Room{
			{ID: rMain, Name: "Main Hall"},
			{ID: rAnnex, Name: "Annex"},
		},
		Requirements: []domain.Requirement{
			{ID: 100, Teacher: tAlice, Class: cOne, Subject: sMath, Hours: 5},
			{ID: 101, Teacher: tBob, Class: cOne, Subject: sPhysics, Hours: 3},
			{ID: 102, Teacher: tCarol, Class: cOne, Subject: sArt, Hours: 2},
			{ID: 103, Teacher: tCarol, Class: cOne, Subject: sMusic, Hours: 2},
			{ID: 104, Teacher: tAlice, Class: cTwo, Subject: sMath, Hours: 4},
			{ID: 105, Teacher: tBob, Class: cTwo, Subject: sPhysics, Hours: 3},
		},
		Availability: map[domain.ID]domain.AvailabilityMask{
			tAlice: domain.FullWeek,
			tBob:   domain.FullWeek,
			tCarol: domain.FullWeek,
		},
		Pairable: pairable,
		RoomCompatibility: domain.RoomCompatibility{
			sMath:    {rMain},
			sPhysics: {rMain},
			sArt:     {rMain, rAnnex},
			sMusic:   {rMain, rAnnex},
		},
	}
}
