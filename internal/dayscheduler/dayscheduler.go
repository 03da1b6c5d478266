// Package dayscheduler implements C6: given one day's column of a
// chromosome, place every scheduled block occurrence at an exact hour,
// assign it a compatible room, and keep each class's hours gap-free.
// It is the Go-native reconstruction of original_source's
// linear_solver.py model — IntVar per placement, NoOverlap per teacher
// and per class, contiguity, optional-interval room assignment, border
// placement, minimize the sum of teacher day-spans — built on
// internal/cpengine instead of CP-SAT. Because every placement is one
// hour long, this package runs cpengine's backtracker to a first
// feasible assignment and then re-solves with a tightening upper bound
// on the objective until no better assignment exists or the day's time
// budget elapses, the same iterative-deepening shape CP-SAT's
// branch-and-bound search would follow.
package dayscheduler

import (
	"sort"
	"time"

	appErrors "github.com/vaniila/timetable-solver/pkg/errors"
	"github.com/vaniila/timetable-solver/internal/blockbuilder"
	"github.com/vaniila/timetable-solver/internal/chromatrix"
	"github.com/vaniila/timetable-solver/internal/cpengine"
	"github.com/vaniila/timetable-solver/internal/domain"
	"github.com/vaniila/timetable-solver/pkg/metrics"
)

// Placement is one block occurrence pinned to an hour and, when room
// compatibility data was supplied, one room per distinct (subject,
// teacher) pair the block carries (blockbuilder.Block.RoomsNeeded).
type Placement struct {
	Block domain.ID // index into the block slice, carried as domain.ID for Plan serialization
	Day   domain.Weekday
	Hour  int
	Rooms []domain.ID // nil means no room constraint applied
}

// DayPlan is one day's complete placement set.
type DayPlan struct {
	Day        domain.Weekday
	Placements []Placement
	// Warning is non-nil when the solver exhausted its time budget and
	// downgraded to the best feasible assignment found rather than the
	// proven optimum (spec's solver_timeout, a non-fatal condition).
	Warning *appErrors.Error
}

type occurrence struct {
	blockIndex int
}

// Schedule places every occurrence implied by chrom's column for day.
// It returns day_infeasible if the search proves that no placement
// satisfies the teacher/class/room/contiguity constraints,
// solver_timeout if the time budget elapses before any placement is
// found, and otherwise the best assignment found, flagging
// DayPlan.Warning if the budget elapsed before the search could prove
// optimality.
func Schedule(ctx *domain.Context, blocks []blockbuilder.Block, chrom *chromatrix.Chromosome, day domain.Weekday, horizon int, budget time.Duration, collector *metrics.Collector) (*DayPlan, error) {
	start := time.Now()

	var occurrences []occurrence
	for b := 0; b < chrom.Blocks; b++ {
		for k := 0; k < int(chrom.At(day, b)); k++ {
			occurrences = append(occurrences, occurrence{blockIndex: b})
		}
	}
	if len(occurrences) == 0 {
		collector.ObserveDay(int(day), "optimal", time.Since(start))
		return &DayPlan{Day: day}, nil
	}

	domains := make([]cpengine.Domain, len(occurrences))
	for i := range occurrences {
		domains[i] = cpengine.FullDomain(horizon)
	}

	groups := buildAllDifferentGroups(blocks, occurrences)
	roomsEnabled := len(ctx.Input.RoomCompatibility) > 0

	deadline := start.Add(budget)
	var bestAssignment []int
	bestCost := -1
	timedOut := false

	for {
		if !time.Now().Before(deadline) {
			timedOut = true
			break
		}
		bound := bestCost
		problem := &cpengine.Problem{
			Domains:      domains,
			AllDifferent: groups,
			Deadline:     deadline,
			LeafCheck: func(assignment []int) bool {
				return leafCheck(ctx, blocks, occurrences, assignment, roomsEnabled, bound)
			},
		}
		sol := cpengine.Solve(problem)
		switch sol.Status {
		case cpengine.StatusSolved:
			bestAssignment = sol.Assignment
			bestCost = teacherSpanCost(ctx, blocks, occurrences, sol.Assignment)
			continue
		case cpengine.StatusTimeout:
			timedOut = true
		case cpengine.StatusInfeasible:
			// no assignment beats bound (or none exists at all)
		}
		break
	}

	elapsed := time.Since(start)
	if bestAssignment == nil {
		if timedOut {
			collector.ObserveDay(int(day), "timeout", elapsed)
			return nil, appErrors.SolverTimeout(int(day))
		}
		collector.ObserveDay(int(day), "infeasible", elapsed)
		return nil, appErrors.DayInfeasible(int(day))
	}

	placements := buildPlacements(ctx, blocks, occurrences, bestAssignment, day, roomsEnabled)

	plan := &DayPlan{Day: day, Placements: placements}
	status := "optimal"
	if timedOut {
		status = "feasible"
		plan.Warning = appErrors.SolverTimeout(int(day))
	}
	collector.ObserveDay(int(day), status, elapsed)
	return plan, nil
}

func isBorderBlock(ctx *domain.Context, b blockbuilder.Block) bool {
	for _, s := range b.Subjects() {
		if ctx.IsBorder(s) {
			return true
		}
	}
	return false
}

func buildAllDifferentGroups(blocks []blockbuilder.Block, occurrences []occurrence) [][]int {
	teacherGroups := map[domain.ID][]int{}
	classGroups := map[domain.ID][]int{}
	for i, occ := range occurrences {
		block := blocks[occ.blockIndex]
		for _, t := range block.Teachers() {
			teacherGroups[t] = append(teacherGroups[t], i)
		}
		for _, c := range block.Classes() {
			classGroups[c] = append(classGroups[c], i)
		}
	}

	var groups [][]int
	for _, g := range teacherGroups {
		if len(g) > 1 {
			groups = append(groups, g)
		}
	}
	for _, g := range classGroups {
		if len(g) > 1 {
			groups = append(groups, g)
		}
	}
	return groups
}

// leafCheck verifies, over one complete hour assignment, that every
// class's occupied hours are gap-free, that every border occurrence
// sits at its own class's first or last occupied hour that day (spec
// invariant S6, reified in original_source/linear_solver.py:554-571
// against each group's day_start/day_end rather than the day's absolute
// edge), that every hour's occurrences can be matched to distinct
// compatible rooms (when room data was supplied), and — once a feasible
// solution has been found at least once — that this assignment's
// teacher-span cost improves on bound.
func leafCheck(ctx *domain.Context, blocks []blockbuilder.Block, occurrences []occurrence, assignment []int, roomsEnabled bool, bound int) bool {
	hoursByClass := map[domain.ID][]int{}
	for i, occ := range occurrences {
		for _, c := range blocks[occ.blockIndex].Classes() {
			hoursByClass[c] = append(hoursByClass[c], assignment[i])
		}
	}
	for _, hrs := range hoursByClass {
		if !contiguous(hrs) {
			return false
		}
	}

	if !bordersAtClassBoundary(ctx, blocks, occurrences, assignment, hoursByClass) {
		return false
	}

	if roomsEnabled {
		byHour := map[int][]int{}
		for i, h := range assignment {
			byHour[h] = append(byHour[h], i)
		}
		for _, occIdxs := range byHour {
			if !roomsMatch(ctx, blocks, occurrences, occIdxs) {
				return false
			}
		}
	}

	if bound >= 0 {
		cost := teacherSpanCost(ctx, blocks, occurrences, assignment)
		if cost >= bound {
			return false
		}
	}

	return true
}

// contiguous reports whether hrs, once sorted, has no gaps. AllDifferent
// over the owning class's occurrences already guarantees no duplicates.
func contiguous(hrs []int) bool {
	if len(hrs) <= 1 {
		return true
	}
	sorted := append([]int(nil), hrs...)
	sort.Ints(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] != 1 {
			return false
		}
	}
	return true
}

// roomRow is one bipartite-matching left-node: one occurrence's one
// (subject, teacher) room slot, carrying which occurrence it belongs to
// so buildPlacements can assign the matched room back to it.
type roomRow struct {
	occIdx     int
	candidates []int // room indices
}

// buildRoomRows lays out one row per distinct (subject, teacher) pair
// across occIdxs's occurrences — blockbuilder.Block.RoomsNeeded rows per
// occurrence, not one — so a pairable block's two subjects or a power
// block's several co-teachers each claim their own room.
func buildRoomRows(ctx *domain.Context, blocks []blockbuilder.Block, occurrences []occurrence, occIdxs []int) []roomRow {
	var rows []roomRow
	for _, occIdx := range occIdxs {
		block := blocks[occurrences[occIdx].blockIndex]
		for _, subject := range block.RoomSlots() {
			var candidates []int
			for _, rid := range compatibleRoomsForSubject(ctx, subject) {
				candidates = append(candidates, ctx.RoomIndex[rid])
			}
			rows = append(rows, roomRow{occIdx: occIdx, candidates: candidates})
		}
	}
	return rows
}

func roomsMatch(ctx *domain.Context, blocks []blockbuilder.Block, occurrences []occurrence, occIdxs []int) bool {
	rows := buildRoomRows(ctx, blocks, occurrences, occIdxs)
	adj := make([][]int, len(rows))
	for i, row := range rows {
		adj[i] = row.candidates
	}
	matching := cpengine.MaximumBipartiteMatching(adj, len(ctx.Input.Rooms))
	for _, m := range matching {
		if m == -1 {
			return false
		}
	}
	return true
}

// compatibleRoomsForSubject returns s's compatible rooms via
// RoomCompatibility.Compatible. A subject absent from RoomCompatibility
// entirely is unconstrained and gets every room, matching the "no entry
// means no restriction" convention Context.AvailabilityOf already uses
// for teachers.
func compatibleRoomsForSubject(ctx *domain.Context, s domain.ID) []domain.ID {
	if _, declared := ctx.Input.RoomCompatibility[s]; declared {
		return ctx.Input.RoomCompatibility.Compatible(s)
	}
	out := make([]domain.ID, len(ctx.Input.Rooms))
	for i, room := range ctx.Input.Rooms {
		out[i] = room.ID
	}
	return out
}

// classBounds returns each class's earliest and latest occupied hour,
// from hoursByClass as already accumulated by leafCheck.
func classBounds(hoursByClass map[domain.ID][]int) map[domain.ID][2]int {
	bounds := make(map[domain.ID][2]int, len(hoursByClass))
	for c, hrs := range hoursByClass {
		mn, mx := hrs[0], hrs[0]
		for _, h := range hrs[1:] {
			if h < mn {
				mn = h
			}
			if h > mx {
				mx = h
			}
		}
		bounds[c] = [2]int{mn, mx}
	}
	return bounds
}

// bordersAtClassBoundary verifies every border occurrence lands on the
// first or last occupied hour of each class it belongs to (S6), not the
// day's absolute edge — a class whose only occurrences that day are two
// border-block placements must accept both, wherever the search happens
// to put them, since both are trivially that class's min and max hour.
func bordersAtClassBoundary(ctx *domain.Context, blocks []blockbuilder.Block, occurrences []occurrence, assignment []int, hoursByClass map[domain.ID][]int) bool {
	bounds := classBounds(hoursByClass)
	for i, occ := range occurrences {
		block := blocks[occ.blockIndex]
		if !isBorderBlock(ctx, block) {
			continue
		}
		h := assignment[i]
		for _, c := range block.Classes() {
			b := bounds[c]
			if h != b[0] && h != b[1] {
				return false
			}
		}
	}
	return true
}

// teacherSpanCost sums, over every teacher with at least one occurrence
// that day, the span between their earliest and latest assigned hour —
// the quantity C6 minimizes, matching linear_solver.py's objective.
func teacherSpanCost(ctx *domain.Context, blocks []blockbuilder.Block, occurrences []occurrence, assignment []int) int {
	spans := map[domain.ID][2]int{} // [min, max]
	for i, occ := range occurrences {
		h := assignment[i]
		for _, t := range blocks[occ.blockIndex].Teachers() {
			if mm, ok := spans[t]; ok {
				if h < mm[0] {
					mm[0] = h
				}
				if h > mm[1] {
					mm[1] = h
				}
				spans[t] = mm
			} else {
				spans[t] = [2]int{h, h}
			}
		}
	}
	total := 0
	for _, mm := range spans {
		total += mm[1] - mm[0]
	}
	return total
}

func buildPlacements(ctx *domain.Context, blocks []blockbuilder.Block, occurrences []occurrence, assignment []int, day domain.Weekday, roomsEnabled bool) []Placement {
	placements := make([]Placement, len(occurrences))
	byHour := map[int][]int{}
	for i, h := range assignment {
		byHour[h] = append(byHour[h], i)
	}

	roomsByOcc := map[int][]domain.ID{}
	if roomsEnabled {
		for _, occIdxs := range byHour {
			rows := buildRoomRows(ctx, blocks, occurrences, occIdxs)
			adj := make([][]int, len(rows))
			for i, row := range rows {
				adj[i] = row.candidates
			}
			matching := cpengine.MaximumBipartiteMatching(adj, len(ctx.Input.Rooms))
			for i, row := range rows {
				if matching[i] != -1 {
					roomsByOcc[row.occIdx] = append(roomsByOcc[row.occIdx], ctx.Input.Rooms[matching[i]].ID)
				}
			}
		}
	}

	for i, occ := range occurrences {
		placements[i] = Placement{
			Block: domain.ID(occ.blockIndex),
			Day:   day,
			Hour:  assignment[i],
			Rooms: roomsByOcc[i],
		}
	}
	return placements
}
