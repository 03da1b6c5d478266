// Package blockbuilder fuses a solve's requirements into blocks: the
// atomic scheduling units C3 through C6 place rather than individual
// requirements. It runs the two-phase fusion described by
// original_source's website/backend/helpers.py:generate_blocks —
// grouped (power) blocks first, then pairable cliques, with whatever
// hours remain falling out as singleton blocks.
package blockbuilder

import (
	"sort"

	appErrors "github.com/vaniila/timetable-solver/pkg/errors"
	"github.com/vaniila/timetable-solver/internal/domain"
)

// Block is a set of requirements placed together at the same (day, hour).
// Members of a grouped block may share a teacher or a class because they
// collapse into one placement interval; members of a pairable block
// always share a class. Build does not check that a pairable block's
// members have distinct teachers.
type Block struct {
	Members []domain.Requirement
	Hours   int
}

// Teachers returns the block's distinct teacher ids.
func (b Block) Teachers() []domain.ID {
	seen := map[domain.ID]bool{}
	var out []domain.ID
	for _, m := range b.Members {
		if !seen[m.Teacher] {
			seen[m.Teacher] = true
			out = append(out, m.Teacher)
		}
	}
	return out
}

// Classes returns the block's distinct class ids.
func (b Block) Classes() []domain.ID {
	seen := map[domain.ID]bool{}
	var out []domain.ID
	for _, m := range b.Members {
		if !seen[m.Class] {
			seen[m.Class] = true
			out = append(out, m.Class)
		}
	}
	return out
}

// Subjects returns the block's distinct subject ids.
func (b Block) Subjects() []domain.ID {
	seen := map[domain.ID]bool{}
	var out []domain.ID
	for _, m := range b.Members {
		if !seen[m.Subject] {
			seen[m.Subject] = true
			out = append(out, m.Subject)
		}
	}
	return out
}

// RoomSlots returns one subject id per distinct (subject, teacher) pair
// among the block's members — one room is needed per pair, matching
// original_source's linear_solver.py (required_no_of_rooms = len(block)).
// A pairable block's two subjects each need their own room; a power
// block's single subject needs one room per co-teaching teacher.
func (b Block) RoomSlots() []domain.ID {
	type pair struct{ subject, teacher domain.ID }
	seen := map[pair]bool{}
	var subjects []domain.ID
	for _, m := range b.Members {
		p := pair{m.Subject, m.Teacher}
		if !seen[p] {
			seen[p] = true
			subjects = append(subjects, m.Subject)
		}
	}
	return subjects
}

// RoomsNeeded is the number of distinct (subject, teacher) pairs in the
// block, i.e. len(RoomSlots()).
func (b Block) RoomsNeeded() int {
	return len(b.RoomSlots())
}

// Build fuses ctx's requirements into blocks, in deterministic
// (class_id, subject_id, teacher_id) order. It returns
// infeasible_block if the hours of the blocks a requirement participates
// in do not add up to exactly its own hours, which can only happen from
// a corrupt correction bookkeeping bug.
func Build(ctx *domain.Context) ([]Block, error) {
	reqs := sortedRequirements(ctx.Input.Requirements)

	correction := make(map[domain.ID]int, len(reqs))
	byID := make(map[domain.ID]domain.Requirement, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
	}

	var blocks []Block

	groupBlocks := buildGroupedBlocks(ctx, reqs, correction)
	blocks = append(blocks, groupBlocks...)

	pairBlocks := buildPairableBlocks(ctx, reqs, correction)
	blocks = append(blocks, pairBlocks...)

	singles := buildSingletons(reqs, correction)
	blocks = append(blocks, singles...)

	for _, r := range reqs {
		if correction[r.ID] != r.Hours {
			return nil, appErrors.InfeasibleBlock(int(r.ID))
		}
	}

	return blocks, nil
}

// sortedRequirements returns a copy of reqs ordered by (class, subject,
// teacher), the tie-break fixed by spec §4.2.
func sortedRequirements(reqs []domain.Requirement) []domain.Requirement {
	out := make([]domain.Requirement, len(reqs))
	copy(out, reqs)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Teacher < b.Teacher
	})
	return out
}

// buildGroupedBlocks implements Phase A.1: for each grouped rule and each
// of its class-partition groups, gather the matching requirements and
// emit one power block sized to their minimum residual hours.
func buildGroupedBlocks(ctx *domain.Context, reqs []domain.Requirement, correction map[domain.ID]int) []Block {
	var blocks []Block

	for _, rule := range ctx.Input.Grouped {
		for _, group := range rule.ClassPartition {
			inGroup := make(map[domain.ID]bool, len(group))
			for _, c := range group {
				inGroup[c] = true
			}

			var members []domain.Requirement
			for _, r := range reqs {
				if r.Subject != rule.Subject {
					continue
				}
				if !rule.HasTeacher(r.Teacher) {
					continue
				}
				if !inGroup[r.Class] {
					continue
				}
				members = append(members, r)
			}
			if len(members) < 2 {
				continue
			}

			minResidual := members[0].Hours - correction[members[0].ID]
			for _, m := range members[1:] {
				if residual := m.Hours - correction[m.ID]; residual < minResidual {
					minResidual = residual
				}
			}
			if minResidual <= 0 {
				continue
			}

			for _, m := range members {
				correction[m.ID] += minResidual
			}
			blocks = append(blocks, Block{Members: members, Hours: minResidual})
		}
	}

	return blocks
}

// pairableBlockKey canonicalizes a member set for dedup: the sorted list
// of requirement ids that make up the block.
type pairableBlockKey string

func keyOf(members []domain.Requirement) pairableBlockKey {
	ids := make([]int, len(members))
	for i, m := range members {
		ids[i] = int(m.ID)
	}
	sort.Ints(ids)
	key := make([]byte, 0, len(ids)*9)
	for _, id := range ids {
		key = append(key, byte(id), byte(id>>8), byte(id>>16), byte(id>>24),
			byte(id>>32), byte(id>>40), byte(id>>48), byte(id>>56), '|')
	}
	return pairableBlockKey(key)
}

// buildPairableBlocks implements Phase A.2: within each class, every
// requirement's pairable closure (itself plus every requirement whose
// subject is pairable with its own) is a candidate multi-member block.
// Closures with more than two members whose subjects repeat are split
// into (first, last) and (second, last) pairs (the fixed clique
// tie-break). Each surviving multi-member block then advances its hours
// one at a time while every member still has residual hours, mirroring
// generate_blocks' saturating while-loop.
func buildPairableBlocks(ctx *domain.Context, reqs []domain.Requirement, correction map[domain.ID]int) []Block {
	byClass := map[domain.ID][]domain.Requirement{}
	for _, r := range reqs {
		byClass[r.Class] = append(byClass[r.Class], r)
	}

	classIDs := make([]domain.ID, 0, len(byClass))
	for c := range byClass {
		classIDs = append(classIDs, c)
	}
	sort.Slice(classIDs, func(i, j int) bool { return classIDs[i] < classIDs[j] })

	type pending struct {
		members []domain.Requirement
	}
	seen := map[pairableBlockKey]bool{}
	var candidates []pending

	for _, c := range classIDs {
		classReqs := byClass[c]
		for _, r := range classReqs {
			pairableSubjects := map[domain.ID]bool{r.Subject: true}
			for _, other := range classReqs {
				if ctx.Input.Pairable.IsPairable(c, r.Subject, other.Subject) {
					pairableSubjects[other.Subject] = true
				}
			}

			var closure []domain.Requirement
			for _, other := range classReqs {
				if pairableSubjects[other.Subject] {
					closure = append(closure, other)
				}
			}
			if len(closure) < 2 {
				continue
			}

			if len(closure) > 2 {
				uniqueSubjects := map[domain.ID]bool{}
				for _, m := range closure {
					uniqueSubjects[m.Subject] = true
				}
				if len(uniqueSubjects) != len(closure) {
					first, second, last := closure[0], closure[1], closure[len(closure)-1]
					for _, pair := range [][2]domain.Requirement{{first, last}, {second, last}} {
						members := []domain.Requirement{pair[0], pair[1]}
						k := keyOf(members)
						if !seen[k] {
							seen[k] = true
							candidates = append(candidates, pending{members: members})
						}
					}
					continue
				}
			}

			k := keyOf(closure)
			if !seen[k] {
				seen[k] = true
				candidates = append(candidates, pending{members: closure})
			}
		}
	}

	hours := make([]int, len(candidates))
	for {
		advanced := false
		for i, cand := range candidates {
			allPositive := true
			for _, m := range cand.members {
				if m.Hours-correction[m.ID] <= 0 {
					allPositive = false
					break
				}
			}
			if !allPositive {
				continue
			}
			for _, m := range cand.members {
				correction[m.ID]++
			}
			hours[i]++
			advanced = true
		}
		if !advanced {
			break
		}
	}

	var blocks []Block
	for i, cand := range candidates {
		if hours[i] > 0 {
			blocks = append(blocks, Block{Members: cand.members, Hours: hours[i]})
		}
	}
	return blocks
}

// buildSingletons implements Phase B: any requirement with positive
// residual hours after grouped and pairable fusion becomes its own
// single-member block.
func buildSingletons(reqs []domain.Requirement, correction map[domain.ID]int) []Block {
	var blocks []Block
	for _, r := range reqs {
		residual := r.Hours - correction[r.ID]
		if residual <= 0 {
			continue
		}
		correction[r.ID] += residual
		blocks = append(blocks, Block{Members: []domain.Requirement{r}, Hours: residual})
	}
	return blocks
}

// Hours extracts the per-block hour vector h[b], the column-sum
// invariant C3's chromosomes must preserve.
func Hours(blocks []Block) []int {
	h := make([]int, len(blocks))
	for i, b := range blocks {
		h[i] = b.Hours
	}
	return h
}

// Masks computes each block's availability mask as the bitwise AND of
// every member teacher's weekday availability.
func Masks(ctx *domain.Context, blocks []Block) []domain.AvailabilityMask {
	masks := make([]domain.AvailabilityMask, len(blocks))
	for i, b := range blocks {
		mask := domain.FullWeek
		for _, t := range b.Teachers() {
			mask = mask.And(ctx.AvailabilityOf(t))
		}
		masks[i] = mask
	}
	return masks
}
