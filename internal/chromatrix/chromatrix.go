// Package chromatrix implements the day-distribution chromosome (C3):
// a 5-row, one-column-per-block matrix of small integers recording how
// many of a block's hours fall on each weekday. It mirrors
// original_source's evolutionary.py chromosome representation — a
// numpy array of shape (5, len(blocks)) with a per-cell cap of 2 and a
// column-sum equal to the block's total hours — expressed here as a
// flat byte slice plus a handful of invariant-preserving operations.
package chromatrix

import (
	"math/rand"

	appErrors "github.com/vaniila/timetable-solver/pkg/errors"
	"github.com/vaniila/timetable-solver/internal/domain"
)

// MaxPerDay is the per-cell cap: a block may not be scheduled more than
// twice in the same weekday.
const MaxPerDay = 2

const maxSampleAttempts = 2000

// Chromosome is a dense (domain.WeekdayCount x blocks) matrix, row-major
// by day, of how many of each block's hours land on each weekday.
type Chromosome struct {
	Blocks int
	Data   []uint8
}

// New allocates a zeroed chromosome for the given number of blocks.
func New(blocks int) *Chromosome {
	return &Chromosome{Blocks: blocks, Data: make([]uint8, domain.WeekdayCount*blocks)}
}

func (c *Chromosome) index(day domain.Weekday, b int) int {
	return int(day)*c.Blocks + b
}

// At returns the hour count for block b on day.
func (c *Chromosome) At(day domain.Weekday, b int) uint8 {
	return c.Data[c.index(day, b)]
}

// Set assigns the hour count for block b on day.
func (c *Chromosome) Set(day domain.Weekday, b int, v uint8) {
	c.Data[c.index(day, b)] = v
}

// ColumnSum returns the total hours assigned to block b across the week.
func (c *Chromosome) ColumnSum(b int) int {
	sum := 0
	for d := domain.Weekday(0); d < domain.WeekdayCount; d++ {
		sum += int(c.At(d, b))
	}
	return sum
}

// Clone returns an independent copy.
func (c *Chromosome) Clone() *Chromosome {
	out := &Chromosome{Blocks: c.Blocks, Data: make([]uint8, len(c.Data))}
	copy(out.Data, c.Data)
	return out
}

// Valid reports whether c satisfies every structural invariant: every
// cell within [0, MaxPerDay], every column summing to hours[b], and
// every masked-out day holding a zero cell.
func Valid(c *Chromosome, hours []int, masks []domain.AvailabilityMask) bool {
	if c.Blocks != len(hours) || c.Blocks != len(masks) {
		return false
	}
	for b := 0; b < c.Blocks; b++ {
		sum := 0
		for d := domain.Weekday(0); d < domain.WeekdayCount; d++ {
			v := c.At(d, b)
			if v > MaxPerDay {
				return false
			}
			if v > 0 && !masks[b].Has(d) {
				return false
			}
			sum += int(v)
		}
		if sum != hours[b] {
			return false
		}
	}
	return true
}

// availableDays returns the weekdays set in mask.
func availableDays(mask domain.AvailabilityMask) []domain.Weekday {
	var days []domain.Weekday
	for d := domain.Weekday(0); d < domain.WeekdayCount; d++ {
		if mask.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// sampleColumn draws a capacity-respecting distribution of n hours
// across days by repeated uniform multinomial draws, rejecting and
// redrawing the whole draw whenever any day exceeds MaxPerDay (whole-draw
// rejection, rather than clipping the excess and redrawing only it).
func sampleColumn(rng *rand.Rand, n int, days []domain.Weekday) ([domain.WeekdayCount]uint8, error) {
	var counts [domain.WeekdayCount]uint8
	if n == 0 {
		return counts, nil
	}
	if len(days) == 0 || n > len(days)*MaxPerDay {
		return counts, appErrors.New(appErrors.KindInfeasibleBlock, "requirement hours exceed availability capacity")
	}

	for attempt := 0; attempt < maxSampleAttempts; attempt++ {
		var trial [domain.WeekdayCount]uint8
		ok := true
		for i := 0; i < n; i++ {
			d := days[rng.Intn(len(days))]
			trial[d]++
			if trial[d] > MaxPerDay {
				ok = false
				break
			}
		}
		if ok {
			return trial, nil
		}
	}
	return counts, appErrors.New(appErrors.KindInfeasibleBlock, "could not sample a capacity-respecting day distribution")
}

// Sample draws a fresh, structurally valid chromosome for the given
// block-hour vector and availability masks.
func Sample(rng *rand.Rand, hours []int, masks []domain.AvailabilityMask) (*Chromosome, error) {
	if len(hours) != len(masks) {
		return nil, appErrors.New(appErrors.KindInternal, "hours and masks length mismatch")
	}
	c := New(len(hours))
	for b, h := range hours {
		days := availableDays(masks[b])
		column, err := sampleColumn(rng, h, days)
		if err != nil {
			return nil, appErrors.InfeasibleBlock(b)
		}
		for d := domain.Weekday(0); d < domain.WeekdayCount; d++ {
			c.Set(d, b, column[d])
		}
	}
	return c, nil
}

// Repair restores the column-sum invariant after crossover, which may
// leave a column over or under its block's required hours. Excess hours
// are removed from randomly chosen positive cells; deficits are filled
// into randomly chosen available, non-saturated cells. It never touches
// a masked-out day.
func Repair(rng *rand.Rand, c *Chromosome, hours []int, masks []domain.AvailabilityMask) {
	for b, target := range hours {
		days := availableDays(masks[b])
		for {
			sum := c.ColumnSum(b)
			if sum == target {
				break
			}
			if sum > target {
				d := pickWithCondition(rng, days, func(d domain.Weekday) bool { return c.At(d, b) > 0 })
				if d == noDay {
					break
				}
				c.Set(d, b, c.At(d, b)-1)
				continue
			}
			d := pickWithCondition(rng, days, func(d domain.Weekday) bool { return c.At(d, b) < MaxPerDay })
			if d == noDay {
				break
			}
			c.Set(d, b, c.At(d, b)+1)
		}
	}
}

const noDay = domain.Weekday(-1)

// pickWithCondition returns a uniformly random day among days satisfying
// cond, or noDay if none qualify.
func pickWithCondition(rng *rand.Rand, days []domain.Weekday, cond func(domain.Weekday) bool) domain.Weekday {
	var candidates []domain.Weekday
	for _, d := range days {
		if cond(d) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return noDay
	}
	return candidates[rng.Intn(len(candidates))]
}

