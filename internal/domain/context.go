package domain

import (
	"strconv"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/vaniila/timetable-solver/pkg/errors"
)

// SolveInput is the pre-materialised snapshot a caller supplies for one
// solve: every entity and rule by value, read once and never queried
// again (spec §9's "from a query-based ORM to a pre-materialised
// snapshot" design note).
type SolveInput struct {
	Teachers     []Teacher
	Classes      []Class
	Subjects     []Subject
	Rooms        []Room
	Requirements []Requirement `validate:"required,min=1,dive"`

	// Availability maps each teacher id to its 5-bit weekday mask.
	Availability map[ID]AvailabilityMask

	Pairable          *PairableRelation
	Grouped           []GroupedRule
	RoomCompatibility RoomCompatibility
}

// Validate runs struct-tag validation over the requirement list and
// checks that every requirement, availability entry, grouped rule and
// room-compatibility entry refers to an id present in the entity pools,
// surfacing the spec's unknown_reference error. The pairable relation's
// subject and class ids are not checked.
func (in *SolveInput) Validate() error {
	if err := validator.New().Struct(in); err != nil {
		return appErrors.Wrap(err, appErrors.KindInvalidConfiguration, "invalid solve input")
	}

	teachers := idSet(in.Teachers, func(t Teacher) ID { return t.ID })
	classes := idSet(in.Classes, func(c Class) ID { return c.ID })
	subjects := idSet(in.Subjects, func(s Subject) ID { return s.ID })
	rooms := idSet(in.Rooms, func(r Room) ID { return r.ID })

	for _, r := range in.Requirements {
		if !teachers[r.Teacher] {
			return appErrors.UnknownReference("requirement", idString(r.Teacher))
		}
		if !classes[r.Class] {
			return appErrors.UnknownReference("requirement", idString(r.Class))
		}
		if !subjects[r.Subject] {
			return appErrors.UnknownReference("requirement", idString(r.Subject))
		}
	}
	for t := range in.Availability {
		if !teachers[t] {
			return appErrors.UnknownReference("availability", idString(t))
		}
	}
	for _, g := range in.Grouped {
		if !subjects[g.Subject] {
			return appErrors.UnknownReference("grouped", idString(g.Subject))
		}
		for _, t := range g.TeacherSet {
			if !teachers[t] {
				return appErrors.UnknownReference("grouped", idString(t))
			}
		}
		for _, group := range g.ClassPartition {
			for _, c := range group {
				if !classes[c] {
					return appErrors.UnknownReference("grouped", idString(c))
				}
			}
		}
	}
	for s, roomIDs := range in.RoomCompatibility {
		if !subjects[s] {
			return appErrors.UnknownReference("room_compatibility", idString(s))
		}
		if len(roomIDs) == 0 {
			return appErrors.UnknownReference("room_compatibility", idString(s))
		}
		for _, rm := range roomIDs {
			if !rooms[rm] {
				return appErrors.UnknownReference("room_compatibility", idString(rm))
			}
		}
	}
	return nil
}

func idSet[T any](items []T, key func(T) ID) map[ID]bool {
	set := make(map[ID]bool, len(items))
	for _, item := range items {
		set[key(item)] = true
	}
	return set
}

func idString(id ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Context is the dense-index table built once from a SolveInput. C2–C6
// borrow it immutably for the remainder of a solve (spec §9's "from
// entity object graphs to dense indices" design note).
type Context struct {
	Input *SolveInput

	TeacherIndex map[ID]int
	ClassIndex   map[ID]int
	SubjectIndex map[ID]int
	RoomIndex    map[ID]int

	BorderSubjects map[ID]bool
}

// NewContext validates input and builds its dense index tables.
func NewContext(input *SolveInput) (*Context, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	ctx := &Context{
		Input:          input,
		TeacherIndex:   make(map[ID]int, len(input.Teachers)),
		ClassIndex:     make(map[ID]int, len(input.Classes)),
		SubjectIndex:   make(map[ID]int, len(input.Subjects)),
		RoomIndex:      make(map[ID]int, len(input.Rooms)),
		BorderSubjects: make(map[ID]bool),
	}
	for i, t := range input.Teachers {
		ctx.TeacherIndex[t.ID] = i
	}
	for i, c := range input.Classes {
		ctx.ClassIndex[c.ID] = i
	}
	for i, s := range input.Subjects {
		ctx.SubjectIndex[s.ID] = i
		if s.Border {
			ctx.BorderSubjects[s.ID] = true
		}
	}
	for i, r := range input.Rooms {
		ctx.RoomIndex[r.ID] = i
	}
	return ctx, nil
}

// AvailabilityOf returns the packed weekday mask for a teacher, defaulting
// to FullWeek when the caller did not supply one.
func (c *Context) AvailabilityOf(teacher ID) AvailabilityMask {
	if mask, ok := c.Input.Availability[teacher]; ok {
		return mask
	}
	return FullWeek
}

// IsBorder reports whether subject s must sit at a class's first or last
// hour when scheduled.
func (c *Context) IsBorder(s ID) bool {
	return c.BorderSubjects[s]
}
