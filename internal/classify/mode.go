package classify

import "orthocheck/internal/evidence"

// Mode is one of the four evidence-combination policies, ordered by
// increasing strictness. A mode holds its predicate as data (the ordered
// list of required score comparisons plus the reciprocal-best flag), so
// adding a mode is a data change, not a new type.
type Mode struct {
	ID                int
	Name              string
	Checks            []evidence.ScoreType
	RequireReciprocal bool
}

var modes = []Mode{
	{
		ID:     1,
		Name:   "forward",
		Checks: []evidence.ScoreType{evidence.FASForward},
	},
	{
		ID:     2,
		Name:   "reciprocal",
		Checks: []evidence.ScoreType{evidence.FASForward, evidence.FASReverse},
	},
	{
		ID:     3,
		Name:   "triple",
		Checks: []evidence.ScoreType{evidence.FASForward, evidence.FASReverse, evidence.SeqSim},
	},
	{
		ID:                4,
		Name:              "strict",
		Checks:            []evidence.ScoreType{evidence.FASForward, evidence.FASReverse, evidence.SeqSim},
		RequireReciprocal: true,
	},
}

// Modes returns all four score modes in ascending strictness order.
func Modes() []Mode {
	out := make([]Mode, len(modes))
	copy(out, modes)
	return out
}

// ModeByID returns the mode with the given ID (1..4).
func ModeByID(id int) (Mode, bool) {
	for _, m := range modes {
		if m.ID == id {
			return m, true
		}
	}
	return Mode{}, false
}
