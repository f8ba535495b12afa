// Package classify assigns a completeness status to each gene group of a
// core set, combining candidate-hit evidence from the ortholog search with
// the group's cutoff profile under one of four score modes. Classification
// is a pure function of its inputs: it never mutates hits or profiles.
package classify

import (
	"errors"
	"fmt"
	"sort"

	"orthocheck/internal/evidence"
)

// Status is the completeness verdict for one gene group and query species.
type Status string

const (
	Complete   Status = "complete"
	Partial    Status = "partial"
	Missing    Status = "missing"
	Duplicated Status = "duplicated"
)

// Statuses returns all statuses in report order.
func Statuses() []Status {
	return []Status{Complete, Duplicated, Partial, Missing}
}

// ErrProfileNotFound signals that classification was invoked for a gene
// group the cutoff profile does not cover. This is an integration error
// (mismatched core-set versions), not a data condition, and aborts the run.
var ErrProfileNotFound = errors.New("cutoff profile not found")

// Check is one score comparison of a candidate hit against the profile.
type Check struct {
	Type evidence.ScoreType `json:"type"`
	// Value is the hit's score; zero when the hit carries no such score.
	Value float64 `json:"value"`
	// Lower is the profile's acceptance bound; zero when no threshold
	// could be derived for this score type.
	Lower float64 `json:"lower"`
	// HasScore and HasThreshold distinguish a failed comparison from an
	// impossible one in the evidence trail.
	HasScore     bool `json:"has_score"`
	HasThreshold bool `json:"has_threshold"`
	Pass         bool `json:"pass"`
}

// HitEvidence records how one candidate hit fared against a mode's
// predicate, for auditability.
type HitEvidence struct {
	Hit      evidence.CandidateHit `json:"hit"`
	Checks   []Check               `json:"checks"`
	FullPass bool                  `json:"full_pass"`
	// PassCount is the number of score checks that passed, independent
	// of the reciprocal-best requirement.
	PassCount int `json:"pass_count"`
	// ScoreSum is the sum of the hit's scores over the mode's checks,
	// used to rank co-candidates in the evidence trail.
	ScoreSum float64 `json:"score_sum"`
}

// Verdict is the classification outcome for one gene group, query species
// and mode, including the evidence that drove the decision.
type Verdict struct {
	Group        string        `json:"group"`
	QuerySpecies string        `json:"query_species"`
	Mode         int           `json:"mode"`
	Status       Status        `json:"status"`
	Evidence     []HitEvidence `json:"evidence,omitempty"`
	Note         string        `json:"note,omitempty"`
}

// BestHit returns the top-ranked candidate of the verdict's evidence, or
// nil when the group is missing without candidates.
func (v *Verdict) BestHit() *evidence.CandidateHit {
	if len(v.Evidence) == 0 {
		return nil
	}
	return &v.Evidence[0].Hit
}

// Classify applies the mode's predicate to the candidate hits of one gene
// group and returns the verdict. The profile is a read-only view; passing
// a profile for a different group (or nil) returns ErrProfileNotFound.
func Classify(group, querySpecies string, hits []evidence.CandidateHit, profile *evidence.Profile, mode Mode) (*Verdict, error) {
	if profile == nil || profile.Group != group {
		return nil, fmt.Errorf("group %s: %w", group, ErrProfileNotFound)
	}

	v := &Verdict{
		Group:        group,
		QuerySpecies: querySpecies,
		Mode:         mode.ID,
	}

	if len(hits) == 0 {
		v.Status = Missing
		v.Note = "no candidate hits"
		return v, nil
	}

	evaluated := make([]HitEvidence, 0, len(hits))
	for _, h := range hits {
		evaluated = append(evaluated, evaluateHit(h, profile, mode))
	}

	var full []HitEvidence
	for _, he := range evaluated {
		if he.FullPass {
			full = append(full, he)
		}
	}

	switch len(full) {
	case 0:
		partial := false
		for _, he := range evaluated {
			if he.PassCount > 0 {
				partial = true
				break
			}
		}
		sortByRank(evaluated)
		v.Evidence = evaluated
		if partial {
			v.Status = Partial
			v.Note = "no candidate satisfies the full mode predicate"
		} else {
			v.Status = Missing
			v.Note = "no candidate meets any score cutoff"
		}
	case 1:
		v.Status = Complete
		v.Evidence = leadWith(full[0], evaluated)
	default:
		// Several candidates independently satisfy the full predicate.
		// A single reciprocal-best hit among them is treated as the true
		// ortholog; any other split is surfaced as Duplicated rather
		// than resolved by an arbitrary score margin.
		if dom, ok := reciprocalDominant(full); ok {
			v.Status = Complete
			v.Evidence = leadWith(dom, evaluated)
			v.Note = fmt.Sprintf("reciprocal-best hit preferred over %d co-candidate(s)", len(full)-1)
		} else {
			v.Status = Duplicated
			sortByRank(full)
			v.Evidence = full
			v.Note = fmt.Sprintf("%d candidates satisfy the complete predicate", len(full))
		}
	}
	return v, nil
}

func evaluateHit(h evidence.CandidateHit, profile *evidence.Profile, mode Mode) HitEvidence {
	he := HitEvidence{Hit: h, Checks: make([]Check, 0, len(mode.Checks))}
	allPass := true
	for _, t := range mode.Checks {
		c := Check{Type: t}
		c.Value, c.HasScore = h.Score(t)
		var th evidence.Threshold
		th, c.HasThreshold = profile.Threshold(t)
		c.Lower = th.Lower
		c.Pass = c.HasScore && c.HasThreshold && c.Value >= th.Lower
		if c.Pass {
			he.PassCount++
		} else {
			allPass = false
		}
		if c.HasScore {
			he.ScoreSum += c.Value
		}
		he.Checks = append(he.Checks, c)
	}
	he.FullPass = allPass && (!mode.RequireReciprocal || h.ReciprocalBest)
	return he
}

// reciprocalDominant returns the single reciprocal-best candidate among
// the full passes, if exactly one exists.
func reciprocalDominant(full []HitEvidence) (HitEvidence, bool) {
	var dom HitEvidence
	n := 0
	for _, he := range full {
		if he.Hit.ReciprocalBest {
			dom = he
			n++
		}
	}
	return dom, n == 1
}

// sortByRank orders hit evidence for the audit trail: more passed checks
// first, then higher score sum, then protein ID for determinism.
func sortByRank(list []HitEvidence) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].PassCount != list[j].PassCount {
			return list[i].PassCount > list[j].PassCount
		}
		if list[i].ScoreSum != list[j].ScoreSum {
			return list[i].ScoreSum > list[j].ScoreSum
		}
		return list[i].Hit.ProteinID < list[j].Hit.ProteinID
	})
}

// leadWith puts the driving candidate first, followed by the remaining
// evaluated hits in rank order.
func leadWith(lead HitEvidence, all []HitEvidence) []HitEvidence {
	rest := make([]HitEvidence, 0, len(all)-1)
	for _, he := range all {
		if he.Hit.ProteinID == lead.Hit.ProteinID && he.Hit.RefSpecies == lead.Hit.RefSpecies {
			continue
		}
		rest = append(rest, he)
	}
	sortByRank(rest)
	return append([]HitEvidence{lead}, rest...)
}
