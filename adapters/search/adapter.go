// Package search normalizes the output of the external ortholog search
// tool into the CandidateHit entities the classification engine consumes.
// It is pure adaptation: no scoring logic lives here, and candidate
// multiplicity is preserved so duplication detection stays in
// classification.
package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"orthocheck/internal/coreset"
	"orthocheck/internal/evidence"
)

// RawHit mirrors one per-candidate record of the external search tool.
// Score fields are pointers so an absent score is distinguishable from a
// zero score.
type RawHit struct {
	Group          string   `json:"group"`
	QuerySpecies   string   `json:"query_species"`
	ProteinID      string   `json:"protein_id"`
	RefSpecies     string   `json:"ref_species"`
	FASForward     *float64 `json:"fas_forward"`
	FASReverse     *float64 `json:"fas_reverse"`
	SeqSim         *float64 `json:"seq_sim"`
	ReciprocalBest bool     `json:"reciprocal_best"`
}

// MalformedEvidenceError reports a raw hit that references an entity not
// present in the loaded core set. The offending hit is dropped; the run
// continues.
type MalformedEvidenceError struct {
	ProteinID string
	Reason    string
}

func (e *MalformedEvidenceError) Error() string {
	return fmt.Sprintf("malformed evidence for candidate %q: %s", e.ProteinID, e.Reason)
}

// IsMalformedEvidence reports whether err is a MalformedEvidenceError.
func IsMalformedEvidence(err error) bool {
	var me *MalformedEvidenceError
	return errors.As(err, &me)
}

// LoadRawHits reads a JSON array of raw search records from a file.
func LoadRawHits(path string) ([]RawHit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read search output: %w", err)
	}
	var raws []RawHit
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse search output %s: %w", path, err)
	}
	return raws, nil
}

// Normalize maps raw search records onto CandidateHit entities, validating
// each against the core set. Hits referencing an unknown gene group or a
// reference species outside the group are dropped and reported in the
// returned error slice; valid hits are returned in input order, duplicates
// included.
func Normalize(raws []RawHit, cs *coreset.CoreSet) ([]evidence.CandidateHit, []error) {
	var hits []evidence.CandidateHit
	var errs []error
	for _, r := range raws {
		hit, err := normalizeOne(r, cs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		hits = append(hits, hit)
	}
	return hits, errs
}

func normalizeOne(r RawHit, cs *coreset.CoreSet) (evidence.CandidateHit, error) {
	group := cs.Group(r.Group)
	if group == nil {
		return evidence.CandidateHit{}, &MalformedEvidenceError{
			ProteinID: r.ProteinID,
			Reason:    fmt.Sprintf("unknown gene group %q", r.Group),
		}
	}
	if r.RefSpecies != "" && !group.HasSpecies(r.RefSpecies) {
		return evidence.CandidateHit{}, &MalformedEvidenceError{
			ProteinID: r.ProteinID,
			Reason:    fmt.Sprintf("species %q is not a reference species of group %s", r.RefSpecies, r.Group),
		}
	}
	if r.ProteinID == "" {
		return evidence.CandidateHit{}, &MalformedEvidenceError{
			ProteinID: r.ProteinID,
			Reason:    "missing protein id",
		}
	}

	scores := make(map[evidence.ScoreType]float64)
	setScore := func(t evidence.ScoreType, v *float64) error {
		if v == nil {
			return nil
		}
		if *v < 0 || *v > 1 {
			return &MalformedEvidenceError{
				ProteinID: r.ProteinID,
				Reason:    fmt.Sprintf("%s score %f outside [0,1]", t, *v),
			}
		}
		scores[t] = *v
		return nil
	}
	if err := setScore(evidence.FASForward, r.FASForward); err != nil {
		return evidence.CandidateHit{}, err
	}
	if err := setScore(evidence.FASReverse, r.FASReverse); err != nil {
		return evidence.CandidateHit{}, err
	}
	if err := setScore(evidence.SeqSim, r.SeqSim); err != nil {
		return evidence.CandidateHit{}, err
	}

	return evidence.CandidateHit{
		Group:          r.Group,
		QuerySpecies:   r.QuerySpecies,
		ProteinID:      r.ProteinID,
		RefSpecies:     r.RefSpecies,
		Scores:         scores,
		ReciprocalBest: r.ReciprocalBest,
	}, nil
}

// ByGroup partitions candidate hits by gene group, preserving order.
func ByGroup(hits []evidence.CandidateHit) map[string][]evidence.CandidateHit {
	out := make(map[string][]evidence.CandidateHit)
	for _, h := range hits {
		out[h.Group] = append(out[h.Group], h)
	}
	return out
}
