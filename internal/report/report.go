// Package report folds per-gene verdicts into completeness reports:
// summary counts per status, percentage shares, and a full audit trail.
// A report is immutable after Build; inputs changing means rebuilding.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"orthocheck/internal/classify"
	"orthocheck/internal/coreset"
	"orthocheck/internal/evidence"
)

// Summary holds per-status counts and percentages. The percentage
// denominator is the total gene-group count of the core set, so groups
// without any evidence still weigh in as Missing.
type Summary struct {
	Total   int                         `json:"total"`
	Counts  map[classify.Status]int     `json:"counts"`
	Percent map[classify.Status]float64 `json:"percent"`
}

// Report is the completeness assessment of one query species against one
// core set under one score mode.
type Report struct {
	RunID        string             `json:"run_id"`
	CoreSet      string             `json:"core_set"`
	QuerySpecies string             `json:"query_species"`
	Mode         int                `json:"mode"`
	ModeName     string             `json:"mode_name"`
	CreatedAt    time.Time          `json:"created_at"`
	Verdicts     []classify.Verdict `json:"verdicts"`
	Summary      Summary            `json:"summary"`
}

// Build assembles a report from per-group verdicts. Verdicts are ordered
// by the core set's group order; gene groups without a verdict get a
// synthesized Missing one, so the status counts always sum to the core
// set's group total.
func Build(cs *coreset.CoreSet, querySpecies string, mode classify.Mode, verdicts []*classify.Verdict) *Report {
	byGroup := make(map[string]*classify.Verdict, len(verdicts))
	for _, v := range verdicts {
		if v != nil {
			byGroup[v.Group] = v
		}
	}

	rep := &Report{
		RunID:        uuid.NewString(),
		CoreSet:      cs.Name,
		QuerySpecies: querySpecies,
		Mode:         mode.ID,
		ModeName:     mode.Name,
		CreatedAt:    time.Now().UTC(),
		Verdicts:     make([]classify.Verdict, 0, len(cs.Groups)),
	}

	counts := make(map[classify.Status]int, 4)
	for _, s := range classify.Statuses() {
		counts[s] = 0
	}
	for i := range cs.Groups {
		id := cs.Groups[i].ID
		v := byGroup[id]
		if v == nil {
			v = &classify.Verdict{
				Group:        id,
				QuerySpecies: querySpecies,
				Mode:         mode.ID,
				Status:       classify.Missing,
				Note:         "no evidence collected for this gene group",
			}
		}
		counts[v.Status]++
		rep.Verdicts = append(rep.Verdicts, *v)
	}

	total := len(cs.Groups)
	percent := make(map[classify.Status]float64, len(counts))
	for s, n := range counts {
		if total > 0 {
			percent[s] = 100 * float64(n) / float64(total)
		}
	}
	rep.Summary = Summary{Total: total, Counts: counts, Percent: percent}
	return rep
}

// ToRecord marshals the report into a store record.
func (r *Report) ToRecord() (*evidence.ReportRecord, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return &evidence.ReportRecord{
		ID:           r.RunID,
		CoreSet:      r.CoreSet,
		QuerySpecies: r.QuerySpecies,
		Mode:         r.Mode,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		Payload:      payload,
	}, nil
}

// FromRecord unmarshals a stored report record.
func FromRecord(rec *evidence.ReportRecord) (*Report, error) {
	if rec == nil {
		return nil, fmt.Errorf("report record is nil")
	}
	var r Report
	if err := json.Unmarshal(rec.Payload, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", rec.ID, err)
	}
	return &r, nil
}
