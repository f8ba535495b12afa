// Package evidence holds the score evidence entities shared by the cutoff
// and classification engines, and the store that persists them: reference
// pair scores between core species, candidate hits for a query species,
// and the per-group cutoff profiles derived from the pair scores.
package evidence

// ScoreType identifies one kind of similarity evidence. All scores are
// normalized to [0,1].
type ScoreType string

const (
	// FASForward is the feature-architecture similarity in the
	// query-vs-reference orientation.
	FASForward ScoreType = "fas_forward"
	// FASReverse is the feature-architecture similarity in the
	// reference-vs-query orientation. Architecture similarity is
	// directional, so forward and reverse may differ.
	FASReverse ScoreType = "fas_reverse"
	// SeqSim is the plain sequence similarity, where available.
	SeqSim ScoreType = "seq_sim"
)

// ScoreTypes returns all known score types in canonical order. Iteration
// over this slice keeps cutoff derivation deterministic.
func ScoreTypes() []ScoreType {
	return []ScoreType{FASForward, FASReverse, SeqSim}
}

// Valid reports whether t names a known score type.
func (t ScoreType) Valid() bool {
	switch t {
	case FASForward, FASReverse, SeqSim:
		return true
	}
	return false
}

// PairScore is one directional comparison score between the proteins of
// two reference species within a gene group.
type PairScore struct {
	Group    string    `yaml:"group" json:"group"`
	SpeciesA string    `yaml:"species_a" json:"species_a"`
	SpeciesB string    `yaml:"species_b" json:"species_b"`
	Type     ScoreType `yaml:"type" json:"type"`
	Value    float64   `yaml:"value" json:"value"`
}

// CandidateHit is one candidate ortholog the external search tool found
// for a gene group in the query species. Hits are immutable inputs to
// classification; multiplicity is preserved (several hits per group signal
// a potential duplication).
type CandidateHit struct {
	Group          string                `json:"group"`
	QuerySpecies   string                `json:"query_species"`
	ProteinID      string                `json:"protein_id"`
	RefSpecies     string                `json:"ref_species"`
	Scores         map[ScoreType]float64 `json:"scores"`
	ReciprocalBest bool                  `json:"reciprocal_best"`
}

// Score returns the hit's value for a score type and whether it is present.
func (h *CandidateHit) Score(t ScoreType) (float64, bool) {
	v, ok := h.Scores[t]
	return v, ok
}

// Threshold is the acceptance descriptor for one score type of one gene
// group. Lower is the bound candidates are checked against; Upper, Mean and
// Stddev describe the reference distribution for auditing.
type Threshold struct {
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Mean    float64 `json:"mean"`
	Stddev  float64 `json:"stddev"`
	Samples int     `json:"samples"`
}

// Profile is the cutoff profile of one gene group: one threshold per score
// type with enough reference evidence, plus length statistics of the group
// proteins. Profiles are computed once per core set and read-only afterward.
type Profile struct {
	Group        string                  `json:"group"`
	Thresholds   map[ScoreType]Threshold `json:"thresholds"`
	LengthMean   float64                 `json:"length_mean"`
	LengthStddev float64                 `json:"length_stddev"`
}

// Threshold returns the threshold for a score type and whether one exists.
func (p *Profile) Threshold(t ScoreType) (Threshold, bool) {
	th, ok := p.Thresholds[t]
	return th, ok
}

// ReportRecord is a persisted completeness report: identifying metadata
// plus the full report as an opaque JSON payload.
type ReportRecord struct {
	ID           string
	CoreSet      string
	QuerySpecies string
	Mode         int
	CreatedAt    string
	Payload      []byte
}
