package evidence

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"orthocheck/internal/coreset"
)

// scoresFile is the YAML shape of a reference-score evidence file, as
// produced by the external architecture-similarity annotator pipeline.
type scoresFile struct {
	CoreSet string      `yaml:"core_set"`
	Scores  []PairScore `yaml:"scores"`
}

// LoadScores reads reference pair scores from a YAML file and validates
// them against the core set: known gene groups, known reference species,
// known score types, values within [0,1].
func LoadScores(path string, cs *coreset.CoreSet) ([]PairScore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	var f scoresFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scores %s: %w", path, err)
	}
	if f.CoreSet != cs.Name {
		return nil, fmt.Errorf("scores file %s is for core set %q, not %q", path, f.CoreSet, cs.Name)
	}
	for i, sc := range f.Scores {
		if err := validateScore(sc, cs); err != nil {
			return nil, fmt.Errorf("scores %s: entry %d: %w", path, i, err)
		}
	}
	return f.Scores, nil
}

func validateScore(sc PairScore, cs *coreset.CoreSet) error {
	g := cs.Group(sc.Group)
	if g == nil {
		return fmt.Errorf("unknown gene group %q", sc.Group)
	}
	if !g.HasSpecies(sc.SpeciesA) {
		return fmt.Errorf("group %s: species %q is not a reference species", sc.Group, sc.SpeciesA)
	}
	if !g.HasSpecies(sc.SpeciesB) {
		return fmt.Errorf("group %s: species %q is not a reference species", sc.Group, sc.SpeciesB)
	}
	if sc.SpeciesA == sc.SpeciesB {
		return fmt.Errorf("group %s: self comparison for %q", sc.Group, sc.SpeciesA)
	}
	if !sc.Type.Valid() {
		return fmt.Errorf("group %s: unknown score type %q", sc.Group, sc.Type)
	}
	if sc.Value < 0 || sc.Value > 1 {
		return fmt.Errorf("group %s: score %f outside [0,1]", sc.Group, sc.Value)
	}
	return nil
}

// GroupScores partitions a flat score list by gene group, preserving order.
func GroupScores(scores []PairScore) map[string][]PairScore {
	out := make(map[string][]PairScore)
	for _, sc := range scores {
		out[sc.Group] = append(out[sc.Group], sc)
	}
	return out
}
