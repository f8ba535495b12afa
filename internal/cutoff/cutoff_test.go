package cutoff

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"orthocheck/internal/coreset"
	"orthocheck/internal/evidence"
)

func testGroup() *coreset.GeneGroup {
	return &coreset.GeneGroup{
		ID: "g1",
		Proteins: []coreset.Protein{
			{ID: "p1", Species: "HUMAN@9606", Length: 800},
			{ID: "p2", Species: "MOUSE@10090", Length: 810},
			{ID: "p3", Species: "YEAST@4932", Length: 790},
		},
	}
}

// pairScores builds forward and reverse architecture scores for g1 from
// the same value list.
func pairScores(vals []float64) []evidence.PairScore {
	species := []string{"HUMAN@9606", "MOUSE@10090", "YEAST@4932"}
	var out []evidence.PairScore
	for i, v := range vals {
		a := species[i%len(species)]
		b := species[(i+1)%len(species)]
		out = append(out,
			evidence.PairScore{Group: "g1", SpeciesA: a, SpeciesB: b, Type: evidence.FASForward, Value: v},
			evidence.PairScore{Group: "g1", SpeciesA: b, SpeciesB: a, Type: evidence.FASReverse, Value: v},
		)
	}
	return out
}

func TestComputeReferenceScenario(t *testing.T) {
	// Reference scores {0.9, 0.85, 0.88}: mean 0.8767, sample stddev
	// 0.0252, so with k=2 the lower bound is about 0.826.
	engine := NewEngine(DefaultConfig())
	p, err := engine.Compute(testGroup(), pairScores([]float64{0.9, 0.85, 0.88}))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	th, ok := p.Threshold(evidence.FASForward)
	if !ok {
		t.Fatal("no forward threshold derived")
	}
	if math.Abs(th.Mean-0.876667) > 1e-4 {
		t.Errorf("Mean = %f, want 0.8767", th.Mean)
	}
	if math.Abs(th.Stddev-0.025166) > 1e-4 {
		t.Errorf("Stddev = %f, want 0.0252", th.Stddev)
	}
	if math.Abs(th.Lower-(th.Mean-2*th.Stddev)) > 1e-9 {
		t.Errorf("Lower = %f, want mean - 2*stddev = %f", th.Lower, th.Mean-2*th.Stddev)
	}
	if th.Samples != 3 {
		t.Errorf("Samples = %d, want 3", th.Samples)
	}
}

func TestComputeDeterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	scores := pairScores([]float64{0.9, 0.85, 0.88, 0.92})
	first, err := engine.Compute(testGroup(), scores)
	if err != nil {
		t.Fatalf("Compute(first): %v", err)
	}
	second, err := engine.Compute(testGroup(), scores)
	if err != nil {
		t.Fatalf("Compute(second): %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical input must yield identical profile:\n%s", diff)
	}
}

func TestComputeZeroDispersionMargin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinMargin = 0.05
	engine := NewEngine(cfg)
	p, err := engine.Compute(testGroup(), pairScores([]float64{0.9, 0.9, 0.9}))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	th, _ := p.Threshold(evidence.FASForward)
	if math.Abs(th.Lower-0.85) > 1e-9 {
		t.Errorf("Lower = %f, want mean - min margin = 0.85", th.Lower)
	}
	if th.Stddev != 0 {
		t.Errorf("Stddev = %f, want 0", th.Stddev)
	}
}

func TestComputeClampsToRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K[evidence.FASForward] = 50 // absurd strictness pushes bound below zero
	cfg.K[evidence.FASReverse] = 50
	engine := NewEngine(cfg)
	p, err := engine.Compute(testGroup(), pairScores([]float64{0.3, 0.5, 0.4}))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	th, _ := p.Threshold(evidence.FASForward)
	if th.Lower != 0 {
		t.Errorf("Lower = %f, want clamp to 0", th.Lower)
	}
	if th.Upper != 1 {
		t.Errorf("Upper = %f, want clamp to 1", th.Upper)
	}
}

func TestComputeInsufficientEvidence(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	tests := []struct {
		name   string
		scores []evidence.PairScore
	}{
		{"no scores", nil},
		{"single forward comparison", []evidence.PairScore{
			{Group: "g1", SpeciesA: "HUMAN@9606", SpeciesB: "MOUSE@10090", Type: evidence.FASForward, Value: 0.9},
			{Group: "g1", SpeciesA: "MOUSE@10090", SpeciesB: "HUMAN@9606", Type: evidence.FASReverse, Value: 0.9},
			{Group: "g1", SpeciesA: "HUMAN@9606", SpeciesB: "YEAST@4932", Type: evidence.FASReverse, Value: 0.8},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Compute(testGroup(), tt.scores)
			if err == nil {
				t.Fatal("expected InsufficientEvidenceError")
			}
			if !IsInsufficientEvidence(err) {
				t.Errorf("error %v is not an InsufficientEvidenceError", err)
			}
		})
	}
}

func TestComputeOptionalTypeOmitted(t *testing.T) {
	// seq_sim is not required by default; with fewer than two samples it
	// is omitted from the profile rather than failing the group.
	engine := NewEngine(DefaultConfig())
	scores := append(pairScores([]float64{0.9, 0.85}),
		evidence.PairScore{Group: "g1", SpeciesA: "HUMAN@9606", SpeciesB: "MOUSE@10090", Type: evidence.SeqSim, Value: 0.7},
	)
	p, err := engine.Compute(testGroup(), scores)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, ok := p.Threshold(evidence.SeqSim); ok {
		t.Error("seq_sim threshold should be omitted with a single sample")
	}
	if _, ok := p.Threshold(evidence.FASForward); !ok {
		t.Error("forward threshold missing")
	}
}

func TestComputeMonotonicity(t *testing.T) {
	// Adding reference evidence consistent with the distribution must not
	// loosen the lower bound.
	engine := NewEngine(DefaultConfig())
	small, err := engine.Compute(testGroup(), pairScores([]float64{0.9, 0.85, 0.88}))
	if err != nil {
		t.Fatalf("Compute(small): %v", err)
	}
	large, err := engine.Compute(testGroup(), pairScores([]float64{0.9, 0.85, 0.88, 0.88, 0.89, 0.87}))
	if err != nil {
		t.Fatalf("Compute(large): %v", err)
	}
	smallTh, _ := small.Threshold(evidence.FASForward)
	largeTh, _ := large.Threshold(evidence.FASForward)
	if largeTh.Lower < smallTh.Lower {
		t.Errorf("more consistent evidence loosened the bound: %f -> %f", smallTh.Lower, largeTh.Lower)
	}
}

func TestComputeRejectsForeignScores(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	_, err := engine.Compute(testGroup(), []evidence.PairScore{
		{Group: "other", SpeciesA: "a", SpeciesB: "b", Type: evidence.FASForward, Value: 0.9},
	})
	if err == nil {
		t.Fatal("expected error for score from another group")
	}
}

func TestComputeLengthStats(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	p, err := engine.Compute(testGroup(), pairScores([]float64{0.9, 0.85}))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if math.Abs(p.LengthMean-800) > 1e-9 {
		t.Errorf("LengthMean = %f, want 800", p.LengthMean)
	}
	if math.Abs(p.LengthStddev-10) > 1e-9 {
		t.Errorf("LengthStddev = %f, want 10", p.LengthStddev)
	}
}

func TestComputeAll(t *testing.T) {
	cs := &coreset.CoreSet{
		Name: "test-core",
		Groups: []coreset.GeneGroup{
			*testGroup(),
			{ID: "g2", Proteins: []coreset.Protein{
				{ID: "q1", Species: "HUMAN@9606", Length: 500},
				{ID: "q2", Species: "MOUSE@10090", Length: 510},
			}},
		},
	}
	scores := map[string][]evidence.PairScore{
		"g1": pairScores([]float64{0.9, 0.85, 0.88}),
		// g2 has no evidence at all.
	}

	engine := NewEngine(DefaultConfig())
	profiles, skipped := engine.ComputeAll(context.Background(), cs, scores, 4)

	if len(profiles) != 1 || profiles["g1"] == nil {
		t.Errorf("profiles = %v, want exactly g1", profiles)
	}
	if len(skipped) != 1 {
		t.Fatalf("skipped = %v, want exactly g2", skipped)
	}
	if !IsInsufficientEvidence(skipped["g2"]) {
		t.Errorf("g2 error = %v, want InsufficientEvidenceError", skipped["g2"])
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strictness.yaml")
	content := `
k:
  fas_forward: 1.5
min_margin: 0.1
required: [fas_forward]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.K[evidence.FASForward] != 1.5 {
		t.Errorf("K[forward] = %f, want 1.5", cfg.K[evidence.FASForward])
	}
	if cfg.K[evidence.FASReverse] != 2.0 {
		t.Errorf("K[reverse] = %f, want default 2.0", cfg.K[evidence.FASReverse])
	}
	if cfg.MinMargin != 0.1 {
		t.Errorf("MinMargin = %f, want 0.1", cfg.MinMargin)
	}
	if len(cfg.Required) != 1 || cfg.Required[0] != evidence.FASForward {
		t.Errorf("Required = %v, want [fas_forward]", cfg.Required)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown score type", "k:\n  blast: 2.0\n"},
		{"negative k", "k:\n  fas_forward: -1\n"},
		{"negative margin", "min_margin: -0.1\n"},
		{"unknown required type", "required: [blast]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "strictness.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
