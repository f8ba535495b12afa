package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"orthocheck/internal/classify"
	"orthocheck/internal/coreset"
	"orthocheck/internal/evidence"
)

func testCoreSet(n int) *coreset.CoreSet {
	cs := &coreset.CoreSet{Name: "test-core"}
	ids := []string{"g1", "g2", "g3", "g4", "g5", "g6", "g7", "g8", "g9", "g10"}
	for _, id := range ids[:n] {
		cs.Groups = append(cs.Groups, coreset.GeneGroup{
			ID: id,
			Proteins: []coreset.Protein{
				{ID: id + "-p1", Species: "HUMAN@9606", Length: 100},
				{ID: id + "-p2", Species: "MOUSE@10090", Length: 102},
			},
		})
	}
	return cs
}

func testProfiles(cs *coreset.CoreSet) map[string]*evidence.Profile {
	out := make(map[string]*evidence.Profile, len(cs.Groups))
	for i := range cs.Groups {
		out[cs.Groups[i].ID] = &evidence.Profile{
			Group: cs.Groups[i].ID,
			Thresholds: map[evidence.ScoreType]evidence.Threshold{
				evidence.FASForward: {Lower: 0.8, Upper: 0.95, Mean: 0.875, Stddev: 0.0375, Samples: 3},
				evidence.FASReverse: {Lower: 0.8, Upper: 0.95, Mean: 0.875, Stddev: 0.0375, Samples: 3},
			},
		}
	}
	return out
}

func mode(t *testing.T, id int) classify.Mode {
	t.Helper()
	m, ok := classify.ModeByID(id)
	if !ok {
		t.Fatalf("no mode %d", id)
	}
	return m
}

func TestBuildCountsSumToTotal(t *testing.T) {
	cs := testCoreSet(4)
	verdicts := []*classify.Verdict{
		{Group: "g1", Status: classify.Complete},
		{Group: "g2", Status: classify.Duplicated},
		{Group: "g3", Status: classify.Partial},
		// g4 has no verdict and must be synthesized as Missing.
	}
	rep := Build(cs, "QUERY@1111", mode(t, 2), verdicts)

	sum := 0
	for _, n := range rep.Summary.Counts {
		sum += n
	}
	if sum != rep.Summary.Total || rep.Summary.Total != 4 {
		t.Errorf("counts sum %d, total %d, want both 4", sum, rep.Summary.Total)
	}
	if rep.Summary.Counts[classify.Missing] != 1 {
		t.Errorf("missing = %d, want 1 synthesized", rep.Summary.Counts[classify.Missing])
	}
	if rep.Summary.Percent[classify.Complete] != 25 {
		t.Errorf("complete%% = %f, want 25", rep.Summary.Percent[classify.Complete])
	}
	if len(rep.Verdicts) != 4 || rep.Verdicts[3].Group != "g4" {
		t.Errorf("verdicts must follow core-set group order: %v", rep.Verdicts)
	}
	if rep.RunID == "" || rep.CreatedAt.IsZero() {
		t.Error("run identity not set")
	}
}

func TestBuildEmptyEvidence(t *testing.T) {
	// Empty search output against a 10-group core set: everything Missing.
	cs := testCoreSet(10)
	rep := Build(cs, "QUERY@1111", mode(t, 1), nil)
	if rep.Summary.Counts[classify.Missing] != 10 {
		t.Errorf("missing = %d, want 10", rep.Summary.Counts[classify.Missing])
	}
	if rep.Summary.Percent[classify.Missing] != 100 {
		t.Errorf("missing%% = %f, want 100", rep.Summary.Percent[classify.Missing])
	}
}

func TestRecordRoundTrip(t *testing.T) {
	cs := testCoreSet(2)
	rep := Build(cs, "QUERY@1111", mode(t, 3), []*classify.Verdict{
		{Group: "g1", QuerySpecies: "QUERY@1111", Mode: 3, Status: classify.Complete},
	})

	rec, err := rep.ToRecord()
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	if rec.ID != rep.RunID || rec.CoreSet != "test-core" || rec.Mode != 3 {
		t.Errorf("record metadata wrong: %+v", rec)
	}

	back, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if diff := cmp.Diff(rep, back); diff != "" {
		t.Errorf("round trip mismatch:\n%s", diff)
	}

	if _, err := FromRecord(nil); err == nil {
		t.Error("expected error for nil record")
	}
}

func TestRunnerAssess(t *testing.T) {
	cs := testCoreSet(4)
	profiles := testProfiles(cs)
	hits := []evidence.CandidateHit{
		{Group: "g1", QuerySpecies: "QUERY@1111", ProteinID: "q1", ReciprocalBest: true,
			Scores: map[evidence.ScoreType]float64{evidence.FASForward: 0.92, evidence.FASReverse: 0.90}},
		{Group: "g2", QuerySpecies: "QUERY@1111", ProteinID: "q2",
			Scores: map[evidence.ScoreType]float64{evidence.FASForward: 0.90, evidence.FASReverse: 0.60}},
	}
	// g3's cutoff derivation failed upstream.
	delete(profiles, "g3")
	skipped := map[string]string{"g3": "insufficient reference evidence"}

	rep, err := NewRunner(4).Assess(context.Background(), cs, "QUERY@1111", hits, profiles, skipped, mode(t, 2))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}

	want := map[string]classify.Status{
		"g1": classify.Complete,
		"g2": classify.Partial,
		"g3": classify.Missing,
		"g4": classify.Missing,
	}
	for _, v := range rep.Verdicts {
		if v.Status != want[v.Group] {
			t.Errorf("%s: status = %s, want %s", v.Group, v.Status, want[v.Group])
		}
	}
	for _, v := range rep.Verdicts {
		if v.Group == "g3" && !strings.Contains(v.Note, "cutoff unavailable") {
			t.Errorf("g3 note = %q, want cutoff unavailable", v.Note)
		}
	}
}

func TestRunnerAssessProfileGap(t *testing.T) {
	// A group missing from both profiles and skipped aborts the run.
	cs := testCoreSet(2)
	profiles := testProfiles(cs)
	delete(profiles, "g2")

	_, err := NewRunner(2).Assess(context.Background(), cs, "QUERY@1111", nil, profiles, nil, mode(t, 1))
	if !errors.Is(err, classify.ErrProfileNotFound) {
		t.Errorf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestRunnerAssessCanceled(t *testing.T) {
	cs := testCoreSet(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(1).Assess(ctx, cs, "QUERY@1111", nil, testProfiles(cs), nil, mode(t, 1))
	if err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestRenderSummary(t *testing.T) {
	cs := testCoreSet(2)
	rep := Build(cs, "QUERY@1111", mode(t, 1), []*classify.Verdict{
		{Group: "g1", Status: classify.Complete},
	})
	out := RenderSummary(rep, false)
	for _, want := range []string{"complete", "missing", "test-core", "QUERY@1111"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	md := RenderSummary(rep, true)
	if !strings.Contains(md, "|") {
		t.Error("markdown rendering should contain pipes")
	}
}

func TestWriteProfileTSV(t *testing.T) {
	cs := testCoreSet(2)
	rep := Build(cs, "QUERY@1111", mode(t, 2), []*classify.Verdict{
		{Group: "g1", Status: classify.Complete, Evidence: []classify.HitEvidence{{
			Hit: evidence.CandidateHit{
				Group: "g1", ProteinID: "q1",
				Scores: map[evidence.ScoreType]float64{evidence.FASForward: 0.92, evidence.FASReverse: 0.9},
			},
		}}},
	})

	var buf bytes.Buffer
	if err := WriteProfileTSV(&buf, []*Report{rep}); err != nil {
		t.Fatalf("WriteProfileTSV: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "geneID\t") {
		t.Errorf("header wrong: %q", lines[0])
	}
	if !strings.Contains(lines[1], "q1") || !strings.Contains(lines[1], "0.9200") {
		t.Errorf("g1 row wrong: %q", lines[1])
	}
	// No similarity score on the hit: the column stays NA.
	if !strings.HasSuffix(lines[1], "NA") {
		t.Errorf("g1 SIM should be NA: %q", lines[1])
	}
	if !strings.Contains(lines[2], "missing") {
		t.Errorf("g2 row should be missing: %q", lines[2])
	}
}
