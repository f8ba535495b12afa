// Package cutoff derives per-gene-group acceptance thresholds from the
// distribution of comparison scores between the core set's reference
// species. The resulting profiles are the read-only input of the
// classification engine.
package cutoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"orthocheck/internal/coreset"
	"orthocheck/internal/evidence"
	"orthocheck/internal/logging"
)

// InsufficientEvidenceError reports that a gene group has too few
// reference comparisons for a required score type to derive a cutoff.
// It is a per-group condition, not a run-level failure: the group is
// excluded from cutoff-dependent modes but still counted as Missing.
type InsufficientEvidenceError struct {
	Group string
	Type  evidence.ScoreType
	Have  int
}

func (e *InsufficientEvidenceError) Error() string {
	return fmt.Sprintf("group %s: %d %s reference comparison(s), need at least 2", e.Group, e.Have, e.Type)
}

// IsInsufficientEvidence reports whether err is an InsufficientEvidenceError.
func IsInsufficientEvidence(err error) bool {
	var ie *InsufficientEvidenceError
	return errors.As(err, &ie)
}

// Engine computes cutoff profiles. It is stateless apart from its config
// and safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates an engine with the given strictness config.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, logger: logging.New("cutoff")}
}

// Compute derives the cutoff profile for one gene group from its
// reference pair scores. Deterministic: identical input yields identical
// thresholds. Returns InsufficientEvidenceError when a required score
// type has fewer than two comparisons.
func (e *Engine) Compute(group *coreset.GeneGroup, scores []evidence.PairScore) (*evidence.Profile, error) {
	if group == nil {
		return nil, errors.New("gene group is nil")
	}

	byType := make(map[evidence.ScoreType][]float64)
	for _, sc := range scores {
		if sc.Group != group.ID {
			return nil, fmt.Errorf("group %s: pair score belongs to group %s", group.ID, sc.Group)
		}
		byType[sc.Type] = append(byType[sc.Type], sc.Value)
	}

	p := &evidence.Profile{
		Group:      group.ID,
		Thresholds: make(map[evidence.ScoreType]evidence.Threshold),
	}

	// Fixed score-type order keeps the derivation reproducible.
	for _, t := range evidence.ScoreTypes() {
		vals := byType[t]
		if len(vals) < 2 {
			if e.cfg.isRequired(t) {
				return nil, &InsufficientEvidenceError{Group: group.ID, Type: t, Have: len(vals)}
			}
			continue
		}
		p.Thresholds[t] = e.threshold(t, vals)
	}

	lens := group.Lengths()
	p.LengthMean = mean(lens)
	p.LengthStddev = stddev(lens)

	return p, nil
}

func (e *Engine) threshold(t evidence.ScoreType, vals []float64) evidence.Threshold {
	m := mean(vals)
	sd := stddev(vals)
	k := e.cfg.kFor(t)

	var lower, upper float64
	if sd == 0 {
		// All reference pairs identical: fall back to a fixed margin so
		// one outlier query is not rejected against a degenerate bound.
		lower = clamp01(m - e.cfg.MinMargin)
		upper = clamp01(m + e.cfg.MinMargin)
	} else {
		lower = clamp01(m - k*sd)
		upper = clamp01(m + k*sd)
	}

	return evidence.Threshold{
		Lower:   lower,
		Upper:   upper,
		Mean:    m,
		Stddev:  sd,
		Samples: len(vals),
	}
}

// ComputeAll derives profiles for every gene group of the core set, using
// a bounded worker pool. Per-group failures are collected in the returned
// error map and do not abort the run. Classification must not start until
// ComputeAll has returned.
func (e *Engine) ComputeAll(ctx context.Context, cs *coreset.CoreSet, scores map[string][]evidence.PairScore, workers int) (map[string]*evidence.Profile, map[string]error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]*evidence.Profile, len(cs.Groups))
	errs := make([]error, len(cs.Groups))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range cs.Groups {
		i := i
		g.Go(func() error {
			group := &cs.Groups[i]
			results[i], errs[i] = e.Compute(group, scores[group.ID])
			return nil
		})
	}
	_ = g.Wait() // per-group errors captured in errs

	profiles := make(map[string]*evidence.Profile, len(cs.Groups))
	failed := make(map[string]error)
	for i := range cs.Groups {
		id := cs.Groups[i].ID
		switch {
		case errs[i] != nil:
			failed[id] = errs[i]
			e.logger.Warn("cutoff derivation skipped", "group", id, "error", errs[i])
		case results[i] != nil:
			profiles[id] = results[i]
		}
	}
	e.logger.Info("cutoff profiles computed", "core_set", cs.Name, "ok", len(profiles), "skipped", len(failed))
	return profiles, failed
}
