package report

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"orthocheck/internal/classify"
	"orthocheck/internal/coreset"
	"orthocheck/internal/evidence"
	"orthocheck/internal/logging"
)

// Runner classifies all gene groups of a core set with a bounded worker
// pool. Gene groups are independent once the cutoff profiles exist, so
// workers share only read-only state; each writes its verdict into its
// own slot and the slots are merged after Wait.
type Runner struct {
	workers int
	logger  *slog.Logger
}

// NewRunner creates a runner with the given worker-pool size.
func NewRunner(workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{workers: workers, logger: logging.New("assess")}
}

// Assess classifies every gene group under the given mode and builds the
// report. hits are the normalized candidate hits of the query species;
// profiles must cover every group except those listed in skipped (groups
// whose cutoff derivation failed, with the reason to record). A group
// absent from both profiles and skipped is an integration error and
// aborts the run with classify.ErrProfileNotFound.
func (r *Runner) Assess(
	ctx context.Context,
	cs *coreset.CoreSet,
	querySpecies string,
	hits []evidence.CandidateHit,
	profiles map[string]*evidence.Profile,
	skipped map[string]string,
	mode classify.Mode,
) (*Report, error) {
	hitsByGroup := make(map[string][]evidence.CandidateHit)
	for _, h := range hits {
		hitsByGroup[h.Group] = append(hitsByGroup[h.Group], h)
	}

	verdicts := make([]*classify.Verdict, len(cs.Groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range cs.Groups {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id := cs.Groups[i].ID

			if note, ok := skipped[id]; ok {
				verdicts[i] = &classify.Verdict{
					Group:        id,
					QuerySpecies: querySpecies,
					Mode:         mode.ID,
					Status:       classify.Missing,
					Note:         fmt.Sprintf("cutoff unavailable: %s", note),
				}
				return nil
			}

			v, err := classify.Classify(id, querySpecies, hitsByGroup[id], profiles[id], mode)
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := Build(cs, querySpecies, mode, verdicts)
	r.logger.Info("assessment finished",
		"core_set", cs.Name,
		"query", querySpecies,
		"mode", mode.ID,
		"complete", rep.Summary.Counts[classify.Complete],
		"duplicated", rep.Summary.Counts[classify.Duplicated],
		"partial", rep.Summary.Counts[classify.Partial],
		"missing", rep.Summary.Counts[classify.Missing],
	)
	return rep, nil
}
