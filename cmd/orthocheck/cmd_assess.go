package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"orthocheck/adapters/search"
	"orthocheck/internal/classify"
	"orthocheck/internal/coreset"
	"orthocheck/internal/cutoff"
	"orthocheck/internal/evidence"
	"orthocheck/internal/logging"
	"orthocheck/internal/report"
)

var assessFlags struct {
	coresetPath string
	hitsPath    string
	query       string
	refSpecies  string
	modeSpec    string
	scoresPath  string
	configPath  string
	workers     int
	profileOut  string
	markdown    bool
	verdicts    bool
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Classify a query gene set against a core set",
	Long: `Assess the completeness of a query species' gene set: normalize the
ortholog search output, compare every candidate against the stored (or
freshly computed) cutoff profiles, and report each gene group as
complete, partial, missing or duplicated.

Hits are read from a JSON array of search records, or from a
phyloprofile TSV (fdog-style) when the file ends in .tsv or .phyloprofile.

Usage:
  orthocheck assess -c coreset.yaml -q HUMAN@9606 --hits hits.json
  orthocheck assess -c coreset.yaml -q HUMAN@9606 --hits out.phyloprofile --refspec MOUSE@10090 --mode all`,
	RunE: runAssess,
}

func init() {
	f := assessCmd.Flags()
	f.StringVarP(&assessFlags.coresetPath, "coreset", "c", "", "Path to core set definition (YAML)")
	f.StringVar(&assessFlags.hitsPath, "hits", "", "Path to ortholog search output (JSON or TSV)")
	f.StringVarP(&assessFlags.query, "query", "q", "", "Query species identifier (e.g. HUMAN@9606)")
	f.StringVar(&assessFlags.refSpecies, "refspec", "", "Reference species the search ran against (TSV input only)")
	f.StringVar(&assessFlags.modeSpec, "mode", "all", "Score mode: 1, 2, 3, 4, a comma list, or all")
	f.StringVarP(&assessFlags.scoresPath, "scores", "s", "", "Reference pair scores (YAML); compute cutoffs instead of loading stored ones")
	f.StringVar(&assessFlags.configPath, "config", "", "Path to cutoff strictness config (YAML)")
	f.IntVar(&assessFlags.workers, "workers", runtime.NumCPU(), "Worker pool size")
	f.StringVar(&assessFlags.profileOut, "profile-out", "", "Write a phyloprofile TSV of all verdicts to this path")
	f.BoolVar(&assessFlags.markdown, "markdown", false, "Render tables as Markdown")
	f.BoolVar(&assessFlags.verdicts, "verdicts", false, "Also print the per-group verdict table")
	_ = assessCmd.MarkFlagRequired("coreset")
	_ = assessCmd.MarkFlagRequired("hits")
	_ = assessCmd.MarkFlagRequired("query")
}

func runAssess(cmd *cobra.Command, args []string) error {
	logger := logging.New("cli")

	modes, err := parseModes(assessFlags.modeSpec)
	if err != nil {
		return err
	}

	cs, err := coreset.Load(assessFlags.coresetPath)
	if err != nil {
		return err
	}

	store, err := evidence.Open(rootFlags.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	profiles, skipped, err := resolveProfiles(cmd, cs, store)
	if err != nil {
		return err
	}

	raws, err := loadHits(assessFlags.hitsPath, assessFlags.refSpecies)
	if err != nil {
		return err
	}
	hits, malformed := search.Normalize(raws, cs)
	for _, merr := range malformed {
		logger.Warn("candidate hit dropped", "error", merr)
	}

	runner := report.NewRunner(assessFlags.workers)
	var reports []*report.Report
	for _, mode := range modes {
		rep, err := runner.Assess(cmd.Context(), cs, assessFlags.query, hits, profiles, skipped, mode)
		if err != nil {
			return err
		}
		rec, err := rep.ToRecord()
		if err != nil {
			return err
		}
		if err := store.SaveReport(rec); err != nil {
			return err
		}
		reports = append(reports, rep)

		fmt.Println(report.RenderSummary(rep, assessFlags.markdown))
		if assessFlags.verdicts {
			fmt.Println(report.RenderVerdicts(rep, assessFlags.markdown))
		}
		fmt.Printf("run id: %s\n\n", rep.RunID)
	}

	if assessFlags.profileOut != "" {
		if err := writeProfileFile(assessFlags.profileOut, reports); err != nil {
			return err
		}
		fmt.Printf("phyloprofile written to %s\n", assessFlags.profileOut)
	}
	return nil
}

// resolveProfiles loads cutoff profiles from the store, or computes them
// on the fly when a reference-scores file is given.
func resolveProfiles(cmd *cobra.Command, cs *coreset.CoreSet, store evidence.Store) (map[string]*evidence.Profile, map[string]string, error) {
	skipped := make(map[string]string)

	if assessFlags.scoresPath != "" {
		scores, err := evidence.LoadScores(assessFlags.scoresPath, cs)
		if err != nil {
			return nil, nil, err
		}
		cfg := cutoff.DefaultConfig()
		if assessFlags.configPath != "" {
			cfg, err = cutoff.LoadConfig(assessFlags.configPath)
			if err != nil {
				return nil, nil, err
			}
		}
		engine := cutoff.NewEngine(cfg)
		profiles, failed := engine.ComputeAll(cmd.Context(), cs, evidence.GroupScores(scores), assessFlags.workers)
		for id, ferr := range failed {
			skipped[id] = ferr.Error()
		}
		return profiles, skipped, nil
	}

	profiles, err := store.Profiles(cs.Name)
	if err != nil {
		return nil, nil, err
	}
	if len(profiles) == 0 {
		return nil, nil, fmt.Errorf("no stored cutoff profiles for core set %q; run 'orthocheck cutoff' first or pass --scores", cs.Name)
	}
	// A stored profile set must cover the whole core set: a partial one
	// means the store and the core set file are out of sync.
	var missing []string
	for i := range cs.Groups {
		if profiles[cs.Groups[i].ID] == nil {
			missing = append(missing, cs.Groups[i].ID)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, nil, fmt.Errorf("stored profiles do not cover group(s) %s: %w",
			strings.Join(missing, ", "), classify.ErrProfileNotFound)
	}
	return profiles, skipped, nil
}

func loadHits(path, refSpecies string) ([]search.RawHit, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tsv" || ext == ".phyloprofile" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open search output: %w", err)
		}
		defer f.Close()
		return search.ParseProfileTSV(f, refSpecies)
	}
	return search.LoadRawHits(path)
}

func writeProfileFile(path string, reports []*report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create profile file: %w", err)
	}
	defer f.Close()
	return report.WriteProfileTSV(f, reports)
}

// parseModes expands a mode spec ("all", "2", "1,3") into classify modes.
func parseModes(spec string) ([]classify.Mode, error) {
	if strings.EqualFold(spec, "all") || spec == "" {
		return classify.Modes(), nil
	}
	var out []classify.Mode
	seen := make(map[int]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid mode %q (want 1-4 or all)", part)
		}
		mode, ok := classify.ModeByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown mode %d (want 1-4)", id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, mode)
	}
	return out, nil
}
