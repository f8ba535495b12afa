package main

import (
	"fmt"
	"runtime"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"orthocheck/internal/coreset"
	"orthocheck/internal/cutoff"
	"orthocheck/internal/evidence"
)

var cutoffFlags struct {
	coresetPath string
	scoresPath  string
	configPath  string
	workers     int
	markdown    bool
}

var cutoffCmd = &cobra.Command{
	Use:   "cutoff",
	Short: "Derive per-gene-group score cutoffs from reference comparisons",
	Long: `Compute the acceptance thresholds for every gene group of a core set
from the pairwise comparison scores between its reference species, and
persist them in the store for later assessment runs.

Usage:
  orthocheck cutoff -c coreset.yaml -s refscores.yaml
  orthocheck cutoff -c coreset.yaml -s refscores.yaml --config strictness.yaml`,
	RunE: runCutoff,
}

func init() {
	f := cutoffCmd.Flags()
	f.StringVarP(&cutoffFlags.coresetPath, "coreset", "c", "", "Path to core set definition (YAML)")
	f.StringVarP(&cutoffFlags.scoresPath, "scores", "s", "", "Path to reference pair scores (YAML)")
	f.StringVar(&cutoffFlags.configPath, "config", "", "Path to cutoff strictness config (YAML)")
	f.IntVar(&cutoffFlags.workers, "workers", runtime.NumCPU(), "Worker pool size")
	f.BoolVar(&cutoffFlags.markdown, "markdown", false, "Render the summary as Markdown")
	_ = cutoffCmd.MarkFlagRequired("coreset")
	_ = cutoffCmd.MarkFlagRequired("scores")
}

func runCutoff(cmd *cobra.Command, args []string) error {
	cs, err := coreset.Load(cutoffFlags.coresetPath)
	if err != nil {
		return err
	}
	scores, err := evidence.LoadScores(cutoffFlags.scoresPath, cs)
	if err != nil {
		return err
	}

	cfg := cutoff.DefaultConfig()
	if cutoffFlags.configPath != "" {
		cfg, err = cutoff.LoadConfig(cutoffFlags.configPath)
		if err != nil {
			return err
		}
	}

	engine := cutoff.NewEngine(cfg)
	profiles, skipped := engine.ComputeAll(cmd.Context(), cs, evidence.GroupScores(scores), cutoffFlags.workers)

	store, err := evidence.Open(rootFlags.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SavePairScores(cs.Name, scores); err != nil {
		return err
	}
	for _, p := range profiles {
		if err := store.SaveProfile(cs.Name, p); err != nil {
			return err
		}
	}

	fmt.Println(renderCutoffSummary(cs, profiles, skipped, cutoffFlags.markdown))
	if len(skipped) > 0 {
		fmt.Printf("%d group(s) skipped for insufficient evidence; they will count as missing.\n", len(skipped))
	}
	return nil
}

func renderCutoffSummary(cs *coreset.CoreSet, profiles map[string]*evidence.Profile, skipped map[string]error, markdown bool) string {
	w := table.NewWriter()
	w.SetTitle(fmt.Sprintf("cutoff profiles: %s", cs.Name))
	w.AppendHeader(table.Row{"Gene Group", "Score Type", "Lower", "Mean", "Stddev", "Samples"})
	for i := range cs.Groups {
		id := cs.Groups[i].ID
		if err, ok := skipped[id]; ok {
			w.AppendRow(table.Row{id, "-", "-", "-", "-", err.Error()})
			continue
		}
		p := profiles[id]
		if p == nil {
			continue
		}
		for _, t := range evidence.ScoreTypes() {
			th, ok := p.Threshold(t)
			if !ok {
				continue
			}
			w.AppendRow(table.Row{
				id, string(t),
				fmt.Sprintf("%.4f", th.Lower),
				fmt.Sprintf("%.4f", th.Mean),
				fmt.Sprintf("%.4f", th.Stddev),
				th.Samples,
			})
		}
	}
	if markdown {
		return w.RenderMarkdown()
	}
	w.SetStyle(table.StyleLight)
	return w.Render()
}
