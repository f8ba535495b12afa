package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"orthocheck/internal/classify"
	"orthocheck/internal/evidence"
)

// RenderSummary renders the per-status counts as a table, ASCII by
// default or Markdown when markdown is true.
func RenderSummary(r *Report, markdown bool) string {
	w := table.NewWriter()
	w.SetTitle(fmt.Sprintf("%s vs %s (mode %d: %s)", r.CoreSet, r.QuerySpecies, r.Mode, r.ModeName))
	w.AppendHeader(table.Row{"Status", "Count", "Percent"})
	for _, s := range classify.Statuses() {
		w.AppendRow(table.Row{string(s), r.Summary.Counts[s], fmt.Sprintf("%.1f%%", r.Summary.Percent[s])})
	}
	w.AppendFooter(table.Row{"total", r.Summary.Total, ""})
	if markdown {
		return w.RenderMarkdown()
	}
	w.SetStyle(table.StyleLight)
	return w.Render()
}

// RenderVerdicts renders the per-group verdict list with the driving hit.
func RenderVerdicts(r *Report, markdown bool) string {
	w := table.NewWriter()
	w.AppendHeader(table.Row{"Gene Group", "Status", "Ortholog", "Reciprocal", "Note"})
	for i := range r.Verdicts {
		v := &r.Verdicts[i]
		ortho, reciprocal := "-", "-"
		if hit := v.BestHit(); hit != nil {
			ortho = hit.ProteinID
			if hit.ReciprocalBest {
				reciprocal = "yes"
			} else {
				reciprocal = "no"
			}
		}
		w.AppendRow(table.Row{v.Group, string(v.Status), ortho, reciprocal, v.Note})
	}
	w.SetColumnConfigs([]table.ColumnConfig{{Number: 5, WidthMax: 48}})
	if markdown {
		return w.RenderMarkdown()
	}
	w.SetStyle(table.StyleLight)
	return w.Render()
}

// WriteProfileTSV writes the phyloprofile-style status matrix for one or
// more reports: one row per gene group per report, with the driving hit's
// scores where present.
func WriteProfileTSV(w io.Writer, reports []*Report) error {
	if _, err := fmt.Fprintln(w, "geneID\tquerySpecies\tmode\tstatus\torthoID\tFAS_F\tFAS_B\tSIM"); err != nil {
		return fmt.Errorf("write profile header: %w", err)
	}
	for _, r := range reports {
		for i := range r.Verdicts {
			v := &r.Verdicts[i]
			ortho := "NA"
			fwd, rev, sim := "NA", "NA", "NA"
			if hit := v.BestHit(); hit != nil {
				ortho = hit.ProteinID
				fwd = scoreField(hit, evidence.FASForward)
				rev = scoreField(hit, evidence.FASReverse)
				sim = scoreField(hit, evidence.SeqSim)
			}
			_, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
				v.Group, r.QuerySpecies, r.Mode, v.Status, ortho, fwd, rev, sim)
			if err != nil {
				return fmt.Errorf("write profile row: %w", err)
			}
		}
	}
	return nil
}

func scoreField(hit *evidence.CandidateHit, t evidence.ScoreType) string {
	if v, ok := hit.Score(t); ok {
		return fmt.Sprintf("%.4f", v)
	}
	return "NA"
}
