package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"orthocheck/internal/evidence"
	"orthocheck/internal/report"
)

var reportFlags struct {
	coreSet  string
	markdown bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List or show stored completeness reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	RunE:  runReportList,
}

var reportShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

func init() {
	reportCmd.PersistentFlags().BoolVar(&reportFlags.markdown, "markdown", false, "Render tables as Markdown")
	reportListCmd.Flags().StringVar(&reportFlags.coreSet, "coreset", "", "Filter by core set name")
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
}

func runReportList(cmd *cobra.Command, args []string) error {
	store, err := evidence.Open(rootFlags.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.ListReports(reportFlags.coreSet)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no stored reports")
		return nil
	}

	w := table.NewWriter()
	w.AppendHeader(table.Row{"Run ID", "Core Set", "Query", "Mode", "Created"})
	for _, rec := range recs {
		w.AppendRow(table.Row{rec.ID, rec.CoreSet, rec.QuerySpecies, rec.Mode, rec.CreatedAt})
	}
	if reportFlags.markdown {
		fmt.Println(w.RenderMarkdown())
		return nil
	}
	w.SetStyle(table.StyleLight)
	fmt.Println(w.Render())
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	store, err := evidence.Open(rootFlags.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.GetReport(args[0])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no report with run id %q", args[0])
	}
	rep, err := report.FromRecord(rec)
	if err != nil {
		return err
	}

	fmt.Println(report.RenderSummary(rep, reportFlags.markdown))
	fmt.Println(report.RenderVerdicts(rep, reportFlags.markdown))
	return nil
}
