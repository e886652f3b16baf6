package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/z-inspection/report-cli/internal/model"
	"github.com/z-inspection/report-cli/internal/report"
)

var (
	reportProjectID  string
	reportJSONOutput bool
	reportOutputPath string
	reportTopDrivers int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the assessment report for a project",
	Long:  "Fetches the project's evaluation records, aggregates risk per principle, resolves evaluator sets, judges validity, and prints the report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		mapping, err := loadMapping()
		if err != nil {
			return err
		}

		rcfg := cfg.Report
		if reportTopDrivers > 0 {
			rcfg.TopDrivers = reportTopDrivers
		}

		builder := report.NewBuilder(st, mapping, rcfg, cfg.Scoring)
		rep, err := builder.Build(ctx, reportProjectID)
		if err != nil {
			return eris.Wrap(err, "build report")
		}

		out := io.Writer(os.Stdout)
		if reportOutputPath != "" {
			f, err := os.Create(reportOutputPath)
			if err != nil {
				return eris.Wrapf(err, "create %s", reportOutputPath)
			}
			defer f.Close()
			out = f
		}

		if reportJSONOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}

		formatReport(out, rep)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportProjectID, "project", "", "project ID (required)")
	reportCmd.Flags().BoolVar(&reportJSONOutput, "json", false, "emit the report as JSON")
	reportCmd.Flags().StringVar(&reportOutputPath, "output", "", "write to file instead of stdout")
	reportCmd.Flags().IntVar(&reportTopDrivers, "top", 0, "top risk driver count (default from config)")
	_ = reportCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(reportCmd)
}

// formatReport writes a human-readable rendering of the report to out.
func formatReport(out io.Writer, rep *model.Report) {
	fmt.Fprintf(out, "Project: %s", rep.ProjectID)
	if rep.Title != "" {
		fmt.Fprintf(out, "  (%s)", rep.Title)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Validity: %s\n", rep.Validity.Status)
	for _, r := range rep.Validity.Reasons {
		fmt.Fprintf(out, "  - %s\n", r)
	}
	for _, a := range rep.Validity.RecommendedActions {
		fmt.Fprintf(out, "  > %s\n", a)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRINCIPLE\tCUMULATIVE\tQUESTIONS\tANSWERS\tEVALUATORS\tLEVEL")
	fmt.Fprintln(w, "---------\t----------\t---------\t-------\t----------\t-----")
	for _, p := range model.CanonicalPrinciples {
		agg, ok := rep.Principles[p].Aggregate()
		if !ok {
			fmt.Fprintf(w, "%s\tnot evaluated\t-\t-\t-\t-\n", p.DisplayName())
			continue
		}
		fmt.Fprintf(w, "%s\t%.2f\t%d\t%d\t%d\t%s\n",
			p.DisplayName(),
			agg.CumulativeRisk,
			agg.UniqueQuestionCount,
			agg.TotalAnswers,
			agg.EvaluatorCount,
			agg.NormalizedLevel,
		)
	}
	w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Cumulative risk: %.2f over %d answers (%d unique questions)\n",
		rep.Totals.CumulativeRisk, rep.Totals.TotalAnswers, rep.Totals.UniqueQuestions)
	fmt.Fprintf(out, "Average risk contribution: %.2f  => %s\n", rep.Totals.AverageERC, rep.Totals.OverallLevel)
	fmt.Fprintf(out, "Evaluators: %d assigned, %d started, %d submitted (%d with score)\n",
		len(rep.Evaluators.Assigned), len(rep.Evaluators.Started),
		len(rep.Evaluators.Submitted), rep.Evaluators.SubmittedWithScore())

	if len(rep.TopDrivers) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Top risk drivers:")
		dw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(dw, "  QUESTION\tPRINCIPLE\tCONTRIBUTION\tEXCERPT")
		for _, d := range rep.TopDrivers {
			excerpt := d.AnswerExcerpt
			if d.SubmittedEmpty {
				excerpt = "(submitted empty)"
			}
			fmt.Fprintf(dw, "  %s\t%s\t%.2f\t%s\n", d.QuestionID, d.Principle, d.TotalContribution, excerpt)
		}
		dw.Flush()
	}

	if len(rep.Issues) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Consistency warnings:")
		for _, is := range rep.Issues {
			fmt.Fprintf(out, "  [%s] %s: %s\n", is.Severity, is.Check, is.Detail)
		}
	}

	if len(rep.Evaluators.Notes) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Notes:")
		for _, n := range rep.Evaluators.Notes {
			fmt.Fprintf(out, "  - %s\n", n)
		}
	}
}
