package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/trial-research/internal/report"
	"github.com/sells-group/trial-research/internal/trialio"
)

var (
	summarizeInput string
	summarizeJSON  bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize an existing research output file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSummarize(cmd.OutOrStdout(), summarizeInput, summarizeJSON)
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeInput, "input", "", "research output (.csv or .xlsx, required)")
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "print JSON instead of text")
	_ = summarizeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(w io.Writer, path string, asJSON bool) error {
	records, err := trialio.ReadEnrichedFile(path)
	if err != nil {
		return eris.Wrap(err, "summarize: read results")
	}

	s := report.Summarize(records)
	if !asJSON {
		_, err := fmt.Fprint(w, report.FormatText(s))
		return err
	}

	data, err := report.FormatJSON(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
