package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/trial-research/internal/enrich"
	"github.com/sells-group/trial-research/internal/model"
	"github.com/sells-group/trial-research/internal/trialio"
)

var (
	inspectInput string
	inspectLimit int
	inspectStart int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Parse a trial export and print the records without any lookups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := trialio.ReadFile(inspectInput)
		if err != nil {
			return eris.Wrap(err, "inspect: read input")
		}
		records = trialio.Window(records, inspectStart, inspectLimit)

		opts, err := enrichOptions(cfg.Pipeline)
		if err != nil {
			return err
		}
		return printInspection(cmd.OutOrStdout(), records, enrich.New(nil, opts))
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectInput, "input", "", "path to trial export (.csv or .xlsx, required)")
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 0, "max records to print (0 = all)")
	inspectCmd.Flags().IntVar(&inspectStart, "start", 0, "zero-based index of the first record")
	_ = inspectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(inspectCmd)
}

// inspectedRecord is a parsed record plus the lookup it would trigger.
type inspectedRecord struct {
	model.TrialRecord
	Query       string `json:"query"`
	JobsQuery   string `json:"jobs_query"`
	TestAccount bool   `json:"test_account"`
}

// printInspection prints records as indented JSON.
func printInspection(w io.Writer, records []model.TrialRecord, e *enrich.Enricher) error {
	out := make([]inspectedRecord, 0, len(records))
	withIDs := 0
	for _, r := range records {
		if r.HasPlaceIDs() {
			withIDs++
		}
		out = append(out, inspectedRecord{
			TrialRecord: r,
			Query:       e.Query(r),
			JobsQuery:   e.JobsQuery(r),
			TestAccount: enrich.IsTestAccount(r.CompanyName),
		})
	}

	zap.L().Info("inspect: parsed records",
		zap.Int("records", len(records)),
		zap.Int("with_place_ids", withIDs),
	)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
