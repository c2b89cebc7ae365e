package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/healthsignals/riskwatch/internal/model"
)

// scoreCmd re-runs the pipeline for an existing report, for backfills and
// debugging a classification without replaying the webhook.
var scoreCmd = &cobra.Command{
	Use:   "score <report-id>",
	Short: "Score one stored report by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Store.GetReport(ctx, args[0])
		if err != nil {
			return err
		}

		a, err := env.Pipeline.Run(ctx, *report)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			ReportID string         `json:"report_id"`
			Score    int            `json:"score"`
			Tier     model.RiskTier `json:"tier"`
			Weather  string         `json:"weather_snapshot"`
			Notes    string         `json:"notes"`
		}{
			ReportID: report.ID,
			Score:    a.Score,
			Tier:     a.Tier,
			Weather:  a.WeatherSnapshot,
			Notes:    a.JoinedNotes(),
		})
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
