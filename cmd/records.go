/*
Copyright © 2026 Khorshid Lab

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khorshidlab/divantran/internal"
	"github.com/khorshidlab/divantran/internal/store"
)

var (
	recordsGhazal  string
	recordsFlagged bool
	recordsStats   bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect published translation records",
	Long: `List published translation records. By default the latest record per
ghazal is shown; --ghazal shows a ghazal's full append-only version
history, --flagged only records awaiting human review, --stats a summary
of the published corpus.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		db, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if recordsStats {
			stats, err := db.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Ghazals stored:    %d\n", stats.Ghazals)
			fmt.Printf("Records published: %d\n", stats.Records)
			fmt.Printf("Awaiting review:   %d\n", stats.Flagged)
			for _, conf := range []internal.Confidence{internal.ConfidenceHigh, internal.ConfidenceMedium, internal.ConfidenceLow} {
				if n := stats.ByConfidence[conf]; n > 0 {
					fmt.Printf("  %-7s %d\n", conf+":", n)
				}
			}
			if !stats.LastPublish.IsZero() {
				fmt.Printf("Last publish:      %s\n", stats.LastPublish.Format("2006-01-02 15:04"))
			}
			return nil
		}

		var records []*internal.TranslationRecord
		switch {
		case recordsGhazal != "":
			records, err = db.RecordVersions(ctx, recordsGhazal)
		case recordsFlagged:
			records, err = db.FlaggedRecords(ctx)
		default:
			records, err = db.LatestRecords(ctx)
		}
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No records.")
			return nil
		}

		for _, rec := range records {
			flag := ""
			if rec.Flagged {
				flag = "  [needs review]"
			}
			fmt.Printf("%s  v%s  %s  confidence=%s  %s%s\n",
				rec.Ghazal.ID,
				rec.Provenance.PipelineVersion,
				rec.Provenance.TranslatedAt.Format("2006-01-02"),
				rec.QA.Confidence,
				rec.Provenance.Model,
				flag)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().StringVarP(&recordsGhazal, "ghazal", "g", "", "Show the full version history for one ghazal ID")
	recordsCmd.Flags().BoolVar(&recordsFlagged, "flagged", false, "Show only records awaiting human review")
	recordsCmd.Flags().BoolVar(&recordsStats, "stats", false, "Show summary statistics")
}
