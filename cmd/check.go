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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khorshidlab/divantran/internal/consistency"
	"github.com/khorshidlab/divantran/internal/store"
)

var (
	checkGlossary       string
	checkToneGuide      string
	checkJSON           bool
	checkStrict         bool
	checkDriftThreshold int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check published translations for batch consistency",
	Long: `Check the latest published record of every ghazal for problems no
single translation can reveal:

  - terminology drift: a glossary term rendered in more distinct ways
    across the batch than the threshold allows, not counting renderings
    licensed by an ambiguity in the analysis
  - tone outliers: tone-guide anti-patterns in the refined text
  - allusion loss: identified allusions missing from the refined poem

Findings are advisory; records are never modified or unpublished.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		db, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		records, err := db.LatestRecords(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no published records to check")
		}

		gloss, tone, err := loadGuides(checkGlossary, checkToneGuide)
		if err != nil {
			return err
		}

		report := consistency.Check(records, gloss, tone, checkDriftThreshold)

		if checkJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			fmt.Printf("Checked %d records: %d findings\n", report.Checked, len(report.Findings))
			for _, f := range report.Findings {
				fmt.Printf("  %s\n", f)
			}
		}

		if checkStrict && len(report.Findings) > 0 {
			return fmt.Errorf("%d consistency findings", len(report.Findings))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkGlossary, "glossary", "", "Glossary YAML file (built-in if empty)")
	checkCmd.Flags().StringVar(&checkToneGuide, "tone-guide", "", "Tone guide YAML file (built-in if empty)")
	checkCmd.Flags().IntVar(&checkDriftThreshold, "drift-threshold", consistency.DefaultDriftThreshold,
		"Distinct renderings a glossary term may have before it counts as drift")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Emit the report as JSON")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Exit non-zero when findings exist")
}
