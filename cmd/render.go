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
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/khorshidlab/divantran/internal/render"
	"github.com/khorshidlab/divantran/internal/store"
)

var (
	renderOutput string
	renderFormat string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render published translations as a document",
	Long: `Render the latest published record of every ghazal into a
reader-facing document: Persian text, English translation, literal
layer, and scholarly notes. Flagged records are rendered with a visible
review notice.

Formats: markdown (default), html.`,
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
			return fmt.Errorf("no published records to render")
		}

		info := render.DocumentInfo{
			Source:      "Divan-e Shams-e Tabrizi (Divan-e Kabir)",
			Edition:     "Ganjoor.net (based on Foruzanfar edition)",
			GeneratedAt: time.Now(),
		}

		var out string
		switch renderFormat {
		case "markdown", "md":
			out = render.Document(records, info)
		case "html":
			out = render.HTMLDocument(records, info)
		default:
			return fmt.Errorf("unknown format %q (want markdown or html)", renderFormat)
		}

		if renderOutput == "" || renderOutput == "-" {
			fmt.Print(out)
			return nil
		}
		if dir := filepath.Dir(renderOutput); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(renderOutput, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Rendered %d translations to %s\n", len(records), renderOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (stdout if empty)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "markdown", "Output format: markdown, html")
}
