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
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khorshidlab/divantran/internal"
	"github.com/khorshidlab/divantran/internal/ganjoor"
	"github.com/khorshidlab/divantran/internal/store"
)

var (
	fetchLimit  int
	fetchPoems  []int
	fetchOutput string
	fetchDelay  time.Duration
	ganjoorURL  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch source ghazals from the Ganjoor API",
	Long: `Fetch Persian source texts of Rumi's Divan-e Shams from the public
Ganjoor API (api.ganjoor.net), pairing hemistichs into couplets.

Fetched ghazals are stored in the database and optionally written to a
corpus JSON file. Requests are spaced by a polite delay.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		client := ganjoor.NewClient(ganjoorURL, fetchDelay)

		var ghazals []internal.Ghazal
		if len(fetchPoems) > 0 {
			for _, id := range fetchPoems {
				g, err := client.Poem(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to fetch poem %d: %w", id, err)
				}
				ghazals = append(ghazals, *g)
				fmt.Fprintf(os.Stderr, "Fetched %s (%d verses)\n", g.ID, len(g.Verses))
			}
		} else {
			fmt.Fprintf(os.Stderr, "Fetching up to %d ghazals from Divan-e Shams...\n", fetchLimit)
			ghazals, err = client.DivanGhazals(ctx, fetchLimit)
			if err != nil && len(ghazals) == 0 {
				return err
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Fetch stopped early: %v\n", err)
			}
		}
		if len(ghazals) == 0 {
			return fmt.Errorf("no ghazals fetched")
		}

		for i := range ghazals {
			if err := db.SaveGhazal(ctx, &ghazals[i]); err != nil {
				return fmt.Errorf("failed to store ghazal %s: %w", ghazals[i].ID, err)
			}
		}

		if fetchOutput != "" {
			if err := ganjoor.SaveCorpus(fetchOutput, ghazals); err != nil {
				return err
			}
			fmt.Printf("Saved %d ghazals to %s\n", len(ghazals), fetchOutput)
		}
		fmt.Printf("Stored %d ghazals in %s\n", len(ghazals), dbPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVarP(&fetchLimit, "limit", "l", 100, "Number of ghazals to fetch")
	fetchCmd.Flags().IntSliceVar(&fetchPoems, "poem-id", nil, "Fetch specific Ganjoor poem IDs (comma-separated)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Also write fetched ghazals to a corpus JSON file")
	fetchCmd.Flags().DurationVar(&fetchDelay, "delay", 500*time.Millisecond, "Delay between API calls")
	fetchCmd.Flags().StringVar(&ganjoorURL, "ganjoor-url", "", "Ganjoor API base URL (public API if empty)")
}
