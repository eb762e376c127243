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
	"github.com/spf13/viper"

	"github.com/khorshidlab/divantran/internal"
	"github.com/khorshidlab/divantran/internal/executor"
	"github.com/khorshidlab/divantran/internal/ganjoor"
	"github.com/khorshidlab/divantran/internal/glossary"
	"github.com/khorshidlab/divantran/internal/llm"
	"github.com/khorshidlab/divantran/internal/pipeline"
	"github.com/khorshidlab/divantran/internal/store"
	"github.com/khorshidlab/divantran/internal/validator"
)

var (
	corpusFile      string
	ghazalIDs       []string
	translateLimit  int
	backend         string
	modelName       string
	ollamaURL       string
	openrouterKey   string
	glossaryFile    string
	toneGuideFile   string
	concurrency     int
	maxAttempts     int
	retryDelay      time.Duration
	passTimeout     time.Duration
	pipelineVersion string
	retranslate     bool
	noLanguageCheck bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Run the four-pass translation pipeline",
	Long: `Translate ghazals through the four-pass pipeline:

  1. Analyzer    scholarly analysis: allusions, Sufi terms, ambiguities
  2. Translator  accurate literal translation, glossary enforced
  3. Stylist     poetic refinement in Rumi's voice
  4. QA          review against source, confidence rating

Every ghazal that completes QA is published. Low-confidence results are
flagged for human review but never withheld. Ghazals already translated
at the current pipeline version are skipped unless --retranslate is set;
re-translation appends records at the given --pipeline-version, it never
overwrites published ones.

Backends:
  - ollama      self-hosted Ollama (default when reachable)
  - openrouter  hosted models via OpenRouter (requires API key)
  - mock        deterministic offline fixtures, for pipeline demos`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		gloss, tone, err := loadGuides(glossaryFile, toneGuideFile)
		if err != nil {
			return err
		}

		ghazals, err := loadGhazals(ctx, db)
		if err != nil {
			return err
		}
		if len(ghazals) == 0 {
			return fmt.Errorf("no ghazals to translate; run \"divantran fetch\" or pass --corpus")
		}

		if !retranslate {
			ghazals, err = skipTranslated(ctx, db, ghazals)
			if err != nil {
				return err
			}
			if len(ghazals) == 0 {
				fmt.Println("All selected ghazals already translated at this pipeline version.")
				return nil
			}
		}

		client, err := buildClient()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Backend: %s\n", client.Name())

		cfg := pipeline.Config{
			Concurrency: concurrency,
			MaxAttempts: maxAttempts,
			RetryDelay:  retryDelay,
			PassTimeout: passTimeout,
			Version:     pipelineVersion,
			Progress:    os.Stderr,
		}
		if !noLanguageCheck {
			cfg.LanguageCheck = validator.New().CheckEnglish
		}

		orch := pipeline.New(executor.New(client, gloss, tone), cfg)

		fmt.Fprintf(os.Stderr, "Translating %d ghazals (concurrency %d)...\n", len(ghazals), cfg.Concurrency)
		res := orch.Run(ctx, ghazals)

		published, flagged := persistRecords(ctx, db, res.Records)

		sum := res.Summary()
		fmt.Printf("Published: %d (flagged for review: %d)\n", published, flagged)
		if sum.Failed > 0 {
			fmt.Printf("Failed: %d\n", sum.Failed)
			for _, f := range sum.Failures {
				fmt.Printf("  %s at %s: %s\n", f.GhazalID, f.Stage, f.Reason)
			}
		}
		if published == 0 {
			return fmt.Errorf("no ghazals were published")
		}
		return nil
	},
}

// persistRecords appends each published record to the store, reporting
// and skipping records that fail to persist. The returned counts cover
// only records actually stored, so the summary never over-reports.
func persistRecords(ctx context.Context, db *store.Store, recs []*internal.TranslationRecord) (published, flagged int) {
	for _, rec := range recs {
		if err := db.AppendRecord(ctx, rec); err != nil {
			fmt.Fprintf(os.Stderr, "%s: failed to persist record: %v\n", rec.Ghazal.ID, err)
			continue
		}
		published++
		if rec.Flagged {
			flagged++
		}
	}
	return published, flagged
}

// loadGhazals reads the selected source ghazals: from the corpus file
// when given (saving them to the store), otherwise from the store.
func loadGhazals(ctx context.Context, db *store.Store) ([]internal.Ghazal, error) {
	var ghazals []internal.Ghazal

	if corpusFile != "" {
		corpus, err := ganjoor.LoadCorpus(corpusFile)
		if err != nil {
			return nil, err
		}
		for i := range corpus.Ghazals {
			if err := db.SaveGhazal(ctx, &corpus.Ghazals[i]); err != nil {
				return nil, fmt.Errorf("failed to store ghazal %s: %w", corpus.Ghazals[i].ID, err)
			}
		}
		ghazals = corpus.Ghazals
	} else {
		var err error
		ghazals, err = db.ListGhazals(ctx)
		if err != nil {
			return nil, err
		}
	}

	if len(ghazalIDs) > 0 {
		want := make(map[string]bool, len(ghazalIDs))
		for _, id := range ghazalIDs {
			want[id] = true
		}
		var selected []internal.Ghazal
		for _, g := range ghazals {
			if want[g.ID] {
				selected = append(selected, g)
			}
		}
		ghazals = selected
	}
	if translateLimit > 0 && len(ghazals) > translateLimit {
		ghazals = ghazals[:translateLimit]
	}
	return ghazals, nil
}

func skipTranslated(ctx context.Context, db *store.Store, ghazals []internal.Ghazal) ([]internal.Ghazal, error) {
	var out []internal.Ghazal
	for _, g := range ghazals {
		done, err := db.HasRecord(ctx, g.ID, pipelineVersion)
		if err != nil {
			return nil, err
		}
		if done {
			fmt.Fprintf(os.Stderr, "%s: already translated at version %s, skipping\n", g.ID, pipelineVersion)
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

// loadGuides loads the glossary and tone guide, falling back to the
// built-in defaults. A malformed file is a fatal configuration error.
func loadGuides(glossaryPath, tonePath string) (*glossary.Glossary, *glossary.ToneGuide, error) {
	gloss := glossary.Default()
	if glossaryPath != "" {
		var err error
		gloss, err = glossary.Load(glossaryPath)
		if err != nil {
			return nil, nil, err
		}
	}
	tone := glossary.DefaultToneGuide()
	if tonePath != "" {
		var err error
		tone, err = glossary.LoadToneGuide(tonePath)
		if err != nil {
			return nil, nil, err
		}
	}
	return gloss, tone, nil
}

// buildClient selects the model backend. "auto" prefers OpenRouter when
// a key is configured, then a reachable Ollama, then the offline mock.
func buildClient() (llm.Client, error) {
	if openrouterKey == "" {
		openrouterKey = viper.GetString("openrouter_key")
	}

	switch backend {
	case "openrouter":
		if openrouterKey == "" {
			return nil, fmt.Errorf("openrouter backend requires --openrouter-key or DIVANTRAN_OPENROUTER_KEY")
		}
		return llm.NewOpenRouterClient(openrouterKey, modelName, ""), nil
	case "ollama":
		return llm.NewOllamaClient(modelName, ollamaURL), nil
	case "mock":
		return llm.NewMockClient(), nil
	case "auto":
		if openrouterKey != "" {
			return llm.NewOpenRouterClient(openrouterKey, modelName, ""), nil
		}
		ollama := llm.NewOllamaClient(modelName, ollamaURL)
		probe, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := ollama.IsAvailable(probe); err == nil {
			return ollama, nil
		}
		fmt.Fprintf(os.Stderr, "No model backend configured; using offline mock fixtures\n")
		return llm.NewMockClient(), nil
	}
	return nil, fmt.Errorf("unknown backend %q (want ollama, openrouter, mock, or auto)", backend)
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&corpusFile, "corpus", "c", "", "Corpus JSON file with source ghazals")
	translateCmd.Flags().StringSliceVar(&ghazalIDs, "ids", nil, "Translate only these ghazal IDs (comma-separated)")
	translateCmd.Flags().IntVarP(&translateLimit, "limit", "l", 0, "Translate at most N ghazals (0 = all)")

	translateCmd.Flags().StringVar(&backend, "backend", "auto", "Model backend: ollama, openrouter, mock, auto")
	translateCmd.Flags().StringVarP(&modelName, "model", "m", "", "Model name (backend default if empty)")
	translateCmd.Flags().StringVar(&ollamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	translateCmd.Flags().StringVar(&openrouterKey, "openrouter-key", "", "OpenRouter API key")

	translateCmd.Flags().StringVar(&glossaryFile, "glossary", "", "Glossary YAML file (built-in Safi glossary if empty)")
	translateCmd.Flags().StringVar(&toneGuideFile, "tone-guide", "", "Tone guide YAML file (built-in if empty)")

	translateCmd.Flags().IntVar(&concurrency, "concurrency", 4, "Ghazals translated in parallel")
	translateCmd.Flags().IntVar(&maxAttempts, "max-attempts", 3, "Attempts per pass for transient failures")
	translateCmd.Flags().DurationVar(&retryDelay, "retry-delay", 500*time.Millisecond, "Base backoff delay, doubled per retry")
	translateCmd.Flags().DurationVar(&passTimeout, "pass-timeout", 2*time.Minute, "Timeout per model invocation")

	translateCmd.Flags().StringVar(&pipelineVersion, "pipeline-version", internal.PipelineVersion, "Version stamped into published records")
	translateCmd.Flags().BoolVar(&retranslate, "retranslate", false, "Do not skip ghazals already translated at this version")
	translateCmd.Flags().BoolVar(&noLanguageCheck, "no-language-check", false, "Skip the English-output language check")
}
