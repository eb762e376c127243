// Package pipeline drives ghazals through the four translation passes.
//
// Each ghazal advances through an explicit state machine
// (pending → analyzed → translated → stylized → qa-done → published) with
// strictly sequential passes; different ghazals run concurrently under a
// bounded worker pool. Every ghazal that reaches qa-done is published,
// whatever its confidence; low-confidence records are flagged for human
// attention but never withheld.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/khorshidlab/divantran/internal"
	"github.com/khorshidlab/divantran/internal/executor"
	"github.com/khorshidlab/divantran/internal/prompts"
)

// State is the position of one ghazal in the pipeline state machine.
type State string

const (
	StatePending    State = "pending"
	StateAnalyzed   State = "analyzed"
	StateTranslated State = "translated"
	StateStylized   State = "stylized"
	StateQADone     State = "qa_done"
	StatePublished  State = "published"
	StateFailed     State = "failed"
)

// PassRunner is the executor surface the orchestrator drives. correction
// is empty on first attempts and carries a corrective re-prompt after a
// schema failure.
type PassRunner interface {
	ModelName() string
	Analyze(ctx context.Context, g *internal.Ghazal, correction string) (*internal.Analysis, error)
	Translate(ctx context.Context, g *internal.Ghazal, a *internal.Analysis, correction string) (*internal.LiteralTranslation, error)
	Stylize(ctx context.Context, g *internal.Ghazal, a *internal.Analysis, lit *internal.LiteralTranslation, correction string) (*internal.RefinedTranslation, error)
	Review(ctx context.Context, g *internal.Ghazal, a *internal.Analysis, lit *internal.LiteralTranslation, ref *internal.RefinedTranslation, correction string) (*internal.QAReport, error)
}

// Config tunes a pipeline run.
type Config struct {
	// Concurrency bounds how many ghazals are in flight at once.
	Concurrency int
	// MaxAttempts is the per-pass budget for transient failures,
	// including the first try.
	MaxAttempts int
	// RetryDelay is the base backoff delay, doubled per retry.
	RetryDelay time.Duration
	// PassTimeout converts a hung model invocation into a retryable
	// transient failure. Zero disables the per-pass timeout.
	PassTimeout time.Duration
	// Version is the pipeline version stamped into published records.
	// Defaults to the built-in PipelineVersion; a bumped version is how a
	// re-translation run appends new records next to old ones.
	Version string
	// LanguageCheck optionally verifies the refined translation is in the
	// target language; a failure is treated like a schema failure of the
	// stylist pass (one corrective retry).
	LanguageCheck func(text string) error
	// Progress receives per-ghazal progress lines. Nil discards them.
	Progress io.Writer
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	if c.Version == "" {
		c.Version = internal.PipelineVersion
	}
	if c.Progress == nil {
		c.Progress = io.Discard
	}
}

// Orchestrator runs the four-pass pipeline.
type Orchestrator struct {
	exec PassRunner
	cfg  Config
}

// New creates an Orchestrator. The executor's glossary and tone guide are
// fixed for the lifetime of the run.
func New(exec PassRunner, cfg Config) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{exec: exec, cfg: cfg}
}

// PassError reports which stage a ghazal failed in.
type PassError struct {
	GhazalID string
	Stage    State
	Err      error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("ghazal %s failed at %s: %v", e.GhazalID, e.Stage, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }

// TranslateOne drives a single ghazal through all four passes and
// assembles the published record. The four passes are strictly
// sequential: each consumes the prior pass's output.
func (o *Orchestrator) TranslateOne(ctx context.Context, g *internal.Ghazal) (*internal.TranslationRecord, error) {
	if err := g.Validate(); err != nil {
		return nil, &PassError{GhazalID: g.ID, Stage: StatePending, Err: err}
	}

	state := StatePending

	var analysis *internal.Analysis
	err := o.runPass(ctx, func(ctx context.Context, correction string) error {
		a, err := o.exec.Analyze(ctx, g, correction)
		if err == nil {
			analysis = a
		}
		return err
	})
	if err != nil {
		return nil, &PassError{GhazalID: g.ID, Stage: state, Err: err}
	}
	state = StateAnalyzed
	fmt.Fprintf(o.cfg.Progress, "%s: analyzed (%d allusions, %d terms)\n", g.ID, len(analysis.Allusions), len(analysis.Terms))

	var literal *internal.LiteralTranslation
	err = o.runPass(ctx, func(ctx context.Context, correction string) error {
		lit, err := o.exec.Translate(ctx, g, analysis, correction)
		if err == nil {
			literal = lit
		}
		return err
	})
	if err != nil {
		return nil, &PassError{GhazalID: g.ID, Stage: state, Err: err}
	}
	state = StateTranslated
	fmt.Fprintf(o.cfg.Progress, "%s: translated\n", g.ID)

	var refined *internal.RefinedTranslation
	err = o.runPass(ctx, func(ctx context.Context, correction string) error {
		ref, err := o.exec.Stylize(ctx, g, analysis, literal, correction)
		if err != nil {
			return err
		}
		if o.cfg.LanguageCheck != nil {
			if lerr := o.cfg.LanguageCheck(ref.Text()); lerr != nil {
				return fmt.Errorf("%w: refined output: %v", executor.ErrSchema, lerr)
			}
		}
		refined = ref
		return nil
	})
	if err != nil {
		return nil, &PassError{GhazalID: g.ID, Stage: state, Err: err}
	}
	state = StateStylized
	fmt.Fprintf(o.cfg.Progress, "%s: stylized\n", g.ID)

	var qa *internal.QAReport
	err = o.runPass(ctx, func(ctx context.Context, correction string) error {
		rep, err := o.exec.Review(ctx, g, analysis, literal, refined, correction)
		if err == nil {
			qa = rep
		}
		return err
	})
	if err != nil {
		return nil, &PassError{GhazalID: g.ID, Stage: state, Err: err}
	}
	fmt.Fprintf(o.cfg.Progress, "%s: qa done (confidence %s)\n", g.ID, qa.Confidence)

	// Publishing rule: every ghazal that completes QA is published; low
	// and flagged-medium records are marked, never withheld.
	rec := &internal.TranslationRecord{
		Ghazal:   *g,
		Analysis: *analysis,
		Translation: internal.Translation{
			Literal: *literal,
			Refined: *refined,
			Notes:   CompileNotes(analysis, literal),
		},
		QA: *qa,
		Provenance: internal.Provenance{
			RecordID:        uuid.New().String(),
			TranslatedAt:    time.Now().UTC(),
			Model:           o.exec.ModelName(),
			PipelineVersion: o.cfg.Version,
		},
		Flagged: qa.NeedsHumanReview,
	}
	if err := rec.Validate(); err != nil {
		return nil, &PassError{GhazalID: g.ID, Stage: StateQADone, Err: err}
	}
	return rec, nil
}

// runPass applies the retry policy to one pass: transient failures back
// off exponentially up to MaxAttempts, and the first schema failure gets
// exactly one corrective re-prompt before counting as fatal.
func (o *Orchestrator) runPass(ctx context.Context, call func(ctx context.Context, correction string) error) error {
	var correction string
	corrected := false
	transientAttempts := 0

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		passCtx := ctx
		var cancel context.CancelFunc
		if o.cfg.PassTimeout > 0 {
			passCtx, cancel = context.WithTimeout(ctx, o.cfg.PassTimeout)
		}
		err := call(passCtx, correction)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}

		switch {
		case errors.Is(err, executor.ErrSchema):
			if corrected {
				return err
			}
			corrected = true
			correction = prompts.Correction(err.Error())

		case errors.Is(err, executor.ErrTransient):
			transientAttempts++
			if transientAttempts >= o.cfg.MaxAttempts {
				return err
			}
			delay := o.cfg.RetryDelay << (transientAttempts - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}

		default:
			return err
		}
	}
}

// RunResult collects the outcome of a batch run. Records holds every
// published record; Failures lists ghazals the pipeline could not
// publish.
type RunResult struct {
	Records  []*internal.TranslationRecord
	Failures []internal.GhazalFailure
}

// Summary reduces the result to the user-visible counts.
func (r *RunResult) Summary() internal.RunSummary {
	s := internal.RunSummary{
		Published: len(r.Records),
		Failed:    len(r.Failures),
		Failures:  r.Failures,
	}
	for _, rec := range r.Records {
		if rec.Flagged {
			s.Flagged++
		}
	}
	return s
}

// Run processes a batch of ghazals under a bounded worker pool. Each
// ghazal's passes stay strictly sequential; no ordering is guaranteed
// between ghazals. A per-ghazal failure never aborts the batch.
// Cancelling ctx lets in-flight ghazals finish their current pass and
// prevents new ghazals from starting.
func (o *Orchestrator) Run(ctx context.Context, ghazals []internal.Ghazal) *RunResult {
	res := &RunResult{}
	var mu sync.Mutex

	grp := &errgroup.Group{}
	grp.SetLimit(o.cfg.Concurrency)

	for i := range ghazals {
		g := &ghazals[i]
		grp.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				res.Failures = append(res.Failures, internal.GhazalFailure{
					GhazalID: g.ID, Stage: string(StatePending), Reason: "run cancelled",
				})
				mu.Unlock()
				return nil
			}

			rec, err := o.TranslateOne(ctx, g)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stage := StateFailed
				var perr *PassError
				if errors.As(err, &perr) {
					stage = perr.Stage
				}
				res.Failures = append(res.Failures, internal.GhazalFailure{
					GhazalID: g.ID, Stage: string(stage), Reason: err.Error(),
				})
				fmt.Fprintf(o.cfg.Progress, "%s: FAILED: %v\n", g.ID, err)
				return nil
			}
			res.Records = append(res.Records, rec)
			return nil
		})
	}
	_ = grp.Wait()

	sort.Slice(res.Records, func(i, j int) bool {
		return res.Records[i].Ghazal.Number < res.Records[j].Ghazal.Number
	})
	sort.Slice(res.Failures, func(i, j int) bool {
		return res.Failures[i].GhazalID < res.Failures[j].GhazalID
	})
	return res
}

// CompileNotes assembles the free-text scholarly notes layer from the
// analysis and the literal translation's verse notes.
func CompileNotes(a *internal.Analysis, lit *internal.LiteralTranslation) string {
	var sections []string

	if len(a.Allusions) > 0 {
		s := "**Scriptural Allusions:**\n"
		for _, al := range a.Allusions {
			s += fmt.Sprintf("- %s: %s\n", al.Reference, al.Gloss)
		}
		sections = append(sections, s)
	}
	if len(a.Terms) > 0 {
		s := "**Sufi Terminology:**\n"
		for _, t := range a.Terms {
			s += fmt.Sprintf("- *%s* (%s): %s\n", t.Transliteration, t.Term, t.Gloss)
		}
		sections = append(sections, s)
	}
	if len(a.Ambiguities) > 0 {
		s := "**Deliberate Ambiguities:**\n"
		for _, am := range a.Ambiguities {
			s += fmt.Sprintf("- %q: %s\n", am.Phrase, strings.Join(am.Readings, ", "))
		}
		sections = append(sections, s)
	}
	if len(a.Wordplay) > 0 {
		s := "**Wordplay (Lost in Translation):**\n"
		for _, w := range a.Wordplay {
			s += fmt.Sprintf("- *%s*: %s\n", w.Word, strings.Join(w.Meanings, ", "))
		}
		sections = append(sections, s)
	}
	if len(lit.Notes) > 0 {
		s := "**Translation Notes:**\n"
		for _, n := range lit.Notes {
			s += fmt.Sprintf("- Verse %d: %s\n", n.Verse, n.Note)
		}
		sections = append(sections, s)
	}

	out := ""
	for i, s := range sections {
		if i > 0 {
			out += "\n"
		}
		out += s
	}
	return out
}
