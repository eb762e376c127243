// Package executor runs single pipeline passes: it builds the prompt for
// a pass, performs exactly one model invocation, and parses and validates
// the structured output. Retry policy lives in the orchestrator.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/khorshidlab/divantran/internal"
	"github.com/khorshidlab/divantran/internal/glossary"
	"github.com/khorshidlab/divantran/internal/llm"
	"github.com/khorshidlab/divantran/internal/postprocess"
	"github.com/khorshidlab/divantran/internal/prompts"
)

// ErrSchema marks a model response that could not be parsed into the
// pass's expected structure. Retryable once with a corrective re-prompt.
var ErrSchema = errors.New("schema validation failed")

// ErrTransient marks an external failure (timeout, rate limit, transport
// error). Retryable with backoff.
var ErrTransient = errors.New("transient failure")

// Pass identifies one stage of the four-pass pipeline.
type Pass string

const (
	PassAnalyzer   Pass = "analyzer"
	PassTranslator Pass = "translator"
	PassStylist    Pass = "stylist"
	PassQA         Pass = "qa"
)

// Executor invokes the model for individual passes. The glossary and tone
// guide are fixed at construction and read-only thereafter.
type Executor struct {
	client llm.Client
	gloss  *glossary.Glossary
	tone   *glossary.ToneGuide
}

// New creates an Executor over the given model client, glossary, and tone
// guide.
func New(client llm.Client, gloss *glossary.Glossary, tone *glossary.ToneGuide) *Executor {
	return &Executor{client: client, gloss: gloss, tone: tone}
}

// ModelName reports the backing model identifier for provenance stamping.
func (e *Executor) ModelName() string { return e.client.Name() }

// Analyze runs Pass 1. correction is non-empty on a schema-failure retry
// and is appended to the user prompt.
func (e *Executor) Analyze(ctx context.Context, g *internal.Ghazal, correction string) (*internal.Analysis, error) {
	raw, err := e.complete(ctx, PassAnalyzer, prompts.AnalyzerSystem, prompts.AnalyzerUser(g)+correction)
	if err != nil {
		return nil, err
	}
	var a internal.Analysis
	if err := decode(PassAnalyzer, raw, &a); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s output: %v", ErrSchema, PassAnalyzer, err)
	}
	return &a, nil
}

// Translate runs Pass 2, producing the literal layer.
func (e *Executor) Translate(ctx context.Context, g *internal.Ghazal, a *internal.Analysis, correction string) (*internal.LiteralTranslation, error) {
	raw, err := e.complete(ctx, PassTranslator, prompts.TranslatorSystem, prompts.TranslatorUser(g, a, e.gloss)+correction)
	if err != nil {
		return nil, err
	}
	var lit internal.LiteralTranslation
	if err := decode(PassTranslator, raw, &lit); err != nil {
		return nil, err
	}
	if err := lit.Validate(g); err != nil {
		return nil, fmt.Errorf("%w: %s output: %v", ErrSchema, PassTranslator, err)
	}
	return &lit, nil
}

// Stylize runs Pass 3, refining the literal layer into the poetic layer.
func (e *Executor) Stylize(ctx context.Context, g *internal.Ghazal, a *internal.Analysis, lit *internal.LiteralTranslation, correction string) (*internal.RefinedTranslation, error) {
	raw, err := e.complete(ctx, PassStylist, prompts.StylistSystem, prompts.StylistUser(g, a, lit, e.tone)+correction)
	if err != nil {
		return nil, err
	}
	var ref internal.RefinedTranslation
	if err := decode(PassStylist, raw, &ref); err != nil {
		return nil, err
	}
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s output: %v", ErrSchema, PassStylist, err)
	}
	return &ref, nil
}

// Review runs Pass 4, producing the QA report. The report is normalized
// so that low confidence always carries the human-review flag.
func (e *Executor) Review(ctx context.Context, g *internal.Ghazal, a *internal.Analysis, lit *internal.LiteralTranslation, ref *internal.RefinedTranslation, correction string) (*internal.QAReport, error) {
	raw, err := e.complete(ctx, PassQA, prompts.QASystem, prompts.QAUser(g, a, lit, ref, e.gloss)+correction)
	if err != nil {
		return nil, err
	}
	var qa internal.QAReport
	if err := decode(PassQA, raw, &qa); err != nil {
		return nil, err
	}
	if err := qa.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s output: %v", ErrSchema, PassQA, err)
	}
	qa.Normalize()
	return &qa, nil
}

// complete performs the single external invocation for a pass and cleans
// the raw text. Any client error is classified as transient; the caller's
// retry budget decides when to give up.
func (e *Executor) complete(ctx context.Context, pass Pass, system, user string) (string, error) {
	raw, err := e.client.Complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("%w: %s invocation: %v", ErrTransient, pass, err)
	}
	return postprocess.Clean(raw), nil
}

func decode(pass Pass, raw string, v interface{}) error {
	if err := json.Unmarshal([]byte(postprocess.ExtractJSON(raw)), v); err != nil {
		return fmt.Errorf("%w: %s output is not valid JSON: %v", ErrSchema, pass, err)
	}
	return nil
}
