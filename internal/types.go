// Package internal holds the core data model shared by the translation
// pipeline: the Ghazal source unit, the structured outputs of the four
// passes, and the published TranslationRecord aggregate.
package internal

import (
	"fmt"
	"strings"
	"time"
)

// PipelineVersion identifies the pipeline revision stamped into every
// TranslationRecord. Re-translating a ghazal at a higher version appends a
// new record; existing records are never rewritten.
const PipelineVersion = "2.0"

// Couplet is one verse of a ghazal: two hemistichs (half-lines).
type Couplet struct {
	Hemistich1 string `json:"hemistich1"`
	Hemistich2 string `json:"hemistich2"`
}

// Ghazal is a single poem unit from the Divan-e Kabir.
type Ghazal struct {
	// ID is the stable scholarly identifier shown to readers,
	// e.g. "F-2114" (Foruzanfar numbering).
	ID     string `json:"id"`
	Number int    `json:"number"`

	// InternalRef is the Ganjoor poem id, used only for re-fetching.
	InternalRef int `json:"ganjoor_id,omitempty"`

	Title  string    `json:"title,omitempty"`
	Meter  string    `json:"meter,omitempty"`
	Rhyme  string    `json:"rhyme,omitempty"`
	Verses []Couplet `json:"verses"`
}

// Validate checks the structural invariants of a source ghazal: at least
// one verse, and every verse with two non-empty hemistichs.
func (g *Ghazal) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("ghazal has no id")
	}
	if len(g.Verses) == 0 {
		return fmt.Errorf("ghazal %s has no verses", g.ID)
	}
	for i, v := range g.Verses {
		if strings.TrimSpace(v.Hemistich1) == "" || strings.TrimSpace(v.Hemistich2) == "" {
			return fmt.Errorf("ghazal %s verse %d has an empty hemistich", g.ID, i+1)
		}
	}
	return nil
}

// SourceText returns the Persian text as verse-numbered lines, the form
// fed to every pass prompt.
func (g *Ghazal) SourceText() string {
	var sb strings.Builder
	for i, v := range g.Verses {
		fmt.Fprintf(&sb, "Verse %d:\n  %s\n  %s\n", i+1, v.Hemistich1, v.Hemistich2)
	}
	return sb.String()
}

// ContainsPhrase reports whether phrase occurs anywhere in the source
// verses. Used to verify that analysis entries cite real text.
func (g *Ghazal) ContainsPhrase(phrase string) bool {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return false
	}
	for _, v := range g.Verses {
		if strings.Contains(v.Hemistich1, phrase) || strings.Contains(v.Hemistich2, phrase) {
			return true
		}
	}
	return false
}

// Allusion is a scriptural reference identified by the Analyzer pass.
type Allusion struct {
	Phrase    string `json:"phrase"`
	Reference string `json:"reference"`
	Gloss     string `json:"gloss"`
}

// Term is a technical (Sufi) vocabulary item identified in the source.
type Term struct {
	Term            string `json:"term"`
	Transliteration string `json:"transliteration"`
	Gloss           string `json:"gloss"`
}

// Ambiguity is a phrase with several valid readings that the translation
// must preserve rather than resolve.
type Ambiguity struct {
	Phrase         string   `json:"phrase"`
	Readings       []string `json:"readings"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// Wordplay notes a pun or double meaning, usually untranslatable.
type Wordplay struct {
	Word     string   `json:"word"`
	Meanings []string `json:"meanings"`
	Note     string   `json:"note,omitempty"`
}

// ArabicSegment is a piece of Arabic (Quranic, hadith, or liturgical)
// text embedded in the Persian.
type ArabicSegment struct {
	Text        string `json:"text"`
	Kind        string `json:"kind"`
	Reference   string `json:"reference,omitempty"`
	Translation string `json:"translation,omitempty"`
}

// ArabicContent flags non-Persian quoted content requiring special
// handling downstream.
type ArabicContent struct {
	Present  bool            `json:"present"`
	Segments []ArabicSegment `json:"segments,omitempty"`
}

// Analysis is the structured output of Pass 1.
type Analysis struct {
	GrammaticalNotes string        `json:"grammatical_notes"`
	Allusions        []Allusion    `json:"allusions"`
	Terms            []Term        `json:"terms"`
	Ambiguities      []Ambiguity   `json:"ambiguities"`
	Wordplay         []Wordplay    `json:"wordplay"`
	MeterNotes       string        `json:"meter_notes,omitempty"`
	Arabic           ArabicContent `json:"arabic_content"`
}

// Validate checks the structural schema of an analysis. Whether cited
// phrases actually occur in the source is a content concern checked by
// UncitedPhrases and the QA pass, not here.
func (a *Analysis) Validate() error {
	for i, al := range a.Allusions {
		if strings.TrimSpace(al.Phrase) == "" {
			return fmt.Errorf("allusion %d has an empty phrase", i+1)
		}
	}
	for i, t := range a.Terms {
		if strings.TrimSpace(t.Term) == "" {
			return fmt.Errorf("term %d is empty", i+1)
		}
	}
	for i, am := range a.Ambiguities {
		if strings.TrimSpace(am.Phrase) == "" {
			return fmt.Errorf("ambiguity %d has an empty phrase", i+1)
		}
		if len(am.Readings) == 0 {
			return fmt.Errorf("ambiguity %q has no readings", am.Phrase)
		}
	}
	return nil
}

// UncitedPhrases returns analysis phrases (allusions, terms, ambiguities)
// that do not occur in the source verses. A non-empty result indicates
// possible invention by the model.
func (a *Analysis) UncitedPhrases(g *Ghazal) []string {
	var missing []string
	for _, al := range a.Allusions {
		if !g.ContainsPhrase(al.Phrase) {
			missing = append(missing, al.Phrase)
		}
	}
	for _, t := range a.Terms {
		if !g.ContainsPhrase(t.Term) {
			missing = append(missing, t.Term)
		}
	}
	for _, am := range a.Ambiguities {
		if !g.ContainsPhrase(am.Phrase) {
			missing = append(missing, am.Phrase)
		}
	}
	return missing
}

// ExceptsTerm reports whether the analysis licenses a non-canonical
// rendering for the glossary source term: a term is excepted when an
// ambiguity entry cites it (e.g. یار read as either "the Friend" or the
// human beloved depending on context).
func (a *Analysis) ExceptsTerm(term string) bool {
	for _, am := range a.Ambiguities {
		if strings.Contains(am.Phrase, term) || strings.Contains(term, am.Phrase) {
			return true
		}
	}
	return false
}

// VerseTranslation is one translated couplet in the literal layer.
type VerseTranslation struct {
	Verse      int    `json:"verse"`
	Hemistich1 string `json:"hemistich1"`
	Hemistich2 string `json:"hemistich2"`
}

// VerseNote attaches a translator note to a verse.
type VerseNote struct {
	Verse int    `json:"verse"`
	Note  string `json:"note"`
}

// UncertainPassage marks a passage the translator could not render with
// confidence; the literal text carries a [?] marker at the same spot.
type UncertainPassage struct {
	Verse        int      `json:"verse"`
	Phrase       string   `json:"phrase"`
	Issue        string   `json:"issue"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// LiteralTranslation is the accuracy-first output of Pass 2.
type LiteralTranslation struct {
	Verses    []VerseTranslation `json:"verses"`
	Notes     []VerseNote        `json:"notes,omitempty"`
	Uncertain []UncertainPassage `json:"uncertain,omitempty"`

	// Renderings maps glossary source terms that occur in this ghazal to
	// the English rendering actually used, e.g. "یار" → "the Friend".
	// The consistency checker reads these to detect terminology drift.
	Renderings map[string]string `json:"renderings,omitempty"`
}

// Validate checks that the literal layer covers every source verse.
func (l *LiteralTranslation) Validate(g *Ghazal) error {
	if len(l.Verses) == 0 {
		return fmt.Errorf("literal translation has no verses")
	}
	if g != nil && len(l.Verses) != len(g.Verses) {
		return fmt.Errorf("literal translation has %d verses, source has %d", len(l.Verses), len(g.Verses))
	}
	for _, v := range l.Verses {
		if strings.TrimSpace(v.Hemistich1) == "" || strings.TrimSpace(v.Hemistich2) == "" {
			return fmt.Errorf("literal translation verse %d has an empty hemistich", v.Verse)
		}
	}
	return nil
}

// Text renders the literal layer as verse-numbered lines.
func (l *LiteralTranslation) Text() string {
	var sb strings.Builder
	for _, v := range l.Verses {
		fmt.Fprintf(&sb, "%d. %s / %s\n", v.Verse, v.Hemistich1, v.Hemistich2)
	}
	return sb.String()
}

// RefinedVerse is one couplet of the poetic layer.
type RefinedVerse struct {
	Verse int    `json:"verse"`
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// RefinedTranslation is the poetic output of Pass 3.
type RefinedTranslation struct {
	Verses            []RefinedVerse `json:"verses"`
	FullText          string         `json:"full_text"`
	PreservedElements []string       `json:"preserved_elements,omitempty"`
	ToneNotes         string         `json:"tone_notes,omitempty"`
}

// Validate checks the refined layer is non-empty.
func (r *RefinedTranslation) Validate() error {
	if strings.TrimSpace(r.Text()) == "" {
		return fmt.Errorf("refined translation is empty")
	}
	return nil
}

// Text returns the refined poem as flowing text, preferring the model's
// full_text and falling back to joining the verse lines.
func (r *RefinedTranslation) Text() string {
	if strings.TrimSpace(r.FullText) != "" {
		return r.FullText
	}
	var lines []string
	for _, v := range r.Verses {
		lines = append(lines, v.Line1, v.Line2)
	}
	return strings.Join(lines, "\n")
}

// Translation aggregates the three layers of one ghazal's translation.
// Literal is never discarded once Refined exists; the pair preserves
// round-trip traceability.
type Translation struct {
	Literal LiteralTranslation `json:"literal"`
	Refined RefinedTranslation `json:"refined"`
	Notes   string             `json:"notes"`
}

// Confidence is the QA-assigned trust level. It gates human-review
// flagging, never publication.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the three defined levels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// QAReport is the output of Pass 4.
type QAReport struct {
	Confidence        Confidence `json:"confidence"`
	Issues            []string   `json:"issues"`
	MissingAllusions  []string   `json:"missing_allusions,omitempty"`
	TerminologyIssues []string   `json:"terminology_issues,omitempty"`
	ToneIssues        []string   `json:"tone_issues,omitempty"`
	NeedsHumanReview  bool       `json:"needs_human_review"`
	ComparisonNotes   string     `json:"comparison_notes,omitempty"`
}

// Validate checks the report's schema.
func (q *QAReport) Validate() error {
	if !q.Confidence.Valid() {
		return fmt.Errorf("invalid confidence %q", q.Confidence)
	}
	return nil
}

// Normalize enforces the review invariant: a low-confidence report always
// requires human review. Medium reports may carry the flag; high reports
// keep whatever the model set.
func (q *QAReport) Normalize() {
	if q.Confidence == ConfidenceLow {
		q.NeedsHumanReview = true
	}
}

// Provenance records where and when a translation record came from.
type Provenance struct {
	RecordID        string    `json:"record_id"`
	TranslatedAt    time.Time `json:"translated_at"`
	Model           string    `json:"model"`
	PipelineVersion string    `json:"pipeline_version"`
}

// TranslationRecord is the published aggregate for one ghazal: source,
// analysis, three translation layers, QA report, and provenance.
// Immutable once created.
type TranslationRecord struct {
	Ghazal      Ghazal      `json:"ghazal"`
	Analysis    Analysis    `json:"analysis"`
	Translation Translation `json:"translation"`
	QA          QAReport    `json:"qa"`
	Provenance  Provenance  `json:"provenance"`

	// Flagged marks the record for human attention. Flagged records are
	// still published.
	Flagged bool `json:"flagged"`
}

// Validate checks that a record is fully populated: a record never
// publishes with a missing layer.
func (r *TranslationRecord) Validate() error {
	if err := r.Ghazal.Validate(); err != nil {
		return err
	}
	if err := r.Translation.Literal.Validate(&r.Ghazal); err != nil {
		return err
	}
	if err := r.Translation.Refined.Validate(); err != nil {
		return err
	}
	if err := r.QA.Validate(); err != nil {
		return err
	}
	if r.Provenance.RecordID == "" || r.Provenance.PipelineVersion == "" {
		return fmt.Errorf("record for ghazal %s has incomplete provenance", r.Ghazal.ID)
	}
	return nil
}

// GhazalFailure describes one ghazal the pipeline could not publish.
type GhazalFailure struct {
	GhazalID string `json:"ghazal_id"`
	Stage    string `json:"stage"`
	Reason   string `json:"reason"`
}

// RunSummary is the user-visible outcome of a pipeline run.
type RunSummary struct {
	Published int             `json:"published"`
	Flagged   int             `json:"flagged"`
	Failed    int             `json:"failed"`
	Failures  []GhazalFailure `json:"failures,omitempty"`
}
