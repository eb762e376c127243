package internal

import (
	"strings"
	"testing"
)

func sampleGhazal() Ghazal {
	return Ghazal{
		ID:     "F-2114",
		Number: 2114,
		Verses: []Couplet{
			{Hemistich1: "یار مرا غار مرا عشق جگرخوار مرا", Hemistich2: "یار تویی غار تویی خواجه نگهدار مرا"},
			{Hemistich1: "نوح تویی روح تویی فاتح و مفتوح تویی", Hemistich2: "سینه مشروح تویی بر در اسرار مرا"},
		},
	}
}

func TestGhazalValidate(t *testing.T) {
	g := sampleGhazal()
	if err := g.Validate(); err != nil {
		t.Errorf("valid ghazal rejected: %v", err)
	}

	empty := Ghazal{ID: "F-0001"}
	if err := empty.Validate(); err == nil {
		t.Error("ghazal with no verses accepted")
	}

	blank := sampleGhazal()
	blank.Verses[1].Hemistich2 = "   "
	if err := blank.Validate(); err == nil {
		t.Error("ghazal with a blank hemistich accepted")
	}

	noID := sampleGhazal()
	noID.ID = ""
	if err := noID.Validate(); err == nil {
		t.Error("ghazal without an id accepted")
	}
}

func TestSourceTextNumbersVerses(t *testing.T) {
	g := sampleGhazal()
	text := g.SourceText()
	if !strings.Contains(text, "Verse 1:") || !strings.Contains(text, "Verse 2:") {
		t.Errorf("source text missing verse markers:\n%s", text)
	}
	if !strings.Contains(text, "یار مرا غار مرا عشق جگرخوار مرا") {
		t.Errorf("source text missing hemistich:\n%s", text)
	}
}

func TestContainsPhrase(t *testing.T) {
	g := sampleGhazal()
	if !g.ContainsPhrase("نوح تویی") {
		t.Error("phrase present in verse 2 not found")
	}
	if g.ContainsPhrase("الست") {
		t.Error("absent phrase reported present")
	}
	if g.ContainsPhrase("  ") {
		t.Error("blank phrase reported present")
	}
}

func TestAnalysisUncitedPhrases(t *testing.T) {
	g := sampleGhazal()
	a := Analysis{
		Allusions: []Allusion{
			{Phrase: "نوح تویی", Reference: "Quran 71", Gloss: "Noah"},
			{Phrase: "الست", Reference: "Quran 7:172", Gloss: "covenant"},
		},
		Terms: []Term{{Term: "عشق", Transliteration: "ishq", Gloss: "Love"}},
	}

	missing := a.UncitedPhrases(&g)
	if len(missing) != 1 || missing[0] != "الست" {
		t.Errorf("uncited = %v, want [الست]", missing)
	}
}

func TestAnalysisExceptsTerm(t *testing.T) {
	a := Analysis{
		Ambiguities: []Ambiguity{
			{Phrase: "یار مرا", Readings: []string{"the Friend", "the human beloved"}},
		},
	}
	if !a.ExceptsTerm("یار") {
		t.Error("ambiguity citing the term should license an exception")
	}
	if a.ExceptsTerm("می") {
		t.Error("unrelated term excepted")
	}
}

func TestLiteralTranslationValidate(t *testing.T) {
	g := sampleGhazal()
	lit := LiteralTranslation{
		Verses: []VerseTranslation{
			{Verse: 1, Hemistich1: "a", Hemistich2: "b"},
			{Verse: 2, Hemistich1: "c", Hemistich2: "d"},
		},
	}
	if err := lit.Validate(&g); err != nil {
		t.Errorf("matching literal rejected: %v", err)
	}

	short := LiteralTranslation{Verses: lit.Verses[:1]}
	if err := short.Validate(&g); err == nil {
		t.Error("verse count mismatch accepted")
	}
}

func TestRefinedTranslationText(t *testing.T) {
	withFull := RefinedTranslation{
		Verses:   []RefinedVerse{{Verse: 1, Line1: "x", Line2: "y"}},
		FullText: "the full poem",
	}
	if withFull.Text() != "the full poem" {
		t.Errorf("Text() = %q, want full_text preferred", withFull.Text())
	}

	fromVerses := RefinedTranslation{
		Verses: []RefinedVerse{{Verse: 1, Line1: "line one", Line2: "line two"}},
	}
	if fromVerses.Text() != "line one\nline two" {
		t.Errorf("Text() = %q", fromVerses.Text())
	}

	empty := RefinedTranslation{}
	if err := empty.Validate(); err == nil {
		t.Error("empty refined translation accepted")
	}
}

func TestQAReportNormalize(t *testing.T) {
	q := QAReport{Confidence: ConfidenceLow, NeedsHumanReview: false}
	q.Normalize()
	if !q.NeedsHumanReview {
		t.Error("low confidence must force human review")
	}

	m := QAReport{Confidence: ConfidenceMedium, NeedsHumanReview: false}
	m.Normalize()
	if m.NeedsHumanReview {
		t.Error("medium confidence must not force human review")
	}

	bad := QAReport{Confidence: "excellent"}
	if err := bad.Validate(); err == nil {
		t.Error("unknown confidence accepted")
	}
}

func TestTranslationRecordValidate(t *testing.T) {
	rec := TranslationRecord{
		Ghazal: sampleGhazal(),
		Translation: Translation{
			Literal: LiteralTranslation{
				Verses: []VerseTranslation{
					{Verse: 1, Hemistich1: "a", Hemistich2: "b"},
					{Verse: 2, Hemistich1: "c", Hemistich2: "d"},
				},
			},
			Refined: RefinedTranslation{FullText: "poem"},
		},
		QA:         QAReport{Confidence: ConfidenceHigh},
		Provenance: Provenance{RecordID: "r1", PipelineVersion: PipelineVersion},
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("complete record rejected: %v", err)
	}

	rec.Provenance.PipelineVersion = ""
	if err := rec.Validate(); err == nil {
		t.Error("record without a pipeline version accepted")
	}
}
