package consistency

import (
	"strings"
	"testing"

	"github.com/khorshidlab/divantran/internal"
	"github.com/khorshidlab/divantran/internal/glossary"
)

func testGlossary(t *testing.T) *glossary.Glossary {
	t.Helper()
	g, err := glossary.New([]glossary.Entry{
		{Term: "یار", Transliteration: "yar", Rendering: "the Friend", Gloss: "the divine beloved"},
		{Term: "می", Transliteration: "mey", Rendering: "wine", Gloss: "mystical intoxicant"},
	})
	if err != nil {
		t.Fatalf("glossary: %v", err)
	}
	return g
}

func record(id string, opts ...func(*internal.TranslationRecord)) *internal.TranslationRecord {
	rec := &internal.TranslationRecord{
		Ghazal: internal.Ghazal{
			ID:     id,
			Number: 1,
			Verses: []internal.Couplet{{Hemistich1: "یار مرا", Hemistich2: "غار مرا"}},
		},
		Translation: internal.Translation{
			Literal: internal.LiteralTranslation{
				Verses:     []internal.VerseTranslation{{Verse: 1, Hemistich1: "the Friend is mine", Hemistich2: "the cave is mine"}},
				Renderings: map[string]string{},
			},
			Refined: internal.RefinedTranslation{FullText: "The Friend is mine, the cave is mine."},
		},
		QA:         internal.QAReport{Confidence: internal.ConfidenceHigh},
		Provenance: internal.Provenance{RecordID: "rec-" + id, PipelineVersion: internal.PipelineVersion},
	}
	for _, opt := range opts {
		opt(rec)
	}
	return rec
}

func renders(term, rendering string) func(*internal.TranslationRecord) {
	return func(r *internal.TranslationRecord) {
		r.Translation.Literal.Renderings[term] = rendering
	}
}

func hasID(ids []string, want string) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func TestCheckCleanBatch(t *testing.T) {
	recs := []*internal.TranslationRecord{record("F-0001"), record("F-0002")}
	rep := Check(recs, testGlossary(t), nil, DefaultDriftThreshold)
	if rep.Checked != 2 {
		t.Errorf("checked = %d, want 2", rep.Checked)
	}
	if len(rep.Findings) != 0 {
		t.Errorf("unexpected findings: %v", rep.Findings)
	}
}

func TestDriftAcrossRecordsYieldsOneFinding(t *testing.T) {
	recs := []*internal.TranslationRecord{
		record("F-0010", renders("یار", "the darling")),
		record("F-0011", renders("یار", "the companion")),
	}
	rep := Check(recs, testGlossary(t), nil, DefaultDriftThreshold)

	drift := rep.ByKind(KindDrift)
	if len(drift) != 1 {
		t.Fatalf("drift findings = %d, want 1: %v", len(drift), rep.Findings)
	}
	f := drift[0]
	if f.Term != "یار" {
		t.Errorf("drift term = %q", f.Term)
	}
	if !hasID(f.RecordIDs, "rec-F-0010") || !hasID(f.RecordIDs, "rec-F-0011") {
		t.Errorf("finding should name both records, got %v", f.RecordIDs)
	}
	if !hasID(f.GhazalIDs, "F-0010") || !hasID(f.GhazalIDs, "F-0011") {
		t.Errorf("finding should name both ghazals, got %v", f.GhazalIDs)
	}
	if !strings.Contains(f.Detail, "the Friend") {
		t.Errorf("detail should name the canonical rendering: %s", f.Detail)
	}
}

func TestUniformNonCanonicalRenderingIsNotDrift(t *testing.T) {
	recs := []*internal.TranslationRecord{
		record("F-0012", renders("یار", "the darling")),
		record("F-0013", renders("یار", "the darling")),
	}
	rep := Check(recs, testGlossary(t), nil, DefaultDriftThreshold)
	if drift := rep.ByKind(KindDrift); len(drift) != 0 {
		t.Errorf("one shared rendering must not drift: %v", drift)
	}
}

func TestDriftExceptedByAmbiguity(t *testing.T) {
	recs := []*internal.TranslationRecord{
		record("F-0014", renders("یار", "the darling"), func(r *internal.TranslationRecord) {
			r.Analysis.Ambiguities = []internal.Ambiguity{
				{Phrase: "یار", Readings: []string{"the Friend", "the human beloved"}},
			}
		}),
		record("F-0015", renders("یار", "the companion")),
	}
	rep := Check(recs, testGlossary(t), nil, DefaultDriftThreshold)
	if drift := rep.ByKind(KindDrift); len(drift) != 0 {
		t.Errorf("ambiguity-licensed rendering must not count toward drift: %v", drift)
	}
}

func TestDriftIgnoresCaseAndUnglossedTerms(t *testing.T) {
	recs := []*internal.TranslationRecord{
		record("F-0016", renders("یار", "The Friend"), renders("غار", "cave")),
		record("F-0017", renders("یار", "the friend"), renders("غار", "cavern")),
	}
	rep := Check(recs, testGlossary(t), nil, DefaultDriftThreshold)
	if drift := rep.ByKind(KindDrift); len(drift) != 0 {
		t.Errorf("unexpected drift: %v", drift)
	}
}

func TestDriftThreshold(t *testing.T) {
	recs := []*internal.TranslationRecord{
		record("F-0018", renders("یار", "the darling")),
		record("F-0019", renders("یار", "the companion")),
		record("F-0020", renders("یار", "the comrade")),
	}
	gloss := testGlossary(t)

	if drift := Check(recs, gloss, nil, 2).ByKind(KindDrift); len(drift) != 1 {
		t.Errorf("three renderings over threshold 2 should drift: %v", drift)
	}
	if drift := Check(recs, gloss, nil, 3).ByKind(KindDrift); len(drift) != 0 {
		t.Errorf("three renderings within threshold 3 should not drift: %v", drift)
	}
}

func TestToneOutlier(t *testing.T) {
	tone := &glossary.ToneGuide{
		AntiPatterns: []string{"one might observe", "journey of self-discovery"},
	}
	rec := record("F-0021", func(r *internal.TranslationRecord) {
		r.Translation.Refined.FullText = "One might observe the Friend in every cave."
	})
	rep := Check([]*internal.TranslationRecord{rec}, testGlossary(t), tone, DefaultDriftThreshold)

	findings := rep.ByKind(KindTone)
	if len(findings) != 1 {
		t.Fatalf("tone findings = %d, want 1: %v", len(findings), rep.Findings)
	}
	if findings[0].Term != "one might observe" {
		t.Errorf("tone term = %q", findings[0].Term)
	}
	if !hasID(findings[0].GhazalIDs, "F-0021") {
		t.Errorf("tone finding should name the ghazal, got %v", findings[0].GhazalIDs)
	}
}

func TestAllusionLoss(t *testing.T) {
	rec := record("F-0030", func(r *internal.TranslationRecord) {
		r.Analysis.Allusions = []internal.Allusion{
			{Phrase: "الست", Reference: "Quran 7:172", Gloss: "the primordial covenant"},
		}
		r.Translation.Refined.FullText = "The Friend is mine, the cave is mine."
	})
	rep := Check([]*internal.TranslationRecord{rec}, testGlossary(t), nil, DefaultDriftThreshold)

	loss := rep.ByKind(KindAllusionLoss)
	if len(loss) != 1 {
		t.Fatalf("allusion-loss findings = %d, want 1: %v", len(loss), rep.Findings)
	}
	if loss[0].Term != "Quran 7:172" {
		t.Errorf("loss term = %q", loss[0].Term)
	}
}

func TestAllusionPreservedInElements(t *testing.T) {
	rec := record("F-0031", func(r *internal.TranslationRecord) {
		r.Analysis.Allusions = []internal.Allusion{
			{Phrase: "الست", Reference: "Quran 7:172", Gloss: "the primordial covenant"},
		}
		r.Translation.Refined.PreservedElements = []string{"allusion to Quran 7:172 kept via 'Am I not'"}
	})
	rep := Check([]*internal.TranslationRecord{rec}, testGlossary(t), nil, DefaultDriftThreshold)
	if len(rep.ByKind(KindAllusionLoss)) != 0 {
		t.Errorf("preserved allusion reported lost: %v", rep.Findings)
	}
}

func TestAllusionGlossTraceCounts(t *testing.T) {
	rec := record("F-0032", func(r *internal.TranslationRecord) {
		r.Analysis.Allusions = []internal.Allusion{
			{Phrase: "الست", Reference: "Quran 7:172", Gloss: "the primordial covenant"},
		}
		r.Translation.Refined.FullText = "Before the covenant was spoken, the Friend was mine."
	})
	rep := Check([]*internal.TranslationRecord{rec}, testGlossary(t), nil, DefaultDriftThreshold)
	if len(rep.ByKind(KindAllusionLoss)) != 0 {
		t.Errorf("gloss-traced allusion reported lost: %v", rep.Findings)
	}
}

func TestQAMissingAllusionSurfaced(t *testing.T) {
	rec := record("F-0033", func(r *internal.TranslationRecord) {
		r.QA.MissingAllusions = []string{"Quran 2:115"}
	})
	rep := Check([]*internal.TranslationRecord{rec}, testGlossary(t), nil, DefaultDriftThreshold)

	loss := rep.ByKind(KindAllusionLoss)
	if len(loss) != 1 {
		t.Fatalf("findings = %d, want 1", len(loss))
	}
	if !strings.Contains(loss[0].Detail, "qa pass") {
		t.Errorf("detail should credit the qa pass: %s", loss[0].Detail)
	}
}

func TestFindingsDeterministicOrder(t *testing.T) {
	recA := record("F-0002", renders("یار", "the darling"), renders("می", "grape juice"))
	recB := record("F-0001", renders("یار", "the companion"), renders("می", "the crimson cup"))

	first := Check([]*internal.TranslationRecord{recA, recB}, testGlossary(t), nil, DefaultDriftThreshold)
	second := Check([]*internal.TranslationRecord{recB, recA}, testGlossary(t), nil, DefaultDriftThreshold)

	if len(first.Findings) != 2 || len(second.Findings) != 2 {
		t.Fatalf("findings = %d/%d, want 2/2", len(first.Findings), len(second.Findings))
	}
	for i := range first.Findings {
		if first.Findings[i].String() != second.Findings[i].String() {
			t.Errorf("ordering depends on input order: %v vs %v", first.Findings[i], second.Findings[i])
		}
	}
	if first.Findings[0].Term != "می" || first.Findings[1].Term != "یار" {
		t.Errorf("drift findings not sorted by term: %v", first.Findings)
	}
}
