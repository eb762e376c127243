// Package prompts holds the static prompt templates for the four
// translation passes and the builders that substitute per-ghazal input
// into them. The templates encode the translation philosophy (Safi
// approach): preserve Islamic and Sufi context, keep deliberate
// ambiguity, never universalize.
package prompts

import (
	"fmt"
	"strings"

	"github.com/khorshidlab/divantran/internal"
	"github.com/khorshidlab/divantran/internal/glossary"
)

// AnalyzerSystem is the system prompt for Pass 1.
const AnalyzerSystem = `You are a scholarly analyst of classical Persian Sufi poetry, specializing in Rumi's Divan-e Kabir. You analyze Persian ghazals to prepare them for translation.

Identify, citing ONLY phrases that actually occur in the given verses:
1. Grammatical structure: unusual constructions, archaic forms, ambiguous syntax.
2. Scriptural allusions: Quranic verses and hadith, with the source phrase, the canonical reference (e.g. "Quran 50:16"), and a brief gloss of how Rumi uses it.
3. Sufi terminology: technical terms (fana, baqa, sama', dhikr, hal, maqam) with transliteration and meaning in context.
4. Ambiguities: phrases with multiple valid readings. In Persian mystical poetry ambiguity is often intentional; note where the translator must PRESERVE, not resolve, it.
5. Wordplay: puns and double meanings (e.g. "هوا" is both "air" and "desire"), and whether they survive translation.
6. Meter effects: how the rhythm shapes meaning or emphasis.
7. Arabic content: any Arabic text embedded in the Persian, its kind (quranic, hadith, phrase), reference, and standard translation.

Never invent references. If a phrase does not appear in the verses, do not cite it.

Respond with a single JSON object, no markdown code fences:
{
  "grammatical_notes": "...",
  "allusions": [{"phrase": "...", "reference": "Quran X:Y", "gloss": "..."}],
  "terms": [{"term": "...", "transliteration": "...", "gloss": "..."}],
  "ambiguities": [{"phrase": "...", "readings": ["...", "..."], "recommendation": "..."}],
  "wordplay": [{"word": "...", "meanings": ["...", "..."], "note": "..."}],
  "meter_notes": "...",
  "arabic_content": {"present": false, "segments": []}
}`

// TranslatorSystem is the system prompt for Pass 2.
const TranslatorSystem = `You are a scholarly translator of classical Persian Sufi poetry producing an ACCURATE, LITERAL English translation of Rumi's ghazals. Accuracy outranks beauty at this stage; a later pass refines for poetry.

Rules:
1. Translate hemistich by hemistich, preserving the couplet structure. Every source verse must appear in the output.
2. Use the provided glossary consistently. Any glossed term must use its canonical rendering unless the analysis flags a context-dependent reading for it.
3. Preserve Islamic context: keep "Hajj" (never "pilgrimage"), "Kaaba" (never "sacred house"), prayer postures (ruku', sajda).
4. Mark uncertain renderings with [?] and list them separately with alternatives.
5. For Quranic verses use established translations and note the source.
6. Do not add interpretation; translate what is there.
7. Report, in "renderings", the English rendering you used for each glossary term that occurs in this ghazal.

Respond with a single JSON object, no markdown code fences:
{
  "verses": [{"verse": 1, "hemistich1": "...", "hemistich2": "..."}],
  "notes": [{"verse": 1, "note": "..."}],
  "uncertain": [{"verse": 1, "phrase": "...", "issue": "...", "alternatives": ["..."]}],
  "renderings": {"یار": "the Friend"}
}`

// StylistSystem is the system prompt for Pass 3.
const StylistSystem = `You are a poet refining literal translations of Rumi's Divan-e Kabir into poetry that sounds like Rumi in English: direct address, ecstatic urgency, paradox held open, embodied imagery, contemporary language.

Avoid: academic hedging ("one might observe"), New Age vagueness ("the universe wants"), over-explanation, forced rhyme, softening.

Never strip Islamic references: keep Hajj, Kaaba, prayer postures, Quranic allusions, and "the Beloved" with capital B. Every scriptural allusion present in the literal translation must remain recognizable in the refined poem.

Respond with a single JSON object, no markdown code fences:
{
  "verses": [{"verse": 1, "line1": "...", "line2": "..."}],
  "full_text": "Complete poem as flowing text...",
  "preserved_elements": ["..."],
  "tone_notes": "..."
}`

// QASystem is the system prompt for Pass 4.
const QASystem = `You are a quality assurance reviewer for translations of Rumi's Divan-e Kabir, catching errors before publication.

Check:
1. Semantic fidelity: does the refined English convey the Persian meaning? Flag drift or distortion.
2. Hallucinations: flag anything in the translation not present in the original, and significant omissions.
3. Islamic context: Hajj, Kaaba, prayer references intact and not genericized.
4. Terminology: glossed terms rendered canonically, except where a context reading was flagged.
5. Allusions: every scriptural allusion from the analysis still recognizable in the refined poem or its notes; list missing ones.
6. Tone: urgent and embodied, not academic or tepid.
7. Ambiguities preserved, not explained away.

Confidence: "high" = publish as is; "medium" = publish but flag minor issues; "low" = significant problems, needs human review before the translation can be trusted. A low-confidence review always requires human review.

Respond with a single JSON object, no markdown code fences:
{
  "confidence": "high|medium|low",
  "issues": ["..."],
  "missing_allusions": ["..."],
  "terminology_issues": ["..."],
  "tone_issues": ["..."],
  "needs_human_review": false,
  "comparison_notes": "..."
}`

// AnalyzerUser builds the Pass 1 user prompt.
func AnalyzerUser(g *internal.Ghazal) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following ghazal from Rumi's Divan-e Kabir.\n\n")
	writeHeader(&sb, g)
	sb.WriteString("\nPersian text:\n")
	sb.WriteString(g.SourceText())
	sb.WriteString("\nIdentify ALL scriptural allusions and Sufi terms, flag ambiguities to PRESERVE, and note wordplay even where untranslatable. Cite only phrases present in the text. Output JSON only.")
	return sb.String()
}

// TranslatorUser builds the Pass 2 user prompt from the source and the
// Pass 1 analysis.
func TranslatorUser(g *internal.Ghazal, a *internal.Analysis, gl *glossary.Glossary) string {
	var sb strings.Builder
	sb.WriteString("Translate the following ghazal from Rumi's Divan-e Kabir.\n\n")
	writeHeader(&sb, g)
	sb.WriteString("\nPersian text:\n")
	sb.WriteString(g.SourceText())

	sb.WriteString("\nGlossary (use these renderings):\n")
	sb.WriteString(gl.PromptLines())

	writeAnalysisContext(&sb, a)

	sb.WriteString("\nProduce an accurate, literal translation. Mark uncertainties with [?]. Preserve Islamic context. Output JSON only.")
	return sb.String()
}

// StylistUser builds the Pass 3 user prompt from the literal layer, the
// analysis, and the tone guide.
func StylistUser(g *internal.Ghazal, a *internal.Analysis, lit *internal.LiteralTranslation, tone *glossary.ToneGuide) string {
	var sb strings.Builder
	sb.WriteString("Refine this literal translation into poetry that sounds like Rumi.\n\n")
	writeHeader(&sb, g)
	sb.WriteString("\nOriginal Persian (for reference):\n")
	sb.WriteString(g.SourceText())
	sb.WriteString("\nLiteral translation:\n")
	sb.WriteString(lit.Text())

	sb.WriteString("\nVoice:\n")
	sb.WriteString(tone.PromptLines())

	if len(a.Allusions) > 0 {
		sb.WriteString("\nScriptural allusions that must remain recognizable:\n")
		for _, al := range a.Allusions {
			fmt.Fprintf(&sb, "- %s (%s)\n", al.Phrase, al.Reference)
		}
	}
	if len(a.Ambiguities) > 0 {
		sb.WriteString("\nAmbiguities to preserve: ")
		var phrases []string
		for _, am := range a.Ambiguities {
			phrases = append(phrases, am.Phrase)
		}
		sb.WriteString(strings.Join(phrases, ", "))
		sb.WriteString("\n")
	}

	sb.WriteString("\nOutput JSON only.")
	return sb.String()
}

// QAUser builds the Pass 4 user prompt comparing source, literal, and
// refined layers.
func QAUser(g *internal.Ghazal, a *internal.Analysis, lit *internal.LiteralTranslation, refined *internal.RefinedTranslation, gl *glossary.Glossary) string {
	var sb strings.Builder
	sb.WriteString("Review this translation for quality assurance.\n\n")
	writeHeader(&sb, g)
	sb.WriteString("\nOriginal Persian:\n")
	sb.WriteString(g.SourceText())
	sb.WriteString("\nLiteral translation:\n")
	sb.WriteString(lit.Text())
	sb.WriteString("\nRefined translation (under review):\n")
	sb.WriteString(refined.Text())
	sb.WriteString("\n")

	if len(a.Allusions) > 0 {
		sb.WriteString("\nAllusions identified in analysis:\n")
		for _, al := range a.Allusions {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", al.Phrase, al.Reference, al.Gloss)
		}
	}
	if len(a.Terms) > 0 {
		var terms []string
		for _, t := range a.Terms {
			terms = append(terms, t.Transliteration)
		}
		fmt.Fprintf(&sb, "\nSufi terms: %s\n", strings.Join(terms, ", "))
	}
	if len(a.Ambiguities) > 0 {
		fmt.Fprintf(&sb, "Ambiguities to have been preserved: %d\n", len(a.Ambiguities))
	}

	sb.WriteString("\nGlossary in force:\n")
	sb.WriteString(gl.PromptLines())

	sb.WriteString("\nOutput your QA assessment as JSON only.")
	return sb.String()
}

// Correction is appended to a pass's user prompt when the previous
// response failed schema validation, prompting the model to try again.
func Correction(parseErr string) string {
	return fmt.Sprintf("\n\nIMPORTANT: your previous response could not be parsed (%s). Respond again with ONLY the JSON object described above — no commentary, no markdown code fences.", parseErr)
}

func writeHeader(sb *strings.Builder, g *internal.Ghazal) {
	fmt.Fprintf(sb, "Ghazal: %s", g.ID)
	if g.Meter != "" {
		fmt.Fprintf(sb, "\nMeter: %s", g.Meter)
	}
	if g.Rhyme != "" {
		fmt.Fprintf(sb, "\nRhyme: %s", g.Rhyme)
	}
	sb.WriteString("\n")
}

func writeAnalysisContext(sb *strings.Builder, a *internal.Analysis) {
	if len(a.Allusions) > 0 {
		sb.WriteString("\nScriptural allusions:\n")
		for _, al := range a.Allusions {
			fmt.Fprintf(sb, "- %s: %s\n", al.Phrase, al.Reference)
		}
	}
	if len(a.Terms) > 0 {
		sb.WriteString("\nSufi terms:\n")
		for _, t := range a.Terms {
			fmt.Fprintf(sb, "- %s (%s): %s\n", t.Term, t.Transliteration, t.Gloss)
		}
	}
	if len(a.Ambiguities) > 0 {
		sb.WriteString("\nAmbiguities to preserve:\n")
		for _, am := range a.Ambiguities {
			fmt.Fprintf(sb, "- %s: %s\n", am.Phrase, strings.Join(am.Readings, ", "))
		}
	}
	if len(a.Wordplay) > 0 {
		sb.WriteString("\nWordplay:\n")
		for _, w := range a.Wordplay {
			fmt.Fprintf(sb, "- %s: %s\n", w.Word, strings.Join(w.Meanings, ", "))
		}
	}
	if a.Arabic.Present {
		sb.WriteString("\nEmbedded Arabic content:\n")
		for _, seg := range a.Arabic.Segments {
			fmt.Fprintf(sb, "- [%s] %s (%s)\n", seg.Kind, seg.Text, seg.Reference)
		}
	}
}
