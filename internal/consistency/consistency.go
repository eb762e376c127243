// Package consistency checks a batch of published translation records
// for cross-record problems no single-ghazal pass can see: terminology
// drift across the batch, tone outliers, and lost allusions. The
// checker is pure and advisory: it reads records and reports findings,
// it never modifies or unpublishes anything.
package consistency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/khorshidlab/divantran/internal"
	"github.com/khorshidlab/divantran/internal/glossary"
)

// DefaultDriftThreshold is the number of distinct non-exception
// renderings a glossary term may accumulate across a batch before it
// counts as drifting.
const DefaultDriftThreshold = 1

// FindingKind classifies a consistency finding.
type FindingKind string

const (
	// KindDrift flags a glossary term rendered in more distinct ways
	// across the batch than the threshold allows.
	KindDrift FindingKind = "terminology-drift"
	// KindTone flags a tone-guide anti-pattern in the refined text.
	KindTone FindingKind = "tone-outlier"
	// KindAllusionLoss flags an identified allusion that left no trace in
	// the refined translation.
	KindAllusionLoss FindingKind = "allusion-loss"
)

// Finding is one consistency problem. Drift findings span every record
// that used the drifting term; tone and allusion findings name a single
// record.
type Finding struct {
	Kind      FindingKind `json:"kind"`
	GhazalIDs []string    `json:"ghazal_ids"`
	RecordIDs []string    `json:"record_ids"`
	Term      string      `json:"term,omitempty"`
	Detail    string      `json:"detail"`
}

func (f Finding) String() string {
	ids := strings.Join(f.GhazalIDs, ", ")
	if f.Term != "" {
		return fmt.Sprintf("[%s] %s (%s): %s", f.Kind, ids, f.Term, f.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", f.Kind, ids, f.Detail)
}

// Report is the outcome of a batch check.
type Report struct {
	Checked  int       `json:"checked"`
	Findings []Finding `json:"findings"`
}

// ByKind returns the findings of one kind, in report order.
func (r *Report) ByKind(kind FindingKind) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Check runs all consistency checks over a batch. driftThreshold is the
// number of distinct renderings a glossary term may have across the
// batch before it drifts; values below 1 fall back to
// DefaultDriftThreshold. Findings are ordered deterministically: drift
// findings first, sorted by term, then per-record findings sorted by
// ghazal id.
func Check(records []*internal.TranslationRecord, gloss *glossary.Glossary, tone *glossary.ToneGuide, driftThreshold int) *Report {
	if driftThreshold < 1 {
		driftThreshold = DefaultDriftThreshold
	}
	rep := &Report{Checked: len(records)}

	sorted := make([]*internal.TranslationRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Ghazal.ID < sorted[j].Ghazal.ID
	})

	rep.Findings = append(rep.Findings, checkDrift(sorted, gloss, driftThreshold)...)
	for _, rec := range sorted {
		if tone != nil {
			rep.Findings = append(rep.Findings, checkTone(rec, tone)...)
		}
		rep.Findings = append(rep.Findings, checkAllusions(rec)...)
	}
	return rep
}

// checkDrift collects, per glossary term, the distinct renderings used
// across the whole batch. A term drifts when its distinct-rendering
// count exceeds the threshold; a batch that renders a term uniformly is
// consistent even when the shared rendering is not the canonical one.
// Renderings licensed by an analysis ambiguity citing the term are
// context exceptions and are not counted. One finding per drifting
// term, naming every record that used it.
func checkDrift(records []*internal.TranslationRecord, gloss *glossary.Glossary, threshold int) []Finding {
	type usage struct {
		renderings []string // distinct, in first-seen order
		seen       map[string]bool
		ghazalIDs  []string
		recordIDs  []string
	}
	byTerm := make(map[string]*usage)

	for _, rec := range records {
		terms := make([]string, 0, len(rec.Translation.Literal.Renderings))
		for term := range rec.Translation.Literal.Renderings {
			terms = append(terms, term)
		}
		sort.Strings(terms)

		for _, term := range terms {
			if _, ok := gloss.Canonical(term); !ok {
				continue
			}
			rendering := strings.TrimSpace(rec.Translation.Literal.Renderings[term])
			if rendering == "" || rec.Analysis.ExceptsTerm(term) {
				continue
			}
			u := byTerm[term]
			if u == nil {
				u = &usage{seen: make(map[string]bool)}
				byTerm[term] = u
			}
			key := strings.ToLower(rendering)
			if !u.seen[key] {
				u.seen[key] = true
				u.renderings = append(u.renderings, rendering)
			}
			u.ghazalIDs = append(u.ghazalIDs, rec.Ghazal.ID)
			u.recordIDs = append(u.recordIDs, rec.Provenance.RecordID)
		}
	}

	terms := make([]string, 0, len(byTerm))
	for term := range byTerm {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var out []Finding
	for _, term := range terms {
		u := byTerm[term]
		if len(u.renderings) <= threshold {
			continue
		}
		entry, _ := gloss.Canonical(term)
		quoted := make([]string, len(u.renderings))
		for i, r := range u.renderings {
			quoted[i] = fmt.Sprintf("%q", r)
		}
		out = append(out, Finding{
			Kind:      KindDrift,
			GhazalIDs: u.ghazalIDs,
			RecordIDs: u.recordIDs,
			Term:      term,
			Detail: fmt.Sprintf("%d distinct renderings across %d records: %s; glossary says %q (%s)",
				len(u.renderings), len(u.recordIDs), strings.Join(quoted, ", "), entry.Rendering, entry.Transliteration),
		})
	}
	return out
}

// checkTone scans the refined text for tone-guide anti-patterns,
// case-insensitively.
func checkTone(rec *internal.TranslationRecord, tone *glossary.ToneGuide) []Finding {
	var out []Finding
	text := strings.ToLower(rec.Translation.Refined.Text())
	for _, pat := range tone.AntiPatterns {
		if pat = strings.TrimSpace(pat); pat == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(pat)) {
			out = append(out, Finding{
				Kind:      KindTone,
				GhazalIDs: []string{rec.Ghazal.ID},
				RecordIDs: []string{rec.Provenance.RecordID},
				Term:      pat,
				Detail:    fmt.Sprintf("refined text contains the anti-pattern %q", pat),
			})
		}
	}
	return out
}

// checkAllusions verifies that every allusion the analysis identified
// left a trace in the published translation: either the refined text or
// its preserved-elements list mentions the reference, or the QA pass
// already reported it missing (which is surfaced as a finding here too).
func checkAllusions(rec *internal.TranslationRecord) []Finding {
	var out []Finding

	haystack := strings.ToLower(rec.Translation.Refined.Text())
	for _, el := range rec.Translation.Refined.PreservedElements {
		haystack += "\n" + strings.ToLower(el)
	}

	reported := make(map[string]bool)
	for _, missing := range rec.QA.MissingAllusions {
		reported[strings.ToLower(missing)] = true
		out = append(out, Finding{
			Kind:      KindAllusionLoss,
			GhazalIDs: []string{rec.Ghazal.ID},
			RecordIDs: []string{rec.Provenance.RecordID},
			Term:      missing,
			Detail:    "flagged as missing by the qa pass",
		})
	}

	for _, al := range rec.Analysis.Allusions {
		ref := strings.ToLower(strings.TrimSpace(al.Reference))
		if ref == "" || reported[ref] {
			continue
		}
		if strings.Contains(haystack, ref) || strings.Contains(haystack, strings.ToLower(al.Phrase)) {
			continue
		}
		if glossTraced(haystack, al.Gloss) {
			continue
		}
		out = append(out, Finding{
			Kind:      KindAllusionLoss,
			GhazalIDs: []string{rec.Ghazal.ID},
			RecordIDs: []string{rec.Provenance.RecordID},
			Term:      al.Reference,
			Detail:    fmt.Sprintf("allusion to %s (%q) leaves no trace in the refined translation", al.Reference, al.Phrase),
		})
	}
	return out
}

// glossTraced reports whether any substantial word of the allusion's
// gloss survives in the translation text. Short stop-words do not count
// as a trace.
func glossTraced(haystack, gloss string) bool {
	for _, w := range strings.Fields(strings.ToLower(gloss)) {
		w = strings.Trim(w, ".,;:\"'()")
		if len(w) < 5 {
			continue
		}
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}
