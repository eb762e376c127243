// Package glossary holds the fixed terminology glossary and tone guide
// used by every pass. Both are loaded once per run, immutable afterwards,
// and safe for unsynchronized concurrent reads.
package glossary

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Entry maps one Persian source term to its canonical English rendering.
type Entry struct {
	Term            string `yaml:"term"`
	Transliteration string `yaml:"transliteration"`
	Rendering       string `yaml:"rendering"`
	Gloss           string `yaml:"gloss"`
}

// Glossary is a read-only source term → canonical rendering mapping.
type Glossary struct {
	entries map[string]Entry
	terms   []string
}

type glossaryFile struct {
	Entries []Entry `yaml:"entries"`
}

// New builds a glossary from entries. Terms are NFC-normalized for
// lookup; duplicate terms keep the last entry.
func New(entries []Entry) (*Glossary, error) {
	g := &Glossary{entries: make(map[string]Entry, len(entries))}
	for i, e := range entries {
		if strings.TrimSpace(e.Term) == "" {
			return nil, fmt.Errorf("glossary entry %d has an empty term", i+1)
		}
		if strings.TrimSpace(e.Rendering) == "" {
			return nil, fmt.Errorf("glossary term %q has no rendering", e.Term)
		}
		key := normalizeTerm(e.Term)
		if _, seen := g.entries[key]; !seen {
			g.terms = append(g.terms, key)
		}
		g.entries[key] = e
	}
	if len(g.entries) == 0 {
		return nil, fmt.Errorf("glossary is empty")
	}
	sort.Strings(g.terms)
	return g, nil
}

// Load reads a YAML glossary file. A malformed or empty file is a fatal
// configuration error: the run must not start with a bad glossary.
func Load(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read glossary file: %w", err)
	}
	var f glossaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse glossary file: %w", err)
	}
	g, err := New(f.Entries)
	if err != nil {
		return nil, fmt.Errorf("invalid glossary file %s: %w", path, err)
	}
	return g, nil
}

// Canonical returns the entry for a source term, if glossed.
func (g *Glossary) Canonical(term string) (Entry, bool) {
	e, ok := g.entries[normalizeTerm(term)]
	return e, ok
}

// Terms returns all glossed source terms in sorted order.
func (g *Glossary) Terms() []string {
	out := make([]string, len(g.terms))
	copy(out, g.terms)
	return out
}

// Len returns the number of glossed terms.
func (g *Glossary) Len() int { return len(g.entries) }

// PromptLines renders the glossary as prompt-ready "term (translit) →
// rendering" lines, one per entry, in sorted term order.
func (g *Glossary) PromptLines() string {
	var sb strings.Builder
	for _, t := range g.terms {
		e := g.entries[t]
		fmt.Fprintf(&sb, "- %s (%s) → %q — %s\n", e.Term, e.Transliteration, e.Rendering, e.Gloss)
	}
	return sb.String()
}

// normalizeTerm applies NFC normalization and trimming so that visually
// identical Persian terms compare equal.
func normalizeTerm(term string) string {
	return norm.NFC.String(strings.TrimSpace(term))
}

// ToneGuide describes the target voice for the Stylist pass and the
// phrase patterns the consistency checker treats as tone outliers.
type ToneGuide struct {
	Principles   []string `yaml:"principles"`
	AntiPatterns []string `yaml:"anti_patterns"`
}

// LoadToneGuide reads a YAML tone guide file.
func LoadToneGuide(path string) (*ToneGuide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tone guide: %w", err)
	}
	var tg ToneGuide
	if err := yaml.Unmarshal(data, &tg); err != nil {
		return nil, fmt.Errorf("failed to parse tone guide: %w", err)
	}
	if len(tg.AntiPatterns) == 0 {
		return nil, fmt.Errorf("tone guide %s lists no anti-patterns", path)
	}
	return &tg, nil
}

// PromptLines renders the tone principles as a bulleted prompt section.
func (t *ToneGuide) PromptLines() string {
	var sb strings.Builder
	for _, p := range t.Principles {
		fmt.Fprintf(&sb, "- %s\n", p)
	}
	return sb.String()
}
