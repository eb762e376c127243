// Package render produces reader-facing documents from published
// translation records: a Markdown collection and an HTML rendering of
// it.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/khorshidlab/divantran/internal"
)

// DocumentInfo is the front matter of a rendered collection.
type DocumentInfo struct {
	Source      string
	Edition     string
	GeneratedAt time.Time
}

// Document renders the full Markdown collection: front matter, one
// section per record, colophon. Flagged records are rendered with a
// visible review notice, not omitted.
func Document(records []*internal.TranslationRecord, info DocumentInfo) string {
	var sb strings.Builder

	sb.WriteString("# Divan-e Kabir: Selected Translations\n\n")
	sb.WriteString("**From the Poetry of Jalal al-Din Rumi (Mawlana)**\n\n---\n\n")

	sb.WriteString("## About This Translation\n\n")
	if info.Source != "" {
		fmt.Fprintf(&sb, "**Source**: %s\n\n", info.Source)
	}
	if info.Edition != "" {
		fmt.Fprintf(&sb, "**Edition**: %s\n\n", info.Edition)
	}
	sb.WriteString("This translation preserves the Islamic and Sufi context of Rumi's poetry " +
		"rather than universalizing it into generic spirituality. Key principles include:\n\n")
	sb.WriteString("- Preserving references to Islamic prayer, Hajj, Quran, and hadith\n")
	sb.WriteString("- Maintaining Sufi terminology (fana, baqa, sama', etc.)\n")
	sb.WriteString("- Keeping the ambiguity of \"the Beloved\" (which may refer to God, Shams, or earthly love)\n")
	sb.WriteString("- Providing scholarly notes on context and allusions\n\n---\n\n")

	for _, rec := range records {
		writeRecord(&sb, rec)
	}

	sb.WriteString("## Colophon\n\n")
	at := info.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	fmt.Fprintf(&sb, "Generated: %s\n\n", at.Format("January 2, 2006"))
	sb.WriteString("This is an open-source translation project. Contributions, corrections, and scholarly input are welcome.\n")
	return sb.String()
}

func writeRecord(sb *strings.Builder, rec *internal.TranslationRecord) {
	g := &rec.Ghazal

	fmt.Fprintf(sb, "## Ghazal %s\n\n", g.ID)
	var meta []string
	if g.Meter != "" {
		meta = append(meta, "Meter: "+g.Meter)
	}
	if g.Rhyme != "" {
		meta = append(meta, "Rhyme: "+g.Rhyme)
	}
	if len(meta) > 0 {
		fmt.Fprintf(sb, "*%s*\n\n", strings.Join(meta, " | "))
	}

	if rec.Flagged {
		fmt.Fprintf(sb, "> **Note**: this translation is awaiting human review (confidence: %s).\n\n", rec.QA.Confidence)
	}

	sb.WriteString("### Persian Text\n\n")
	for _, v := range g.Verses {
		fmt.Fprintf(sb, "> %s\n> %s\n>\n", v.Hemistich1, v.Hemistich2)
	}
	sb.WriteString("\n")

	sb.WriteString("### English Translation\n\n")
	sb.WriteString(rec.Translation.Refined.Text())
	sb.WriteString("\n\n")

	sb.WriteString("### Literal Translation\n\n")
	for _, v := range rec.Translation.Literal.Verses {
		fmt.Fprintf(sb, "%d. %s / %s\n", v.Verse, v.Hemistich1, v.Hemistich2)
	}
	sb.WriteString("\n")

	if strings.TrimSpace(rec.Translation.Notes) != "" {
		sb.WriteString("### Scholarly Notes\n\n")
		sb.WriteString(rec.Translation.Notes)
		sb.WriteString("\n")
	}

	fmt.Fprintf(sb, "\n*Translated %s by %s, pipeline %s.*\n\n---\n\n",
		rec.Provenance.TranslatedAt.Format("2006-01-02"),
		rec.Provenance.Model,
		rec.Provenance.PipelineVersion)
}

// ToHTML converts rendered Markdown into an HTML fragment.
func ToHTML(md []byte) string {
	opts := html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	}
	renderer := html.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

// HTMLDocument wraps the Markdown collection in a standalone HTML page.
func HTMLDocument(records []*internal.TranslationRecord, info DocumentInfo) string {
	body := ToHTML([]byte(Document(records, info)))
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html>
<html lang="en" dir="ltr">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Divan-e Kabir: Selected Translations</title>
<style>
body { font-family: 'Crimson Text', 'Georgia', serif; line-height: 1.8; color: #2d3748; background: #faf9f7; padding: 2rem; }
.container { max-width: 800px; margin: 0 auto; }
blockquote { direction: rtl; text-align: right; font-size: 1.15em; border-right: 3px solid #c69749; border-left: none; padding: 0.5rem 1rem; margin: 1rem 0; }
h2 { border-bottom: 2px solid #c69749; padding-bottom: 0.3rem; }
</style>
</head>
<body>
<div class="container">
`)
	sb.WriteString(body)
	sb.WriteString("\n</div>\n</body>\n</html>\n")
	return sb.String()
}

// StripHTMLTags reduces an HTML fragment to its text content.
func StripHTMLTags(htmlContent string) string {
	var result bytes.Buffer
	inTag := false

	for _, ch := range htmlContent {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				result.WriteRune(ch)
			}
		}
	}

	return result.String()
}
