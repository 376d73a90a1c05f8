package ingest

import (
	"regexp"
	"strings"
)

const maxDescriptionLen = 200

var (
	headingLineRe = regexp.MustCompile(`(?m)^#+\s+.+$`)
	imageRe       = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\(.*?\)`)
	markupRe      = regexp.MustCompile("[*_~`#>|-]")
)

// ExtractDescription derives a short plain-text summary from markdown: strip
// headings, images and markup, keep link text, then take the first paragraph
// truncated to 200 characters. Deterministic and idempotent on plain text.
func ExtractDescription(markdown string) string {
	text := headingLineRe.ReplaceAllString(markdown, "")
	text = imageRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = markupRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	first := text
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		first = text[:idx]
	}
	runes := []rune(first)
	if len(runes) > maxDescriptionLen {
		first = string(runes[:maxDescriptionLen])
	}
	return strings.TrimSpace(first)
}
