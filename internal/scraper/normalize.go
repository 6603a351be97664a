package scraper

import (
	"strings"
	"unicode"
)

// stripWhitespace removes every whitespace rune. Prices are rendered with
// spaces as thousands separators ("15 000 ₴").
func stripWhitespace(s *string) *string {
	if s == nil {
		return nil
	}
	out := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, *s)
	return &out
}

// cleanSpecValue turns NBSPs into spaces, trims every comma separated part,
// drops empty parts and joins the rest with ", ".
func cleanSpecValue(raw string) string {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "\u00a0", " ")

	parts := strings.Split(raw, ",")
	kept := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ", ")
}
