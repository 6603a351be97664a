package page

import (
	"context"
	"strings"
	"time"
)

// FindText resolves loc and returns its trimmed text, or nil when the node is
// missing, not ready within timeout, empty, or the lookup failed for any
// other reason.
func FindText(ctx context.Context, doc Document, loc Locator, timeout time.Duration) *string {
	text, err := doc.Text(ctx, loc, timeout)
	if err != nil {
		return nil
	}
	return Optional(text)
}

// FindByLabel reads the value rendered next to label. Same contract as FindText.
func FindByLabel(ctx context.Context, doc Document, label string, timeout time.Duration) *string {
	text, err := doc.LabelValue(ctx, label, timeout)
	if err != nil {
		return nil
	}
	return Optional(text)
}

// Attr returns the attribute value of n, or nil when it is missing or empty.
func Attr(n Node, name string) *string {
	value, ok, err := n.Attr(name)
	if err != nil || !ok {
		return nil
	}
	return Optional(value)
}

// Optional trims s and returns nil when nothing is left.
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// XPathLiteral quotes s for use inside an XPath 1.0 expression.
func XPathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		quoted = append(quoted, `"`+p+`"`)
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// LabelValueXPath selects the first span that follows, as a sibling, a span
// whose text contains label.
func LabelValueXPath(label string) string {
	return "//span[contains(text(), " + XPathLiteral(label) + ")]/following-sibling::span[1]"
}
