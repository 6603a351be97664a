// Package parser provides a page.Document over static HTML markup, used by
// the plain HTTP adapter and by the rendered-snapshot adapter.
package parser

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/brain-scraper/internal/page"
)

type Document struct {
	doc *goquery.Document
}

var _ page.Document = (*Document)(nil)

func NewDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: doc}, nil
}

func NewDocumentFromString(html string) (*Document, error) {
	return NewDocument(strings.NewReader(html))
}

// Text ignores timeout and readiness: markup is complete once parsed.
func (d *Document) Text(ctx context.Context, loc page.Locator, timeout time.Duration) (string, error) {
	sel, err := d.resolve(ctx, loc)
	if err != nil {
		return "", err
	}
	return sel.Text(), nil
}

func (d *Document) LabelValue(ctx context.Context, label string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var value *goquery.Selection
	d.doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(ownText(s), label) {
			return true
		}
		next := s.NextAllFiltered("span").First()
		if next.Length() == 0 {
			return true
		}
		value = next
		return false
	})

	if value == nil {
		return "", fmt.Errorf("label %q: %w", label, page.ErrNotFound)
	}
	return value.Text(), nil
}

func (d *Document) Nodes(ctx context.Context, loc page.Locator) ([]page.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return wrap(d.doc.Find(loc.Selector)), nil
}

// Activate has nothing to expand in static markup: collapsed content is
// already part of the document. It still reports a missing control so that
// callers degrade the same way as with a live page.
func (d *Document) Activate(ctx context.Context, loc page.Locator, timeout time.Duration, pause page.PauseFunc) error {
	_, err := d.resolve(ctx, loc)
	return err
}

// HTML returns the serialized document, mostly useful for debugging.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

func (d *Document) resolve(ctx context.Context, loc page.Locator) (*goquery.Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel := d.doc.Find(loc.Selector)
	if loc.Nth < 0 || sel.Length() <= loc.Nth {
		return nil, fmt.Errorf("%s: %w", loc.Selector, page.ErrNotFound)
	}
	return sel.Eq(loc.Nth), nil
}

type node struct {
	sel *goquery.Selection
}

func (n node) Text() (string, error) {
	return n.sel.Text(), nil
}

func (n node) Attr(name string) (string, bool, error) {
	v, ok := n.sel.Attr(name)
	return v, ok, nil
}

func (n node) First(tag string) (page.Node, bool, error) {
	found := n.sel.Find(tag).First()
	if found.Length() == 0 {
		return nil, false, nil
	}
	return node{sel: found}, true, nil
}

func (n node) Children(tag string) ([]page.Node, error) {
	return wrap(n.sel.ChildrenFiltered(tag)), nil
}

func wrap(sel *goquery.Selection) []page.Node {
	nodes := make([]page.Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, node{sel: s})
	})
	return nodes
}

// ownText concatenates the text nodes that are direct children of s.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
		}
	})
	return b.String()
}
