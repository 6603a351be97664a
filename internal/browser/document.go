package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maltedev/brain-scraper/internal/page"
	"github.com/playwright-community/playwright-go"
)

// Document is a live Playwright page.
type Document struct {
	page playwright.Page
}

var _ page.Document = (*Document)(nil)

func NewDocument(p playwright.Page) *Document {
	return &Document{page: p}
}

func (d *Document) Text(ctx context.Context, loc page.Locator, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l := d.page.Locator(loc.Selector).Nth(loc.Nth)
	if err := waitFor(l, loc.State, timeout); err != nil {
		return "", fmt.Errorf("%s: %w", loc.Selector, err)
	}
	return l.InnerText()
}

func (d *Document) LabelValue(ctx context.Context, label string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l := d.page.Locator("xpath=" + page.LabelValueXPath(label)).First()
	if err := waitFor(l, page.Visible, timeout); err != nil {
		return "", fmt.Errorf("label %q: %w", label, err)
	}
	return l.InnerText()
}

func (d *Document) Nodes(ctx context.Context, loc page.Locator) ([]page.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return wrap(d.page.Locator(loc.Selector))
}

func (d *Document) Activate(ctx context.Context, loc page.Locator, timeout time.Duration, pause page.PauseFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := d.page.Locator(loc.Selector).Nth(loc.Nth)
	if err := waitFor(l, page.Attached, timeout); err != nil {
		return fmt.Errorf("%s: %w", loc.Selector, err)
	}

	ms := playwright.Float(float64(timeout.Milliseconds()))
	if err := l.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{Timeout: ms}); err != nil {
		return fmt.Errorf("%w: %s: %v", page.ErrNotInteractive, loc.Selector, err)
	}
	if err := pause(ctx); err != nil {
		return err
	}
	if err := l.Click(playwright.LocatorClickOptions{Timeout: ms}); err != nil {
		return fmt.Errorf("%w: %s: %v", page.ErrNotInteractive, loc.Selector, err)
	}
	return nil
}

// waitFor maps a readiness timeout to page.ErrNotFound.
func waitFor(l playwright.Locator, state page.State, timeout time.Duration) error {
	s := playwright.WaitForSelectorStateAttached
	if state == page.Visible {
		s = playwright.WaitForSelectorStateVisible
	}
	err := l.WaitFor(playwright.LocatorWaitForOptions{
		State:   s,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w after %s", page.ErrNotFound, timeout)
	}
	return err
}

type node struct {
	loc playwright.Locator
}

func (n node) Text() (string, error) {
	return n.loc.InnerText()
}

func (n node) Attr(name string) (string, bool, error) {
	v, err := n.loc.GetAttribute(name)
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func (n node) First(tag string) (page.Node, bool, error) {
	l := n.loc.Locator(tag).First()
	count, err := l.Count()
	if err != nil {
		return nil, false, err
	}
	if count == 0 {
		return nil, false, nil
	}
	return node{loc: l}, true, nil
}

func (n node) Children(tag string) ([]page.Node, error) {
	return wrap(n.loc.Locator(":scope > " + tag))
}

func wrap(l playwright.Locator) ([]page.Node, error) {
	all, err := l.All()
	if err != nil {
		return nil, err
	}
	nodes := make([]page.Node, 0, len(all))
	for _, item := range all {
		nodes = append(nodes, node{loc: item})
	}
	return nodes, nil
}
