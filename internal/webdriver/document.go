package webdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/maltedev/brain-scraper/internal/page"
	"github.com/tebeka/selenium"
)

// Document is a live WebDriver page.
type Document struct {
	wd selenium.WebDriver
}

var _ page.Document = (*Document)(nil)

func NewDocument(wd selenium.WebDriver) *Document {
	return &Document{wd: wd}
}

func (d *Document) Text(ctx context.Context, loc page.Locator, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	el, err := d.await(selenium.ByCSSSelector, loc.Selector, loc.Nth, loc.State, timeout)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (d *Document) LabelValue(ctx context.Context, label string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	el, err := d.await(selenium.ByXPATH, page.LabelValueXPath(label), 0, page.Visible, timeout)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (d *Document) Nodes(ctx context.Context, loc page.Locator) ([]page.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els, err := d.wd.FindElements(selenium.ByCSSSelector, loc.Selector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", loc.Selector, err)
	}
	return wrap(els), nil
}

func (d *Document) Activate(ctx context.Context, loc page.Locator, timeout time.Duration, pause page.PauseFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el, err := d.await(selenium.ByCSSSelector, loc.Selector, loc.Nth, page.Attached, timeout)
	if err != nil {
		return err
	}

	// LocationInView scrolls the element into view as a side effect.
	if _, err := el.LocationInView(); err != nil {
		return fmt.Errorf("%w: %s: %v", page.ErrNotInteractive, loc.Selector, err)
	}
	if err := pause(ctx); err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("%w: %s: %v", page.ErrNotInteractive, loc.Selector, err)
	}
	return nil
}

// await polls until the nth match of value exists, and is displayed when
// state is page.Visible.
func (d *Document) await(by, value string, nth int, state page.State, timeout time.Duration) (selenium.WebElement, error) {
	var found selenium.WebElement
	cond := func(wd selenium.WebDriver) (bool, error) {
		els, err := wd.FindElements(by, value)
		if err != nil || len(els) <= nth {
			return false, nil
		}
		el := els[nth]
		if state == page.Visible {
			shown, err := el.IsDisplayed()
			if err != nil || !shown {
				return false, nil
			}
		}
		found = el
		return true, nil
	}

	if err := d.wd.WaitWithTimeout(cond, timeout); err != nil {
		return nil, fmt.Errorf("%s: %w after %s", value, page.ErrNotFound, timeout)
	}
	return found, nil
}

type node struct {
	el selenium.WebElement
}

func (n node) Text() (string, error) {
	return n.el.Text()
}

// Attr reports a missing attribute as absent; the driver answers a null
// attribute with an error.
func (n node) Attr(name string) (string, bool, error) {
	v, err := n.el.GetAttribute(name)
	if err != nil {
		return "", false, nil
	}
	return v, true, nil
}

func (n node) First(tag string) (page.Node, bool, error) {
	els, err := n.el.FindElements(selenium.ByXPATH, ".//"+tag)
	if err != nil {
		return nil, false, err
	}
	if len(els) == 0 {
		return nil, false, nil
	}
	return node{el: els[0]}, true, nil
}

func (n node) Children(tag string) ([]page.Node, error) {
	els, err := n.el.FindElements(selenium.ByXPATH, "./"+tag)
	if err != nil {
		return nil, err
	}
	return wrap(els), nil
}

func wrap(els []selenium.WebElement) []page.Node {
	nodes := make([]page.Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, node{el: el})
	}
	return nodes
}
