// Package page defines the query surface that every fetch adapter exposes to
// the extraction rules, and the tolerant lookups built on top of it.
package page

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("element not found")
	ErrNotInteractive = errors.New("element is not interactive")
)

// State is the readiness a located node must reach before it is read.
type State int

const (
	Attached State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "attached"
}

// Locator addresses one node of a page by CSS selector. Nth selects the
// zero-based match when the selector matches more than one node.
type Locator struct {
	Selector string
	Nth      int
	State    State
}

func CSS(selector string) Locator {
	return Locator{Selector: selector}
}

func (l Locator) At(n int) Locator {
	l.Nth = n
	return l
}

func (l Locator) WhenVisible() Locator {
	l.State = Visible
	return l
}

// PauseFunc is called between scrolling a control into view and activating it.
type PauseFunc func(ctx context.Context) error

// Document is a rendered or parsed product page.
//
// Implementations backed by a live engine wait up to timeout for the node to
// reach the locator's State. Implementations backed by static markup treat
// every present node as ready.
type Document interface {
	// Text returns the inner text of the node addressed by loc.
	Text(ctx context.Context, loc Locator, timeout time.Duration) (string, error)
	// LabelValue returns the inner text of the first span that follows, as a
	// sibling, a span whose own text contains label.
	LabelValue(ctx context.Context, label string, timeout time.Duration) (string, error)
	// Nodes returns every node matching loc.Selector in document order.
	Nodes(ctx context.Context, loc Locator) ([]Node, error)
	// Activate scrolls the control into view, calls pause, then clicks it.
	Activate(ctx context.Context, loc Locator, timeout time.Duration, pause PauseFunc) error
}

// Node is one element obtained from Document.Nodes.
type Node interface {
	Text() (string, error)
	Attr(name string) (string, bool, error)
	// First returns the first descendant element with the given tag.
	First(tag string) (Node, bool, error)
	// Children returns the direct child elements with the given tag.
	Children(tag string) ([]Node, error)
}

// Session owns the page handle of one extraction run.
type Session interface {
	Document() Document
	// Link is the canonical product URL the session landed on; it may be
	// empty when navigation did not resolve one.
	Link() string
	Close() error
}

// Fetcher opens a product page by URL.
type Fetcher interface {
	Open(ctx context.Context, url string) (Session, error)
}

// Searcher opens the first product found by the site search.
type Searcher interface {
	Search(ctx context.Context, query string) (Session, error)
}
