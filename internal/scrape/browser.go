// Package scrape implements the resilient extraction engine: retry policy,
// pagination-exhaustion loops, selector fallback chains, the three extraction
// stages, and the batch orchestrator that drives them over a single browser
// session.
package scrape

import (
	"context"
	"errors"
)

// ErrNoSuchElement is returned by Find/FindAll implementations when a locator
// matches nothing. The retry and fallback layers branch on it with errors.Is.
var ErrNoSuchElement = errors.New("no such element")

// By identifies a locator strategy understood by the browser capability.
type By string

// Supported locator strategies.
const (
	ByCSS   By = "css"
	ByXPath By = "xpath"
)

// Locator is an opaque element descriptor. Extraction code holds ordered
// lists of these (fallback chains) because the target page's class names
// vary across layout revisions.
type Locator struct {
	By    By
	Value string
}

// CSS builds a CSS selector locator.
func CSS(value string) Locator { return Locator{By: ByCSS, Value: value} }

// XPath builds an XPath locator.
func XPath(value string) Locator { return Locator{By: ByXPath, Value: value} }

// Finder locates elements beneath some root: the whole page for a Session,
// a subtree for an Element.
type Finder interface {
	Find(ctx context.Context, loc Locator) (Element, error)
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
}

// Element is one rendered DOM node. Implementations wrap a live browser
// node; tests substitute fakes.
type Element interface {
	Finder

	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	Visible(ctx context.Context) (bool, error)
	ScrollIntoView(ctx context.Context) error
	// Click dispatches a native input click.
	Click(ctx context.Context) error
	// ClickScript clicks through injected script, the fallback path when the
	// native click is intercepted by an overlay.
	ClickScript(ctx context.Context) error
}

// Session is one exclusive browser session. The orchestrator owns exactly
// one for the run's duration and releases it in a guaranteed-cleanup block.
type Session interface {
	Finder

	Navigate(ctx context.Context, url string) error
	Close() error
}

// SessionFactory opens browser sessions. Failure to open one is fatal to
// the run.
type SessionFactory interface {
	OpenSession(ctx context.Context) (Session, error)
}
