package scrape

import (
	"context"
	"time"
)

// pauseRecorder replaces real sleeps in tests and records the requested
// durations.
type pauseRecorder struct {
	waits []time.Duration
}

func (p *pauseRecorder) pause(ctx context.Context, d time.Duration) {
	p.waits = append(p.waits, d)
}

// fakeElement is an in-memory DOM node. Children are keyed by the exact
// locator value string, so tests register content under the same selector
// literals production code uses.
type fakeElement struct {
	text    string
	textErr error
	attrs   map[string]string
	hidden  bool

	children map[string][]Element

	// onClick runs on every native click; a nil hook means success.
	onClick       func() error
	onClickScript func() error

	clicks       int
	scriptClicks int
	scrolls      int
}

func newFakeElement(text string) *fakeElement {
	return &fakeElement{
		text:     text,
		attrs:    map[string]string{},
		children: map[string][]Element{},
	}
}

func (e *fakeElement) withChild(selector string, children ...Element) *fakeElement {
	e.children[selector] = append(e.children[selector], children...)
	return e
}

func (e *fakeElement) withAttr(name, value string) *fakeElement {
	e.attrs[name] = value
	return e
}

func (e *fakeElement) Find(ctx context.Context, loc Locator) (Element, error) {
	els := e.children[loc.Value]
	if len(els) == 0 {
		return nil, ErrNoSuchElement
	}
	return els[0], nil
}

func (e *fakeElement) FindAll(ctx context.Context, loc Locator) ([]Element, error) {
	return e.children[loc.Value], nil
}

func (e *fakeElement) Text(ctx context.Context) (string, error) {
	return e.text, e.textErr
}

func (e *fakeElement) Attribute(ctx context.Context, name string) (string, error) {
	v, ok := e.attrs[name]
	if !ok {
		return "", ErrNoSuchElement
	}
	return v, nil
}

func (e *fakeElement) Visible(ctx context.Context) (bool, error) {
	return !e.hidden, nil
}

func (e *fakeElement) ScrollIntoView(ctx context.Context) error {
	e.scrolls++
	return nil
}

func (e *fakeElement) Click(ctx context.Context) error {
	e.clicks++
	if e.onClick != nil {
		return e.onClick()
	}
	return nil
}

func (e *fakeElement) ClickScript(ctx context.Context) error {
	e.scriptClicks++
	if e.onClickScript != nil {
		return e.onClickScript()
	}
	return nil
}

// fakeSession is a fakeElement acting as the page root, plus navigation and
// lifecycle bookkeeping.
type fakeSession struct {
	fakeElement

	navigated []string
	// navFail makes Navigate fail persistently for specific URLs.
	navFail map[string]error
	closed  int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		fakeElement: *newFakeElement(""),
		navFail:     map[string]error{},
	}
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	if err, ok := s.navFail[url]; ok {
		return err
	}
	return nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

// fakeFactory hands out a prepared session, or fails.
type fakeFactory struct {
	session *fakeSession
	err     error
	opened  int
}

func (f *fakeFactory) OpenSession(ctx context.Context) (Session, error) {
	f.opened++
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}
