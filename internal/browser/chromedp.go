// Package browser implements the scrape browser capability with chromedp
// and headless Chrome.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/campusmetrics/profscraper/internal/scrape"
)

// DefaultUserAgent is sent when the configuration leaves the user agent
// empty. The target serves a degraded page to obviously robotic agents.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Config controls the Chrome allocator and per-session behavior.
type Config struct {
	Headless  bool
	UserAgent string
	// NavTimeout bounds a single navigation including the body-ready wait.
	NavTimeout time.Duration
	// WaitTimeout bounds a single element lookup; the Selenium-style
	// implicit wait the extraction chains rely on.
	WaitTimeout time.Duration
	// DomainQPS rate-limits navigations per host; 0 disables the limiter.
	DomainQPS float64
}

func (c *Config) applyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 10 * time.Second
	}
}

// Factory owns the Chrome exec allocator and hands out sessions.
type Factory struct {
	cfg             Config
	logger          *zap.Logger
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	domainLimiters  sync.Map
}

// NewFactory starts an exec allocator. Chrome itself launches lazily with
// the first session.
func NewFactory(cfg Config, logger *zap.Logger) *Factory {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Factory{
		cfg:             cfg,
		logger:          logger,
		allocatorCtx:    allocatorCtx,
		allocatorCancel: allocatorCancel,
	}
}

// Close tears down the allocator and every browser it spawned.
func (f *Factory) Close() {
	f.allocatorCancel()
}

// OpenSession launches a browser tab and verifies Chrome actually started.
func (f *Factory) OpenSession(ctx context.Context) (scrape.Session, error) {
	tabCtx, tabCancel := chromedp.NewContext(f.allocatorCtx)

	warmup := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(f.cfg.UserAgent),
	}
	runCtx, cancel := context.WithTimeout(tabCtx, f.cfg.NavTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx, warmup); err != nil {
		tabCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	f.logger.Info("browser session opened",
		zap.Bool("headless", f.cfg.Headless))
	return &session{factory: f, tabCtx: tabCtx, tabCancel: tabCancel}, nil
}

func (f *Factory) waitDomainBudget(ctx context.Context, rawURL string) error {
	if f.cfg.DomainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := f.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(f.cfg.DomainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait limiter: %w", err)
	}
	return nil
}

// session is one exclusive Chrome tab.
type session struct {
	factory   *Factory
	tabCtx    context.Context
	tabCancel context.CancelFunc
}

// Navigate loads url and blocks until the document body is ready, honoring
// the per-domain rate budget first.
func (s *session) Navigate(ctx context.Context, rawURL string) error {
	if err := s.factory.waitDomainBudget(ctx, rawURL); err != nil {
		return fmt.Errorf("navigation rate limit: %w", err)
	}
	err := s.run(ctx, s.factory.cfg.NavTimeout,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	return nil
}

func (s *session) Find(ctx context.Context, loc scrape.Locator) (scrape.Element, error) {
	nodes, err := s.nodes(ctx, loc, nil, true)
	if err != nil {
		return nil, err
	}
	return &element{sess: s, node: nodes[0]}, nil
}

func (s *session) FindAll(ctx context.Context, loc scrape.Locator) ([]scrape.Element, error) {
	nodes, err := s.nodes(ctx, loc, nil, false)
	if err != nil {
		return nil, err
	}
	return s.wrap(nodes), nil
}

func (s *session) Close() error {
	s.tabCancel()
	return nil
}

func (s *session) wrap(nodes []*cdp.Node) []scrape.Element {
	els := make([]scrape.Element, len(nodes))
	for i, n := range nodes {
		els[i] = &element{sess: s, node: n}
	}
	return els
}

// nodes resolves a locator beneath from (nil for the document). When wait is
// set the call blocks up to the wait timeout for at least one match and maps
// a miss to scrape.ErrNoSuchElement; otherwise it returns whatever is
// present right now.
func (s *session) nodes(ctx context.Context, loc scrape.Locator, from *cdp.Node, wait bool) ([]*cdp.Node, error) {
	opts := []chromedp.QueryOption{}
	switch loc.By {
	case scrape.ByXPath:
		// XPath locators are only used for page-level controls; the search
		// scope is always the document.
		opts = append(opts, chromedp.BySearch)
	default:
		opts = append(opts, chromedp.ByQueryAll)
		if from != nil {
			opts = append(opts, chromedp.FromNode(from))
		}
	}
	if !wait {
		opts = append(opts, chromedp.AtLeast(0))
	}

	var nodes []*cdp.Node
	err := s.run(ctx, s.factory.cfg.WaitTimeout, chromedp.Nodes(loc.Value, &nodes, opts...))
	if err != nil {
		return nil, fmt.Errorf("locate %s %q: %w", loc.By, loc.Value, scrape.ErrNoSuchElement)
	}
	if wait && len(nodes) == 0 {
		return nil, fmt.Errorf("locate %s %q: %w", loc.By, loc.Value, scrape.ErrNoSuchElement)
	}
	return nodes, nil
}

// run executes chromedp actions on the session tab, bounded by timeout and
// canceled early if the caller's context finishes first.
func (s *session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	taskCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()
	return chromedp.Run(taskCtx, actions...)
}

// evalOnNode resolves the node to a remote object and calls fn with the node
// as `this`, unmarshaling the by-value result into res when non-nil.
func (s *session) evalOnNode(ctx context.Context, node *cdp.Node, fn string, res interface{}) error {
	return s.run(ctx, s.factory.cfg.WaitTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}
		result, exception, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("call on node: %w", err)
		}
		if exception != nil {
			return fmt.Errorf("call on node: %w", exception)
		}
		if res == nil || result == nil {
			return nil
		}
		return json.Unmarshal(result.Value, res)
	}))
}

// element wraps one live DOM node.
type element struct {
	sess *session
	node *cdp.Node
}

func (e *element) Find(ctx context.Context, loc scrape.Locator) (scrape.Element, error) {
	nodes, err := e.sess.nodes(ctx, loc, e.node, true)
	if err != nil {
		return nil, err
	}
	return &element{sess: e.sess, node: nodes[0]}, nil
}

func (e *element) FindAll(ctx context.Context, loc scrape.Locator) ([]scrape.Element, error) {
	nodes, err := e.sess.nodes(ctx, loc, e.node, false)
	if err != nil {
		return nil, err
	}
	return e.sess.wrap(nodes), nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.sess.evalOnNode(ctx, e.node,
		`function() { return this.innerText || this.textContent || ""; }`, &text)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return text, nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	// The node snapshot usually carries the attribute already.
	if v := e.node.AttributeValue(name); v != "" {
		return v, nil
	}
	var value string
	err := e.sess.evalOnNode(ctx, e.node,
		fmt.Sprintf(`function() { return this.getAttribute(%q) || ""; }`, name), &value)
	if err != nil {
		return "", fmt.Errorf("read attribute %s: %w", name, err)
	}
	return value, nil
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	var visible bool
	err := e.sess.evalOnNode(ctx, e.node,
		`function() {
			const rect = this.getBoundingClientRect();
			return this.offsetParent !== null || (rect.width > 0 && rect.height > 0);
		}`, &visible)
	if err != nil {
		return false, fmt.Errorf("check visibility: %w", err)
	}
	return visible, nil
}

func (e *element) ScrollIntoView(ctx context.Context) error {
	err := e.sess.evalOnNode(ctx, e.node,
		`function() { this.scrollIntoView({block: 'center'}); }`, nil)
	if err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	return nil
}

func (e *element) Click(ctx context.Context) error {
	err := e.sess.run(ctx, e.sess.factory.cfg.WaitTimeout, chromedp.MouseClickNode(e.node))
	if err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (e *element) ClickScript(ctx context.Context) error {
	err := e.sess.evalOnNode(ctx, e.node, `function() { this.click(); }`, nil)
	if err != nil {
		return fmt.Errorf("scripted click: %w", err)
	}
	return nil
}

// forwardCancel propagates the caller's cancellation into a chromedp task
// context without tying the tab's lifetime to the caller.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
