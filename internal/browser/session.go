package browser

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// Session is the narrow surface the engine drives the board through. It is a
// single exclusive resource: one session per run, acquired by the
// orchestrator's entry point and released on every exit path.
type Session interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	// HTML returns the full page markup; parsing happens off-session.
	HTML(ctx context.Context) (string, error)
	Exists(ctx context.Context, css string) (bool, error)
	Click(ctx context.Context, css string) error
	Fill(ctx context.Context, css, text string) error
	WaitVisible(ctx context.Context, css string, timeout time.Duration) error
	WaitHidden(ctx context.Context, css string, timeout time.Duration) error
	PressEscape(ctx context.Context) error
	// ScrollBottom scrolls to the end of the page and reports the new height,
	// so callers can tell when lazy loading has run dry.
	ScrollBottom(ctx context.Context) (int64, error)
	Close() error
}

type Options struct {
	UserDataDir string // persistent profile dir; login cookies survive runs
	Headless    bool
}

// Chrome is the chromedp-backed Session. The user data dir keeps the login
// session alive across runs, so the operator logs in manually once.
type Chrome struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

func Launch(parent context.Context, opts Options) (*Chrome, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(opts.UserDataDir),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1440, 900),
		chromedp.Flag("headless", opts.Headless),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	// Start the browser now so launch failures surface here, not on the
	// first navigation.
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &Chrome{ctx: ctx, cancelCtx: cancelCtx, cancelAlloc: cancelAlloc}, nil
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := c.run(ctx, chromedp.Location(&url))
	return url, err
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (c *Chrome) Exists(ctx context.Context, css string) (bool, error) {
	var found bool
	expr := "document.querySelector(" + strconv.Quote(css) + ") !== null"
	err := c.run(ctx, chromedp.Evaluate(expr, &found))
	return found, err
}

func (c *Chrome) Click(ctx context.Context, css string) error {
	return c.run(ctx, chromedp.Click(css, chromedp.ByQuery, chromedp.NodeVisible))
}

// Fill sets the value directly, then fires input/change so React notices.
// SendKeys is too slow for message-length text and trips paste heuristics.
func (c *Chrome) Fill(ctx context.Context, css, text string) error {
	dispatch := `(() => {
		const el = document.querySelector(` + strconv.Quote(css) + `);
		if (el) {
			el.dispatchEvent(new Event('input', { bubbles: true }));
			el.dispatchEvent(new Event('change', { bubbles: true }));
		}
	})()`
	return c.run(ctx,
		chromedp.SetValue(css, text, chromedp.ByQuery),
		chromedp.Evaluate(dispatch, nil),
	)
}

func (c *Chrome) WaitVisible(ctx context.Context, css string, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.run(wctx, chromedp.WaitVisible(css, chromedp.ByQuery))
}

func (c *Chrome) WaitHidden(ctx context.Context, css string, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.run(wctx, chromedp.WaitNotVisible(css, chromedp.ByQuery))
}

func (c *Chrome) PressEscape(ctx context.Context) error {
	return c.run(ctx, chromedp.KeyEvent(kb.Escape))
}

func (c *Chrome) ScrollBottom(ctx context.Context) (int64, error) {
	var height int64
	expr := `(() => { window.scrollTo(0, document.body.scrollHeight); return document.body.scrollHeight; })()`
	err := c.run(ctx, chromedp.Evaluate(expr, &height))
	return height, err
}

func (c *Chrome) Close() error {
	c.cancelCtx()
	c.cancelAlloc()
	return nil
}

// run executes actions on the browser tab but honors the caller's context:
// chromedp actions only take the tab context, so cancellation is bridged.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(c.ctx, actions...)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
