package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/playwright-community/playwright-go"

	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/logging"
)

type pwDriver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	log     logging.Logger
	seq     atomic.Int64
}

func newPlaywright(opts Options) (*pwDriver, error) {
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var browser playwright.Browser
	if opts.Remote != "" {
		browser, err = pw.Chromium.ConnectOverCDP(opts.Remote)
	} else {
		browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			Args:     []string{"--autoplay-policy=no-user-gesture-required"},
		})
	}
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Width,
			Height: opts.Height,
		},
		HasTouch: playwright.Bool(true),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	return &pwDriver{pw: pw, browser: browser, context: bctx, log: opts.Log}, nil
}

func (d *pwDriver) NewTab(ctx context.Context) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	t := &pwTab{id: fmt.Sprintf("pw-%d", d.seq.Add(1)), page: p, log: d.log}
	p.OnLoad(func(p playwright.Page) {
		go t.loaded(p.URL())
	})
	return t, nil
}

func (d *pwDriver) Close() error {
	var firstErr error
	if err := d.context.Close(); err != nil {
		firstErr = err
	}
	if err := d.browser.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := d.pw.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

type pwTab struct {
	id   string
	page playwright.Page
	log  logging.Logger

	mu       sync.Mutex
	handlers loadHandlers
}

var _ dom.Runtime = (*pwTab)(nil)

func (t *pwTab) ID() string { return t.id }

// Eval round-trips the result through JSON so out gets the same decoding
// as with chromedp.
func (t *pwTab) Eval(ctx context.Context, expr string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, err := t.page.Evaluate(expr)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode evaluation result: %w", err)
	}
	return json.Unmarshal(b, out)
}

func (t *pwTab) KeyDown(ctx context.Context, k dom.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kb := t.page.Keyboard()
	if err := kb.Down(k.Key); err != nil {
		return err
	}
	return kb.Up(k.Key)
}

// Touch dispatches a synthetic TouchEvent; playwright only exposes taps.
func (t *pwTab) Touch(ctx context.Context, phase dom.TouchPhase, p dom.Point) error {
	return t.Eval(ctx, dom.TouchScript(phase, p), nil)
}

func (t *pwTab) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.page.Goto(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (t *pwTab) OnLoad(fn func(url string)) {
	t.mu.Lock()
	t.handlers.add(fn)
	t.mu.Unlock()
}

func (t *pwTab) loaded(url string) {
	t.mu.Lock()
	fns := t.handlers.snapshot()
	t.mu.Unlock()
	for _, fn := range fns {
		fn(url)
	}
}

func (t *pwTab) Close() error {
	return t.page.Close()
}
