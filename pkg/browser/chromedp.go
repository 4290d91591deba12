package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/logging"
)

type chromeDriver struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	log           logging.Logger
}

func newChromedp(ctx context.Context, opts Options) (*chromeDriver, error) {
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if opts.Remote != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.Remote)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
			chromedp.Flag("mute-audio", opts.Headless),
			chromedp.WindowSize(opts.Width, opts.Height),
		)
		if opts.UserDataDir != "" {
			allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, allocOpts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(opts.Log.Debugf),
		chromedp.WithErrorf(opts.Log.Debugf),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return &chromeDriver{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		log:           opts.Log,
	}, nil
}

func (d *chromeDriver) NewTab(ctx context.Context) (Tab, error) {
	tabCtx, cancel := chromedp.NewContext(d.browserCtx)
	if err := chromedp.Run(tabCtx, page.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	t := &chromeTab{ctx: tabCtx, cancel: cancel, log: d.log}
	if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
		t.id = string(c.Target.TargetID)
	}
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			// Listeners must not block the event loop.
			go t.loaded()
		}
	})
	return t, nil
}

func (d *chromeDriver) Close() error {
	d.browserCancel()
	d.allocCancel()
	return nil
}

type chromeTab struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	log    logging.Logger

	mu       sync.Mutex
	handlers loadHandlers
}

var _ dom.Runtime = (*chromeTab)(nil)

func (t *chromeTab) ID() string { return t.id }

// run executes actions on the tab, also honouring ctx.
func (t *chromeTab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (t *chromeTab) Eval(ctx context.Context, expr string, out any) error {
	return t.run(ctx, chromedp.Evaluate(expr, out))
}

// KeyDown presses and releases k.
func (t *chromeTab) KeyDown(ctx context.Context, k dom.Key) error {
	return t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, typ := range keyPress {
			err := input.DispatchKeyEvent(typ).
				WithKey(k.Key).
				WithCode(k.Code).
				WithWindowsVirtualKeyCode(int64(k.KeyCode)).
				WithNativeVirtualKeyCode(int64(k.KeyCode)).
				Do(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	}))
}

// keyPress is the event sequence of one key press. Playwright's
// Keyboard.Down+Up sends the same pair.
var keyPress = []input.KeyType{input.KeyRawDown, input.KeyUp}

var touchTypes = map[dom.TouchPhase]input.TouchType{
	dom.TouchStart: input.TouchStart,
	dom.TouchMove:  input.TouchMove,
	dom.TouchEnd:   input.TouchEnd,
}

func (t *chromeTab) Touch(ctx context.Context, phase dom.TouchPhase, p dom.Point) error {
	typ, ok := touchTypes[phase]
	if !ok {
		return fmt.Errorf("unknown touch phase %q", phase)
	}
	points := []*input.TouchPoint{{X: p.X, Y: p.Y}}
	if phase == dom.TouchEnd {
		points = []*input.TouchPoint{}
	}
	return t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchTouchEvent(typ, points).Do(ctx)
	}))
}

func (t *chromeTab) Navigate(ctx context.Context, url string) error {
	if err := t.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (t *chromeTab) OnLoad(fn func(url string)) {
	t.mu.Lock()
	t.handlers.add(fn)
	t.mu.Unlock()
}

func (t *chromeTab) loaded() {
	var url string
	if err := chromedp.Run(t.ctx, chromedp.Location(&url)); err != nil {
		t.log.Debugf("Tab %s: could not read location after load: %v", t.id, err)
		return
	}
	t.mu.Lock()
	fns := t.handlers.snapshot()
	t.mu.Unlock()
	for _, fn := range fns {
		fn(url)
	}
}

func (t *chromeTab) Close() error {
	err := chromedp.Cancel(t.ctx)
	t.cancel()
	return err
}
