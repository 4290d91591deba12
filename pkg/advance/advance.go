// Package advance moves a feed to its next item by running the probe chain
// of the current page's route.
package advance

import (
	"context"
	"strings"
	"time"

	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/logging"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/viewport"
)

// DefaultGestureDelay separates the phases of a synthetic swipe.
const DefaultGestureDelay = 50 * time.Millisecond

// fallbackHeight is scrolled when the viewport cannot be read.
const fallbackHeight = 800

// Config holds everything an Executor needs.
type Config struct {
	Doc     dom.Document
	Profile platforms.Profile
	Log     logging.Logger // optional; nil = no logging

	// GestureDelay defaults to DefaultGestureDelay if <= 0.
	GestureDelay time.Duration
	// Sleep waits between gesture phases. Defaults to a context-aware
	// time.After wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Outcome describes which probe moved the feed.
type Outcome struct {
	Route string
	// Step is the last step that acted, empty when the fallback scroll did.
	Step     string
	Fallback bool
}

type Executor struct {
	doc     dom.Document
	profile platforms.Profile
	log     logging.Logger
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

func New(cfg Config) *Executor {
	e := &Executor{
		doc:     cfg.Doc,
		profile: cfg.Profile,
		log:     logging.OrNop(cfg.Log),
		delay:   cfg.GestureDelay,
		sleep:   cfg.Sleep,
	}
	if e.delay <= 0 {
		e.delay = DefaultGestureDelay
	}
	if e.sleep == nil {
		e.sleep = sleepCtx
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Advance runs Execute and discards the outcome.
func (e *Executor) Advance(ctx context.Context) {
	e.Execute(ctx)
}

// Execute runs the probe chain of the route matching the current path. It
// never fails: DOM errors count as "nothing found", and when no step acted
// the page is scrolled by one viewport height.
func (e *Executor) Execute(ctx context.Context) Outcome {
	id := e.profile.ID

	vp, err := e.doc.Viewport(ctx)
	if err != nil {
		e.log.Debugf("[%s] Could not read viewport: %v", id, err)
		vp = dom.Viewport{Height: fallbackHeight}
	}
	path, err := e.doc.Path(ctx)
	if err != nil {
		e.log.Debugf("[%s] Could not read location: %v", id, err)
	}

	var out Outcome
	if r := e.profile.Route(path); r != nil {
		out.Route = r.Name
		for _, step := range r.Steps {
			if ctx.Err() != nil {
				return out
			}
			acted, err := e.run(ctx, step, vp)
			if err != nil {
				e.log.Debugf("[%s] %s on %s: %v", id, step, path, err)
				continue
			}
			if !acted {
				continue
			}
			out.Step = step.String()
			if !step.Continue {
				break
			}
		}
	}
	if out.Step != "" {
		e.log.Debugf("[%s] Advanced via %s/%s", id, out.Route, out.Step)
		return out
	}

	out.Fallback = true
	if err := e.doc.ScrollBy(ctx, vp.Height); err != nil {
		e.log.Warnf("[%s] Fallback scroll failed: %v", id, err)
	}
	e.log.Debugf("[%s] Advanced via fallback scroll on %s", id, path)
	return out
}

func (e *Executor) run(ctx context.Context, s platforms.Step, vp dom.Viewport) (bool, error) {
	switch s.Kind {
	case platforms.Click:
		els, err := e.doc.Query(ctx, s.Selector)
		if err != nil || len(els) == 0 {
			return false, err
		}
		return e.doc.Click(ctx, els[0], "")

	case platforms.ClickVisible:
		els, err := e.doc.Query(ctx, s.Selector)
		if err != nil {
			return false, err
		}
		for _, el := range els {
			if !viewport.IsInViewport(el.Rect, vp) {
				continue
			}
			ok, err := e.doc.Click(ctx, el, s.Child)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case platforms.ScrollToHidden:
		els, err := e.doc.Query(ctx, s.Selector)
		if err != nil {
			return false, err
		}
		for _, el := range els {
			if viewport.IsInViewport(el.Rect, vp) {
				continue
			}
			ok, err := e.doc.ScrollIntoView(ctx, el)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case platforms.Scroll:
		if s.When != "" {
			els, err := e.doc.Query(ctx, s.When)
			if err != nil || len(els) == 0 {
				return false, err
			}
		}
		dy := s.Pixels
		if dy == 0 {
			dy = s.Fraction * vp.Height
		}
		return true, e.doc.ScrollBy(ctx, dy)

	case platforms.PressKey:
		return true, e.doc.KeyDown(ctx, s.Key)

	case platforms.Swipe:
		return true, e.swipe(ctx, s.Direction, vp)

	case platforms.ClickText:
		els, err := e.doc.Query(ctx, s.Selector)
		if err != nil {
			return false, err
		}
		for _, el := range els {
			if !viewport.IsInViewport(el.Rect, vp) || !containsAny(el.Text, s.Texts) {
				continue
			}
			return e.doc.Click(ctx, el, "")
		}
		return false, nil
	}
	e.log.Warnf("[%s] Unknown step kind %q", e.profile.ID, s.Kind)
	return false, nil
}

// swipe emits start, move and end touches at the horizontal centre, between
// one third and two thirds of the viewport height.
func (e *Executor) swipe(ctx context.Context, dir platforms.Direction, vp dom.Viewport) error {
	x := vp.Width / 2
	from, to := vp.Height*2/3, vp.Height/3
	if dir == platforms.SwipeDown {
		from, to = to, from
	}
	phases := []struct {
		phase dom.TouchPhase
		y     float64
	}{
		{dom.TouchStart, from},
		{dom.TouchMove, to},
		{dom.TouchEnd, to},
	}
	for i, p := range phases {
		if i > 0 {
			if err := e.sleep(ctx, e.delay); err != nil {
				return err
			}
		}
		if err := e.doc.Touch(ctx, p.phase, dom.Point{X: x, Y: p.y}); err != nil {
			return err
		}
	}
	return nil
}

func containsAny(text string, phrases []string) bool {
	text = strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(text, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
