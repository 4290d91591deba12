// Package runner opens browser tabs and keeps one platform session alive
// per tab, recreating it on every page load.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sw33tLie/shortscroll/pkg/browser"
	"github.com/sw33tLie/shortscroll/pkg/clock"
	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/logging"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/platforms/profiles"
	"github.com/sw33tLie/shortscroll/pkg/session"
)

// Config holds everything Run needs.
type Config struct {
	Driver browser.Driver
	// Platforms opens each platform's home page in its own tab.
	Platforms []platforms.ID
	// URLs opens each URL in its own tab, in addition to Platforms.
	URLs     []string
	Hub      *session.Hub
	Store    session.Store
	Recorder session.Recorder
	Clock    clock.Clock    // defaults to clock.Real()
	Log      logging.Logger // optional; nil = no logging
	// TabLog, when set, gives each session its own logger.
	TabLog func(tabID string, id platforms.ID) logging.Logger
}

type Runner struct {
	cfg Config
	log logging.Logger

	mu   sync.Mutex
	tabs []browser.Tab
}

func New(cfg Config) *Runner {
	if cfg.Hub == nil {
		cfg.Hub = session.NewHub()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Runner{cfg: cfg, log: logging.OrNop(cfg.Log)}
}

func (r *Runner) Hub() *session.Hub { return r.cfg.Hub }

// Targets returns the start URLs: explicit URLs first, then the home page of
// every requested platform.
func (r *Runner) Targets() ([]string, error) {
	targets := append([]string(nil), r.cfg.URLs...)
	for _, id := range r.cfg.Platforms {
		p, err := profiles.For(id)
		if err != nil {
			return nil, err
		}
		targets = append(targets, p.HomeURL)
	}
	if len(targets) == 0 {
		return nil, errors.New("nothing to open: no platforms or URLs given")
	}
	return targets, nil
}

// Run opens every target and blocks until ctx is done, then closes all
// sessions and tabs.
func (r *Runner) Run(ctx context.Context) error {
	targets, err := r.Targets()
	if err != nil {
		return err
	}
	defer r.shutdown()

	for _, target := range targets {
		tab, err := r.cfg.Driver.NewTab(ctx)
		if err != nil {
			return fmt.Errorf("open tab for %s: %w", target, err)
		}
		r.Watch(ctx, tab)
		r.log.Infof("Opening %s", target)
		if err := tab.Navigate(ctx, target); err != nil {
			// Keep going: the user may navigate the tab by hand.
			r.log.Warnf("Could not open %s: %v", target, err)
		}
	}

	<-ctx.Done()
	return nil
}

// Watch ties the lifetime of a session on tab to its page loads.
func (r *Runner) Watch(ctx context.Context, tab browser.Tab) {
	r.mu.Lock()
	r.tabs = append(r.tabs, tab)
	r.mu.Unlock()
	order := &loadOrder{}
	tab.OnLoad(func(url string) {
		if ctx.Err() != nil {
			return
		}
		r.loaded(ctx, tab, url, order, order.next())
	})
}

// loadOrder numbers the load events of one tab. Handlers run concurrently,
// so a load only replaces the session if no later load got there first.
type loadOrder struct {
	seq atomic.Uint64

	mu     sync.Mutex
	latest uint64
}

func (o *loadOrder) next() uint64 { return o.seq.Add(1) }

// loaded replaces the session of tab after the load numbered seq. Timers
// never survive navigation; a page of an unsupported site just loses its
// session.
func (r *Runner) loaded(ctx context.Context, tab browser.Tab, url string, order *loadOrder, seq uint64) {
	order.mu.Lock()
	if seq < order.latest {
		order.mu.Unlock()
		r.log.Debugf("Tab %s: ignoring stale load of %s", tab.ID(), url)
		return
	}
	order.latest = seq

	profile, err := profiles.ForURL(url)
	if err != nil {
		r.cfg.Hub.Detach(tab.ID())
		order.mu.Unlock()
		r.log.Debugf("Tab %s: %v", tab.ID(), err)
		return
	}

	log := r.cfg.Log
	if r.cfg.TabLog != nil {
		log = r.cfg.TabLog(tab.ID(), profile.ID)
	}
	s := session.New(ctx, session.Config{
		TabID:    tab.ID(),
		URL:      url,
		Profile:  profile,
		Doc:      dom.NewScriptDocument(tab),
		Store:    r.cfg.Store,
		Recorder: r.cfg.Recorder,
		Clock:    r.cfg.Clock,
		Log:      log,
	})
	r.cfg.Hub.Attach(s)
	order.mu.Unlock()

	readyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.Ready(readyCtx); err != nil {
		r.log.Warnf("[%s] Session not started on %s: %v", profile.ID, url, err)
	}
}

func (r *Runner) shutdown() {
	r.cfg.Hub.Close()
	r.mu.Lock()
	tabs := r.tabs
	r.tabs = nil
	r.mu.Unlock()
	for _, t := range tabs {
		if err := t.Close(); err != nil {
			r.log.Debugf("Closing tab %s: %v", t.ID(), err)
		}
	}
}
