// Package session binds a platform's settings, scheduler and advance
// executor to one browser tab.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sw33tLie/shortscroll/pkg/advance"
	"github.com/sw33tLie/shortscroll/pkg/clock"
	"github.com/sw33tLie/shortscroll/pkg/control"
	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/logging"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/scheduler"
	"github.com/sw33tLie/shortscroll/pkg/sensor"
	"github.com/sw33tLie/shortscroll/pkg/settings"
	"github.com/sw33tLie/shortscroll/pkg/storage"
)

// Store reads persisted settings.
type Store interface {
	LoadSettings(ctx context.Context, id platforms.ID) (settings.Settings, error)
}

// Recorder receives one event per advance.
type Recorder interface {
	LogAdvance(ctx context.Context, ev storage.AdvanceEvent) error
}

type Config struct {
	TabID    string
	URL      string
	Profile  platforms.Profile
	Doc      dom.Document
	Store    Store          // optional; nil = platform defaults
	Recorder Recorder       // optional
	Clock    clock.Clock    // defaults to clock.Real()
	Log      logging.Logger // optional; nil = no logging

	// GestureDelay and Sleep are passed to the advance executor.
	GestureDelay time.Duration
	Sleep        func(ctx context.Context, d time.Duration) error
}

// Status is a point-in-time view of a session.
type Status struct {
	TabID       string            `json:"tab_id"`
	Platform    platforms.ID      `json:"platform"`
	URL         string            `json:"url"`
	State       string            `json:"state"`
	Settings    settings.Settings `json:"settings"`
	Advances    int               `json:"advances"`
	LastAdvance time.Time         `json:"last_advance"`
	LastRoute   string            `json:"last_route,omitempty"`
	LastStep    string            `json:"last_step,omitempty"`
}

// Session is the per-tab controller. Handle, Ready and Close may be called
// from any goroutine.
type Session struct {
	cfg    Config
	id     platforms.ID
	log    logging.Logger
	ctx    context.Context
	cancel context.CancelFunc
	exec   *advance.Executor
	sched  *scheduler.Scheduler

	// ctl serializes reconfiguration; it is never held by an advance.
	ctl    sync.Mutex
	closed bool

	mu       sync.Mutex
	current  settings.Settings
	advances int
	last     time.Time
	outcome  advance.Outcome
}

// New creates an idle session whose settings are the platform defaults. It
// lives until Close or until ctx is done.
func New(ctx context.Context, cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	s := &Session{
		cfg:     cfg,
		id:      cfg.Profile.ID,
		log:     logging.OrNop(cfg.Log),
		current: settings.Defaults(cfg.Profile.ID),
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.exec = advance.New(advance.Config{
		Doc:          cfg.Doc,
		Profile:      cfg.Profile,
		Log:          cfg.Log,
		GestureDelay: cfg.GestureDelay,
		Sleep:        cfg.Sleep,
	})
	sens := sensor.New(sensor.Config{
		Ctx:     s.ctx,
		Doc:     cfg.Doc,
		Profile: cfg.Profile,
		Clock:   cfg.Clock,
		Enabled: s.detecting,
		Log:     cfg.Log,
	})
	s.sched = scheduler.New(s.ctx, scheduler.Config{
		Clock:  cfg.Clock,
		Sensor: sens,
		Action: s.advance,
		Log:    cfg.Log,
		Name:   string(s.id),
	})
	return s
}

func (s *Session) Platform() platforms.ID { return s.id }

func (s *Session) TabID() string { return s.cfg.TabID }

// Ready reads the persisted settings once and starts advancing if the
// platform is enabled.
func (s *Session) Ready(ctx context.Context) error {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	if s.closed {
		return nil
	}

	st := settings.Defaults(s.id)
	if s.cfg.Store != nil {
		loaded, err := s.cfg.Store.LoadSettings(ctx, s.id)
		if err != nil {
			return fmt.Errorf("load %s settings: %w", s.id, err)
		}
		st = loaded
	}
	st = st.Normalize(s.id)
	s.setCurrent(st)

	if !st.Enabled {
		s.log.Debugf("[%s] Disabled, not starting on %s", s.id, s.cfg.URL)
		return nil
	}
	s.log.Infof("[%s] Starting %s on %s", s.id, st.Strategy(), s.cfg.URL)
	s.sched.Start(st)
	return nil
}

// Handle applies a control message. It reports false when the message is
// for another platform or the session is closed.
func (s *Session) Handle(msg control.Message) bool {
	if msg.Platform != s.id {
		return false
	}
	s.ctl.Lock()
	defer s.ctl.Unlock()
	if s.closed {
		return false
	}

	switch msg.Action {
	case control.Start, control.Update:
		st := settings.Merge(s.Settings(), msg.Override).Normalize(s.id)
		st.Enabled = true
		s.setCurrent(st)
		s.log.Infof("[%s] %s: %s", s.id, msg.Action, st.Strategy())
		s.sched.Update(st)
	case control.Stop:
		st := s.Settings()
		st.Enabled = false
		s.setCurrent(st)
		s.sched.Stop()
		s.log.Infof("[%s] Stopped", s.id)
	default:
		s.log.Warnf("[%s] Ignoring unknown action %q", s.id, msg.Action)
		return false
	}
	return true
}

// Close stops the scheduler for good, as on page unload.
func (s *Session) Close() {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.sched.Stop()
}

// State returns the scheduler state.
func (s *Session) State() scheduler.State { return s.sched.State() }

// Settings returns the session's current settings.
func (s *Session) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Status() Status {
	state := s.sched.State()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		TabID:       s.cfg.TabID,
		Platform:    s.id,
		URL:         s.cfg.URL,
		State:       state.String(),
		Settings:    s.current,
		Advances:    s.advances,
		LastAdvance: s.last,
		LastRoute:   s.outcome.Route,
		LastStep:    s.outcome.Step,
	}
}

func (s *Session) setCurrent(st settings.Settings) {
	s.mu.Lock()
	s.current = st
	s.mu.Unlock()
}

// detecting is the live detectVideoEnd flag read by the sensor each tick.
func (s *Session) detecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Enabled && s.current.DetectVideoEnd
}

func (s *Session) advance(ctx context.Context, by scheduler.State) {
	out := s.exec.Execute(ctx)
	now := s.cfg.Clock.Now()

	s.mu.Lock()
	s.advances++
	s.last = now
	s.outcome = out
	s.mu.Unlock()

	if s.cfg.Recorder == nil {
		return
	}
	ev := storage.AdvanceEvent{
		OccurredAt: now,
		Platform:   string(s.id),
		Strategy:   by.String(),
		Route:      out.Route,
		Step:       out.Step,
		Fallback:   out.Fallback,
	}
	if err := s.cfg.Recorder.LogAdvance(ctx, ev); err != nil {
		s.log.Warnf("[%s] Could not record advance: %v", s.id, err)
	}
}
