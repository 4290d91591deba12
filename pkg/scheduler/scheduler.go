// Package scheduler decides when a platform session advances its feed. It
// runs exactly one of three strategies: video-end detection, a manual
// per-item timer, or a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sw33tLie/shortscroll/pkg/clock"
	"github.com/sw33tLie/shortscroll/pkg/logging"
	"github.com/sw33tLie/shortscroll/pkg/settings"
)

type State int

const (
	Idle State = iota
	VideoEndDriven
	ManualTimerDriven
	IntervalDriven
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case VideoEndDriven:
		return "video-end"
	case ManualTimerDriven:
		return "manual-timer"
	case IntervalDriven:
		return "interval"
	}
	return "unknown"
}

// Sensor starts video-end polling. The returned Timer stops it.
type Sensor interface {
	Start(onEnd func()) clock.Timer
}

// Action advances the feed. It runs with the scheduler locked and must not
// call back into the Scheduler.
type Action func(ctx context.Context, by State)

type Config struct {
	Clock  clock.Clock // defaults to clock.Real()
	Sensor Sensor
	Action Action
	Log    logging.Logger
	// Name prefixes log lines, usually the platform.
	Name string
}

// Scheduler is safe for concurrent use. Every armed callback carries the
// generation it was armed in; callbacks from an older generation are
// dropped, so nothing fires after Stop or Update returns.
type Scheduler struct {
	ctx    context.Context
	clock  clock.Clock
	sensor Sensor
	action Action
	log    logging.Logger
	name   string

	mu       sync.Mutex
	state    State
	settings settings.Settings
	handle   clock.Timer
	gen      uint64
}

// New returns an idle scheduler. ctx is passed to every action; once it is
// done, pending callbacks are dropped.
func New(ctx context.Context, cfg Config) *Scheduler {
	s := &Scheduler{
		ctx:    ctx,
		clock:  cfg.Clock,
		sensor: cfg.Sensor,
		action: cfg.Action,
		log:    logging.OrNop(cfg.Log),
		name:   cfg.Name,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	return s
}

// Start tears down whatever is running and arms the strategy selected by
// st: video-end if DetectVideoEnd, else the manual timer if
// ScrollAfterSeconds > 0, else the interval.
func (s *Scheduler) Start(st settings.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.settings = st
	gen := s.gen

	switch {
	case st.DetectVideoEnd:
		if s.sensor == nil {
			s.log.Errorf("[%s] Video-end detection requested without a sensor", s.name)
			return
		}
		s.state = VideoEndDriven
		s.handle = s.sensor.Start(func() { s.fire(gen, VideoEndDriven) })
		s.log.Debugf("[%s] Watching for video end", s.name)

	case st.ScrollAfterSeconds > 0:
		d := settings.Seconds(st.ScrollAfterSeconds)
		if d <= 0 {
			s.log.Warnf("[%s] Refusing to start with scroll-after %d", s.name, st.ScrollAfterSeconds)
			return
		}
		s.state = ManualTimerDriven
		s.armManualLocked(gen, d)
		s.log.Debugf("[%s] Advancing %s after each item", s.name, d)

	case st.IntervalSeconds > 0:
		d := settings.Seconds(st.IntervalSeconds)
		if d <= 0 {
			s.log.Warnf("[%s] Refusing to start with interval %d", s.name, st.IntervalSeconds)
			return
		}
		s.state = IntervalDriven
		s.handle = s.clock.Every(d, func() { s.fire(gen, IntervalDriven) })
		s.log.Debugf("[%s] Advancing every %s", s.name, d)

	default:
		s.log.Warnf("[%s] Refusing to start with interval %d", s.name, st.IntervalSeconds)
	}
}

// Update is Start with new settings. It also starts a stopped scheduler.
func (s *Scheduler) Update(st settings.Settings) {
	s.Start(st)
}

// Stop cancels the live handle and returns to Idle. Stopping an idle
// scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.handle != nil {
		s.handle.Stop()
		s.handle = nil
	}
	if s.state != Idle {
		s.log.Debugf("[%s] Stopped %s", s.name, s.state)
	}
	s.state = Idle
	s.gen++
}

func (s *Scheduler) armManualLocked(gen uint64, d time.Duration) {
	var rearm func()
	rearm = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.liveLocked(gen) {
			return
		}
		s.action(s.ctx, ManualTimerDriven)
		if !s.liveLocked(gen) {
			return
		}
		s.handle = s.clock.AfterFunc(d, rearm)
	}
	s.handle = s.clock.AfterFunc(d, rearm)
}

func (s *Scheduler) fire(gen uint64, by State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.liveLocked(gen) {
		return
	}
	s.action(s.ctx, by)
}

func (s *Scheduler) liveLocked(gen uint64) bool {
	return gen == s.gen && s.ctx.Err() == nil
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Settings returns the settings of the last Start or Update.
func (s *Scheduler) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Live returns the number of armed timer or poll handles, 0 or 1.
func (s *Scheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return 0
	}
	return 1
}
