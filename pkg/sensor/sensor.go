// Package sensor polls the page for the end of the visible video.
package sensor

import (
	"context"

	"github.com/sw33tLie/shortscroll/pkg/clock"
	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/logging"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/viewport"
)

type Config struct {
	Ctx     context.Context
	Doc     dom.Document
	Profile platforms.Profile
	Clock   clock.Clock
	// Enabled is re-checked on every tick. Nil means always enabled.
	Enabled func() bool
	Log     logging.Logger
}

// Sensor watches every in-viewport <video> on the profile's poll period.
type Sensor struct {
	ctx     context.Context
	doc     dom.Document
	profile platforms.Profile
	clock   clock.Clock
	enabled func() bool
	log     logging.Logger
}

func New(cfg Config) *Sensor {
	s := &Sensor{
		ctx:     cfg.Ctx,
		doc:     cfg.Doc,
		profile: cfg.Profile,
		clock:   cfg.Clock,
		enabled: cfg.Enabled,
		log:     logging.OrNop(cfg.Log),
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.enabled == nil {
		s.enabled = func() bool { return true }
	}
	return s
}

// Start begins polling and calls onEnd at most once per tick in which the
// visible item has ended. Polling continues until the returned Timer is
// stopped.
func (s *Sensor) Start(onEnd func()) clock.Timer {
	return s.clock.Every(s.profile.PollPeriod, func() {
		if s.Check(s.ctx) {
			onEnd()
		}
	})
}

// Check performs one poll.
func (s *Sensor) Check(ctx context.Context) bool {
	if !s.enabled() || ctx.Err() != nil {
		return false
	}
	id := s.profile.ID

	vp, err := s.doc.Viewport(ctx)
	if err != nil {
		s.log.Debugf("[%s] Sensor could not read viewport: %v", id, err)
		return false
	}
	videos, err := s.doc.Videos(ctx)
	if err != nil {
		s.log.Debugf("[%s] Sensor could not read videos: %v", id, err)
		return false
	}
	for _, v := range videos {
		if viewport.IsInViewport(v.Rect, vp) && Ended(v, s.profile.EndTolerance) {
			s.log.Debugf("[%s] Video end detected at %.2f/%.2f", id, v.CurrentTime, v.Duration)
			return true
		}
	}

	if s.profile.EndHeuristic == nil {
		return false
	}
	ended, err := s.profile.EndHeuristic(ctx, s.doc, vp)
	if err != nil {
		s.log.Debugf("[%s] Sensor heuristic failed: %v", id, err)
		return false
	}
	if ended {
		s.log.Debugf("[%s] Item end detected by progress heuristic", id)
	}
	return ended
}

// Ended reports whether v has finished or is within tolerance seconds of
// its end.
func Ended(v dom.Video, tolerance float64) bool {
	if v.Ended {
		return true
	}
	return v.CurrentTime > 0 && v.Duration > 0 && v.Duration-v.CurrentTime <= tolerance
}
