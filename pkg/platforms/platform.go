package platforms

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/sw33tLie/shortscroll/pkg/dom"
)

// ID names a supported video platform. Its string form is the prefix of
// every settings key.
type ID string

const (
	YouTube   ID = "youtube"
	Instagram ID = "instagram"
	Facebook  ID = "facebook"
	TikTok    ID = "tiktok"
)

// All lists every platform in display order.
var All = []ID{YouTube, Instagram, Facebook, TikTok}

var ErrUnknownPlatform = errors.New("unknown platform")

var defaultIntervals = map[ID]int{
	YouTube:   10,
	Instagram: 5,
	Facebook:  8,
	TikTok:    3,
}

// Parse accepts a platform name, case-insensitively.
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := defaultIntervals[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
	return id, nil
}

// DefaultInterval is the fixed advance interval, in seconds, used when none
// is stored.
func (id ID) DefaultInterval() int {
	return defaultIntervals[id]
}

func (id ID) Valid() bool {
	_, ok := defaultIntervals[id]
	return ok
}

func (id ID) String() string { return string(id) }

var domains = map[string]ID{
	"youtube.com":   YouTube,
	"youtu.be":      YouTube,
	"instagram.com": Instagram,
	"facebook.com":  Facebook,
	"fb.com":        Facebook,
	"tiktok.com":    TikTok,
}

// FromURL maps a page URL to its platform by registrable domain, so
// m.youtube.com and www.tiktok.com resolve like their apex domains.
func FromURL(rawURL string) (ID, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: no host in %q", ErrUnknownPlatform, rawURL)
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlatform, host)
	}
	id, ok := domains[domain]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlatform, host)
	}
	return id, nil
}

// StepKind is one kind of probe in an advance route.
type StepKind string

const (
	// Click clicks the first match of Selector.
	Click StepKind = "click"
	// ClickVisible clicks Child inside the first in-viewport match of
	// Selector that contains one.
	ClickVisible StepKind = "click-visible"
	// ScrollToHidden scrolls the first match of Selector that is not in the
	// viewport into view.
	ScrollToHidden StepKind = "scroll-to-hidden"
	// Scroll scrolls by Fraction of the viewport height, or by Pixels when
	// set. With When set it only runs if When matches something.
	Scroll StepKind = "scroll"
	// PressKey dispatches a key-down of Key.
	PressKey StepKind = "key"
	// Swipe synthesizes a vertical touch gesture in Direction.
	Swipe StepKind = "swipe"
	// ClickText clicks the first in-viewport match of Selector whose text
	// contains one of Texts, case-insensitively.
	ClickText StepKind = "click-text"
)

// Direction of a swipe gesture. SwipeUp moves the finger towards the top of
// the screen, which feeds treat as "next".
type Direction string

const (
	SwipeUp   Direction = "up"
	SwipeDown Direction = "down"
)

// Step is one probe. A step that finds nothing falls through to the next.
// Continue makes a step that did act still fall through.
type Step struct {
	Kind      StepKind
	Selector  string
	Child     string
	Texts     []string
	Fraction  float64
	Pixels    float64
	When      string
	Continue  bool
	Key       dom.Key
	Direction Direction
}

func (s Step) String() string {
	switch s.Kind {
	case PressKey:
		return fmt.Sprintf("%s %s", s.Kind, s.Key.Key)
	case Swipe:
		return fmt.Sprintf("%s %s", s.Kind, s.Direction)
	case Scroll:
		if s.Pixels != 0 {
			return fmt.Sprintf("%s %gpx", s.Kind, s.Pixels)
		}
		return fmt.Sprintf("%s %gvh", s.Kind, s.Fraction)
	case ClickVisible:
		return fmt.Sprintf("%s %s %s", s.Kind, s.Selector, s.Child)
	default:
		return fmt.Sprintf("%s %s", s.Kind, s.Selector)
	}
}

// Route is the probe list used on pages whose path matches. A route with no
// predicates matches every path.
type Route struct {
	Name         string
	PathExact    []string
	PathPrefix   []string
	PathContains []string
	Steps        []Step
}

func (r Route) Matches(path string) bool {
	if len(r.PathExact) == 0 && len(r.PathPrefix) == 0 && len(r.PathContains) == 0 {
		return true
	}
	for _, p := range r.PathExact {
		if path == p {
			return true
		}
	}
	for _, p := range r.PathPrefix {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, p := range r.PathContains {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// EndHeuristic is a platform-specific fallback for detecting the end of the
// visible item when no <video> reports it.
type EndHeuristic func(ctx context.Context, doc dom.Document, vp dom.Viewport) (bool, error)

// Profile is everything the session needs to know about one platform.
type Profile struct {
	ID      ID
	HomeURL string
	// PollPeriod is the video-end sensor cadence.
	PollPeriod time.Duration
	// EndTolerance is how close to the end, in seconds, a video counts as
	// finished.
	EndTolerance float64
	Routes       []Route
	EndHeuristic EndHeuristic
}

// Route returns the first route matching path, or nil when none does.
func (p Profile) Route(path string) *Route {
	for i := range p.Routes {
		if p.Routes[i].Matches(path) {
			return &p.Routes[i]
		}
	}
	return nil
}
