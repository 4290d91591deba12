// Package settings holds the per-platform scroll settings, their store keys
// and the rules for merging runtime overrides onto them.
package settings

import (
	"fmt"
	"time"

	"github.com/sw33tLie/shortscroll/pkg/platforms"
)

// Settings is the effective configuration of one platform session. At most
// one advance strategy is active: video-end detection wins over the manual
// timer, which wins over the fixed interval.
type Settings struct {
	Enabled            bool `json:"enabled"`
	IntervalSeconds    int  `json:"interval"`
	DetectVideoEnd     bool `json:"detectVideoEnd"`
	ScrollAfterSeconds int  `json:"scrollAfterSeconds"`
}

// Defaults are the settings of a freshly installed platform.
func Defaults(id platforms.ID) Settings {
	return Settings{
		Enabled:            false,
		IntervalSeconds:    id.DefaultInterval(),
		DetectVideoEnd:     true,
		ScrollAfterSeconds: 0,
	}
}

// Field is the suffix of a settings store key.
type Field string

const (
	Toggle         Field = "toggle"
	Interval       Field = "interval"
	DetectVideoEnd Field = "detect-video-end"
	ScrollAfter    Field = "scroll-after-seconds"
)

// Fields lists every stored field.
var Fields = []Field{Toggle, Interval, DetectVideoEnd, ScrollAfter}

// ParseField accepts a field name as used in store keys.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown settings field %q", s)
}

// Key returns the store key of field f for platform id, e.g.
// "tiktok-scroll-after-seconds".
func Key(id platforms.ID, f Field) string {
	return string(id) + "-" + string(f)
}

// Keys returns the store keys of id, keyed by field.
func Keys(id platforms.ID) map[Field]string {
	out := make(map[Field]string, len(Fields))
	for _, f := range Fields {
		out[f] = Key(id, f)
	}
	return out
}

// Override carries optional replacements for the tunable fields. A nil
// field keeps the current value.
type Override struct {
	IntervalSeconds    *int
	DetectVideoEnd     *bool
	ScrollAfterSeconds *int
}

func (o Override) Empty() bool {
	return o.IntervalSeconds == nil && o.DetectVideoEnd == nil && o.ScrollAfterSeconds == nil
}

// Merge applies o on top of s. The interval override only takes effect when
// the merged settings do not detect video end.
func Merge(s Settings, o Override) Settings {
	if o.DetectVideoEnd != nil {
		s.DetectVideoEnd = *o.DetectVideoEnd
	}
	if o.ScrollAfterSeconds != nil {
		s.ScrollAfterSeconds = *o.ScrollAfterSeconds
	}
	if o.IntervalSeconds != nil && !s.DetectVideoEnd {
		s.IntervalSeconds = *o.IntervalSeconds
	}
	return s
}

// MaxSeconds caps the interval and scroll-after fields at one day.
const MaxSeconds = 24 * 60 * 60

// Seconds converts n seconds to a Duration clamped to [0, MaxSeconds].
func Seconds(n int) time.Duration {
	switch {
	case n <= 0:
		return 0
	case n > MaxSeconds:
		n = MaxSeconds
	}
	return time.Duration(n) * time.Second
}

// Normalize replaces out-of-range values: a non-positive interval becomes the
// platform default, a negative scroll-after becomes 0 and both are capped at
// MaxSeconds.
func (s Settings) Normalize(id platforms.ID) Settings {
	if s.IntervalSeconds <= 0 {
		s.IntervalSeconds = id.DefaultInterval()
	}
	if s.IntervalSeconds > MaxSeconds {
		s.IntervalSeconds = MaxSeconds
	}
	if s.ScrollAfterSeconds < 0 {
		s.ScrollAfterSeconds = 0
	}
	if s.ScrollAfterSeconds > MaxSeconds {
		s.ScrollAfterSeconds = MaxSeconds
	}
	return s
}

// Strategy names the advance strategy s selects.
func (s Settings) Strategy() string {
	switch {
	case s.DetectVideoEnd:
		return "video-end"
	case s.ScrollAfterSeconds > 0:
		return "manual-timer"
	default:
		return "interval"
	}
}

// Int and Bool return pointers for building overrides.
func Int(v int) *int    { return &v }
func Bool(v bool) *bool { return &v }
