package youtube

import (
	"time"

	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
)

const (
	HomeURL = "https://www.youtube.com/shorts"

	recommendations = "ytd-compact-video-renderer, ytd-video-renderer"
)

// Profile returns the YouTube advance table. Shorts bind ArrowDown to the
// next short; elsewhere the first visible recommendation is opened.
func Profile() platforms.Profile {
	return platforms.Profile{
		ID:           platforms.YouTube,
		HomeURL:      HomeURL,
		PollPeriod:   time.Second,
		EndTolerance: 1.0,
		Routes: []platforms.Route{
			{
				Name:         "shorts",
				PathContains: []string{"/shorts"},
				Steps: []platforms.Step{
					{Kind: platforms.PressKey, Key: dom.ArrowDown},
				},
			},
			{
				Name: "watch",
				Steps: []platforms.Step{
					{Kind: platforms.ClickVisible, Selector: recommendations, Child: "a#thumbnail"},
					{Kind: platforms.Scroll, Pixels: 500, When: recommendations},
				},
			},
		},
	}
}
