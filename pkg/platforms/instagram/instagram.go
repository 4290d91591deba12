package instagram

import (
	"time"

	"github.com/sw33tLie/shortscroll/pkg/platforms"
)

const (
	HomeURL = "https://www.instagram.com/reels/"

	nextButton = `button[aria-label="Next"]`
	// Plain buttons only; labelled and typed ones are player controls.
	plainButtons = `button:not([aria-label]):not([type]):not([role])`
)

func Profile() platforms.Profile {
	return platforms.Profile{
		ID:           platforms.Instagram,
		HomeURL:      HomeURL,
		PollPeriod:   500 * time.Millisecond,
		EndTolerance: 0.5,
		Routes: []platforms.Route{
			{
				Name:         "reels",
				PathContains: []string{"/reels/"},
				Steps: []platforms.Step{
					{Kind: platforms.Click, Selector: nextButton},
					{Kind: platforms.Swipe, Direction: platforms.SwipeDown},
				},
			},
			{
				Name:         "stories",
				PathContains: []string{"/stories/"},
				Steps: []platforms.Step{
					{Kind: platforms.Click, Selector: nextButton},
				},
			},
			{
				Name: "feed",
				Steps: []platforms.Step{
					{Kind: platforms.Scroll, Fraction: 0.8, Continue: true},
					{Kind: platforms.ClickText, Selector: plainButtons, Texts: []string{"load more"}},
				},
			},
		},
	}
}
