package facebook

import (
	"time"

	"github.com/sw33tLie/shortscroll/pkg/platforms"
)

const HomeURL = "https://www.facebook.com/reel/"

func Profile() platforms.Profile {
	return platforms.Profile{
		ID:           platforms.Facebook,
		HomeURL:      HomeURL,
		PollPeriod:   500 * time.Millisecond,
		EndTolerance: 0.5,
		Routes: []platforms.Route{
			{
				Name:         "reels",
				PathContains: []string{"/reel/", "/stories/"},
				Steps: []platforms.Step{
					{Kind: platforms.Click, Selector: `div[aria-label="Next"]`},
					{Kind: platforms.Click, Selector: `div[aria-label="Next item"], div[aria-label="Next story"]`},
					{Kind: platforms.Swipe, Direction: platforms.SwipeUp},
				},
			},
			{
				Name:         "watch",
				PathContains: []string{"/watch/"},
				Steps: []platforms.Step{
					{Kind: platforms.ScrollToHidden, Selector: `div[data-pagelet="MainFeed"] div[role="article"]`},
					{Kind: platforms.Scroll, Fraction: 0.8},
				},
			},
			{
				Name: "feed",
				Steps: []platforms.Step{
					{Kind: platforms.Scroll, Fraction: 0.8, Continue: true},
					{Kind: platforms.ClickText, Selector: `div[role="button"]`, Texts: []string{"see more", "show more"}},
				},
			},
		},
	}
}
