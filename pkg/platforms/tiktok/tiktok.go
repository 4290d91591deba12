package tiktok

import (
	"context"
	"time"

	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/viewport"
)

const (
	HomeURL = "https://www.tiktok.com/foryou"

	// ProgressSelector matches the player's progress fill.
	ProgressSelector = `[class*="progress-bar"]`
	// ProgressEnd is the fill ratio past which the item counts as finished.
	ProgressEnd = 0.95
)

func Profile() platforms.Profile {
	return platforms.Profile{
		ID:           platforms.TikTok,
		HomeURL:      HomeURL,
		PollPeriod:   500 * time.Millisecond,
		EndTolerance: 0.5,
		EndHeuristic: progressEnded,
		Routes: []platforms.Route{
			{
				Name:       "feed",
				PathExact:  []string{"/"},
				PathPrefix: []string{"/foryou", "/following"},
				Steps: []platforms.Step{
					{Kind: platforms.PressKey, Key: dom.ArrowDown},
				},
			},
			{
				Name:         "video",
				PathContains: []string{"/video/"},
				Steps: []platforms.Step{
					{Kind: platforms.Click, Selector: `button[data-e2e="arrow-right"]`},
					{Kind: platforms.Click, Selector: `[class*="arrow-right"]`},
					{Kind: platforms.Swipe, Direction: platforms.SwipeUp},
				},
			},
			{
				Name: "other",
				Steps: []platforms.Step{
					{Kind: platforms.ScrollToHidden, Selector: `[data-e2e="recommend-list-item-container"]`},
					{Kind: platforms.Scroll, Fraction: 1.0},
				},
			},
		},
	}
}

func progressEnded(ctx context.Context, doc dom.Document, vp dom.Viewport) (bool, error) {
	bars, err := doc.Progress(ctx, ProgressSelector)
	if err != nil {
		return false, err
	}
	for _, b := range bars {
		if viewport.IsInViewport(b.Rect, vp) && b.Ratio > ProgressEnd {
			return true, nil
		}
	}
	return false, nil
}
