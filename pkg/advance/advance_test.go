package advance

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/dom/htmldoc"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/platforms/facebook"
	"github.com/sw33tLie/shortscroll/pkg/platforms/instagram"
	"github.com/sw33tLie/shortscroll/pkg/platforms/tiktok"
	"github.com/sw33tLie/shortscroll/pkg/platforms/youtube"
)

func page(path, body string) string {
	return `<html data-path="` + path + `" data-viewport="400,600"><body>` + body + `</body></html>`
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestExecuteRoutes(t *testing.T) {
	const plainButtons = `button:not([aria-label]):not([type]):not([role])`
	tests := []struct {
		name    string
		profile platforms.Profile
		html    string
		actions []string
		outcome Outcome
	}{
		{
			name:    "youtube shorts presses arrow down",
			profile: youtube.Profile(),
			html:    page("/shorts/abc", ``),
			actions: []string{"key ArrowDown"},
			outcome: Outcome{Route: "shorts", Step: "key ArrowDown"},
		},
		{
			name:    "youtube opens first visible recommendation",
			profile: youtube.Profile(),
			html: page("/watch", `
				<ytd-compact-video-renderer data-rect="700,0,800,400"><a id="thumbnail"></a></ytd-compact-video-renderer>
				<ytd-compact-video-renderer data-rect="100,0,200,400"><a id="thumbnail"></a></ytd-compact-video-renderer>`),
			actions: []string{"click ytd-compact-video-renderer, ytd-video-renderer[1] a#thumbnail"},
			outcome: Outcome{Route: "watch", Step: "click-visible ytd-compact-video-renderer, ytd-video-renderer a#thumbnail"},
		},
		{
			name:    "youtube scrolls 500px when recommendations are off screen",
			profile: youtube.Profile(),
			html:    page("/watch", `<ytd-video-renderer data-rect="700,0,800,400"><a id="thumbnail"></a></ytd-video-renderer>`),
			actions: []string{"scroll 500"},
			outcome: Outcome{Route: "watch", Step: "scroll 500px"},
		},
		{
			name:    "youtube without recommendations falls back",
			profile: youtube.Profile(),
			html:    page("/watch", ``),
			actions: []string{"scroll 600"},
			outcome: Outcome{Route: "watch", Fallback: true},
		},
		{
			name:    "instagram reels clicks next",
			profile: instagram.Profile(),
			html:    page("/reels/C1/", `<button aria-label="Next"></button>`),
			actions: []string{`click button[aria-label="Next"][0]`},
			outcome: Outcome{Route: "reels", Step: `click button[aria-label="Next"]`},
		},
		{
			name:    "instagram reels swipes down without a button",
			profile: instagram.Profile(),
			html:    page("/reels/C1/", ``),
			actions: []string{"touchstart 200,200", "touchmove 200,400", "touchend 200,400"},
			outcome: Outcome{Route: "reels", Step: "swipe down"},
		},
		{
			name:    "instagram stories without a button falls back",
			profile: instagram.Profile(),
			html:    page("/stories/someone/1/", ``),
			actions: []string{"scroll 600"},
			outcome: Outcome{Route: "stories", Fallback: true},
		},
		{
			name:    "instagram feed scrolls then loads more",
			profile: instagram.Profile(),
			html: page("/", `
				<button type="submit" data-rect="10,0,40,100">Load more</button>
				<button data-rect="10,0,40,100">Load more posts</button>`),
			actions: []string{"scroll 480", "click " + plainButtons + "[0]"},
			outcome: Outcome{Route: "feed", Step: "click-text " + plainButtons},
		},
		{
			name:    "instagram feed scroll alone counts as an advance",
			profile: instagram.Profile(),
			html:    page("/", `<button data-rect="900,0,940,100">Load more</button>`),
			actions: []string{"scroll 480"},
			outcome: Outcome{Route: "feed", Step: "scroll 0.8vh"},
		},
		{
			name:    "facebook reel uses next story when next is missing",
			profile: facebook.Profile(),
			html:    page("/reel/123", `<div aria-label="Next story"></div>`),
			actions: []string{`click div[aria-label="Next item"], div[aria-label="Next story"][0]`},
			outcome: Outcome{Route: "reels", Step: `click div[aria-label="Next item"], div[aria-label="Next story"]`},
		},
		{
			name:    "facebook watch scrolls the next article into view",
			profile: facebook.Profile(),
			html: page("/watch/", `<div data-pagelet="MainFeed">
				<div role="article" data-rect="0,0,500,400"></div>
				<div role="article" data-rect="500,0,1000,400"></div></div>`),
			actions: []string{`scrollIntoView div[data-pagelet="MainFeed"] div[role="article"][1]`},
			outcome: Outcome{Route: "watch", Step: `scroll-to-hidden div[data-pagelet="MainFeed"] div[role="article"]`},
		},
		{
			name:    "facebook feed clicks see more",
			profile: facebook.Profile(),
			html:    page("/groups/x", `<div role="button" data-rect="0,0,20,100">See More</div>`),
			actions: []string{"scroll 480", `click div[role="button"][0]`},
			outcome: Outcome{Route: "feed", Step: `click-text div[role="button"]`},
		},
		{
			name:    "tiktok for you presses arrow down",
			profile: tiktok.Profile(),
			html:    page("/foryou", ``),
			actions: []string{"key ArrowDown"},
			outcome: Outcome{Route: "feed", Step: "key ArrowDown"},
		},
		{
			name:    "tiktok video prefers the generic arrow over a swipe",
			profile: tiktok.Profile(),
			html:    page("/@a/video/1", `<div class="css-arrow-right-x"></div>`),
			actions: []string{`click [class*="arrow-right"][0]`},
			outcome: Outcome{Route: "video", Step: `click [class*="arrow-right"]`},
		},
		{
			name:    "tiktok video swipes up",
			profile: tiktok.Profile(),
			html:    page("/@a/video/1", ``),
			actions: []string{"touchstart 200,400", "touchmove 200,200", "touchend 200,200"},
			outcome: Outcome{Route: "video", Step: "swipe up"},
		},
		{
			name:    "tiktok explore scrolls one screen",
			profile: tiktok.Profile(),
			html:    page("/explore", ``),
			actions: []string{"scroll 600"},
			outcome: Outcome{Route: "other", Step: "scroll 1vh"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := htmldoc.ParseString(tt.html)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			e := New(Config{Doc: doc, Profile: tt.profile, Sleep: noSleep})
			got := e.Execute(context.Background())
			if got != tt.outcome {
				t.Fatalf("unexpected outcome.\nwant: %+v\ngot:  %+v", tt.outcome, got)
			}
			if acts := doc.Actions(); !reflect.DeepEqual(acts, tt.actions) {
				t.Fatalf("unexpected actions.\nwant: %#v\ngot:  %#v", tt.actions, acts)
			}
		})
	}
}

func TestSwipeDelay(t *testing.T) {
	doc, err := htmldoc.ParseString(page("/@a/video/1", ``))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var waits []time.Duration
	e := New(Config{
		Doc:     doc,
		Profile: tiktok.Profile(),
		Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	})
	e.Advance(context.Background())

	want := []time.Duration{DefaultGestureDelay, DefaultGestureDelay}
	if !reflect.DeepEqual(waits, want) {
		t.Fatalf("want waits %v, got %v", want, waits)
	}
}

// brokenDoc fails every query.
type brokenDoc struct {
	*htmldoc.Document
}

func (brokenDoc) Query(context.Context, string) ([]dom.Element, error) {
	return nil, errors.New("execution context was destroyed")
}

func TestDOMErrorsFallBack(t *testing.T) {
	doc, err := htmldoc.ParseString(page("/reel/1", `<div aria-label="Next"></div>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := facebook.Profile()
	// Leave only the click steps so every probe errors.
	p.Routes[0].Steps = p.Routes[0].Steps[:2]

	out := New(Config{Doc: brokenDoc{doc}, Profile: p, Sleep: noSleep}).Execute(context.Background())
	if !out.Fallback {
		t.Fatalf("expected fallback scroll, got %+v", out)
	}
	if acts := doc.Actions(); !reflect.DeepEqual(acts, []string{"scroll 600"}) {
		t.Fatalf("unexpected actions %#v", acts)
	}
}

// staleDoc loses every element between Query and ScrollIntoView.
type staleDoc struct {
	*htmldoc.Document
}

func (staleDoc) ScrollIntoView(context.Context, dom.Element) (bool, error) {
	return false, nil
}

func TestScrollToVanishedElementFallsThrough(t *testing.T) {
	doc, err := htmldoc.ParseString(page("/explore",
		`<div data-e2e="recommend-list-item-container" data-rect="700,0,900,400"></div>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := New(Config{Doc: staleDoc{doc}, Profile: tiktok.Profile(), Sleep: noSleep}).Execute(context.Background())
	want := Outcome{Route: "other", Step: "scroll 1vh"}
	if out != want {
		t.Fatalf("unexpected outcome.\nwant: %+v\ngot:  %+v", want, out)
	}
	if acts := doc.Actions(); !reflect.DeepEqual(acts, []string{"scroll 600"}) {
		t.Fatalf("unexpected actions %#v", acts)
	}
}

func TestSwipeAbortsOnCancel(t *testing.T) {
	doc, err := htmldoc.ParseString(page("/@a/video/1", ``))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	New(Config{Doc: doc, Profile: tiktok.Profile()}).Execute(ctx)
	for _, a := range doc.Actions() {
		if a == "touchend 200,200" {
			t.Fatalf("swipe should not complete after cancel, got %v", doc.Actions())
		}
	}
}
