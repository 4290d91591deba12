package runner

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sw33tLie/shortscroll/pkg/browser"
	"github.com/sw33tLie/shortscroll/pkg/clock"
	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/settings"
)

type fakeTab struct {
	id      string
	mu      sync.Mutex
	visited []string
	onLoad  []func(string)
	closed  bool
}

func (t *fakeTab) ID() string { return t.id }

func (t *fakeTab) Eval(context.Context, string, any) error {
	return errors.New("no page")
}
func (t *fakeTab) KeyDown(context.Context, dom.Key) error                  { return nil }
func (t *fakeTab) Touch(context.Context, dom.TouchPhase, dom.Point) error { return nil }

func (t *fakeTab) Navigate(_ context.Context, url string) error {
	t.mu.Lock()
	t.visited = append(t.visited, url)
	fns := append([]func(string){}, t.onLoad...)
	t.mu.Unlock()
	for _, fn := range fns {
		fn(url)
	}
	return nil
}

func (t *fakeTab) OnLoad(fn func(string)) {
	t.mu.Lock()
	t.onLoad = append(t.onLoad, fn)
	t.mu.Unlock()
}

func (t *fakeTab) Close() error {
	t.closed = true
	return nil
}

type fakeDriver struct {
	tabs []*fakeTab
}

func (d *fakeDriver) NewTab(context.Context) (browser.Tab, error) {
	t := &fakeTab{id: string(rune('a' + len(d.tabs)))}
	d.tabs = append(d.tabs, t)
	return t, nil
}

func (d *fakeDriver) Close() error { return nil }

type store map[platforms.ID]settings.Settings

func (s store) LoadSettings(_ context.Context, id platforms.ID) (settings.Settings, error) {
	if v, ok := s[id]; ok {
		return v, nil
	}
	return settings.Defaults(id), nil
}

func TestTargets(t *testing.T) {
	r := New(Config{URLs: []string{"https://www.youtube.com/shorts/x"}, Platforms: []platforms.ID{platforms.TikTok}})
	got, err := r.Targets()
	if err != nil {
		t.Fatalf("targets: %v", err)
	}
	want := []string{"https://www.youtube.com/shorts/x", "https://www.tiktok.com/foryou"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if _, err := New(Config{}).Targets(); err == nil {
		t.Fatalf("expected error with nothing to open")
	}
}

func TestRunStartsSessionsOnLoad(t *testing.T) {
	drv := &fakeDriver{}
	clk := clock.NewFake(time.Unix(0, 0))
	st := store{platforms.TikTok: {Enabled: true, IntervalSeconds: 3}}
	r := New(Config{
		Driver:    drv,
		Platforms: []platforms.ID{platforms.TikTok, platforms.YouTube},
		Store:     st,
		Clock:     clk,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for r.Hub().Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("sessions never attached, have %d", r.Hub().Len())
		}
		time.Sleep(5 * time.Millisecond)
	}

	statuses := r.Hub().Statuses()
	if statuses[0].Platform != platforms.TikTok || statuses[0].State != "interval" {
		t.Fatalf("tiktok tab should run on its interval, got %+v", statuses[0])
	}
	if statuses[1].Platform != platforms.YouTube || statuses[1].State != "idle" {
		t.Fatalf("youtube is disabled by default, got %+v", statuses[1])
	}

	// Navigating away from a supported site drops the session.
	drv.tabs[1].Navigate(context.Background(), "https://example.com/")
	if r.Hub().Len() != 1 {
		t.Fatalf("want 1 session after leaving youtube, got %d", r.Hub().Len())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.Hub().Len() != 0 || !drv.tabs[0].closed || !drv.tabs[1].closed {
		t.Fatalf("shutdown left sessions or tabs open")
	}
}

func TestStaleLoadDoesNotReplaceNewerSession(t *testing.T) {
	const (
		older = "https://www.tiktok.com/@a/video/1"
		newer = "https://www.tiktok.com/@a/video/2"
	)
	tests := []struct {
		name    string
		stale   string
		wantURL string
		wantLen int
	}{
		{"older supported page", older, newer, 1},
		{"older unsupported page", "https://example.com/", newer, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Config{Store: store{}, Clock: clock.NewFake(time.Unix(0, 0))})
			tab := &fakeTab{id: "a"}
			order := &loadOrder{}
			first, second := order.next(), order.next()

			// The handler of the second load finishes before the first.
			r.loaded(context.Background(), tab, newer, order, second)
			r.loaded(context.Background(), tab, tt.stale, order, first)

			statuses := r.Hub().Statuses()
			if len(statuses) != tt.wantLen {
				t.Fatalf("want %d sessions, got %d", tt.wantLen, len(statuses))
			}
			if statuses[0].URL != tt.wantURL {
				t.Fatalf("want session for %s, got %s", tt.wantURL, statuses[0].URL)
			}
			r.Hub().Close()
		})
	}
}

func TestWatchNumbersLoadsInOrder(t *testing.T) {
	r := New(Config{Store: store{}, Clock: clock.NewFake(time.Unix(0, 0))})
	tab := &fakeTab{id: "a"}
	ctx := context.Background()
	r.Watch(ctx, tab)

	urls := []string{
		"https://www.tiktok.com/@a/video/1",
		"https://www.youtube.com/shorts/x",
		"https://www.tiktok.com/@a/video/2",
	}
	for _, u := range urls {
		tab.Navigate(ctx, u)
	}
	statuses := r.Hub().Statuses()
	if len(statuses) != 1 || statuses[0].URL != urls[2] {
		t.Fatalf("want only the last page's session, got %+v", statuses)
	}
	r.Hub().Close()
}
