package platforms

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{"youtube", YouTube, false},
		{" TikTok ", TikTok, false},
		{"Instagram", Instagram, false},
		{"facebook", Facebook, false},
		{"myspace", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownPlatform) {
				t.Fatalf("Parse(%q): want ErrUnknownPlatform, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("Parse(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestDefaultInterval(t *testing.T) {
	want := map[ID]int{YouTube: 10, Instagram: 5, Facebook: 8, TikTok: 3}
	for _, id := range All {
		if got := id.DefaultInterval(); got != want[id] {
			t.Fatalf("%s: want default interval %d, got %d", id, want[id], got)
		}
	}
}

func TestFromURL(t *testing.T) {
	tests := []struct {
		url     string
		want    ID
		wantErr bool
	}{
		{"https://www.youtube.com/shorts/abc", YouTube, false},
		{"https://m.youtube.com/watch?v=1", YouTube, false},
		{"https://youtu.be/xyz", YouTube, false},
		{"https://www.instagram.com/reels/C1/", Instagram, false},
		{"https://www.facebook.com/reel/123", Facebook, false},
		{"https://fb.com/watch/", Facebook, false},
		{"https://www.tiktok.com/foryou", TikTok, false},
		{"https://example.com/", "", true},
		{"about:blank", "", true},
	}
	for _, tt := range tests {
		got, err := FromURL(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("FromURL(%q): expected error, got %q", tt.url, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("FromURL(%q) = %q, %v; want %q", tt.url, got, err, tt.want)
		}
	}
}

func TestRouteMatches(t *testing.T) {
	r := Route{PathExact: []string{"/"}, PathPrefix: []string{"/foryou"}, PathContains: []string{"/video/"}}
	for path, want := range map[string]bool{
		"/":               true,
		"/foryou?lang=en": true,
		"/@me/video/123":  true,
		"/explore":        false,
		"/following":      false,
	} {
		if got := r.Matches(path); got != want {
			t.Fatalf("Matches(%q) = %v, want %v", path, got, want)
		}
	}
	if !(Route{}).Matches("/anything") {
		t.Fatalf("a route without predicates should match every path")
	}
}
