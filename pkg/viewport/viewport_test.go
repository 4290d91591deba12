package viewport

import (
	"testing"

	"github.com/sw33tLie/shortscroll/pkg/dom"
)

func TestIsInViewport(t *testing.T) {
	vp := dom.Viewport{Width: 1000, Height: 800}
	tests := []struct {
		name string
		rect dom.Rect
		want bool
	}{
		{"inside", dom.Rect{Top: 10, Left: 10, Bottom: 100, Right: 100}, true},
		{"touching all edges", dom.Rect{Top: 0, Left: 0, Bottom: 800, Right: 1000}, true},
		{"above", dom.Rect{Top: -1, Left: 0, Bottom: 100, Right: 100}, false},
		{"left of", dom.Rect{Top: 0, Left: -0.5, Bottom: 100, Right: 100}, false},
		{"partially below", dom.Rect{Top: 700, Left: 0, Bottom: 801, Right: 100}, false},
		{"partially right", dom.Rect{Top: 0, Left: 900, Bottom: 100, Right: 1001}, false},
		{"fully below", dom.Rect{Top: 900, Left: 0, Bottom: 1000, Right: 100}, false},
		{"zero size at origin", dom.Rect{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInViewport(tt.rect, vp); got != tt.want {
				t.Fatalf("IsInViewport(%+v) = %v, want %v", tt.rect, got, tt.want)
			}
		})
	}
}
