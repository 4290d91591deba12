// Package viewport decides whether an element is fully visible.
package viewport

import "github.com/sw33tLie/shortscroll/pkg/dom"

// IsInViewport reports whether r lies entirely inside vp. Touching an edge
// counts as inside; any overflow does not.
func IsInViewport(r dom.Rect, vp dom.Viewport) bool {
	return r.Top >= 0 &&
		r.Left >= 0 &&
		r.Bottom <= vp.Height &&
		r.Right <= vp.Width
}
