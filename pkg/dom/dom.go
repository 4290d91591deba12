// Package dom describes the slice of a host page that shortscroll reads and
// writes: query selectors, bounding rects, video state, clicks, scrolling and
// synthetic key/touch input.
package dom

import "context"

// Rect is an element's bounding client rect in CSS pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

// Viewport is the size of the visible region of the window.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a position in client coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is a snapshot of one match of a selector. Index is the position of
// the element in document.querySelectorAll(Selector) at snapshot time.
type Element struct {
	Selector string `json:"-"`
	Index    int    `json:"index"`
	Rect     Rect   `json:"rect"`
	Text     string `json:"text"`
}

// Video is a snapshot of a <video> element's playback state.
type Video struct {
	Rect        Rect    `json:"rect"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
	Ended       bool    `json:"ended"`
}

// Progress is a progress-indicator element and its fill ratio (0..1).
type Progress struct {
	Rect  Rect    `json:"rect"`
	Ratio float64 `json:"ratio"`
}

// Key describes a keyboard key for a synthetic key-down.
type Key struct {
	Key     string
	Code    string
	KeyCode int
}

// ArrowDown is the key most vertical feeds bind to "next".
var ArrowDown = Key{Key: "ArrowDown", Code: "ArrowDown", KeyCode: 40}

// TouchPhase is one phase of a synthetic touch gesture.
type TouchPhase string

const (
	TouchStart TouchPhase = "touchstart"
	TouchMove  TouchPhase = "touchmove"
	TouchEnd   TouchPhase = "touchend"
)

// Document is the host page as seen by the advance executor and the sensor.
// A query with no matches is not an error; it returns an empty slice.
type Document interface {
	// Path returns window.location.pathname.
	Path(ctx context.Context) (string, error)
	Viewport(ctx context.Context) (Viewport, error)
	Query(ctx context.Context, selector string) ([]Element, error)
	// Click clicks el, or its first descendant matching child when child is
	// non-empty. It reports false when the target no longer exists.
	Click(ctx context.Context, el Element, child string) (bool, error)
	ScrollBy(ctx context.Context, dy float64) error
	// ScrollIntoView centres el. It reports false when el no longer exists.
	ScrollIntoView(ctx context.Context, el Element) (bool, error)
	Videos(ctx context.Context) ([]Video, error)
	Progress(ctx context.Context, selector string) ([]Progress, error)
	KeyDown(ctx context.Context, k Key) error
	Touch(ctx context.Context, phase TouchPhase, p Point) error
}

// Runtime is what a browser driver has to provide for a ScriptDocument.
type Runtime interface {
	// Eval evaluates a JavaScript expression in the page and decodes its
	// JSON-serializable result into out (which may be nil).
	Eval(ctx context.Context, expr string, out any) error
	KeyDown(ctx context.Context, k Key) error
	Touch(ctx context.Context, phase TouchPhase, p Point) error
}
