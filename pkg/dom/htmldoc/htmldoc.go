// Package htmldoc is a dom.Document over a static HTML snapshot. Layout is
// not computed: geometry and media state come from data attributes.
//
//	<html data-path="/shorts/abc" data-viewport="1280,720">
//	<video data-rect="0,0,720,400" data-current-time="9.6" data-duration="10"></video>
//	<div class="progress-bar" data-rect="0,0,10,10" data-ratio="0.97"></div>
//
// Elements without data-rect report a zero rect. Every mutating call is
// appended to an action log instead of changing the snapshot.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sw33tLie/shortscroll/pkg/dom"
)

// DefaultViewport is used when the snapshot has no data-viewport.
var DefaultViewport = dom.Viewport{Width: 1280, Height: 720}

type Document struct {
	mu      sync.Mutex
	doc     *goquery.Document
	actions []string
}

// Parse reads an HTML snapshot.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html snapshot: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Replace swaps the snapshot while keeping the action log.
func (d *Document) Replace(r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("parse html snapshot: %w", err)
	}
	d.mu.Lock()
	d.doc = goquery.NewDocumentFromNode(root)
	d.mu.Unlock()
	return nil
}

// Actions returns the recorded mutating calls, oldest first.
func (d *Document) Actions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.actions...)
}

// Reset clears the action log.
func (d *Document) Reset() {
	d.mu.Lock()
	d.actions = nil
	d.mu.Unlock()
}

func (d *Document) record(format string, args ...any) {
	d.mu.Lock()
	d.actions = append(d.actions, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

func (d *Document) snapshot() *goquery.Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc
}

func (d *Document) Path(ctx context.Context) (string, error) {
	path, ok := d.snapshot().Find("html").Attr("data-path")
	if !ok || path == "" {
		return "/", nil
	}
	return path, nil
}

func (d *Document) Viewport(ctx context.Context) (dom.Viewport, error) {
	raw, ok := d.snapshot().Find("html").Attr("data-viewport")
	if !ok {
		return DefaultViewport, nil
	}
	nums, err := parseFloats(raw, 2)
	if err != nil {
		return dom.Viewport{}, fmt.Errorf("data-viewport: %w", err)
	}
	return dom.Viewport{Width: nums[0], Height: nums[1]}, nil
}

func (d *Document) Query(ctx context.Context, selector string) ([]dom.Element, error) {
	var (
		els  []dom.Element
		ferr error
	)
	d.snapshot().Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		r, err := rectOf(s)
		if err != nil {
			ferr = err
			return false
		}
		els = append(els, dom.Element{
			Selector: selector,
			Index:    i,
			Rect:     r,
			Text:     strings.TrimSpace(s.Text()),
		})
		return true
	})
	if ferr != nil {
		return nil, ferr
	}
	return els, nil
}

func (d *Document) Click(ctx context.Context, el dom.Element, child string) (bool, error) {
	s := d.snapshot().Find(el.Selector).Eq(el.Index)
	if s.Length() == 0 {
		return false, nil
	}
	if child != "" {
		if s.Find(child).Length() == 0 {
			return false, nil
		}
		d.record("click %s[%d] %s", el.Selector, el.Index, child)
		return true, nil
	}
	d.record("click %s[%d]", el.Selector, el.Index)
	return true, nil
}

func (d *Document) ScrollBy(ctx context.Context, dy float64) error {
	d.record("scroll %s", strconv.FormatFloat(dy, 'f', -1, 64))
	return nil
}

func (d *Document) ScrollIntoView(ctx context.Context, el dom.Element) (bool, error) {
	if d.snapshot().Find(el.Selector).Eq(el.Index).Length() == 0 {
		return false, nil
	}
	d.record("scrollIntoView %s[%d]", el.Selector, el.Index)
	return true, nil
}

func (d *Document) Videos(ctx context.Context) ([]dom.Video, error) {
	var (
		videos []dom.Video
		ferr   error
	)
	d.snapshot().Find("video").EachWithBreak(func(i int, s *goquery.Selection) bool {
		v, err := videoOf(s)
		if err != nil {
			ferr = fmt.Errorf("video %d: %w", i, err)
			return false
		}
		videos = append(videos, v)
		return true
	})
	if ferr != nil {
		return nil, ferr
	}
	return videos, nil
}

func (d *Document) Progress(ctx context.Context, selector string) ([]dom.Progress, error) {
	var (
		out  []dom.Progress
		ferr error
	)
	d.snapshot().Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		r, err := rectOf(s)
		if err != nil {
			ferr = err
			return false
		}
		ratio, err := floatAttr(s, "data-ratio")
		if err != nil {
			ferr = err
			return false
		}
		out = append(out, dom.Progress{Rect: r, Ratio: ratio})
		return true
	})
	if ferr != nil {
		return nil, ferr
	}
	return out, nil
}

func (d *Document) KeyDown(ctx context.Context, k dom.Key) error {
	d.record("key %s", k.Key)
	return nil
}

func (d *Document) Touch(ctx context.Context, phase dom.TouchPhase, p dom.Point) error {
	d.record("%s %s,%s", phase,
		strconv.FormatFloat(p.X, 'f', -1, 64),
		strconv.FormatFloat(p.Y, 'f', -1, 64))
	return nil
}

func rectOf(s *goquery.Selection) (dom.Rect, error) {
	raw, ok := s.Attr("data-rect")
	if !ok {
		return dom.Rect{}, nil
	}
	nums, err := parseFloats(raw, 4)
	if err != nil {
		return dom.Rect{}, fmt.Errorf("data-rect: %w", err)
	}
	return dom.Rect{Top: nums[0], Left: nums[1], Bottom: nums[2], Right: nums[3]}, nil
}

func videoOf(s *goquery.Selection) (dom.Video, error) {
	r, err := rectOf(s)
	if err != nil {
		return dom.Video{}, err
	}
	cur, err := floatAttr(s, "data-current-time")
	if err != nil {
		return dom.Video{}, err
	}
	dur, err := floatAttr(s, "data-duration")
	if err != nil {
		return dom.Video{}, err
	}
	_, ended := s.Attr("data-ended")
	return dom.Video{Rect: r, CurrentTime: cur, Duration: dur, Ended: ended}, nil
}

func floatAttr(s *goquery.Selection, name string) (float64, error) {
	raw, ok := s.Attr(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", name, raw, err)
	}
	return f, nil
}

func parseFloats(raw string, n int) ([]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %q", n, raw)
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", p, err)
		}
		out[i] = f
	}
	return out, nil
}
