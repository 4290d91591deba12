// Package browser drives real browser tabs for shortscroll sessions.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sw33tLie/shortscroll/pkg/dom"
	"github.com/sw33tLie/shortscroll/pkg/logging"
)

const (
	DefaultWidth  = 1280
	DefaultHeight = 900
)

var ErrUnknownDriver = errors.New("unknown browser driver")

// Tab is one page. Its Runtime methods run against the currently loaded
// document.
type Tab interface {
	dom.Runtime
	ID() string
	Navigate(ctx context.Context, url string) error
	// OnLoad registers fn to run, on its own goroutine, after every load
	// event with the URL of the new document.
	OnLoad(fn func(url string))
	Close() error
}

// Driver opens tabs in one browser instance.
type Driver interface {
	NewTab(ctx context.Context) (Tab, error)
	Close() error
}

type Options struct {
	Headless bool
	// Remote is a DevTools websocket URL of an already running browser.
	// When set nothing is launched.
	Remote      string
	UserDataDir string
	Width       int
	Height      int
	Log         logging.Logger
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	o.Log = logging.OrNop(o.Log)
	return o
}

// Drivers lists the accepted driver names.
var Drivers = []string{"chromedp", "playwright"}

// New starts the named driver.
func New(ctx context.Context, name string, opts Options) (Driver, error) {
	opts = opts.withDefaults()
	switch strings.ToLower(name) {
	case "", "chromedp", "cdp", "chrome":
		return newChromedp(ctx, opts)
	case "playwright", "pw":
		return newPlaywright(opts)
	}
	return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDriver, name, strings.Join(Drivers, ", "))
}

// loadHandlers is the OnLoad bookkeeping shared by both drivers.
type loadHandlers struct {
	fns []func(string)
}

func (h *loadHandlers) add(fn func(string)) { h.fns = append(h.fns, fn) }

func (h *loadHandlers) snapshot() []func(string) {
	return append([]func(string){}, h.fns...)
}
