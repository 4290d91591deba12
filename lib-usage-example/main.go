package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sw33tLie/shortscroll/pkg/browser"
	"github.com/sw33tLie/shortscroll/pkg/control"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/runner"
	"github.com/sw33tLie/shortscroll/pkg/session"
	"github.com/sw33tLie/shortscroll/pkg/settings"
)

// fixedSettings enables every platform with the given strategy, without a
// database.
type fixedSettings struct {
	detect   bool
	interval int
}

func (f fixedSettings) LoadSettings(_ context.Context, id platforms.ID) (settings.Settings, error) {
	s := settings.Defaults(id)
	s.Enabled = true
	s.DetectVideoEnd = f.detect
	s.IntervalSeconds = f.interval
	return s, nil
}

func main() {
	// Usage: go run *.go -platform tiktok -interval 5 -for 2m

	platformFlag := flag.String("platform", "tiktok", "Platform to scroll")
	intervalFlag := flag.Int("interval", 0, "Advance every N seconds instead of waiting for the video to end")
	forFlag := flag.Duration("for", 2*time.Minute, "How long to scroll before exiting")

	// Parse the command-line flags
	flag.Parse()

	id, err := platforms.Parse(*platformFlag)
	if err != nil {
		fmt.Println(err)
		return
	}

	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *forFlag)
	defer cancel()

	driver, err := browser.New(ctx, "chromedp", browser.Options{Log: log})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer driver.Close()

	hub := session.NewHub()
	r := runner.New(runner.Config{
		Driver:    driver,
		Platforms: []platforms.ID{id},
		Hub:       hub,
		Store:     fixedSettings{detect: *intervalFlag <= 0, interval: *intervalFlag},
		Log:       log,
	})

	// Halfway through, switch to a 3 second per-item timer the same way
	// "shortscroll ctl" would.
	time.AfterFunc(*forFlag/2, func() {
		for _, s := range hub.Statuses() {
			fmt.Printf("%s %s: %d advances so far\n", s.TabID, s.Platform, s.Advances)
		}
		n := hub.Dispatch(control.Message{
			Platform: id,
			Action:   control.Update,
			Override: settings.Override{
				DetectVideoEnd:     settings.Bool(false),
				ScrollAfterSeconds: settings.Int(3),
			},
		})
		log.Infof("Switched %d tab(s) to a 3s timer", n)
	})

	if err := r.Run(ctx); err != nil {
		fmt.Println(err)
	}
}
