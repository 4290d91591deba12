package utils

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"

	"github.com/sw33tLie/shortscroll/pkg/logging"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
)

var Log = logrus.New()

// SetLogLevel sets the level of Log. It errors on an unknown level string.
func SetLogLevel(level string) error {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		return fmt.Errorf("bad log level %q", level)
	}
	return nil
}

// TabLogger returns Log scoped to one browser tab.
func TabLogger(tabID string, platform platforms.ID) logging.Logger {
	return Log.WithFields(logrus.Fields{
		"tab":      tabID,
		"platform": string(platform),
	})
}
