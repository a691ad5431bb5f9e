// Copyright © 2024 The ELPS authors

package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/luthersystems/jsviz/diagnostic"
	"github.com/muesli/termenv"
)

// initLogger installs the default logger used by every command.  Logs go
// to stderr so they never mix with timelines written to stdout.
func initLogger(debug bool, color diagnostic.ColorMode) {
	log.SetDefault(log.NewWithOptions(os.Stderr,
		log.Options{
			ReportCaller:    debug,
			ReportTimestamp: false,
			Prefix:          "JSVIZ",
		}))

	log.SetLevel(log.WarnLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	switch color {
	case diagnostic.ColorAlways:
		log.SetColorProfile(termenv.ANSI256)
	case diagnostic.ColorNever:
		log.SetColorProfile(termenv.Ascii)
	}
}
