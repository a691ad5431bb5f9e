// Copyright © 2024 The ELPS authors

package cmd

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/luthersystems/jsviz/diagnostic"
	"github.com/luthersystems/jsviz/js"
	"github.com/spf13/viper"
)

func colorMode() diagnostic.ColorMode {
	return diagnostic.ParseColorMode(viper.GetString("color"))
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// reportFailure renders the error of a failed timeline to w and returns
// errFailed.  It returns nil when tl completed.
func reportFailure(w io.Writer, tl *js.Timeline) error {
	if !tl.Failed() {
		return nil
	}
	if err := newRenderer().RenderTimeline(w, tl); err != nil {
		log.Error("cannot render diagnostics", "err", err)
	}
	return errFailed
}
