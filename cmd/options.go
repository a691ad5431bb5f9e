// Copyright © 2024 The ELPS authors

package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/luthersystems/jsviz/js"
)

// Option configures an exported command factory (LSPCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	config []js.Config
	logger *log.Logger
}

// WithInterpreterConfig appends interpreter options applied after the ones
// derived from flags and configuration files.
func WithInterpreterConfig(config ...js.Config) Option {
	return func(c *cmdConfig) { c.config = append(c.config, config...) }
}

// WithLogger sets the logger of the command.  The default logger is used
// otherwise.
func WithLogger(logger *log.Logger) Option {
	return func(c *cmdConfig) { c.logger = logger }
}

func (c *cmdConfig) resolveLogger() *log.Logger {
	if c.logger != nil {
		return c.logger
	}
	return log.Default()
}
