// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/lsp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LSPCommand creates the "lsp" cobra command with optional embedder
// configuration.
func LSPCommand(opts ...Option) *cobra.Command {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}

	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the jsviz Language Server Protocol server",
		Long: `Start an LSP server for JavaScript source files.

Every open document is run through the step-recording interpreter.  Syntax
and runtime errors are published as diagnostics, hovering a line lists the
steps recorded on it, and document symbols, folding and go-to-definition
cover top-level declarations.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  jsviz lsp                          Start with stdio transport
  jsviz lsp --port 7998              Start with TCP on port 7998`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := cfg.resolveLogger()
			config := interpreterConfig(logger)
			if viper.GetInt("max-steps") == 0 {
				config = append(config, js.WithMaxSteps(lsp.DefaultMaxSteps))
			}
			config = append(config, cfg.config...)

			srv := lsp.New(
				lsp.WithLogger(logger),
				lsp.WithInterpreter(js.NewInterpreter(config...)),
			)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				logger.Info("jsviz LSP server listening", "addr", addr)
				return srv.RunTCP(addr)
			}
			return srv.RunStdio()
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
