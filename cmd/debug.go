// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/luthersystems/jsviz/js/x/debugger/dapserver"
	"github.com/spf13/cobra"
)

var (
	debugPort  int
	debugStdio bool
)

var debugCmd = &cobra.Command{
	Use:   "debug [flags] file.js",
	Short: "Replay a timeline in a DAP client",
	Long: `Run a program and serve its recorded timeline over the Debug Adapter
Protocol.  Editors (VS Code, Neovim, Helix, etc.) can step through the
replay forward and backward (stepBack, reverseContinue), inspect scopes
and expand heap objects.  The program has finished running before the
client connects, so every step is available immediately.

Transport modes:
  --port N     Listen for a DAP client on TCP port N (default: 4711)
  --stdio      Use stdin/stdout for DAP communication (for editors that
               launch the debug adapter as a child process)

Examples:
  jsviz debug counter.js                 Debug with TCP on port 4711
  jsviz debug --port 9229 counter.js     Debug with TCP on port 9229
  jsviz debug --stdio counter.js         Debug with stdio transport`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, src, err := readSource(args, "", cmd.InOrStdin())
		if err != nil {
			return err
		}
		tl, err := runSource(cmd.Context(), name, src)
		if err != nil {
			return err
		}
		if tl.Failed() {
			// The client still gets the failed run as an exception stop.
			_ = reportFailure(cmd.ErrOrStderr(), tl)
		}

		path, err := filepath.Abs(name)
		if err != nil {
			path = name
		}
		srv := dapserver.New(tl,
			dapserver.WithLogger(log.Default()),
			dapserver.WithSourcePath(path),
		)

		if debugStdio {
			log.Info("DAP debugger: using stdio transport")
			return srv.ServeStdio(os.Stdin, os.Stdout)
		}
		return srv.ServeTCP(fmt.Sprintf("localhost:%d", debugPort))
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)

	debugCmd.Flags().IntVar(&debugPort, "port", 4711,
		"TCP port for DAP server (default: 4711)")
	debugCmd.Flags().BoolVar(&debugStdio, "stdio", false,
		"Use stdin/stdout for DAP communication")
}
