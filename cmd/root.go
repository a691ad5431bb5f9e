// Copyright © 2024 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/luthersystems/jsviz/js"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	colorFlag string
	verbose   bool
)

// errFailed is returned by commands that already reported their failure.
var errFailed = errors.New("failed")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jsviz",
	Short: "jsviz: step-recording JavaScript interpreter",
	Long: `jsviz runs a subset of JavaScript and records every meaningful step of
the execution together with a snapshot of the scope chain, the call stack
and the heap.  Recorded timelines can be printed, scrubbed interactively or
replayed in an editor through the Debug Adapter Protocol.

Getting started:
  jsviz run file.js                 Print the timeline of a program
  jsviz run -e 'let x = 1 + 2;'     Run an inline program
  jsviz run --format json file.js   Export the timeline as JSON
  jsviz run --dom file.js           Print the final DOM element state
  jsviz scrub file.js               Step through a timeline interactively
  jsviz debug --port 4711 file.js   Replay a timeline in a DAP client
  jsviz lsp                         Start the language server

Supported language:
  var/let/const with hoisting and the temporal dead zone, function
  declarations and expressions, closures, if/else, for and while loops,
  arithmetic, comparison and logical operators, array and object literals,
  and document.getElementById/querySelector DOM writes.

Configuration is read from $HOME/.jsviz.yaml and JSVIZ_* environment
variables (for example JSVIZ_MAX_STEPS=5000).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		initLogger(viper.GetBool("verbose"), colorMode())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.jsviz.yaml)")
	flags.StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")
	flags.Int("max-iterations", js.DefaultMaxIterations, "Stop each loop after this many iterations")
	flags.Int("max-call-depth", js.DefaultMaxCallDepth, "Abort runs nesting more calls than this")
	flags.Int("max-steps", 0, "Abort runs recording more steps than this (0 = unlimited)")
	flags.String("trace", "none", `Trace function calls: "none", "otel", "opencensus", "pprof" or "callgrind"`)
	flags.String("trace-file", "callgrind.out.jsviz", "Output file of --trace callgrind")

	for _, name := range []string{"color", "verbose", "max-iterations", "max-call-depth", "max-steps", "trace", "trace-file"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".jsviz" (without extension).
			viper.AddConfigPath(home)
			viper.SetConfigName(".jsviz")
		}
	}

	viper.SetEnvPrefix("JSVIZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}
