// Copyright © 2024 The ELPS authors

package cmd

import (
	"github.com/luthersystems/jsviz/scrubber"
	"github.com/spf13/cobra"
)

var scrubPrompt string

var scrubCmd = &cobra.Command{
	Use:   "scrub [flags] file.js",
	Short: "Step through a recorded timeline interactively",
	Long: `Run a program and open an interactive prompt that moves through the
recorded timeline in either direction.

Commands:
  n [COUNT]   next step           p        previous step
  o           step over calls     u        step out of the current call
  g N         go to step N        c, rc    continue forward / backward
  b [LINE]    toggle or list breakpoints
  scope       scope chain         heap     heap objects
  stack       call stack          list     source around the current line
  dom         DOM elements        q        quit`,
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
		failure := reportFailure(cmd.ErrOrStderr(), tl)
		if err := scrubber.Run(tl, scrubPrompt, scrubber.WithStdout(cmd.OutOrStdout())); err != nil {
			return err
		}
		return failure
	},
}

func init() {
	rootCmd.AddCommand(scrubCmd)

	scrubCmd.Flags().StringVar(&scrubPrompt, "prompt", scrubber.DefaultPrompt, "Prompt shown before each command")
}
