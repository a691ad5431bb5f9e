// Copyright © 2024 The ELPS authors

package cmd

import (
	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/render"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	runExpression string
	runDOM        bool
	runFinal      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] [file.js | -]",
	Short: "Run a program and print its timeline",
	Long: `Run a JavaScript program supplied via the command line, a file or
standard input ("-") and print the recorded timeline.

Errors are reported as annotated source snippets on stderr and make the
command exit with status 1.

Examples:
  jsviz run counter.js
  jsviz run --format yaml counter.js
  jsviz run --final -e 'let a = [1, 2]; let b = a;'
  jsviz run --dom page.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseFormat(viper.GetString("format"))
		if err != nil {
			return err
		}
		name, src, err := readSource(args, runExpression, cmd.InOrStdin())
		if err != nil {
			return err
		}
		tl, err := runSource(cmd.Context(), name, src)
		if err != nil {
			return err
		}
		if tl.Failed() {
			return reportFailure(cmd.ErrOrStderr(), tl)
		}
		return printTimeline(cmd, tl, format)
	},
}

func printTimeline(cmd *cobra.Command, tl *js.Timeline, format render.Format) error {
	out := cmd.OutOrStdout()
	switch {
	case runDOM:
		return render.DOM(out, tl, format)
	case runFinal:
		return render.Steps(out, tl.Steps[tl.Len()-1:], format)
	}
	return render.Timeline(out, tl, format)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runExpression, "expression", "e", "",
		"Run the given source instead of a file")
	runCmd.Flags().StringP("format", "f", "text",
		`Output format: "text", "json" or "yaml"`)
	runCmd.Flags().BoolVar(&runDOM, "dom", false,
		"Print the final state of DOM elements written by the program")
	runCmd.Flags().BoolVar(&runFinal, "final", false,
		"Print only the last step")
	_ = viper.BindPFlag("format", runCmd.Flags().Lookup("format"))
}
