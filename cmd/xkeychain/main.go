package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zx06/xkeychain/internal/app"
	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/output"
)

func main() {
	exit := run()
	os.Exit(exit)
}

// run is the main entry point
func run() int {
	a := app.New(version, commit, date)
	w := output.New(os.Stdout, os.Stderr)
	return execute(NewCLI(&a, &w), &w)
}

// execute runs root and prints any error through the envelope.
func execute(root *cobra.Command, w *output.Writer) int {
	if err := root.Execute(); err != nil {
		xe := normalizeErr(err)
		format := resolveFormatForError(GlobalConfig.FormatStr, w)
		_ = w.WriteError(format, xe)
		return int(errors.ExitCodeFor(xe.Code))
	}
	return int(errors.ExitOK)
}
