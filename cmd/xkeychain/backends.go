package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/xkeychain/internal/app"
	"github.com/zx06/xkeychain/internal/output"
)

// NewBackendsCommand creates the backends command
func NewBackendsCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List credential stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr, w)
			if err != nil {
				return err
			}
			list, xe := app.Backends(GlobalConfig.Resolved, logger())
			if xe != nil {
				return xe
			}
			return w.WriteOK(format, list)
		},
	}
}
