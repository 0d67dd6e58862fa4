package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/xkeychain/internal/app"
	"github.com/zx06/xkeychain/internal/output"
)

// NewDescribeCommand creates the describe command
func NewDescribeCommand(a *app.App, w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Describe commands and error codes for tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr, w)
			if err != nil {
				return err
			}
			return w.WriteOK(format, a.Describe())
		},
	}
}
