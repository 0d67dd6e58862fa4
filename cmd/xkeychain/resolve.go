package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/xkeychain/internal/output"
	"github.com/zx06/xkeychain/internal/secret"
)

// NewResolveCommand creates the resolve command
func NewResolveCommand(w *output.Writer) *cobra.Command {
	var allowPlaintext bool
	cmd := &cobra.Command{
		Use:   "resolve <value>",
		Short: "Resolve a keychain: reference or plaintext value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr, w)
			if err != nil {
				return err
			}
			opts := secret.Options{AllowPlaintext: allowPlaintext}
			if secret.IsRef(args[0]) {
				kc, err := openKeychain()
				if err != nil {
					return err
				}
				opts.Loader = kc
			}
			val, xe := secret.Resolve(args[0], opts)
			if xe != nil {
				return xe
			}
			return w.WriteOK(format, map[string]any{"value": val, "ref": secret.IsRef(args[0])})
		},
	}
	cmd.Flags().BoolVar(&allowPlaintext, "allow-plaintext", false, "Pass non-reference values through")
	return cmd
}
