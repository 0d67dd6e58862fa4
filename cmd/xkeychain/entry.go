package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/output"
)

// StoreFlags holds the flags for the store command
type StoreFlags struct {
	Identity IdentityFlags
	Secret   SecretFlags
	Label    string
	Comment  string
	Persist  string
}

// NewStoreCommand creates the store command
func NewStoreCommand(w *output.Writer) *cobra.Command {
	flags := &StoreFlags{}
	cmd := &cobra.Command{
		Use:   "store <service|ref>",
		Short: "Store a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(cmd, args, flags, w)
		},
	}
	addIdentityFlags(cmd, &flags.Identity)
	addSecretFlags(cmd, &flags.Secret)
	cmd.Flags().StringVar(&flags.Label, "label", "", "Item label (macOS, Secret Service)")
	cmd.Flags().StringVar(&flags.Comment, "comment", "", "Item comment (macOS, Windows)")
	cmd.Flags().StringVar(&flags.Persist, "persist", "", "Windows persistence: session|local|enterprise")
	return cmd
}

func runStore(cmd *cobra.Command, args []string, flags *StoreFlags, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr, w)
	if err != nil {
		return err
	}
	id, err := identityFromArgs(cmd, args[0], &flags.Identity)
	if err != nil {
		return err
	}
	persist, err := keychain.ParsePersist(flags.Persist)
	if err != nil {
		return errors.Wrap(errors.CodeInvalidIdentity, "invalid persistence", map[string]any{"persist": flags.Persist}, err)
	}
	secret, _, err := readSecret(cmd, &flags.Secret, true)
	if err != nil {
		return err
	}
	kc, err := openKeychain()
	if err != nil {
		return err
	}

	stored, err := kc.NewItem(id.Service, secret).
		Username(id.Username).
		Class(id.Class).
		Label(flags.Label).
		Comment(flags.Comment).
		Persist(persist).
		Store()
	if err != nil {
		return err
	}
	return w.WriteOK(format, newEntryResult(kc, stored))
}

// LoadFlags holds the flags for the load command
type LoadFlags struct {
	Identity IdentityFlags
	Raw      bool
}

type loadResult struct {
	entryResult `yaml:",inline"`
	Secret      string `json:"secret" yaml:"secret"`
}

// NewLoadCommand creates the load command
func NewLoadCommand(w *output.Writer) *cobra.Command {
	flags := &LoadFlags{}
	cmd := &cobra.Command{
		Use:   "load <service|ref>",
		Short: "Print a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, args, flags, w)
		},
	}
	addIdentityFlags(cmd, &flags.Identity)
	cmd.Flags().BoolVar(&flags.Raw, "raw", false, "Print only the secret, without the envelope")
	return cmd
}

func runLoad(cmd *cobra.Command, args []string, flags *LoadFlags, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr, w)
	if err != nil {
		return err
	}
	id, err := identityFromArgs(cmd, args[0], &flags.Identity)
	if err != nil {
		return err
	}
	kc, err := openKeychain()
	if err != nil {
		return err
	}
	secret, ok, err := kc.Load(id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.CodeNotFound, "no matching entry", map[string]any{"ref": id.Ref(), "backend": kc.Backend().Name()})
	}
	if flags.Raw {
		_, err := fmt.Fprintln(w.Out, secret)
		return err
	}
	return w.WriteOK(format, loadResult{entryResult: newEntryResult(kc, id), Secret: secret})
}

// UpdateFlags holds the flags for the update command
type UpdateFlags struct {
	Identity    IdentityFlags
	Secret      SecretFlags
	NewService  string
	NewUsername string
	NewClass    string
}

type updateResult struct {
	entryResult `yaml:",inline"`
	From        string `json:"from" yaml:"from"`
}

// NewUpdateCommand creates the update command
func NewUpdateCommand(w *output.Writer) *cobra.Command {
	flags := &UpdateFlags{}
	cmd := &cobra.Command{
		Use:   "update <service|ref>",
		Short: "Change the service, username, class or secret of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args, flags, w)
		},
	}
	addIdentityFlags(cmd, &flags.Identity)
	addSecretFlags(cmd, &flags.Secret)
	cmd.Flags().StringVar(&flags.NewService, "new-service", "", "Move the entry to another service")
	cmd.Flags().StringVar(&flags.NewUsername, "new-username", "", "Change the username; empty removes it")
	cmd.Flags().StringVar(&flags.NewClass, "new-class", "", "Change the class: generic|internet")
	return cmd
}

func runUpdate(cmd *cobra.Command, args []string, flags *UpdateFlags, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr, w)
	if err != nil {
		return err
	}
	id, err := identityFromArgs(cmd, args[0], &flags.Identity)
	if err != nil {
		return err
	}

	opts := keychain.NewUpdate()
	if cmd.Flags().Changed("new-service") {
		opts.Service(flags.NewService)
	}
	if cmd.Flags().Changed("new-username") {
		opts.Username(flags.NewUsername)
	}
	if cmd.Flags().Changed("new-class") {
		c, err := keychain.ParseClass(flags.NewClass)
		if err != nil {
			return errors.Wrap(errors.CodeInvalidIdentity, "invalid class", map[string]any{"class": flags.NewClass}, err)
		}
		opts.Class(c)
	}
	secret, ok, err := readSecret(cmd, &flags.Secret, false)
	if err != nil {
		return err
	}
	if ok {
		opts.Secret(secret)
	}

	kc, err := openKeychain()
	if err != nil {
		return err
	}
	updated, err := kc.Update(id, opts)
	if err != nil {
		return err
	}
	return w.WriteOK(format, updateResult{entryResult: newEntryResult(kc, updated), From: id.Ref()})
}

type deleteResult struct {
	entryResult `yaml:",inline"`
	Deleted     bool `json:"deleted" yaml:"deleted"`
}

// NewDeleteCommand creates the delete command
func NewDeleteCommand(w *output.Writer) *cobra.Command {
	flags := &IdentityFlags{}
	cmd := &cobra.Command{
		Use:   "delete <service|ref>",
		Short: "Delete a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr, w)
			if err != nil {
				return err
			}
			id, err := identityFromArgs(cmd, args[0], flags)
			if err != nil {
				return err
			}
			kc, err := openKeychain()
			if err != nil {
				return err
			}
			if err := kc.Delete(id); err != nil {
				return err
			}
			return w.WriteOK(format, deleteResult{entryResult: newEntryResult(kc, id), Deleted: true})
		},
	}
	addIdentityFlags(cmd, flags)
	return cmd
}
