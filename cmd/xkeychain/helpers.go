package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zx06/xkeychain/internal/app"
	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/log"
	"github.com/zx06/xkeychain/internal/output"
)

// parseOutputFormat parses and validates the output format string
func parseOutputFormat(s string, w *output.Writer) (output.Format, error) {
	f, xe := output.Parse(s, w.Out)
	if xe != nil {
		return "", xe
	}
	return f, nil
}

// resolveFormatForError resolves the format for error output
func resolveFormatForError(s string, w *output.Writer) output.Format {
	f := output.Format(s)
	if !output.IsValid(f) {
		f = output.FormatAuto
	}
	return output.Resolve(f, w.Out)
}

// normalizeErr normalizes any error to XError
func normalizeErr(err error) *errors.XError {
	if xe, ok := errors.As(err); ok {
		return xe
	}
	return errors.Wrap(errors.CodeInternal, err.Error(), nil, err)
}

func logger() *slog.Logger {
	if GlobalConfig.Logger == nil {
		return log.Discard()
	}
	return GlobalConfig.Logger
}

func openKeychain() (*keychain.Keychain, error) {
	kc, xe := app.OpenKeychain(GlobalConfig.Resolved, logger())
	if xe != nil {
		return nil, xe
	}
	return kc, nil
}

// IdentityFlags select an entry next to the positional service or ref.
type IdentityFlags struct {
	Username string
	Class    string
}

func addIdentityFlags(cmd *cobra.Command, f *IdentityFlags) {
	cmd.Flags().StringVarP(&f.Username, "username", "u", "", "Account name; omit for none")
	cmd.Flags().StringVar(&f.Class, "class", "generic", "Credential class: generic|internet")
}

// identityFromArgs reads a keychain: ref or a bare service name. Flags that
// were set explicitly override the parts of a ref.
func identityFromArgs(cmd *cobra.Command, arg string, f *IdentityFlags) (keychain.Identity, error) {
	var id keychain.Identity
	if keychain.IsRef(arg) {
		parsed, err := keychain.ParseRef(arg)
		if err != nil {
			return keychain.Identity{}, errors.Wrap(errors.CodeInvalidIdentity, "invalid keychain reference", map[string]any{"ref": arg}, err)
		}
		id = parsed
	} else {
		id.Service = arg
	}
	if !keychain.IsRef(arg) || cmd.Flags().Changed("username") {
		id.Username = f.Username
	}
	if !keychain.IsRef(arg) || cmd.Flags().Changed("class") {
		c, err := keychain.ParseClass(f.Class)
		if err != nil {
			return keychain.Identity{}, errors.Wrap(errors.CodeInvalidIdentity, "invalid class", map[string]any{"class": f.Class}, err)
		}
		id.Class = c
	}
	if err := id.Validate(); err != nil {
		return keychain.Identity{}, errors.Wrap(errors.CodeInvalidIdentity, "invalid identity", nil, err)
	}
	return id, nil
}

// SecretFlags choose where a secret comes from.
type SecretFlags struct {
	Secret string
	Stdin  bool
}

func addSecretFlags(cmd *cobra.Command, f *SecretFlags) {
	cmd.Flags().StringVar(&f.Secret, "secret", "", "Secret value (visible in process lists; prefer --secret-stdin)")
	cmd.Flags().BoolVar(&f.Stdin, "secret-stdin", false, "Read the secret from stdin")
}

// readSecret returns the secret and whether one was given. With prompt set
// and neither flag used, an interactive stdin is prompted without echo.
func readSecret(cmd *cobra.Command, f *SecretFlags, prompt bool) (string, bool, error) {
	secretSet := cmd.Flags().Changed("secret")
	if secretSet && f.Stdin {
		return "", false, errors.New(errors.CodeInvalidIdentity, "--secret and --secret-stdin are mutually exclusive", nil)
	}
	switch {
	case secretSet:
		return f.Secret, true, nil
	case f.Stdin:
		s, err := readLine(cmd.InOrStdin())
		if err != nil {
			return "", false, errors.Wrap(errors.CodeInternal, "failed to read secret from stdin", nil, err)
		}
		return s, true, nil
	case prompt:
		in, ok := cmd.InOrStdin().(*os.File)
		if !ok || !term.IsTerminal(int(in.Fd())) {
			return "", false, errors.New(errors.CodeInvalidIdentity, "no secret given; use --secret, --secret-stdin or run on a terminal", nil)
		}
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Secret: ")
		b, err := term.ReadPassword(int(in.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", false, errors.Wrap(errors.CodeInternal, "failed to read secret", nil, err)
		}
		return string(b), true, nil
	default:
		return "", false, nil
	}
}

// readLine reads up to the first newline, dropping the line ending.
func readLine(r io.Reader) (string, error) {
	s, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

// entryResult is what the entry commands print.
type entryResult struct {
	keychain.OwnedIdentity `yaml:",inline"`
	Ref                    string `json:"ref" yaml:"ref"`
	Backend                string `json:"backend" yaml:"backend"`
}

func newEntryResult(kc *keychain.Keychain, id keychain.Identity) entryResult {
	return entryResult{OwnedIdentity: id.Owned(), Ref: id.Ref(), Backend: kc.Backend().Name()}
}
