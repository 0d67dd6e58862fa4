// Package platform picks the credential store for the running host.
package platform

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/keychain/filestore"
	"github.com/zx06/xkeychain/internal/keychain/gokeyring"
	"github.com/zx06/xkeychain/internal/keychain/macos"
	"github.com/zx06/xkeychain/internal/keychain/secretservice"
	"github.com/zx06/xkeychain/internal/keychain/wincred"
	"github.com/zx06/xkeychain/internal/log"
)

const (
	Auto          = "auto"
	MacOS         = "keychain"
	SecretService = "secret-service"
	WinCred       = "wincred"
	File          = "file"
	GoKeyring     = "keyring"
)

// Names lists every backend accepted by Open.
func Names() []string {
	return []string{Auto, MacOS, SecretService, WinCred, File, GoKeyring}
}

type Options struct {
	File          filestore.Options
	SecretService secretservice.Options
	Logger        *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return log.Discard()
	}
	return o.Logger
}

// secretServiceAvailable is swapped out by tests.
var secretServiceAvailable = secretservice.Available

// Open returns the backend called name. "auto" and "" select the native
// store for this OS.
func Open(name string, opts Options) (keychain.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Auto:
		return Default(opts), nil
	case MacOS:
		return macos.New(), nil
	case SecretService:
		return secretservice.New(opts.SecretService), nil
	case WinCred:
		return wincred.New(), nil
	case File:
		return filestore.New(opts.File), nil
	case GoKeyring:
		return gokeyring.New(), nil
	default:
		return nil, errors.New(errors.CodeCfgInvalid, fmt.Sprintf("unknown backend %q", name),
			map[string]any{"backend": name, "allowed": Names()})
	}
}

// Default returns the native store for this OS. On Linux it falls back to
// the file store when no Secret Service answers on the session bus.
func Default(opts Options) keychain.Backend {
	return native(opts)
}

// Valid reports whether Open accepts name.
func Valid(name string) bool {
	return name == "" || slices.Contains(Names(), strings.ToLower(strings.TrimSpace(name)))
}
