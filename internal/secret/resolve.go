// Package secret turns configuration values into secrets. A value is either
// a keychain reference, resolved through a Loader, or plaintext.
package secret

import (
	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/keychain"
)

// Loader is satisfied by *keychain.Keychain.
type Loader interface {
	Load(id keychain.Identity) (secret string, ok bool, err error)
}

type Options struct {
	AllowPlaintext bool   // plaintext values are rejected unless set
	Loader         Loader // required for keychain: references
}

// Resolve returns the secret raw stands for:
//  1. keychain:[username@]service[#class] is read from the Loader
//  2. otherwise raw itself, when plaintext is allowed
//  3. otherwise an error
//
// Prompting is left to the caller.
func Resolve(raw string, opts Options) (string, *errors.XError) {
	if IsRef(raw) {
		id, err := keychain.ParseRef(raw)
		if err != nil {
			return "", errors.Wrap(errors.CodeInvalidIdentity, "invalid keychain reference", map[string]any{"ref": raw}, err)
		}
		if opts.Loader == nil {
			return "", errors.New(errors.CodeInternal, "no keychain available to resolve reference", map[string]any{"ref": raw})
		}
		val, ok, err := opts.Loader.Load(id)
		if err != nil {
			return "", errors.AsOrWrap(err)
		}
		if !ok {
			return "", errors.New(errors.CodeNotFound, "referenced secret not found", map[string]any{"ref": raw})
		}
		return val, nil
	}
	if opts.AllowPlaintext {
		return raw, nil
	}
	return "", errors.New(errors.CodeCfgInvalid, "plaintext secret not allowed; use a keychain: reference or --allow-plaintext", nil)
}

// IsRef reports whether s is a keychain reference.
func IsRef(s string) bool { return keychain.IsRef(s) }
