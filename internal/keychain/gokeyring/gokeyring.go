// Package gokeyring adapts github.com/zalando/go-keyring to keychain.Backend.
//
// go-keyring only knows (service, user) pairs, so only ClassGeneric is
// supported. It is the portable choice when the native adapters are not
// wanted, and its in-memory mock backs tests.
package gokeyring

import (
	stderrors "errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/zx06/xkeychain/internal/keychain"
)

type Backend struct{}

var (
	_ keychain.Backend   = Backend{}
	_ keychain.Validator = Backend{}
)

func New() Backend { return Backend{} }

func (Backend) Name() string { return "keyring" }

func (Backend) Strategy() keychain.Strategy { return keychain.StrategyRecreate }

func (Backend) Key(id keychain.Identity) string {
	return id.Service + "\x00" + id.Username
}

func check(id keychain.Identity) error {
	if id.Class != keychain.ClassGeneric {
		return fmt.Errorf("go-keyring has no %s class: %w", id.Class, keychain.ErrUnsupported)
	}
	return nil
}

// Validate refuses classes go-keyring cannot express.
func (Backend) Validate(req keychain.StoreRequest) error { return check(req.Identity) }

func mapErr(err error) error {
	if stderrors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %w", keychain.ErrNotFound, err)
	}
	return err
}

func (Backend) Store(req keychain.StoreRequest) error {
	if err := check(req.Identity); err != nil {
		return err
	}
	return mapErr(keyring.Set(req.Service, req.Username, req.Secret))
}

func (b Backend) Replace(req keychain.StoreRequest) error {
	if _, err := b.Load(req.Identity); err != nil {
		return err
	}
	return b.Store(req)
}

func (Backend) Load(id keychain.Identity) ([]byte, error) {
	if err := check(id); err != nil {
		return nil, err
	}
	s, err := keyring.Get(id.Service, id.Username)
	if err != nil {
		return nil, mapErr(err)
	}
	return []byte(clean(s)), nil
}

func (Backend) Delete(id keychain.Identity) error {
	if err := check(id); err != nil {
		return err
	}
	return mapErr(keyring.Delete(id.Service, id.Username))
}
