//go:build !windows

package wincred

import (
	"fmt"

	"github.com/zx06/xkeychain/internal/keychain"
)

type nativeStore struct{}

var errNoCredentialManager = fmt.Errorf("credential manager needs windows: %w", keychain.ErrUnsupported)

func (nativeStore) read(string) (*credential, error) { return nil, errNoCredentialManager }

func (nativeStore) write(*credential) error { return errNoCredentialManager }

func (nativeStore) remove(string) error { return errNoCredentialManager }
