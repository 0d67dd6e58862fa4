//go:build windows

package platform

import (
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/keychain/wincred"
)

func native(Options) keychain.Backend { return wincred.New() }
