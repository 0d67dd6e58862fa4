//go:build darwin

package platform

import (
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/keychain/macos"
)

func native(Options) keychain.Backend { return macos.New() }
