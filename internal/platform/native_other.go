//go:build !darwin && !linux && !windows

package platform

import (
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/keychain/filestore"
)

func native(opts Options) keychain.Backend { return filestore.New(opts.File) }
