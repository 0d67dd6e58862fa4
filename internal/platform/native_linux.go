//go:build linux

package platform

import (
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/keychain/filestore"
	"github.com/zx06/xkeychain/internal/keychain/secretservice"
)

func native(opts Options) keychain.Backend {
	if err := secretServiceAvailable(); err != nil {
		opts.logger().Debug("secret service unavailable, using file store", "error", err)
		return filestore.New(opts.File)
	}
	return secretservice.New(opts.SecretService)
}
