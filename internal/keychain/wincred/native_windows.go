//go:build windows

package wincred

import (
	stderrors "errors"

	"github.com/danieljoos/wincred"
	"golang.org/x/sys/windows"

	"github.com/zx06/xkeychain/internal/keychain"
)

type nativeStore struct{}

var persistModes = map[keychain.Persist]wincred.CredentialPersistence{
	keychain.PersistSession:    wincred.PersistSession,
	keychain.PersistLocal:      wincred.PersistLocalMachine,
	keychain.PersistEnterprise: wincred.PersistEnterprise,
}

func notFound(err error) error {
	if stderrors.Is(err, windows.ERROR_NOT_FOUND) {
		return keychain.ErrNotFound
	}
	return err
}

func (nativeStore) read(target string) (*credential, error) {
	gc, err := wincred.GetGenericCredential(target)
	if err != nil {
		return nil, notFound(err)
	}
	c := &credential{
		Target:   gc.TargetName,
		UserName: gc.UserName,
		Blob:     gc.CredentialBlob,
		Comment:  gc.Comment,
	}
	for p, mode := range persistModes {
		if gc.Persist == mode {
			c.Persist = p
		}
	}
	for _, attr := range gc.Attributes {
		if attr.Keyword != ClassAttribute {
			continue
		}
		class, err := keychain.ParseClass(string(attr.Value))
		if err != nil {
			return nil, err
		}
		c.Class = class
	}
	return c, nil
}

func (nativeStore) write(c *credential) error {
	gc := wincred.NewGenericCredential(c.Target)
	gc.UserName = c.UserName
	gc.CredentialBlob = c.Blob
	gc.Comment = c.Comment
	gc.Persist = persistModes[c.Persist]
	gc.Attributes = []wincred.CredentialAttribute{
		{Keyword: ClassAttribute, Value: []byte(c.Class.String())},
	}
	return gc.Write()
}

func (nativeStore) remove(target string) error {
	gc, err := wincred.GetGenericCredential(target)
	if err != nil {
		return notFound(err)
	}
	return notFound(gc.Delete())
}
