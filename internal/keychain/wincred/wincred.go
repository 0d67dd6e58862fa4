// Package wincred stores credentials as generic credentials in the Windows
// Credential Manager.
//
// The target name is keychain.JoinTarget(service, username). The class is
// not part of the target; it lives in a credential attribute, so two
// identities that differ only in class share one credential.
package wincred

import (
	"fmt"

	"github.com/zx06/xkeychain/internal/keychain"
)

// ClassAttribute is the credential attribute that records the class.
const ClassAttribute = "xkeychain:class"

// credential is a backend neutral view of one generic credential.
type credential struct {
	Target   string
	UserName string
	Blob     []byte
	Comment  string
	Persist  keychain.Persist
	Class    keychain.Class
}

// credStore is the Credential Manager surface the backend needs.
type credStore interface {
	read(target string) (*credential, error)
	write(c *credential) error
	remove(target string) error
}

type Backend struct {
	store credStore
}

var (
	_ keychain.Backend  = (*Backend)(nil)
	_ keychain.Resolver = (*Backend)(nil)
)

// New returns a backend over the native Credential Manager. Off Windows
// every call fails with keychain.ErrUnsupported.
func New() *Backend { return &Backend{store: nativeStore{}} }

func (b *Backend) Name() string { return "wincred" }

func (b *Backend) Strategy() keychain.Strategy { return keychain.StrategyRename }

func (b *Backend) Key(id keychain.Identity) string {
	return keychain.JoinTarget(id.Service, id.Username)
}

// lookup reads the credential under id and checks its class.
func (b *Backend) lookup(id keychain.Identity) (*credential, error) {
	c, err := b.store.read(b.Key(id))
	if err != nil {
		return nil, err
	}
	if c.Class != id.Class {
		return nil, fmt.Errorf("credential %q holds class %s: %w", c.Target, c.Class, keychain.ErrNotFound)
	}
	return c, nil
}

func (b *Backend) credential(req keychain.StoreRequest) *credential {
	persist := req.Flags.Persist
	if persist == keychain.PersistDefault {
		persist = keychain.PersistLocal
	}
	return &credential{
		Target:   b.Key(req.Identity),
		UserName: req.Username,
		Blob:     []byte(req.Secret),
		Comment:  req.Flags.Comment,
		Persist:  persist,
		Class:    req.Class,
	}
}

// Store writes the credential, overwriting whatever held the target.
func (b *Backend) Store(req keychain.StoreRequest) error {
	return b.store.write(b.credential(req))
}

// Replace rewrites an existing credential. The class is not checked, so a
// class change lands here.
func (b *Backend) Replace(req keychain.StoreRequest) error {
	if _, err := b.store.read(b.Key(req.Identity)); err != nil {
		return err
	}
	return b.store.write(b.credential(req))
}

func (b *Backend) Load(id keychain.Identity) ([]byte, error) {
	c, err := b.lookup(id)
	if err != nil {
		return nil, err
	}
	return c.Blob, nil
}

func (b *Backend) Delete(id keychain.Identity) error {
	if _, err := b.lookup(id); err != nil {
		return err
	}
	return b.store.remove(b.Key(id))
}

// Resolve returns the live record under id. The service is recovered by
// stripping the stored user name from the stored target, which keeps a
// service containing the separator intact.
func (b *Backend) Resolve(id keychain.Identity) (keychain.StoreRequest, error) {
	c, err := b.lookup(id)
	if err != nil {
		return keychain.StoreRequest{}, err
	}
	service, ok := keychain.ServiceFromTarget(c.Target, c.UserName)
	if !ok {
		service = id.Service
	}
	return keychain.StoreRequest{
		Identity: keychain.Identity{Service: service, Username: c.UserName, Class: c.Class},
		Secret:   string(c.Blob),
		Flags:    keychain.Flags{Comment: c.Comment, Persist: c.Persist},
	}, nil
}
