// Package secretservice stores credentials through the freedesktop Secret
// Service (gnome-keyring, KWallet, KeePassXC) over D-Bus.
//
// Items carry the attributes xdg:schema, service, class and, when present,
// username. Lookups match the attribute set exactly, so items written with
// only service and username (libsecret and go-keyring tools use that
// layout) are not found by this backend and are never overwritten by it.
package secretservice

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/zx06/xkeychain/internal/keychain"
)

const (
	// SchemaName is the xdg:schema attribute libsecret uses for generic
	// passwords.
	SchemaName = "org.freedesktop.Secret.Generic"

	DefaultCollection = "default"
)

type item struct {
	Path       dbus.ObjectPath
	Attributes map[string]string
}

// session is the part of the Secret Service API the backend drives.
type session interface {
	Search(attrs map[string]string) ([]item, error)
	// Create stores an item, replacing one with identical attributes.
	Create(label string, attrs map[string]string, secret []byte) error
	GetSecret(p dbus.ObjectPath) ([]byte, error)
	Label(p dbus.ObjectPath) (string, error)
	Delete(p dbus.ObjectPath) error
	Close() error
}

type Options struct {
	// Collection is an alias under /org/freedesktop/secrets/aliases.
	Collection string
}

type Backend struct {
	dial func() (session, error)
}

var (
	_ keychain.Backend  = (*Backend)(nil)
	_ keychain.Resolver = (*Backend)(nil)
)

func New(opts Options) *Backend {
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	return &Backend{dial: func() (session, error) { return dialDBus(opts.Collection) }}
}

// Available reports why the backend cannot be used, or nil.
func Available() error { return available() }

func (b *Backend) Name() string { return "secret-service" }

func (b *Backend) Strategy() keychain.Strategy { return keychain.StrategyRecreate }

func attributes(id keychain.Identity) map[string]string {
	attrs := map[string]string{
		"xdg:schema": SchemaName,
		"service":    id.Service,
		"class":      id.Class.String(),
	}
	if id.HasUsername() {
		attrs["username"] = id.Username
	}
	return attrs
}

// Key renders the attribute set, sorted.
func (b *Backend) Key(id keychain.Identity) string {
	attrs := attributes(id)
	keys := slices.Sorted(maps.Keys(attrs))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + attrs[k]
	}
	return strings.Join(parts, "\x00")
}

func (b *Backend) with(fn func(s session) error) error {
	s, err := b.dial()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}

// find returns the items whose attributes equal the identity's exactly.
// SearchItems matches supersets, so without the filter an identity without
// a username would also match every item that has one.
func find(s session, id keychain.Identity) ([]item, error) {
	attrs := attributes(id)
	found, err := s.Search(attrs)
	if err != nil {
		return nil, err
	}
	exact := found[:0]
	for _, it := range found {
		if maps.Equal(it.Attributes, attrs) {
			exact = append(exact, it)
		}
	}
	if len(exact) == 0 {
		return nil, fmt.Errorf("secret service: %w", keychain.ErrNotFound)
	}
	return exact, nil
}

// Store overwrites an item with the same attributes.
func (b *Backend) Store(req keychain.StoreRequest) error {
	return b.with(func(s session) error {
		return s.Create(req.DefaultLabel(), attributes(req.Identity), []byte(req.Secret))
	})
}

func (b *Backend) Replace(req keychain.StoreRequest) error {
	return b.with(func(s session) error {
		if _, err := find(s, req.Identity); err != nil {
			return err
		}
		return s.Create(req.DefaultLabel(), attributes(req.Identity), []byte(req.Secret))
	})
}

func (b *Backend) Load(id keychain.Identity) ([]byte, error) {
	var secret []byte
	err := b.with(func(s session) error {
		items, err := find(s, id)
		if err != nil {
			return err
		}
		secret, err = s.GetSecret(items[0].Path)
		return err
	})
	return secret, err
}

// Resolve reads the secret and label of the item behind id, so updates keep
// a label the caller chose. A label equal to the default for id is left
// unset and recomputed for the new identity.
func (b *Backend) Resolve(id keychain.Identity) (keychain.StoreRequest, error) {
	req := keychain.StoreRequest{Identity: id}
	err := b.with(func(s session) error {
		items, err := find(s, id)
		if err != nil {
			return err
		}
		secret, err := s.GetSecret(items[0].Path)
		if err != nil {
			return err
		}
		label, err := s.Label(items[0].Path)
		if err != nil {
			return err
		}
		req.Secret = string(secret)
		if label != req.DefaultLabel() {
			req.Flags.Label = label
		}
		return nil
	})
	if err != nil {
		return keychain.StoreRequest{}, err
	}
	return req, nil
}

// Delete clears every item with the identity's attributes.
func (b *Backend) Delete(id keychain.Identity) error {
	return b.with(func(s session) error {
		items, err := find(s, id)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := s.Delete(it.Path); err != nil {
				return err
			}
		}
		return nil
	})
}
