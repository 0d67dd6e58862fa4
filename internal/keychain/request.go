package keychain

import (
	"fmt"
	"strings"
)

// Persist controls how long a Windows credential survives. Other backends
// ignore it.
type Persist string

const (
	PersistDefault    Persist = ""
	PersistSession    Persist = "session"
	PersistLocal      Persist = "local"
	PersistEnterprise Persist = "enterprise"
)

func ParsePersist(s string) (Persist, error) {
	switch p := Persist(strings.ToLower(strings.TrimSpace(s))); p {
	case PersistDefault, PersistSession, PersistLocal, PersistEnterprise:
		return p, nil
	default:
		return PersistDefault, fmt.Errorf("%w: unknown persistence %q", ErrInvalidIdentity, s)
	}
}

// Flags are optional backend specific attributes of a stored entry.
type Flags struct {
	// Label is the human readable item name (Secret Service, macOS).
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Comment is free text (macOS, Windows).
	Comment string  `json:"comment,omitempty" yaml:"comment,omitempty"`
	Persist Persist `json:"persist,omitempty" yaml:"persist,omitempty"`
}

// StoreRequest is everything needed to create one entry. It is immutable
// once handed to a backend.
type StoreRequest struct {
	Identity
	Secret string
	Flags  Flags
}

// DefaultLabel is used when no label was requested.
func (r StoreRequest) DefaultLabel() string {
	if r.Flags.Label != "" {
		return r.Flags.Label
	}
	return fmt.Sprintf("Secret for '%s' on '%s'", r.Username, r.Service)
}

func (r StoreRequest) validate() error {
	if err := r.Identity.Validate(); err != nil {
		return err
	}
	if _, err := ParsePersist(string(r.Flags.Persist)); err != nil {
		return err
	}
	return nil
}

// ItemBuilder accumulates a StoreRequest. Nothing touches the store until
// Store is called.
type ItemBuilder struct {
	kc  *Keychain
	req StoreRequest
}

// NewItem starts a request for service holding secret. The class defaults
// to ClassGeneric and there is no username.
func (k *Keychain) NewItem(service, secret string) *ItemBuilder {
	return &ItemBuilder{
		kc:  k,
		req: StoreRequest{Identity: Identity{Service: service}, Secret: secret},
	}
}

func (b *ItemBuilder) Username(username string) *ItemBuilder {
	b.req.Username = username
	return b
}

func (b *ItemBuilder) Class(class Class) *ItemBuilder {
	b.req.Class = class
	return b
}

func (b *ItemBuilder) Label(label string) *ItemBuilder {
	b.req.Flags.Label = label
	return b
}

func (b *ItemBuilder) Comment(comment string) *ItemBuilder {
	b.req.Flags.Comment = comment
	return b
}

func (b *ItemBuilder) Persist(p Persist) *ItemBuilder {
	b.req.Flags.Persist = p
	return b
}

// Build returns the validated request without storing it.
func (b *ItemBuilder) Build() (StoreRequest, error) {
	if err := b.req.validate(); err != nil {
		return StoreRequest{}, translate(b.kc.backendName(), "build", b.req.Identity, err)
	}
	return b.req, nil
}

// Store writes the entry and returns the identity it was stored under.
func (b *ItemBuilder) Store() (Identity, error) {
	return b.kc.Store(b.req)
}
