// Package keychain maps a logical credential (service, optional username,
// class) onto the native secret store of the host and translates partial
// updates into the read-modify-write sequence each store needs.
package keychain

import (
	"fmt"
	"strings"
)

// Class selects the kind of credential stored.
type Class int

const (
	// ClassGeneric is a plain application password. It is the default.
	ClassGeneric Class = iota
	// ClassInternet is a credential for a network service.
	ClassInternet
)

func (c Class) String() string {
	switch c {
	case ClassGeneric:
		return "generic"
	case ClassInternet:
		return "internet"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

func (c Class) valid() bool {
	return c == ClassGeneric || c == ClassInternet
}

// ParseClass accepts "generic" or "internet" in any case. An empty string
// is the default class.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "generic":
		return ClassGeneric, nil
	case "internet":
		return ClassInternet, nil
	default:
		return ClassGeneric, fmt.Errorf("%w: unknown class %q", ErrInvalidIdentity, s)
	}
}

func (c Class) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("%w: unknown class %d", ErrInvalidIdentity, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Class) UnmarshalText(b []byte) error {
	parsed, err := ParseClass(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Identity is the logical key of a stored credential. Two identities name
// the same entry iff all three fields are equal; an empty Username means
// the credential has no username dimension.
//
// An Identity is never an opaque token handed out by the store: every call
// recomputes the backend key from these fields, so a handle is valid exactly
// as long as the store holds an entry under that key.
type Identity struct {
	Service  string `json:"service" yaml:"service"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Class    Class  `json:"class" yaml:"class"`
}

func (id Identity) HasUsername() bool { return id.Username != "" }

// Validate checks the fields every backend relies on.
func (id Identity) Validate() error {
	if id.Service == "" {
		return fmt.Errorf("%w: service is empty", ErrInvalidIdentity)
	}
	if !id.Class.valid() {
		return fmt.Errorf("%w: unknown class %d", ErrInvalidIdentity, int(id.Class))
	}
	return nil
}

const refPrefix = "keychain:"

// Ref renders the identity as keychain:[username@]service[#internet].
// The class suffix is omitted for generic credentials.
func (id Identity) Ref() string {
	var sb strings.Builder
	sb.WriteString(refPrefix)
	if id.HasUsername() {
		sb.WriteString(id.Username)
		sb.WriteByte('@')
	}
	sb.WriteString(id.Service)
	if id.Class != ClassGeneric {
		sb.WriteByte('#')
		sb.WriteString(id.Class.String())
	}
	return sb.String()
}

func (id Identity) String() string { return id.Ref() }

// IsRef reports whether s uses the keychain: reference syntax.
func IsRef(s string) bool {
	return strings.HasPrefix(s, refPrefix)
}

// ParseRef is the inverse of Ref. The prefix is optional. The username is
// split off at the last '@' so e-mail addresses work as usernames; a '#'
// suffix is only taken as the class when it names one.
func ParseRef(ref string) (Identity, error) {
	rest := strings.TrimPrefix(ref, refPrefix)

	var id Identity
	if i := strings.LastIndexByte(rest, '#'); i >= 0 {
		if c, err := ParseClass(rest[i+1:]); err == nil && rest[i+1:] != "" {
			id.Class = c
			rest = rest[:i]
		}
	}
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		id.Username = rest[:i]
		rest = rest[i+1:]
	}
	id.Service = rest
	if err := id.Validate(); err != nil {
		return Identity{}, fmt.Errorf("parse %q: %w", ref, err)
	}
	return id, nil
}

// OwnedIdentity is the detached, serialisable form of an Identity. The
// pointer username keeps "no username" distinct from an empty field once the
// handle has been written to a config file or printed as JSON.
type OwnedIdentity struct {
	Service  string  `json:"service" yaml:"service"`
	Username *string `json:"username,omitempty" yaml:"username,omitempty"`
	Class    Class   `json:"class" yaml:"class"`
}

func (id Identity) Owned() OwnedIdentity {
	o := OwnedIdentity{Service: id.Service, Class: id.Class}
	if id.HasUsername() {
		u := id.Username
		o.Username = &u
	}
	return o
}

// Identity returns a view usable with Keychain operations.
func (o OwnedIdentity) Identity() Identity {
	id := Identity{Service: o.Service, Class: o.Class}
	if o.Username != nil {
		id.Username = *o.Username
	}
	return id
}

// TargetSeparator joins username and service into the single string that
// keys Windows credentials and fallback files. Text that itself contains the
// separator makes the encoding ambiguous; such inputs are not supported.
const TargetSeparator = "\x1f"

// JoinTarget returns username + TargetSeparator + service, or just service
// when there is no username.
func JoinTarget(service, username string) string {
	if username == "" {
		return service
	}
	return username + TargetSeparator + service
}

// ServiceFromTarget recovers the service from a target written by
// JoinTarget, given the username stored alongside it. It strips the
// username prefix rather than splitting on the separator, so a service
// containing the separator still comes back whole.
func ServiceFromTarget(target, username string) (string, bool) {
	if username == "" {
		return target, true
	}
	rest, ok := strings.CutPrefix(target, username)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(rest, TargetSeparator)
}
