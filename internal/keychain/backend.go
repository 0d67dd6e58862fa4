package keychain

// Strategy is how a backend moves an entry to a new key.
type Strategy int

const (
	// StrategyRename writes the entry under the new key first and removes
	// the old one afterwards. Used by stores that look entries up by search
	// or can overwrite in place (macOS Keychain, Windows Credential Manager).
	StrategyRename Strategy = iota
	// StrategyRecreate deletes the old entry and stores a new one. A failure
	// between the two calls loses the secret; the store offers nothing better.
	StrategyRecreate
)

func (s Strategy) String() string {
	if s == StrategyRecreate {
		return "recreate"
	}
	return "rename"
}

// Backend is one native credential store.
//
// Load and Delete report a missing entry by returning an error wrapping
// ErrNotFound. Replace overwrites the value of an existing entry whose key
// equals the request's key and fails with ErrNotFound if there is none.
type Backend interface {
	Name() string
	Strategy() Strategy
	// Key is the backend's native key for id. Two identities with the same
	// key address the same entry.
	Key(id Identity) string
	Store(req StoreRequest) error
	Replace(req StoreRequest) error
	Load(id Identity) ([]byte, error)
	Delete(id Identity) error
}

// Resolver is implemented by backends that can read back the live record
// behind an identity. Updates then inherit unset fields from what the store
// holds rather than from what the caller remembers.
type Resolver interface {
	Resolve(id Identity) (StoreRequest, error)
}

// Validator is implemented by backends that can reject a request without
// touching the store. Updates consult it before the old entry is changed,
// so a target the backend refuses never costs the existing secret.
type Validator interface {
	Validate(req StoreRequest) error
}
