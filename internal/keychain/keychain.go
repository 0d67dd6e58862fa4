package keychain

import (
	stderrors "errors"
	"log/slog"
	"unicode/utf8"

	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/log"
)

// Keychain runs store, load, update and delete against one Backend.
//
// Calls are synchronous and there is no locking: two processes updating the
// same identity race in whatever way the native store allows.
type Keychain struct {
	backend Backend
	logger  *slog.Logger
}

type Option func(*Keychain)

func WithLogger(l *slog.Logger) Option {
	return func(k *Keychain) {
		if l != nil {
			k.logger = l
		}
	}
}

func New(b Backend, opts ...Option) *Keychain {
	k := &Keychain{backend: b, logger: log.Discard()}
	for _, opt := range opts {
		opt(k)
	}
	k.logger = k.logger.With("backend", k.backendName())
	return k
}

func (k *Keychain) Backend() Backend { return k.backend }

func (k *Keychain) backendName() string {
	if k == nil || k.backend == nil {
		return "none"
	}
	return k.backend.Name()
}

func (k *Keychain) fail(op string, id Identity, err error) *errors.XError {
	xe := translate(k.backendName(), op, id, err)
	k.logger.Debug("keychain op failed", "op", op, "service", id.Service, "username", id.Username, "class", id.Class.String(), "code", xe.Code)
	return xe
}

// Store creates an entry and returns its identity, defaults applied.
// Whether an existing entry with the same key is overwritten depends on
// the backend.
func (k *Keychain) Store(req StoreRequest) (Identity, error) {
	if err := req.validate(); err != nil {
		return Identity{}, k.fail("store", req.Identity, err)
	}
	k.logger.Debug("store", "service", req.Service, "username", req.Username, "class", req.Class.String())
	if err := k.backend.Store(req); err != nil {
		return Identity{}, k.fail("store", req.Identity, err)
	}
	return req.Identity, nil
}

// Load returns the secret stored under id. A missing entry is reported as
// ok == false with a nil error.
func (k *Keychain) Load(id Identity) (secret string, ok bool, err error) {
	if err := id.Validate(); err != nil {
		return "", false, k.fail("load", id, err)
	}
	k.logger.Debug("load", "service", id.Service, "username", id.Username, "class", id.Class.String())
	s, err := k.loadString(id)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, k.fail("load", id, err)
	}
	return s, true, nil
}

func (k *Keychain) loadString(id Identity) (string, error) {
	b, err := k.backend.Load(id)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &EncodingError{}
	}
	return string(b), nil
}

// Delete removes the entry under id. A missing entry is an error.
func (k *Keychain) Delete(id Identity) error {
	if err := id.Validate(); err != nil {
		return k.fail("delete", id, err)
	}
	k.logger.Debug("delete", "service", id.Service, "username", id.Username, "class", id.Class.String())
	if err := k.backend.Delete(id); err != nil {
		return k.fail("delete", id, err)
	}
	return nil
}

// Update applies opts to the entry under id and returns the resulting
// identity. When the update leaves the native key unchanged, id itself stays
// a valid handle.
//
// Key changing updates on StrategyRecreate backends delete before they
// store. Backends implementing Validator vet the new entry first; if the
// store still fails the old entry is already gone, the error says which step
// failed and nothing is rolled back.
func (k *Keychain) Update(id Identity, opts *UpdateOptions) (Identity, error) {
	if err := id.Validate(); err != nil {
		return Identity{}, k.fail("update", id, err)
	}
	if err := opts.validate(); err != nil {
		return Identity{}, k.fail("update", id, err)
	}

	base := id
	var live *StoreRequest
	if r, ok := k.backend.(Resolver); ok {
		rec, err := r.Resolve(id)
		if err != nil {
			return Identity{}, k.fail("update", id, err)
		}
		base, live = rec.Identity, &rec
	}

	plan := PlanUpdate(base, opts, k.backend)
	k.logger.Debug("update", "service", id.Service, "username", id.Username, "class", id.Class.String(),
		"plan", plan.Kind.String(), "to_service", plan.To.Service, "to_username", plan.To.Username, "to_class", plan.To.Class.String())

	if err := k.execute(plan, live); err != nil {
		return Identity{}, err
	}
	return plan.To, nil
}

func (k *Keychain) execute(p Plan, live *StoreRequest) error {
	if p.Kind == PlanNoop {
		if live != nil {
			return nil
		}
		if _, err := k.backend.Load(p.From); err != nil {
			return k.fail("update", p.From, err)
		}
		return nil
	}

	req := StoreRequest{Identity: p.To, Secret: p.Secret}
	if live != nil {
		req.Flags = live.Flags
	}
	if !p.HasSecret {
		switch {
		case live != nil:
			req.Secret = live.Secret
		default:
			// Carried over byte for byte; only Load insists on UTF-8.
			b, err := k.backend.Load(p.From)
			if err != nil {
				return k.fail("update", p.From, err)
			}
			req.Secret = string(b)
		}
	}

	if v, ok := k.backend.(Validator); ok {
		if err := v.Validate(req); err != nil {
			return k.fail("update", p.To, err)
		}
	}

	switch p.Kind {
	case PlanValue:
		if err := k.backend.Replace(req); err != nil {
			return k.fail("update", p.From, err)
		}
	case PlanRename:
		if err := k.backend.Store(req); err != nil {
			return k.fail("update", p.To, err)
		}
		if err := k.backend.Delete(p.From); err != nil {
			xe := k.fail("update", p.From, err)
			return errors.Wrap(xe.Code, "new entry stored but old entry could not be removed", stageDetails(xe, "delete-old"), err)
		}
	case PlanRecreate:
		if err := k.backend.Delete(p.From); err != nil {
			return k.fail("update", p.From, err)
		}
		if err := k.backend.Store(req); err != nil {
			xe := k.fail("update", p.To, err)
			return errors.Wrap(xe.Code, "old entry deleted but new entry could not be stored", stageDetails(xe, "store-new"), err)
		}
	}
	return nil
}

func stageDetails(xe *errors.XError, stage string) map[string]any {
	d := map[string]any{"stage": stage}
	for key, v := range xe.Details {
		d[key] = v
	}
	return d
}
