package keychain

import "fmt"

// UpdateOptions is a sparse set of overrides. Unset fields keep their
// current value. Building options never touches the store.
type UpdateOptions struct {
	service  *string
	username *string
	secret   *string
	class    *Class
}

func NewUpdate() *UpdateOptions { return &UpdateOptions{} }

func (o *UpdateOptions) Service(service string) *UpdateOptions {
	o.service = &service
	return o
}

// Username sets a new username. The empty string removes the username
// dimension from the entry.
func (o *UpdateOptions) Username(username string) *UpdateOptions {
	o.username = &username
	return o
}

func (o *UpdateOptions) Secret(secret string) *UpdateOptions {
	o.secret = &secret
	return o
}

func (o *UpdateOptions) Class(class Class) *UpdateOptions {
	o.class = &class
	return o
}

func (o *UpdateOptions) IsEmpty() bool {
	return o == nil || (o.service == nil && o.username == nil && o.secret == nil && o.class == nil)
}

// Apply returns base with the overrides applied.
func (o *UpdateOptions) Apply(base Identity) Identity {
	if o == nil {
		return base
	}
	next := base
	if o.service != nil {
		next.Service = *o.service
	}
	if o.username != nil {
		next.Username = *o.username
	}
	if o.class != nil {
		next.Class = *o.class
	}
	return next
}

func (o *UpdateOptions) validate() error {
	if o == nil {
		return nil
	}
	if o.service != nil && *o.service == "" {
		return fmt.Errorf("%w: new service is empty", ErrInvalidIdentity)
	}
	if o.class != nil && !o.class.valid() {
		return fmt.Errorf("%w: unknown class %d", ErrInvalidIdentity, int(*o.class))
	}
	return nil
}

// PlanKind names the sequence of backend calls an update needs.
type PlanKind int

const (
	// PlanNoop: nothing to change; the entry is only checked for existence.
	PlanNoop PlanKind = iota
	// PlanValue: the native key is unchanged; the value is replaced in place.
	PlanValue
	// PlanRename: store under the new key, then delete the old key.
	PlanRename
	// PlanRecreate: delete the old key, then store under the new key.
	PlanRecreate
)

func (k PlanKind) String() string {
	switch k {
	case PlanNoop:
		return "noop"
	case PlanValue:
		return "value"
	case PlanRename:
		return "rename"
	case PlanRecreate:
		return "recreate"
	default:
		return fmt.Sprintf("plan(%d)", int(k))
	}
}

// Plan is the outcome of PlanUpdate.
type Plan struct {
	Kind PlanKind
	From Identity
	To   Identity
	// Secret is the new value when HasSecret is set; otherwise the current
	// value has to be carried over.
	Secret    string
	HasSecret bool
}

// Keyer is the part of a Backend the planner needs.
type Keyer interface {
	Key(id Identity) string
	Strategy() Strategy
}

// PlanUpdate computes the identity an update produces and how to get
// there. It never calls the store.
func PlanUpdate(current Identity, opts *UpdateOptions, k Keyer) Plan {
	p := Plan{From: current, To: opts.Apply(current)}
	if opts.IsEmpty() {
		p.Kind = PlanNoop
		return p
	}
	if opts.secret != nil {
		p.Secret, p.HasSecret = *opts.secret, true
	}

	switch {
	case p.To == p.From, k.Key(p.To) == k.Key(p.From):
		p.Kind = PlanValue
	case k.Strategy() == StrategyRecreate:
		p.Kind = PlanRecreate
	default:
		p.Kind = PlanRename
	}
	return p
}
