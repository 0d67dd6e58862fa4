package secretservice

import (
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/godbus/dbus/v5"
)

const (
	busName                     = "org.freedesktop.secrets"
	servicePath dbus.ObjectPath = "/org/freedesktop/secrets"
	aliasPrefix                 = "/org/freedesktop/secrets/aliases/"

	serviceIface    = "org.freedesktop.Secret.Service"
	collectionIface = "org.freedesktop.Secret.Collection"
	itemIface       = "org.freedesktop.Secret.Item"
	sessionIface    = "org.freedesktop.Secret.Session"
	promptIface     = "org.freedesktop.Secret.Prompt"

	noPrompt dbus.ObjectPath = "/"
)

var errPromptDismissed = stderrors.New("secret service prompt dismissed")

// wireSecret is the (oayays) Secret struct of the Secret Service API.
type wireSecret struct {
	Session     dbus.ObjectPath
	Parameters  []byte
	Value       []byte
	ContentType string
}

// dbusSession is one plain-algorithm session against the daemon.
type dbusSession struct {
	conn       *dbus.Conn
	svc        dbus.BusObject
	session    dbus.ObjectPath
	collection dbus.ObjectPath
}

func dialDBus(collection string) (session, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	s := &dbusSession{
		conn:       conn,
		svc:        conn.Object(busName, servicePath),
		collection: dbus.ObjectPath(aliasPrefix + collection),
	}
	var out dbus.Variant
	if err := s.svc.Call(serviceIface+".OpenSession", 0, "plain", dbus.MakeVariant("")).Store(&out, &s.session); err != nil {
		return nil, fmt.Errorf("open secret service session: %w", err)
	}
	return s, nil
}

// available reports whether a Secret Service daemon is running or can be
// activated on the session bus.
func available() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return err
	}
	var owned bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, busName).Store(&owned); err == nil && owned {
		return nil
	}
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListActivatableNames", 0).Store(&names); err != nil {
		return err
	}
	if slices.Contains(names, busName) {
		return nil
	}
	return fmt.Errorf("%s is not available on the session bus", busName)
}

func (s *dbusSession) Close() error {
	return s.conn.Object(busName, s.session).Call(sessionIface+".Close", 0).Err
}

func (s *dbusSession) unlock(paths []dbus.ObjectPath) error {
	var unlocked []dbus.ObjectPath
	var prompt dbus.ObjectPath
	if err := s.svc.Call(serviceIface+".Unlock", 0, paths).Store(&unlocked, &prompt); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	_, err := s.prompt(prompt)
	return err
}

func (s *dbusSession) Search(attrs map[string]string) ([]item, error) {
	var paths []dbus.ObjectPath
	if err := s.conn.Object(busName, s.collection).Call(collectionIface+".SearchItems", 0, attrs).Store(&paths); err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	if len(paths) == 0 {
		return nil, nil
	}
	if err := s.unlock(paths); err != nil {
		return nil, err
	}
	items := make([]item, 0, len(paths))
	for _, p := range paths {
		v, err := s.conn.Object(busName, p).GetProperty(itemIface + ".Attributes")
		if err != nil {
			return nil, fmt.Errorf("read attributes of %s: %w", p, err)
		}
		got, ok := v.Value().(map[string]string)
		if !ok {
			return nil, fmt.Errorf("attributes of %s have type %s", p, v.Signature())
		}
		items = append(items, item{Path: p, Attributes: got})
	}
	return items, nil
}

func (s *dbusSession) Create(label string, attrs map[string]string, secret []byte) error {
	if err := s.unlock([]dbus.ObjectPath{s.collection}); err != nil {
		return err
	}
	props := map[string]dbus.Variant{
		itemIface + ".Label":      dbus.MakeVariant(label),
		itemIface + ".Attributes": dbus.MakeVariant(attrs),
	}
	ws := wireSecret{
		Session:     s.session,
		Parameters:  []byte{},
		Value:       secret,
		ContentType: "text/plain; charset=utf8",
	}
	var created, prompt dbus.ObjectPath
	if err := s.conn.Object(busName, s.collection).Call(collectionIface+".CreateItem", 0, props, ws, true).Store(&created, &prompt); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	_, err := s.prompt(prompt)
	return err
}

func (s *dbusSession) GetSecret(p dbus.ObjectPath) ([]byte, error) {
	var ws wireSecret
	if err := s.conn.Object(busName, p).Call(itemIface+".GetSecret", 0, s.session).Store(&ws); err != nil {
		return nil, fmt.Errorf("get secret: %w", err)
	}
	return ws.Value, nil
}

func (s *dbusSession) Label(p dbus.ObjectPath) (string, error) {
	v, err := s.conn.Object(busName, p).GetProperty(itemIface + ".Label")
	if err != nil {
		return "", fmt.Errorf("read item label: %w", err)
	}
	label, _ := v.Value().(string)
	return label, nil
}

func (s *dbusSession) Delete(p dbus.ObjectPath) error {
	var prompt dbus.ObjectPath
	if err := s.conn.Object(busName, p).Call(itemIface+".Delete", 0).Store(&prompt); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	_, err := s.prompt(prompt)
	return err
}

// prompt runs a Secret Service prompt and blocks until it completes.
func (s *dbusSession) prompt(p dbus.ObjectPath) (dbus.Variant, error) {
	if p == noPrompt || p == "" {
		return dbus.Variant{}, nil
	}
	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(p),
		dbus.WithMatchInterface(promptIface),
		dbus.WithMatchMember("Completed"),
	}
	if err := s.conn.AddMatchSignal(match...); err != nil {
		return dbus.Variant{}, fmt.Errorf("watch prompt: %w", err)
	}
	defer func() { _ = s.conn.RemoveMatchSignal(match...) }()

	signals := make(chan *dbus.Signal, 1)
	s.conn.Signal(signals)
	defer s.conn.RemoveSignal(signals)

	if err := s.conn.Object(busName, p).Call(promptIface+".Prompt", 0, "").Err; err != nil {
		return dbus.Variant{}, fmt.Errorf("prompt: %w", err)
	}
	for sig := range signals {
		if sig.Path != p || sig.Name != promptIface+".Completed" || len(sig.Body) < 2 {
			continue
		}
		if dismissed, _ := sig.Body[0].(bool); dismissed {
			return dbus.Variant{}, errPromptDismissed
		}
		result, _ := sig.Body[1].(dbus.Variant)
		return result, nil
	}
	return dbus.Variant{}, errPromptDismissed
}
