// Package keychaintest holds the behaviour every keychain.Backend must show,
// written once and run by each backend's tests.
package keychaintest

import (
	"testing"

	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/keychain"
)

// Options describe what the backend under test can express.
type Options struct {
	// Classes lists the classes to exercise; nil means all of them.
	Classes []keychain.Class
	// Refused is an update whose target the backend rejects. When set, the
	// suite checks that the rejected update leaves the entry untouched.
	Refused func() *keychain.UpdateOptions
}

func (o Options) classes() []keychain.Class {
	if len(o.Classes) == 0 {
		return []keychain.Class{keychain.ClassGeneric, keychain.ClassInternet}
	}
	return o.Classes
}

// Run executes the suite. newBackend must return an empty store each time.
func Run(t *testing.T, newBackend func(t *testing.T) keychain.Backend, opts Options) {
	t.Helper()

	open := func(t *testing.T) *keychain.Keychain {
		return keychain.New(newBackend(t))
	}

	t.Run("RoundTrip", func(t *testing.T) {
		for _, class := range opts.classes() {
			for _, username := range []string{"", "alice", "bob@example.com"} {
				kc := open(t)
				id, err := kc.NewItem("xkeychain-test", "hunter2").Username(username).Class(class).Store()
				if err != nil {
					t.Fatalf("store(%s, %q): %v", class, username, err)
				}
				want := keychain.Identity{Service: "xkeychain-test", Username: username, Class: class}
				if id != want {
					t.Fatalf("store returned %+v, want %+v", id, want)
				}
				mustLoad(t, kc, id, "hunter2")
			}
		}
	})

	t.Run("DeleteThenLoad", func(t *testing.T) {
		kc := open(t)
		id := mustStore(t, kc, "svc", "alice", "secret1")
		if err := kc.Delete(id); err != nil {
			t.Fatalf("delete: %v", err)
		}
		mustMiss(t, kc, id)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		kc := open(t)
		err := kc.Delete(keychain.Identity{Service: "never-stored", Username: "nobody"})
		if !errors.Is(err, errors.CodeNotFound) {
			t.Fatalf("delete missing: want %s, got %v", errors.CodeNotFound, err)
		}
	})

	t.Run("LoadMissing", func(t *testing.T) {
		kc := open(t)
		mustMiss(t, kc, keychain.Identity{Service: "never-stored"})
	})

	t.Run("EmptyUpdateIsNoop", func(t *testing.T) {
		kc := open(t)
		id := mustStore(t, kc, "svc", "alice", "secret1")
		got, err := kc.Update(id, keychain.NewUpdate())
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got != id {
			t.Fatalf("noop update returned %+v, want %+v", got, id)
		}
		mustLoad(t, kc, id, "secret1")
	})

	t.Run("EmptyUpdateMissing", func(t *testing.T) {
		kc := open(t)
		_, err := kc.Update(keychain.Identity{Service: "never-stored", Username: "x"}, nil)
		if !errors.Is(err, errors.CodeNotFound) {
			t.Fatalf("want %s, got %v", errors.CodeNotFound, err)
		}
	})

	t.Run("ValueUpdateKeepsHandle", func(t *testing.T) {
		kc := open(t)
		id := mustStore(t, kc, "svc", "alice", "secret1")
		got, err := kc.Update(id, keychain.NewUpdate().Secret("secret2"))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got != id {
			t.Fatalf("value update changed identity: %+v", got)
		}
		mustLoad(t, kc, id, "secret2")
	})

	t.Run("UsernameChange", func(t *testing.T) {
		kc := open(t)
		alice := mustStore(t, kc, "svc", "alice", "secret1")
		mustLoad(t, kc, keychain.Identity{Service: "svc", Username: "alice", Class: keychain.ClassGeneric}, "secret1")

		bob, err := kc.Update(alice, keychain.NewUpdate().Username("bob"))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if want := (keychain.Identity{Service: "svc", Username: "bob"}); bob != want {
			t.Fatalf("update returned %+v, want %+v", bob, want)
		}
		mustLoad(t, kc, keychain.Identity{Service: "svc", Username: "bob"}, "secret1")
		mustMiss(t, kc, keychain.Identity{Service: "svc", Username: "alice"})
	})

	t.Run("ServiceAndSecretChange", func(t *testing.T) {
		kc := open(t)
		id := mustStore(t, kc, "svc", "alice", "secret1")
		moved, err := kc.Update(id, keychain.NewUpdate().Service("svc2").Secret("secret2"))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if moved.Service != "svc2" || moved.Username != "alice" {
			t.Fatalf("update returned %+v", moved)
		}
		mustLoad(t, kc, moved, "secret2")
		mustMiss(t, kc, id)
	})

	t.Run("DropUsername", func(t *testing.T) {
		kc := open(t)
		id := mustStore(t, kc, "svc", "alice", "secret1")
		bare, err := kc.Update(id, keychain.NewUpdate().Username(""))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if bare.HasUsername() {
			t.Fatalf("username should be gone: %+v", bare)
		}
		mustLoad(t, kc, bare, "secret1")
		mustMiss(t, kc, id)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		kc := open(t)
		_, err := kc.Update(keychain.Identity{Service: "never-stored", Username: "x"}, keychain.NewUpdate().Username("y"))
		if !errors.Is(err, errors.CodeNotFound) {
			t.Fatalf("want %s, got %v", errors.CodeNotFound, err)
		}
		_, err = kc.Update(keychain.Identity{Service: "never-stored", Username: "x"}, keychain.NewUpdate().Secret("s"))
		if !errors.Is(err, errors.CodeNotFound) {
			t.Fatalf("value update on missing entry: want %s, got %v", errors.CodeNotFound, err)
		}
	})

	if opts.Refused != nil {
		t.Run("RefusedUpdateKeepsEntry", func(t *testing.T) {
			kc := open(t)
			id := mustStore(t, kc, "svc", "alice", "secret1")
			if _, err := kc.Update(id, opts.Refused()); err == nil {
				t.Fatal("update to a refused target should fail")
			} else if xe, ok := errors.As(err); ok && xe.Details["stage"] != nil {
				t.Fatalf("update reached the store: %v", err)
			}
			mustLoad(t, kc, id, "secret1")
		})
	}

	t.Run("SeparatorAmbiguity", func(t *testing.T) {
		b := newBackend(t)
		kc := keychain.New(b)
		first := keychain.Identity{Service: "b" + keychain.TargetSeparator + "c", Username: "a"}
		second := keychain.Identity{Service: "c", Username: "a" + keychain.TargetSeparator + "b"}

		if _, err := kc.Store(keychain.StoreRequest{Identity: first, Secret: "first"}); err != nil {
			t.Fatalf("store first: %v", err)
		}
		if _, err := kc.Store(keychain.StoreRequest{Identity: second, Secret: "second"}); err != nil {
			t.Fatalf("store second: %v", err)
		}
		mustLoad(t, kc, second, "second")
		if b.Key(first) == b.Key(second) {
			// Shared target: the later store wins for both handles.
			mustLoad(t, kc, first, "second")
		} else {
			mustLoad(t, kc, first, "first")
		}
	})
}

func mustStore(t *testing.T, kc *keychain.Keychain, service, username, secret string) keychain.Identity {
	t.Helper()
	id, err := kc.NewItem(service, secret).Username(username).Store()
	if err != nil {
		t.Fatalf("store %s/%s: %v", service, username, err)
	}
	return id
}

func mustLoad(t *testing.T, kc *keychain.Keychain, id keychain.Identity, want string) {
	t.Helper()
	got, ok, err := kc.Load(id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	if !ok {
		t.Fatalf("load %s: no entry, want %q", id, want)
	}
	if got != want {
		t.Fatalf("load %s = %q, want %q", id, got, want)
	}
}

func mustMiss(t *testing.T, kc *keychain.Keychain, id keychain.Identity) {
	t.Helper()
	got, ok, err := kc.Load(id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	if ok {
		t.Fatalf("load %s = %q, want no entry", id, got)
	}
}
