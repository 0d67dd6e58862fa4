package secret

import (
	"fmt"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/keychain/gokeyring"
)

func newLoader(t *testing.T) *keychain.Keychain {
	t.Helper()
	keyring.MockInit()
	return keychain.New(gokeyring.New())
}

type failingLoader struct{}

func (failingLoader) Load(keychain.Identity) (string, bool, error) {
	return "", false, fmt.Errorf("bus closed")
}

func TestResolve_Ref(t *testing.T) {
	kc := newLoader(t)
	if _, err := kc.NewItem("db.example.com", "secret123").Username("app").Store(); err != nil {
		t.Fatal(err)
	}
	val, xe := Resolve("keychain:app@db.example.com", Options{Loader: kc})
	if xe != nil {
		t.Fatalf("unexpected err: %v", xe)
	}
	if val != "secret123" {
		t.Fatalf("val=%q, want %q", val, "secret123")
	}
}

func TestResolve_SpecialCharacters(t *testing.T) {
	kc := newLoader(t)
	passwords := []string{
		"p@ssw0rd!",
		"pass#123$",
		"密码123",
		"пароль",
		"pass word",
		"pass\ttab",
		"",
		strings.Repeat("a", 1000),
	}
	for i, pw := range passwords {
		service := fmt.Sprintf("svc%d", i)
		if _, err := kc.NewItem(service, pw).Store(); err != nil {
			t.Fatal(err)
		}
		val, xe := Resolve("keychain:"+service, Options{Loader: kc})
		if xe != nil {
			t.Errorf("resolve %q: %v", pw, xe)
			continue
		}
		if val != pw {
			t.Errorf("got %q, want %q", val, pw)
		}
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, xe := Resolve("keychain:nobody@nowhere", Options{Loader: newLoader(t)})
	if xe == nil || xe.Code != errors.CodeNotFound {
		t.Fatalf("expected %s, got %v", errors.CodeNotFound, xe)
	}
}

func TestResolve_InvalidRef(t *testing.T) {
	for _, raw := range []string{"keychain:", "keychain:alice@", "keychain:#internet"} {
		_, xe := Resolve(raw, Options{Loader: newLoader(t)})
		if xe == nil || xe.Code != errors.CodeInvalidIdentity {
			t.Errorf("Resolve(%q): expected %s, got %v", raw, errors.CodeInvalidIdentity, xe)
		}
	}
}

func TestResolve_LoaderFailure(t *testing.T) {
	_, xe := Resolve("keychain:svc", Options{Loader: failingLoader{}})
	if xe == nil || xe.Code != errors.CodeInternal {
		t.Fatalf("expected %s, got %v", errors.CodeInternal, xe)
	}
}

func TestResolve_NoLoader(t *testing.T) {
	_, xe := Resolve("keychain:svc", Options{})
	if xe == nil || xe.Code != errors.CodeInternal {
		t.Fatalf("expected %s, got %v", errors.CodeInternal, xe)
	}
}

func TestResolve_PlaintextAllowed(t *testing.T) {
	val, xe := Resolve("plaintext_password", Options{AllowPlaintext: true})
	if xe != nil {
		t.Fatalf("unexpected err: %v", xe)
	}
	if val != "plaintext_password" {
		t.Fatalf("val=%q", val)
	}
}

func TestResolve_PlaintextDenied(t *testing.T) {
	_, xe := Resolve("plaintext_password", Options{})
	if xe == nil || xe.Code != errors.CodeCfgInvalid {
		t.Fatalf("expected %s, got %v", errors.CodeCfgInvalid, xe)
	}
}

func TestIsRef(t *testing.T) {
	if !IsRef("keychain:foo") {
		t.Fatal("expected true")
	}
	if IsRef("plaintext") {
		t.Fatal("expected false")
	}
}
