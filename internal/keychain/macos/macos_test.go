package macos

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/keychain/keychaintest"
)

type fakeItem struct {
	password string
	label    string
	comment  string
}

// fakeSecurity emulates the subset of security(1) the backend drives.
// Interactive failures are reported the way `security -i` does: exit 0 with
// the message on stderr.
type fakeSecurity struct {
	items       map[string]fakeItem
	invocations [][]string
	interactive []bool
}

func newFakeSecurity() *fakeSecurity {
	return &fakeSecurity{items: map[string]fakeItem{}}
}

func (f *fakeSecurity) run(args []string, interactive bool) ([]byte, string, error) {
	f.invocations = append(f.invocations, args)
	f.interactive = append(f.interactive, interactive)

	verb := args[0]
	kind := strings.TrimSuffix(strings.SplitN(verb, "-", 2)[1], "-password")
	flags := map[string]string{}
	update, printPassword := false, false
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-U":
			update = true
		case "-w":
			if strings.HasPrefix(verb, "find") {
				printPassword = true
				continue
			}
			fallthrough
		default:
			flags[args[i]] = args[i+1]
			i++
		}
	}
	key := kind + "|" + flags["-s"] + "|" + flags["-a"]

	fail := func(code int, msg string) ([]byte, string, error) {
		if interactive {
			return nil, "security: " + msg, nil
		}
		return nil, "security: " + msg, &ExitError{Code: code, Stderr: msg}
	}

	switch {
	case strings.HasPrefix(verb, "add"):
		if _, ok := f.items[key]; ok && !update {
			return fail(exitDuplicateItem, "The specified item already exists in the keychain.")
		}
		f.items[key] = fakeItem{password: flags["-w"], label: flags["-l"], comment: flags["-j"]}
		return nil, "", nil
	case strings.HasPrefix(verb, "find"):
		it, ok := f.items[key]
		if !ok {
			return fail(exitItemNotFound, "The specified item could not be found in the keychain.")
		}
		if printPassword {
			return []byte(it.password + "\n"), "", nil
		}
		return []byte(attributeBlock(kind, flags["-s"], flags["-a"], it)), "", nil
	case strings.HasPrefix(verb, "delete"):
		if _, ok := f.items[key]; !ok {
			return fail(exitItemNotFound, "The specified item could not be found in the keychain.")
		}
		delete(f.items, key)
		return nil, "", nil
	}
	return nil, "", fmt.Errorf("unexpected verb %q", verb)
}

func printed(v string) string {
	if v == "" {
		return "<NULL>"
	}
	return `"` + v + `"`
}

// attributeBlock renders find-*-password output without -w.
func attributeBlock(kind, service, account string, it fakeItem) string {
	class := "genp"
	if kind == "internet" {
		class = "inet"
	}
	var b strings.Builder
	b.WriteString("keychain: \"/Users/test/Library/Keychains/login.keychain-db\"\n")
	fmt.Fprintf(&b, "version: 512\nclass: %q\nattributes:\n", class)
	fmt.Fprintf(&b, "    0x00000007 <blob>=%s\n", printed(it.label))
	fmt.Fprintf(&b, "    \"acct\"<blob>=%s\n", printed(account))
	b.WriteString("    \"cdat\"<timedate>=0x32303236303130313030303030305A00  \"20260101000000Z\\000\"\n")
	fmt.Fprintf(&b, "    \"icmt\"<blob>=%s\n", printed(it.comment))
	fmt.Fprintf(&b, "    \"svce\"<blob>=%s\n", printed(service))
	return b.String()
}

func TestConformance(t *testing.T) {
	keychaintest.Run(t, func(t *testing.T) keychain.Backend {
		return &Backend{r: newFakeSecurity()}
	}, keychaintest.Options{})
}

func TestStoreIsInteractiveAndEncoded(t *testing.T) {
	f := newFakeSecurity()
	kc := keychain.New(&Backend{r: f})
	if _, err := kc.NewItem("svc", "pässword").Username("alice").Comment("note").Store(); err != nil {
		t.Fatal(err)
	}
	if len(f.invocations) != 1 || !f.interactive[0] {
		t.Fatalf("store should be one interactive call, got %v %v", f.invocations, f.interactive)
	}
	it := f.items["generic|svc|alice"]
	if it.password != encodingPrefix+"70c3a47373776f7264" {
		t.Fatalf("stored password = %q", it.password)
	}
	if it.label != "Secret for 'alice' on 'svc'" || it.comment != "note" {
		t.Fatalf("label/comment = %q/%q", it.label, it.comment)
	}
}

func TestInternetClassUsesInternetPasswords(t *testing.T) {
	f := newFakeSecurity()
	kc := keychain.New(&Backend{r: f})
	id, err := kc.NewItem("api.example.com", "tok").Username("ci").Class(keychain.ClassInternet).Store()
	if err != nil {
		t.Fatal(err)
	}
	if f.invocations[0][0] != "add-internet-password" {
		t.Fatalf("verb = %q", f.invocations[0][0])
	}
	// A generic identity with the same service and account is a different item.
	if _, ok, _ := kc.Load(keychain.Identity{Service: "api.example.com", Username: "ci"}); ok {
		t.Fatal("generic lookup must not find the internet item")
	}
	if got, ok, err := kc.Load(id); err != nil || !ok || got != "tok" {
		t.Fatalf("load = %q %v %v", got, ok, err)
	}
}

func TestStoreDuplicateIsError(t *testing.T) {
	kc := keychain.New(&Backend{r: newFakeSecurity()})
	if _, err := kc.NewItem("svc", "a").Store(); err != nil {
		t.Fatal(err)
	}
	_, err := kc.NewItem("svc", "b").Store()
	if !errors.Is(err, errors.CodeAlreadyExists) {
		t.Fatalf("want %s, got %v", errors.CodeAlreadyExists, err)
	}
}

func TestClassChangeMovesItem(t *testing.T) {
	f := newFakeSecurity()
	kc := keychain.New(&Backend{r: f})
	id, _ := kc.NewItem("svc", "s1").Username("alice").Store()
	moved, err := kc.Update(id, keychain.NewUpdate().Class(keychain.ClassInternet))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := f.items["generic|svc|alice"]; ok {
		t.Fatal("generic item should be removed")
	}
	if _, ok := f.items["internet|svc|alice"]; !ok {
		t.Fatal("internet item should exist")
	}
	if got, ok, _ := kc.Load(moved); !ok || got != "s1" {
		t.Fatalf("load moved = %q %v", got, ok)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    string
		wantErr bool
	}{
		{"encoded", encodingPrefix + "68756e74657232\n", "hunter2", false},
		{"foreign raw item", "plain value\n", "plain value", false},
		{"keeps inner newline", "a\nb\n", "a\nb", false},
		{"bad hex", encodingPrefix + "zz\n", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode([]byte(tt.out))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Fatalf("decode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBadHexIsEncodingError(t *testing.T) {
	f := newFakeSecurity()
	f.items["generic|svc|"] = fakeItem{password: encodingPrefix + "not-hex"}
	kc := keychain.New(&Backend{r: f})
	_, _, err := kc.Load(keychain.Identity{Service: "svc"})
	if !errors.Is(err, errors.CodeEncoding) {
		t.Fatalf("want %s, got %v", errors.CodeEncoding, err)
	}
}

func TestClassify(t *testing.T) {
	if err := classify("find", "", nil); err != nil {
		t.Fatalf("clean run: %v", err)
	}
	if err := classify("find", "", &ExitError{Code: exitItemNotFound}); !stderrors.Is(err, keychain.ErrNotFound) {
		t.Fatalf("44 should be not found: %v", err)
	}
	if err := classify("add", "", &ExitError{Code: exitDuplicateItem}); !stderrors.Is(err, keychain.ErrAlreadyExists) {
		t.Fatalf("45 should be already exists: %v", err)
	}
	if err := classify("add", "security: SecKeychainItemCreateFromContent (<default>): User interaction is not allowed.", nil); err == nil {
		t.Fatal("interactive failure on stderr should be an error")
	}
	if err := classify("add", "", &ExitError{Code: 1, Stderr: "boom"}); err == nil || stderrors.Is(err, keychain.ErrNotFound) {
		t.Fatalf("generic failure: %v", err)
	}
}

func TestInteractiveLineQuotes(t *testing.T) {
	line := interactiveLine([]string{"add-generic-password", "-s", "my svc", "-w", "it's"})
	want := `add-generic-password -s 'my svc' -w 'it'"'"'s'` + "\n"
	if line != want {
		t.Fatalf("line = %q, want %q", line, want)
	}
}

func TestUpdateKeepsLabelAndComment(t *testing.T) {
	f := newFakeSecurity()
	kc := keychain.New(&Backend{r: f})
	alice, err := kc.NewItem("svc", "s1").Username("alice").Label("CI deploy token").Comment("rotated monthly").Store()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := kc.Update(alice, keychain.NewUpdate().Secret("s2")); err != nil {
		t.Fatalf("value update: %v", err)
	}
	it := f.items["generic|svc|alice"]
	if it.label != "CI deploy token" || it.comment != "rotated monthly" {
		t.Fatalf("after value update label/comment = %q/%q", it.label, it.comment)
	}

	bob, err := kc.Update(alice, keychain.NewUpdate().Username("bob"))
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	it = f.items["generic|svc|bob"]
	if it.label != "CI deploy token" || it.comment != "rotated monthly" {
		t.Fatalf("after rename label/comment = %q/%q", it.label, it.comment)
	}
	if got, ok, _ := kc.Load(bob); !ok || got != "s2" {
		t.Fatalf("bob = %q %v", got, ok)
	}
}

func TestUpdateRecomputesDefaultLabel(t *testing.T) {
	f := newFakeSecurity()
	kc := keychain.New(&Backend{r: f})
	alice, err := kc.NewItem("svc", "s1").Username("alice").Store()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kc.Update(alice, keychain.NewUpdate().Username("bob")); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if it := f.items["generic|svc|bob"]; it.label != "Secret for 'bob' on 'svc'" {
		t.Fatalf("label = %q", it.label)
	}
}

func TestParseAttributes(t *testing.T) {
	out := `keychain: "/Users/test/Library/Keychains/login.keychain-db"
version: 512
class: "genp"
attributes:
    0x00000007 <blob>="CI deploy token"
    0x00000008 <blob>=<NULL>
    "acct"<blob>="alice"
    "icmt"<blob>=0x726F746174656400  "rotated\000"
    "svce"<blob>="svc"
`
	attrs := parseAttributes([]byte(out))
	tests := map[string]string{
		attrLabel:    "CI deploy token",
		"0x00000008": "",
		`"acct"`:     "alice",
		attrComment:  "rotated\x00",
		`"svce"`:     "svc",
	}
	for key, want := range tests {
		if got, ok := attrs[key]; !ok || got != want {
			t.Errorf("attrs[%s] = %q (%v), want %q", key, got, ok, want)
		}
	}
	if _, ok := attrs["class: \"genp\""]; ok {
		t.Error("header lines are not attributes")
	}
}
