// Package macos stores credentials in the macOS login keychain through
// security(1). Generic credentials become generic passwords; internet
// credentials become internet passwords with the service as the server.
package macos

import (
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/zx06/xkeychain/internal/keychain"
)

// encodingPrefix marks hex encoded values. security -w prints non-printable
// data in an unmarked hex form, so values are always written encoded. The
// prefix is the one zalando/go-keyring uses, which keeps items readable by
// both.
const encodingPrefix = "go-keyring-encoded:"

type Backend struct {
	r runner
}

var (
	_ keychain.Backend  = (*Backend)(nil)
	_ keychain.Resolver = (*Backend)(nil)
)

func New() *Backend {
	return &Backend{r: execRunner{path: securityPath}}
}

func (b *Backend) Name() string { return "keychain" }

func (b *Backend) Strategy() keychain.Strategy { return keychain.StrategyRename }

// Key mirrors the attributes the keychain searches on.
func (b *Backend) Key(id keychain.Identity) string {
	return id.Class.String() + "\x00" + id.Username + "\x00" + id.Service
}

func verb(op string, class keychain.Class) string {
	if class == keychain.ClassInternet {
		return op + "-internet-password"
	}
	return op + "-generic-password"
}

// The account is always passed, even when empty, so an identity without a
// username does not match items that have one.
func selector(id keychain.Identity) []string {
	return []string{"-s", id.Service, "-a", id.Username}
}

func addArgs(req keychain.StoreRequest, update bool) []string {
	args := []string{verb("add", req.Class)}
	if update {
		args = append(args, "-U")
	}
	args = append(args, selector(req.Identity)...)
	args = append(args, "-l", req.DefaultLabel())
	if req.Flags.Comment != "" {
		args = append(args, "-j", req.Flags.Comment)
	}
	return append(args, "-w", encodingPrefix+hex.EncodeToString([]byte(req.Secret)))
}

// Store fails with keychain.ErrAlreadyExists when an item with the same
// service, account and class exists.
func (b *Backend) Store(req keychain.StoreRequest) error {
	_, stderr, err := b.r.run(addArgs(req, false), true)
	return classify("add", stderr, err)
}

func (b *Backend) Replace(req keychain.StoreRequest) error {
	if err := b.exists(req.Identity); err != nil {
		return err
	}
	_, stderr, err := b.r.run(addArgs(req, true), true)
	return classify("update", stderr, err)
}

func (b *Backend) exists(id keychain.Identity) error {
	args := append([]string{verb("find", id.Class)}, selector(id)...)
	_, stderr, err := b.r.run(args, false)
	return classify("find", stderr, err)
}

func (b *Backend) Load(id keychain.Identity) ([]byte, error) {
	args := append(append([]string{verb("find", id.Class)}, selector(id)...), "-w")
	out, stderr, err := b.r.run(args, false)
	if err := classify("find", stderr, err); err != nil {
		return nil, err
	}
	return decode(out)
}

func (b *Backend) Delete(id keychain.Identity) error {
	args := append([]string{verb("delete", id.Class)}, selector(id)...)
	_, stderr, err := b.r.run(args, false)
	return classify("delete", stderr, err)
}

// Resolve reads the secret together with the label and comment of the
// item behind id, so updates rewrite the item with the attributes it has.
// A label equal to the default for id is left unset and recomputed for the
// new identity.
func (b *Backend) Resolve(id keychain.Identity) (keychain.StoreRequest, error) {
	args := append([]string{verb("find", id.Class)}, selector(id)...)
	out, stderr, err := b.r.run(args, false)
	if err := classify("find", stderr, err); err != nil {
		return keychain.StoreRequest{}, err
	}
	secret, err := b.Load(id)
	if err != nil {
		return keychain.StoreRequest{}, err
	}
	req := keychain.StoreRequest{Identity: id, Secret: string(secret)}
	attrs := parseAttributes(out)
	req.Flags.Comment = attrs[attrComment]
	label, ok := attrs[attrLabel]
	if !ok {
		label = attrs[attrLabelName]
	}
	if label != req.DefaultLabel() {
		req.Flags.Label = label
	}
	return req, nil
}

// Attribute keys as security(1) prints them in find output.
const (
	attrLabel     = "0x00000007"
	attrLabelName = `"labl"`
	attrComment   = `"icmt"`
)

// parseAttributes reads the attribute lines of find-*-password output:
//
//	"acct"<blob>="alice"
//	0x00000007 <blob>="label"
//	"icmt"<blob>=0x6869  "hi"
//
// Keys are returned as printed.
func parseAttributes(out []byte) map[string]string {
	attrs := map[string]string{}
	for _, line := range strings.Split(string(out), "\n") {
		key, rest, ok := strings.Cut(strings.TrimSpace(line), "<")
		if !ok {
			continue
		}
		_, value, ok := strings.Cut(rest, ">=")
		if !ok {
			continue
		}
		attrs[strings.TrimSpace(key)] = attrValue(value)
	}
	return attrs
}

func attrValue(v string) string {
	switch {
	case v == "<NULL>":
		return ""
	case strings.HasPrefix(v, "0x"):
		digits, _, _ := strings.Cut(v[2:], " ")
		b, err := hex.DecodeString(digits)
		if err != nil {
			return ""
		}
		return string(b)
	case len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"':
		return v[1 : len(v)-1]
	}
	return v
}

func decode(out []byte) ([]byte, error) {
	s := strings.TrimSuffix(string(out), "\n")
	enc, ok := strings.CutPrefix(s, encodingPrefix)
	if !ok {
		return []byte(s), nil
	}
	b, err := hex.DecodeString(enc)
	if err != nil {
		return nil, &keychain.EncodingError{Err: err}
	}
	return b, nil
}

// classify maps security(1) failures onto keychain sentinels. Interactive
// mode may exit 0 after a failed command, so stderr is checked as well.
func classify(op, stderr string, err error) error {
	var exitErr *ExitError
	code := 0
	if stderrors.As(err, &exitErr) {
		code = exitErr.Code
	}
	switch {
	case code == exitItemNotFound, strings.Contains(stderr, "could not be found"):
		return fmt.Errorf("security %s: %w", op, keychain.ErrNotFound)
	case code == exitDuplicateItem, strings.Contains(stderr, "already exists"):
		return fmt.Errorf("security %s: %w", op, keychain.ErrAlreadyExists)
	case err != nil:
		return fmt.Errorf("security %s: %w", op, err)
	case strings.HasPrefix(stderr, "security:"):
		return fmt.Errorf("security %s: %s", op, stderr)
	}
	return nil
}
