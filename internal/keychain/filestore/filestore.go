// Package filestore keeps one file per credential under a per-application
// data directory. It is the fallback for hosts without a native store and
// does no encryption of its own.
//
// File names are the Windows target encoding, username + 0x1f + service.
// Windows file systems refuse 0x1f in names, so on Windows only identities
// without a username can be stored; the rest fail with ErrUnsupported.
package filestore

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"

	"github.com/zx06/xkeychain/internal/keychain"
)

const DefaultAppName = "xkeychain"

// dataHome is swapped out by tests.
var dataHome = func() string { return xdg.DataHome }

// separatorInNames reports whether the file system accepts 0x1f in names.
var separatorInNames = runtime.GOOS != "windows"

type Options struct {
	// Dir is used as is when set; otherwise <xdg data home>/<AppName>.
	Dir     string
	AppName string
}

type Store struct {
	opts Options
}

var (
	_ keychain.Backend   = (*Store)(nil)
	_ keychain.Validator = (*Store)(nil)
)

func New(opts Options) *Store {
	if opts.AppName == "" {
		opts.AppName = DefaultAppName
	}
	return &Store{opts: opts}
}

func (s *Store) Name() string { return "file" }

func (s *Store) Strategy() keychain.Strategy { return keychain.StrategyRecreate }

// Key is the file name: username, 0x1f, service. Class is not encoded, so
// generic and internet entries with the same service and username share a
// file.
func (s *Store) Key(id keychain.Identity) string {
	return keychain.JoinTarget(id.Service, id.Username)
}

// Dir resolves the data directory without creating it.
func (s *Store) Dir() (string, error) {
	if s.opts.Dir != "" {
		return s.opts.Dir, nil
	}
	home := dataHome()
	if home == "" || !filepath.IsAbs(home) {
		return "", fmt.Errorf("%w: no data home for %q", keychain.ErrDirUnresolved, s.opts.AppName)
	}
	return filepath.Join(home, s.opts.AppName), nil
}

func (s *Store) path(id keychain.Identity) (string, error) {
	dir, err := s.Dir()
	if err != nil {
		return "", err
	}
	name, err := s.fileName(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (s *Store) fileName(id keychain.Identity) (string, error) {
	name := s.Key(id)
	if name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return "", fmt.Errorf("%w: %q cannot be used as a file name", keychain.ErrInvalidIdentity, name)
	}
	if !separatorInNames && strings.Contains(name, keychain.TargetSeparator) {
		return "", fmt.Errorf("%w: file names on this platform cannot contain 0x1f (%q)", keychain.ErrUnsupported, name)
	}
	return name, nil
}

// Validate checks that req maps to a usable file without touching the
// directory.
func (s *Store) Validate(req keychain.StoreRequest) error {
	if _, err := s.Dir(); err != nil {
		return err
	}
	_, err := s.fileName(req.Identity)
	return err
}

// Store overwrites an existing file for the same key.
func (s *Store) Store(req keychain.StoreRequest) error {
	p, err := s.path(req.Identity)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(p, []byte(req.Secret), 0o600); err != nil {
		return fmt.Errorf("write secret file: %w", err)
	}
	return nil
}

func (s *Store) Replace(req keychain.StoreRequest) error {
	p, err := s.path(req.Identity)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err != nil {
		return notFound(err)
	}
	if err := os.WriteFile(p, []byte(req.Secret), 0o600); err != nil {
		return fmt.Errorf("write secret file: %w", err)
	}
	return nil
}

func (s *Store) Load(id keychain.Identity) ([]byte, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (s *Store) Delete(id keychain.Identity) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return notFound(err)
	}
	return nil
}

func notFound(err error) error {
	if stderrors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", keychain.ErrNotFound, err)
	}
	return err
}
