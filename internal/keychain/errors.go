package keychain

import (
	stderrors "errors"
	"fmt"

	"github.com/zx06/xkeychain/internal/errors"
)

// Sentinels returned (wrapped) by backends. The Keychain translates them
// into *errors.XError values for callers.
var (
	// ErrNotFound means no entry exists under the identity's key.
	ErrNotFound = stderrors.New("no matching entry in store")
	// ErrAlreadyExists means the store refused to overwrite an entry.
	ErrAlreadyExists = stderrors.New("entry already exists in store")
	// ErrUnsupported means the backend cannot express the request.
	ErrUnsupported = stderrors.New("not supported by backend")
	// ErrDirUnresolved means no per-application data directory could be
	// determined. It is raised before any file is touched.
	ErrDirUnresolved = stderrors.New("cannot determine data directory")
	// ErrInvalidIdentity means the identity or request fails validation.
	ErrInvalidIdentity = stderrors.New("invalid identity")
)

// EncodingError reports secret bytes that could not be decoded as text.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	if e.Err == nil {
		return "secret is not valid UTF-8"
	}
	return "secret could not be decoded: " + e.Err.Error()
}

func (e *EncodingError) Unwrap() error { return e.Err }

func identityDetails(backend, op string, id Identity) map[string]any {
	d := map[string]any{
		"backend": backend,
		"op":      op,
		"service": id.Service,
		"class":   id.Class.String(),
	}
	if id.HasUsername() {
		d["username"] = id.Username
	}
	return d
}

// translate folds a backend failure into the shared taxonomy. Errors that
// already are XErrors pass through untouched.
func translate(backend, op string, id Identity, err error) *errors.XError {
	if err == nil {
		return nil
	}
	if xe, ok := errors.As(err); ok {
		return xe
	}
	details := identityDetails(backend, op, id)

	var encErr *EncodingError
	switch {
	case stderrors.Is(err, ErrNotFound):
		return errors.Wrap(errors.CodeNotFound, "no matching entry", details, err)
	case stderrors.Is(err, ErrAlreadyExists):
		return errors.Wrap(errors.CodeAlreadyExists, "entry already exists", details, err)
	case stderrors.Is(err, ErrInvalidIdentity):
		return errors.Wrap(errors.CodeInvalidIdentity, "invalid identity", details, err)
	case stderrors.Is(err, ErrUnsupported):
		return errors.Wrap(errors.CodeUnsupported, "operation not supported by backend", details, err)
	case stderrors.Is(err, ErrDirUnresolved):
		return errors.Wrap(errors.CodeDirUnresolved, "cannot determine data directory", details, err)
	case stderrors.As(err, &encErr):
		return errors.Wrap(errors.CodeEncoding, "stored secret is not valid text", details, err)
	default:
		return errors.Wrap(errors.CodeBackendFailed, fmt.Sprintf("%s %s failed", backend, op), details, err)
	}
}
