package errors

// Code is a stable error code string that scripts and agents can match on.
// Codes are only ever added; an existing code never changes meaning.
type Code string

const (
	// Config / args
	CodeCfgNotFound     Code = "XKC_CFG_NOT_FOUND"
	CodeCfgInvalid      Code = "XKC_CFG_INVALID"
	CodeInvalidIdentity Code = "XKC_INVALID_IDENTITY"
	CodeDirUnresolved   Code = "XKC_DIR_UNRESOLVED"
	CodeUnsupported     Code = "XKC_UNSUPPORTED"

	// Lookup
	CodeNotFound Code = "XKC_NOT_FOUND"

	// Native store
	CodeBackendFailed Code = "XKC_BACKEND_FAILED"
	CodeAlreadyExists Code = "XKC_ALREADY_EXISTS"

	// Content read back from the store
	CodeEncoding Code = "XKC_ENCODING"

	// Internal
	CodeInternal Code = "XKC_INTERNAL"
)

func AllCodes() []Code {
	return []Code{
		CodeCfgNotFound,
		CodeCfgInvalid,
		CodeInvalidIdentity,
		CodeDirUnresolved,
		CodeUnsupported,
		CodeNotFound,
		CodeBackendFailed,
		CodeAlreadyExists,
		CodeEncoding,
		CodeInternal,
	}
}
