package errors

// ExitCode is the process exit status (stable contract).
type ExitCode int

const (
	ExitOK ExitCode = 0

	// 2: bad arguments, config, or an identity the backend cannot express
	ExitConfig ExitCode = 2

	// 3: no entry for the identity
	ExitNotFound ExitCode = 3

	// 4: the native store refused or failed the call
	ExitBackend ExitCode = 4

	// 5: the stored secret could not be decoded
	ExitEncoding ExitCode = 5

	// 10: internal error
	ExitInternal ExitCode = 10
)

func ExitCodeFor(code Code) ExitCode {
	switch code {
	case CodeCfgNotFound, CodeCfgInvalid, CodeInvalidIdentity, CodeDirUnresolved, CodeUnsupported:
		return ExitConfig
	case CodeNotFound:
		return ExitNotFound
	case CodeBackendFailed, CodeAlreadyExists:
		return ExitBackend
	case CodeEncoding:
		return ExitEncoding
	case CodeInternal:
		fallthrough
	default:
		return ExitInternal
	}
}
