package macos

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

const securityPath = "/usr/bin/security"

// Exit statuses of security(1); they mirror errSecItemNotFound and
// errSecDuplicateItem.
const (
	exitItemNotFound  = 44
	exitDuplicateItem = 45
)

type runner interface {
	// run invokes security(1). Interactive runs feed the command through
	// stdin so arguments (the secret) never show up in the process table.
	run(args []string, interactive bool) (stdout []byte, stderr string, err error)
}

type execRunner struct {
	path string
}

func (r execRunner) run(args []string, interactive bool) ([]byte, string, error) {
	var cmd *exec.Cmd
	if interactive {
		cmd = exec.Command(r.path, "-i")
		cmd.Stdin = strings.NewReader(interactiveLine(args))
	} else {
		cmd = exec.Command(r.path, args...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return out, strings.TrimSpace(stderr.String()), &ExitError{Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
	}
	return out, strings.TrimSpace(stderr.String()), err
}

// interactiveLine renders one shell-quoted command for `security -i`.
func interactiveLine(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellescape.Quote(a)
	}
	return strings.Join(quoted, " ") + "\n"
}

// ExitError is a non-zero exit from security(1).
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("security exited with status %d", e.Code)
	}
	return fmt.Sprintf("security exited with status %d: %s", e.Code, e.Stderr)
}
