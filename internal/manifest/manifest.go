// Package manifest describes the CLI surface in machine readable form so
// scripts and agents can discover commands, flags and error codes.
package manifest

import "github.com/zx06/xkeychain/internal/errors"

type FlagSpec struct {
	Name        string `json:"name" yaml:"name"`
	Shorthand   string `json:"shorthand,omitempty" yaml:"shorthand,omitempty"`
	Env         string `json:"env,omitempty" yaml:"env,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type CommandSpec struct {
	Name        string     `json:"name" yaml:"name"`
	Args        string     `json:"args,omitempty" yaml:"args,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Flags       []FlagSpec `json:"flags,omitempty" yaml:"flags,omitempty"`
}

type ErrorSpec struct {
	Code     errors.Code `json:"code" yaml:"code"`
	ExitCode int         `json:"exit_code" yaml:"exit_code"`
}

type Manifest struct {
	SchemaVersion int           `json:"schema_version" yaml:"schema_version"`
	Backends      []string      `json:"backends" yaml:"backends"`
	Commands      []CommandSpec `json:"commands" yaml:"commands"`
	Errors        []ErrorSpec   `json:"errors" yaml:"errors"`
}

// Errors lists every code with the exit status it produces.
func Errors() []ErrorSpec {
	codes := errors.AllCodes()
	out := make([]ErrorSpec, 0, len(codes))
	for _, c := range codes {
		out = append(out, ErrorSpec{Code: c, ExitCode: int(errors.ExitCodeFor(c))})
	}
	return out
}
