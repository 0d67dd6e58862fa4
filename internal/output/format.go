package output

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/zx06/xkeychain/internal/errors"
)

type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

func IsValid(f Format) bool {
	switch f {
	case FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV:
		return true
	default:
		return false
	}
}

// Parse validates s and resolves auto against out.
func Parse(s string, out io.Writer) (Format, *errors.XError) {
	f := Format(s)
	if !IsValid(f) {
		return "", errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": s})
	}
	return Resolve(f, out), nil
}

// Resolve turns auto into table on a terminal and json otherwise.
func Resolve(f Format, out io.Writer) Format {
	if f != FormatAuto {
		return f
	}
	if file, ok := out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return FormatTable
	}
	return FormatJSON
}
