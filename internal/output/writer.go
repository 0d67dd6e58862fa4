package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/zx06/xkeychain/internal/errors"
)

type Writer struct {
	Out io.Writer
	Err io.Writer
}

func New(out, err io.Writer) Writer {
	return Writer{Out: out, Err: err}
}

func (w Writer) WriteOK(format Format, data any) error {
	return w.write(format, Envelope{OK: true, SchemaVersion: SchemaVersion, Data: data})
}

func (w Writer) WriteError(format Format, xe *errors.XError) error {
	errObj := &ErrorObject{Code: xe.Code, Message: xe.Message, Details: xe.Details}
	return w.write(format, Envelope{OK: false, SchemaVersion: SchemaVersion, Error: errObj})
}

func (w Writer) write(format Format, env Envelope) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w.Out)
		enc.SetEscapeHTML(false)
		return enc.Encode(env)
	case FormatYAML:
		b, err := yaml.Marshal(env)
		if err != nil {
			return err
		}
		if _, err := w.Out.Write(b); err != nil {
			return err
		}
		if len(b) == 0 || b[len(b)-1] != '\n' {
			_, _ = w.Out.Write([]byte("\n"))
		}
		return nil
	case FormatTable:
		return writeTable(w.Out, env)
	case FormatCSV:
		return writeCSV(w.Out, env)
	default:
		return errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": string(format)})
	}
}

// rows renders the envelope as a header and rows.
func rows(env Envelope) ([]string, [][]string) {
	if !env.OK {
		out := [][]string{{"error.code", string(env.Error.Code)}, {"error.message", env.Error.Message}}
		for _, k := range slices.Sorted(maps.Keys(env.Error.Details)) {
			out = append(out, []string{"error.details." + k, fmt.Sprint(env.Error.Details[k])})
		}
		return []string{"key", "value"}, out
	}
	if t, ok := env.Data.(Tabular); ok {
		return t.Header(), t.Rows()
	}
	return []string{"key", "value"}, flatten(env.Data)
}

// flatten turns data into sorted key/value rows via its JSON form.
func flatten(data any) [][]string {
	if data == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return [][]string{{"data", fmt.Sprint(data)}}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return [][]string{{"data", string(b)}}
	}
	out := make([][]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		switch v := m[k].(type) {
		case string:
			out = append(out, []string{k, v})
		case nil:
			out = append(out, []string{k, ""})
		default:
			vb, _ := json.Marshal(v)
			out = append(out, []string{k, string(vb)})
		}
	}
	return out
}

func writeTable(out io.Writer, env Envelope) error {
	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	header, body := rows(env)
	_, _ = fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, r := range body {
		_, _ = fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func writeCSV(out io.Writer, env Envelope) error {
	cw := csv.NewWriter(out)
	header, body := rows(env)
	_ = cw.Write(header)
	_ = cw.WriteAll(body)
	return cw.Error()
}
