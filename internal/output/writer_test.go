package output

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/zx06/xkeychain/internal/errors"
)

type backendList [][]string

func (backendList) Header() []string   { return []string{"name", "native"} }
func (b backendList) Rows() [][]string { return b }

func TestWriteOK_JSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatJSON, map[string]any{"k": "v"}); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.OK || env.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteError_JSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeCfgInvalid, "bad", map[string]any{"x": 1})
	if err := w.WriteError(FormatJSON, xe); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.OK || env.Error == nil || env.Error.Code != errors.CodeCfgInvalid {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteError_CauseNotExposed(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.Wrap(errors.CodeBackendFailed, "keychain load failed", nil, stderrors.New("exit status 51"))
	if err := w.WriteError(FormatJSON, xe); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "exit status 51") {
		t.Fatalf("cause leaked into envelope: %s", out.String())
	}
}

func TestWriteOK_YAMLFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatYAML, map[string]any{"version": "1.0.0"}); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	if !strings.Contains(result, "ok: true") {
		t.Errorf("YAML should contain 'ok: true', got: %s", result)
	}
	if !strings.Contains(result, "version: 1.0.0") {
		t.Errorf("YAML should contain version, got: %s", result)
	}
}

func TestWriteOK_TableFormat_KeyValue(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	data := struct {
		Service  string `json:"service"`
		Username string `json:"username,omitempty"`
		Found    bool   `json:"found"`
	}{Service: "github.com", Username: "alice", Found: true}

	if err := w.WriteOK(FormatTable, data); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "KEY") {
		t.Errorf("header = %q", lines[0])
	}
	// keys are sorted
	if !strings.HasPrefix(lines[1], "found") || !strings.Contains(lines[1], "true") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "service") || !strings.Contains(lines[2], "github.com") {
		t.Errorf("row 2 = %q", lines[2])
	}
	if strings.Contains(out.String(), "schema_version") {
		t.Errorf("table should not print the envelope: %s", out.String())
	}
}

func TestWriteOK_TableFormat_Tabular(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	data := backendList{{"keychain", "true"}, {"file", "false"}}
	if err := w.WriteOK(FormatTable, data); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	if !strings.HasPrefix(result, "NAME") {
		t.Errorf("header missing: %s", result)
	}
	if !strings.Contains(result, "keychain") || !strings.Contains(result, "file") {
		t.Errorf("rows missing: %s", result)
	}
}

func TestWriteOK_TableFormat_NilData(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatTable, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "KEY  VALUE" {
		t.Fatalf("got %q", out.String())
	}
}

func TestWriteOK_CSVFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	data := backendList{{"keychain", "true"}, {"secret-service", "false"}}
	if err := w.WriteOK(FormatCSV, data); err != nil {
		t.Fatal(err)
	}
	want := "name,native\nkeychain,true\nsecret-service,false\n"
	if out.String() != want {
		t.Fatalf("got %q want %q", out.String(), want)
	}
}

func TestWriteError_TableFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeNotFound, "no matching entry", map[string]any{"service": "svc", "backend": "file"})
	if err := w.WriteError(FormatTable, xe); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	for _, want := range []string{"error.code", "XKC_NOT_FOUND", "no matching entry", "error.details.backend", "error.details.service"} {
		if !strings.Contains(result, want) {
			t.Errorf("missing %q in %s", want, result)
		}
	}
	if strings.Index(result, "error.details.backend") > strings.Index(result, "error.details.service") {
		t.Errorf("details should be sorted: %s", result)
	}
}

func TestWriteError_CSVFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeEncoding, "stored secret is not valid text", nil)
	if err := w.WriteError(FormatCSV, xe); err != nil {
		t.Fatal(err)
	}
	want := "key,value\nerror.code,XKC_ENCODING\nerror.message,stored secret is not valid text\n"
	if out.String() != want {
		t.Fatalf("got %q want %q", out.String(), want)
	}
}

func TestIsValid(t *testing.T) {
	for _, f := range []Format{FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV} {
		if !IsValid(f) {
			t.Errorf("%s should be valid", f)
		}
	}
	if IsValid("xml") {
		t.Error("xml should be invalid")
	}
}

func TestWriteOK_InvalidFormat(t *testing.T) {
	w := New(&bytes.Buffer{}, &bytes.Buffer{})
	err := w.WriteOK("xml", nil)
	if !errors.Is(err, errors.CodeCfgInvalid) {
		t.Fatalf("want %s, got %v", errors.CodeCfgInvalid, err)
	}
}

func TestParse(t *testing.T) {
	// A buffer is never a terminal.
	var buf bytes.Buffer
	f, xe := Parse("auto", &buf)
	if xe != nil || f != FormatJSON {
		t.Fatalf("auto on a buffer = %q, %v", f, xe)
	}
	f, xe = Parse("yaml", &buf)
	if xe != nil || f != FormatYAML {
		t.Fatalf("yaml = %q, %v", f, xe)
	}
	if _, xe := Parse("xml", &buf); xe == nil || xe.Code != errors.CodeCfgInvalid {
		t.Fatalf("xml: %v", xe)
	}
}
