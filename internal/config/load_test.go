package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zx06/xkeychain/internal/errors"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig_NoConfig(t *testing.T) {
	tmp := t.TempDir()
	cfg, path, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if path != "" {
		t.Fatalf("expected empty path, got %q", path)
	}
	if cfg != (File{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfig_ExplicitConfigMissing(t *testing.T) {
	tmp := t.TempDir()
	_, _, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp, ConfigPath: "no_such.yaml"})
	if xe == nil {
		t.Fatal("expected error")
	}
	if xe.Code != errors.CodeCfgNotFound {
		t.Fatalf("expected %s, got %s", errors.CodeCfgNotFound, xe.Code)
	}
}

func TestLoadConfig_WorkDirConfig(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "xkeychain.yaml")
	writeConfig(t, path, `backend: file
format: yaml
log_level: debug
file:
  dir: /var/lib/creds
  app_name: ci
secret_service:
  collection: session
mcp:
  transport: streamable_http
  allow_load: true
  http:
    addr: 127.0.0.1:9000
    auth_token: keychain:mcp-token
`)

	f, cfgPath, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if cfgPath != path {
		t.Fatalf("expected path %q, got %q", path, cfgPath)
	}
	want := File{
		Backend:       "file",
		Format:        "yaml",
		LogLevel:      "debug",
		FileStore:     FileStore{Dir: "/var/lib/creds", AppName: "ci"},
		SecretService: SecretService{Collection: "session"},
		MCP: MCP{
			Transport: "streamable_http",
			AllowLoad: true,
			HTTP:      MCPHTTP{Addr: "127.0.0.1:9000", AuthToken: "keychain:mcp-token"},
		},
	}
	if f != want {
		t.Fatalf("got %+v\nwant %+v", f, want)
	}
}

func TestLoadConfig_HomeDirConfig(t *testing.T) {
	work, home := t.TempDir(), t.TempDir()
	path := filepath.Join(home, ".config", "xkeychain", "xkeychain.yaml")
	writeConfig(t, path, "backend: keyring\n")

	f, cfgPath, xe := LoadConfig(Options{WorkDir: work, HomeDir: home})
	if xe != nil {
		t.Fatal(xe)
	}
	if cfgPath != path || f.Backend != "keyring" {
		t.Fatalf("path=%q backend=%q", cfgPath, f.Backend)
	}
}

func TestLoadConfig_WorkDirTakesPrecedence(t *testing.T) {
	work, home := t.TempDir(), t.TempDir()
	writeConfig(t, filepath.Join(home, ".config", "xkeychain", "xkeychain.yaml"), "backend: keyring\n")
	writeConfig(t, filepath.Join(work, "xkeychain.yaml"), "backend: file\n")

	f, _, xe := LoadConfig(Options{WorkDir: work, HomeDir: home})
	if xe != nil {
		t.Fatal(xe)
	}
	if f.Backend != "file" {
		t.Fatalf("backend=%q want file", f.Backend)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, filepath.Join(tmp, "xkeychain.yaml"), "backend: [unclosed\n")

	_, _, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp})
	if xe == nil || xe.Code != errors.CodeCfgInvalid {
		t.Fatalf("expected %s, got %v", errors.CodeCfgInvalid, xe)
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, filepath.Join(tmp, "sub", "custom.yaml"), "format: json\n")

	f, path, xe := LoadConfig(Options{WorkDir: tmp, HomeDir: tmp, ConfigPath: filepath.Join("sub", "custom.yaml")})
	if xe != nil {
		t.Fatal(xe)
	}
	if path != filepath.Join(tmp, "sub", "custom.yaml") {
		t.Fatalf("path=%q", path)
	}
	if f.Format != "json" {
		t.Fatalf("format=%q", f.Format)
	}
}

func TestLoadEnvFrom(t *testing.T) {
	e, xe := LoadEnvFrom(map[string]string{
		"XKC_BACKEND":       "file",
		"XKC_FORMAT":        "json",
		"XKC_LOG_LEVEL":     "warn",
		"XKC_FILE_DIR":      "/tmp/creds",
		"XKC_MCP_TRANSPORT": "stdio",
		"UNRELATED":         "x",
	})
	if xe != nil {
		t.Fatal(xe)
	}
	want := Env{Backend: "file", Format: "json", LogLevel: "warn", FileDir: "/tmp/creds", MCPTransport: "stdio"}
	if e != want {
		t.Fatalf("got %+v want %+v", e, want)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("XKC_BACKEND", "keyring")
	e, xe := LoadEnv()
	if xe != nil {
		t.Fatal(xe)
	}
	if e.Backend != "keyring" {
		t.Fatalf("backend=%q", e.Backend)
	}
}
