package config

import (
	"path/filepath"
	"testing"

	"github.com/zx06/xkeychain/internal/errors"
)

func TestResolve_Defaults(t *testing.T) {
	tmp := t.TempDir()
	got, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp})
	if xe != nil {
		t.Fatalf("unexpected err: %v", xe)
	}
	want := Resolved{Backend: "auto", Format: "auto", LogLevel: "info"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestResolve_ExplicitConfigMissingIsError(t *testing.T) {
	tmp := t.TempDir()
	_, xe := Resolve(Options{WorkDir: tmp, HomeDir: tmp, ConfigPath: "no_such.yaml"})
	if xe == nil || xe.Code != errors.CodeCfgNotFound {
		t.Fatalf("expected %s, got %v", errors.CodeCfgNotFound, xe)
	}
}

func TestResolve_Precedence(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, filepath.Join(tmp, "xkeychain.yaml"), `backend: file
format: yaml
log_level: warn
file:
  dir: /from/config
  app_name: ci
secret_service:
  collection: login
`)

	tests := []struct {
		name string
		opts Options
		want Resolved
	}{
		{
			name: "config only",
			want: Resolved{Backend: "file", Format: "yaml", LogLevel: "warn", FileDir: "/from/config", AppName: "ci", Collection: "login"},
		},
		{
			name: "env over config",
			opts: Options{Env: Env{Backend: "keyring", Format: "json", LogLevel: "debug", FileDir: "/from/env"}},
			want: Resolved{Backend: "keyring", Format: "json", LogLevel: "debug", FileDir: "/from/env", AppName: "ci", Collection: "login"},
		},
		{
			name: "cli over env",
			opts: Options{
				Env:        Env{Backend: "keyring", Format: "json", LogLevel: "debug"},
				CLIBackend: "Secret-Service", CLIBackendSet: true,
				CLIFormat: "table", CLIFormatSet: true,
				CLILogLevel: "error", CLILogLevelSet: true,
			},
			want: Resolved{Backend: "secret-service", Format: "table", LogLevel: "error", FileDir: "/from/config", AppName: "ci", Collection: "login"},
		},
		{
			name: "unset cli flag is ignored",
			opts: Options{CLIFormat: "table"},
			want: Resolved{Backend: "file", Format: "yaml", LogLevel: "warn", FileDir: "/from/config", AppName: "ci", Collection: "login"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.WorkDir, tt.opts.HomeDir = tmp, tmp
			got, xe := Resolve(tt.opts)
			if xe != nil {
				t.Fatal(xe)
			}
			tt.want.ConfigPath = filepath.Join(tmp, "xkeychain.yaml")
			if got != tt.want {
				t.Fatalf("got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestResolve_RejectsBadValues(t *testing.T) {
	tmp := t.TempDir()
	for _, opts := range []Options{
		{Env: Env{Format: "xml"}},
		{Env: Env{LogLevel: "loud"}},
	} {
		opts.WorkDir, opts.HomeDir = tmp, tmp
		_, xe := Resolve(opts)
		if xe == nil || xe.Code != errors.CodeCfgInvalid {
			t.Fatalf("%+v: expected %s, got %v", opts.Env, errors.CodeCfgInvalid, xe)
		}
	}
}
