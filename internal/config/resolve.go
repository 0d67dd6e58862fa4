package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/log"
)

var formats = []string{"auto", "json", "yaml", "table", "csv"}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Resolve merges CLI > ENV > config > defaults. The backend name is not
// checked here; opening it is.
func Resolve(opts Options) (Resolved, *errors.XError) {
	cfg, cfgPath, xe := LoadConfig(opts)
	if xe != nil {
		return Resolved{}, xe
	}

	cli := func(v string, set bool) string {
		if set {
			return v
		}
		return ""
	}

	r := Resolved{
		ConfigPath: cfgPath,
		Backend:    pick(cli(opts.CLIBackend, opts.CLIBackendSet), opts.Env.Backend, cfg.Backend, "auto"),
		Format:     pick(cli(opts.CLIFormat, opts.CLIFormatSet), opts.Env.Format, cfg.Format, "auto"),
		LogLevel:   pick(cli(opts.CLILogLevel, opts.CLILogLevelSet), opts.Env.LogLevel, cfg.LogLevel, "info"),
		FileDir:    pick(opts.Env.FileDir, cfg.FileStore.Dir),
		AppName:    cfg.FileStore.AppName,
		Collection: cfg.SecretService.Collection,
		MCP:        cfg.MCP,
	}
	r.Backend = strings.ToLower(strings.TrimSpace(r.Backend))

	if !slices.Contains(formats, r.Format) {
		return Resolved{}, errors.New(errors.CodeCfgInvalid, fmt.Sprintf("unknown format %q", r.Format),
			map[string]any{"format": r.Format, "allowed": formats, "config": cfgPath})
	}
	if _, xe := log.ParseLevel(r.LogLevel); xe != nil {
		return Resolved{}, xe
	}
	return r, nil
}
