package app

import (
	"github.com/zx06/xkeychain/internal/manifest"
	"github.com/zx06/xkeychain/internal/output"
	"github.com/zx06/xkeychain/internal/platform"
)

type App struct {
	Version string
	Commit  string
	Date    string
}

func New(version, commit, date string) App {
	return App{Version: version, Commit: commit, Date: date}
}

var identityFlags = []manifest.FlagSpec{
	{Name: "username", Shorthand: "u", Description: "Account name; omit for none"},
	{Name: "class", Default: "generic", Description: "Credential class: generic|internet"},
}

func (a App) Describe() manifest.Manifest {
	globalFlags := []manifest.FlagSpec{
		{Name: "config", Default: "", Description: "Config file path (YAML); default: ./xkeychain.yaml or $HOME/.config/xkeychain/xkeychain.yaml"},
		{Name: "backend", Shorthand: "b", Env: "XKC_BACKEND", Default: "auto", Description: "Credential store: auto|keychain|secret-service|wincred|file|keyring"},
		{Name: "format", Shorthand: "f", Env: "XKC_FORMAT", Default: "auto", Description: "Output format: json|yaml|table|csv|auto"},
		{Name: "log-level", Env: "XKC_LOG_LEVEL", Default: "info", Description: "Log level on stderr: debug|info|warn|error"},
	}
	secretFlags := []manifest.FlagSpec{
		{Name: "secret", Description: "Secret value (visible in process lists; prefer --secret-stdin)"},
		{Name: "secret-stdin", Default: "false", Description: "Read the secret from stdin"},
	}
	with := func(groups ...[]manifest.FlagSpec) []manifest.FlagSpec {
		var out []manifest.FlagSpec
		for _, g := range groups {
			out = append(out, g...)
		}
		return out
	}
	return manifest.Manifest{
		SchemaVersion: output.SchemaVersion,
		Backends:      platform.Names(),
		Commands: []manifest.CommandSpec{
			{
				Name: "store", Args: "<service>",
				Description: "Store a secret",
				Flags: with(globalFlags, identityFlags, secretFlags, []manifest.FlagSpec{
					{Name: "label", Description: "Item label (macOS, Secret Service)"},
					{Name: "comment", Description: "Item comment (macOS, Windows)"},
					{Name: "persist", Description: "Windows persistence: session|local|enterprise"},
				}),
			},
			{Name: "load", Args: "<service|ref>", Description: "Print a stored secret", Flags: with(globalFlags, identityFlags)},
			{
				Name: "update", Args: "<service|ref>",
				Description: "Change the service, username, class or secret of an entry",
				Flags: with(globalFlags, identityFlags, secretFlags, []manifest.FlagSpec{
					{Name: "new-service", Description: "Move the entry to another service"},
					{Name: "new-username", Description: "Change the username; empty removes it"},
					{Name: "new-class", Description: "Change the class"},
				}),
			},
			{Name: "delete", Args: "<service|ref>", Description: "Delete a stored secret", Flags: with(globalFlags, identityFlags)},
			{
				Name: "resolve", Args: "<value>",
				Description: "Resolve a keychain: reference or plaintext value",
				Flags: with(globalFlags, []manifest.FlagSpec{
					{Name: "allow-plaintext", Default: "false", Description: "Pass non-reference values through"},
				}),
			},
			{Name: "backends", Description: "List credential stores", Flags: globalFlags},
			{Name: "describe", Description: "Describe commands and error codes for tools", Flags: globalFlags},
			{Name: "version", Description: "Print version information", Flags: globalFlags},
			{
				Name: "mcp server", Description: "Serve keychain tools over MCP",
				Flags: with(globalFlags, []manifest.FlagSpec{
					{Name: "transport", Env: "XKC_MCP_TRANSPORT", Default: "stdio", Description: "MCP transport: stdio|streamable_http"},
					{Name: "http-addr", Env: "XKC_MCP_HTTP_ADDR", Default: "127.0.0.1:8787", Description: "Streamable HTTP listen address"},
					{Name: "http-auth-token", Env: "XKC_MCP_HTTP_AUTH_TOKEN", Description: "Streamable HTTP bearer token"},
				}),
			},
		},
		Errors: manifest.Errors(),
	}
}

type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

func (a App) VersionInfo() VersionInfo {
	return VersionInfo{Version: a.Version, Commit: a.Commit, Date: a.Date}
}
