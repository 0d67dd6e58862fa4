package config

// File is the layout of xkeychain.yaml.
// Precedence is CLI > ENV > config file > defaults.
type File struct {
	Backend       string        `yaml:"backend"`
	Format        string        `yaml:"format"`
	LogLevel      string        `yaml:"log_level"`
	FileStore     FileStore     `yaml:"file"`
	SecretService SecretService `yaml:"secret_service"`
	MCP           MCP           `yaml:"mcp"`
}

// FileStore configures the file fallback.
type FileStore struct {
	Dir     string `yaml:"dir"`      // overrides the xdg data dir
	AppName string `yaml:"app_name"` // directory name under the data dir
}

type SecretService struct {
	Collection string `yaml:"collection"`
}

// MCP configures `xkeychain mcp server`.
type MCP struct {
	Transport string  `yaml:"transport"`  // stdio | streamable_http
	AllowLoad bool    `yaml:"allow_load"` // expose keychain_load, which returns secrets
	HTTP      MCPHTTP `yaml:"http"`
}

type MCPHTTP struct {
	Addr                string `yaml:"addr"`
	AuthToken           string `yaml:"auth_token"` // keychain: reference or plaintext
	AllowPlaintextToken bool   `yaml:"allow_plaintext_token"`
}

// Env holds the XKC_* overrides.
type Env struct {
	Backend  string `env:"XKC_BACKEND"`
	Format   string `env:"XKC_FORMAT"`
	LogLevel string `env:"XKC_LOG_LEVEL"`
	FileDir  string `env:"XKC_FILE_DIR"`

	MCPTransport     string `env:"XKC_MCP_TRANSPORT"`
	MCPHTTPAddr      string `env:"XKC_MCP_HTTP_ADDR"`
	MCPHTTPAuthToken string `env:"XKC_MCP_HTTP_AUTH_TOKEN"`
}

type Resolved struct {
	ConfigPath string
	Backend    string
	Format     string
	LogLevel   string
	FileDir    string
	AppName    string
	Collection string
	MCP        MCP
}

type Options struct {
	// ConfigPath, when set, is the only file read and must exist.
	ConfigPath string

	// CLI
	CLIBackend     string
	CLIBackendSet  bool
	CLIFormat      string
	CLIFormatSet   bool
	CLILogLevel    string
	CLILogLevelSet bool

	// Env is injected by the caller so tests stay hermetic.
	Env Env

	// HomeDir is used for the default path; detected when empty.
	HomeDir string

	// WorkDir is used for the default path; the process cwd when empty.
	WorkDir string
}
