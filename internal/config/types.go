package config

import (
	"os"
	"time"
)

// Environment variables recognised by Load.
const (
	EnvSecret          = "GITHUB_SECRET"
	EnvRepoPath        = "REPO_PATH"
	EnvServiceName     = "SERVICE_NAME"
	EnvGitHubToken     = "GITHUB_TOKEN"
	EnvHost            = "PUSHHOOK_HOST"
	EnvPort            = "PUSHHOOK_PORT"
	EnvLogFile         = "PUSHHOOK_LOG_FILE"
	EnvUpdateCommand   = "PUSHHOOK_UPDATE_COMMAND"
	EnvRestartCommand  = "PUSHHOOK_RESTART_COMMAND"
	EnvUpdateTimeout   = "PUSHHOOK_UPDATE_TIMEOUT"
	EnvRestartTimeout  = "PUSHHOOK_RESTART_TIMEOUT"
	EnvShutdownTimeout = "PUSHHOOK_SHUTDOWN_TIMEOUT"
	EnvRateLimit       = "PUSHHOOK_RATE_LIMIT"
	EnvTrustProxy      = "PUSHHOOK_TRUST_PROXY"
	EnvStatusURL       = "PUSHHOOK_STATUS_URL"
	EnvConfigFile      = "PUSHHOOK_CONFIG"
)

const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 5000
	DefaultRepoPath        = "."
	DefaultUpdateCommand   = "git pull"
	DefaultRestartCommand  = "systemctl restart"
	DefaultUpdateTimeout   = 120 // seconds
	DefaultRestartTimeout  = 60  // seconds
	DefaultShutdownTimeout = 30  // seconds
	DefaultRateLimit       = 30  // requests per minute per client IP

	// ConfigFileName is the file searched for in the default config locations.
	ConfigFileName = "pushhook.yaml"
)

// SecretSource returns the current webhook secret.
type SecretSource func() []byte

// EnvSecretSource reads the named environment variable on every call, so a
// changed value takes effect on the next request without a restart.
func EnvSecretSource(key string) SecretSource {
	return func() []byte {
		return []byte(os.Getenv(key))
	}
}

// Config is the validated runtime configuration.
type Config struct {
	Host    string
	Port    int
	LogFile string

	RepoPath    string
	ServiceName string // empty means no restart step

	UpdateCommand  []string
	RestartCommand []string // the service name is appended

	UpdateTimeout   time.Duration
	RestartTimeout  time.Duration
	ShutdownTimeout time.Duration

	RateLimit int // requests per minute per IP, 0 disables

	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a reverse proxy that sets those headers.
	TrustProxy bool

	GitHubToken string
	StatusURL   string // target_url on commit statuses, optional

	Secret SecretSource

	// Source is the config file that was read, empty if none.
	Source string
}

// FileConfig represents the optional YAML configuration file.
// The webhook secret and GitHub token are deliberately not accepted here.
type FileConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	LogFile         string `yaml:"log_file"`
	RepoPath        string `yaml:"repo_path"`
	ServiceName     string `yaml:"service_name"`
	UpdateCommand   string `yaml:"update_command"`
	RestartCommand  string `yaml:"restart_command"`
	UpdateTimeout   int    `yaml:"update_timeout"`
	RestartTimeout  int    `yaml:"restart_timeout"`
	ShutdownTimeout int    `yaml:"shutdown_timeout"`
	RateLimit       *int   `yaml:"rate_limit"`
	TrustProxy      bool   `yaml:"trust_proxy"`
	StatusURL       string `yaml:"status_url"`
}
