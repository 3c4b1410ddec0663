package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pushhook/internal/security"
	"pushhook/pkg/cmdutil"
	"pushhook/pkg/fileutil"

	"gopkg.in/yaml.v3"
)

// ErrMissingSecret is returned when GITHUB_SECRET is not set. There is no
// fallback secret; the server refuses to start without one.
var ErrMissingSecret = errors.New(EnvSecret + " is not set")

// FindConfigFile returns the config file to use: explicit wins, then
// PUSHHOOK_CONFIG, then the default search locations. Empty means none.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfigFile); env != "" {
		return env
	}
	return fileutil.SearchPathsOptional(fileutil.DefaultConfigPaths(ConfigFileName))
}

// Load builds the configuration from the environment, the optional YAML
// file at path, and defaults, in that order of precedence.
func Load(path string) (*Config, error) {
	if os.Getenv(EnvSecret) == "" {
		return nil, ErrMissingSecret
	}

	var file FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	var errs []string
	cfg := &Config{
		Secret:      EnvSecretSource(EnvSecret),
		GitHubToken: os.Getenv(EnvGitHubToken),
		Source:      path,
	}

	cfg.Host = firstNonEmpty(os.Getenv(EnvHost), file.Host, DefaultHost)
	cfg.LogFile = firstNonEmpty(os.Getenv(EnvLogFile), file.LogFile)
	cfg.ServiceName = firstNonEmpty(os.Getenv(EnvServiceName), file.ServiceName)

	cfg.Port = intSetting(EnvPort, file.Port, DefaultPort, &errs)
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Sprintf("  - port must be between 1 and 65535, got %d", cfg.Port))
	}

	rateDefault := DefaultRateLimit
	if file.RateLimit != nil {
		rateDefault = *file.RateLimit
	}
	cfg.RateLimit = intSetting(EnvRateLimit, 0, rateDefault, &errs)
	if cfg.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("  - rate_limit must not be negative, got %d", cfg.RateLimit))
	}

	cfg.TrustProxy = boolSetting(EnvTrustProxy, file.TrustProxy, &errs)

	cfg.StatusURL = firstNonEmpty(os.Getenv(EnvStatusURL), file.StatusURL)
	if cfg.StatusURL != "" {
		if u, err := url.Parse(cfg.StatusURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("  - status_url must be an absolute http(s) URL, got '%s'", cfg.StatusURL))
		}
	}

	cfg.UpdateTimeout = secondsSetting(EnvUpdateTimeout, file.UpdateTimeout, DefaultUpdateTimeout, "update_timeout", &errs)
	cfg.RestartTimeout = secondsSetting(EnvRestartTimeout, file.RestartTimeout, DefaultRestartTimeout, "restart_timeout", &errs)
	cfg.ShutdownTimeout = secondsSetting(EnvShutdownTimeout, file.ShutdownTimeout, DefaultShutdownTimeout, "shutdown_timeout", &errs)

	repoPath, err := resolveRepoPath(firstNonEmpty(os.Getenv(EnvRepoPath), file.RepoPath, DefaultRepoPath))
	if err != nil {
		errs = append(errs, fmt.Sprintf("  - repo_path: %v", err))
	}
	cfg.RepoPath = repoPath

	if cfg.ServiceName != "" {
		if err := security.ValidateServiceName(cfg.ServiceName); err != nil {
			errs = append(errs, fmt.Sprintf("  - service_name: %v", err))
		}
	}

	cfg.UpdateCommand = commandSetting(EnvUpdateCommand, file.UpdateCommand, DefaultUpdateCommand, "update_command", &errs)
	cfg.RestartCommand = commandSetting(EnvRestartCommand, file.RestartCommand, DefaultRestartCommand, "restart_command", &errs)

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n%s", strings.Join(errs, "\n"))
	}

	return cfg, nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Redactions lists configured credentials that must never appear in logs.
// The secret is read through Secret, so a rotated value is returned.
func (c *Config) Redactions() []string {
	out := []string{string(c.Secret())}
	if c.GitHubToken != "" {
		out = append(out, c.GitHubToken)
	}
	return out
}

func resolveRepoPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return security.SanitizePath(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path '%s': %w", path, err)
	}
	return abs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func intSetting(env string, fileValue, def int, errs *[]string) int {
	if raw := os.Getenv(env); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			*errs = append(*errs, fmt.Sprintf("  - %s must be an integer, got '%s'", env, raw))
			return def
		}
		return v
	}
	if fileValue != 0 {
		return fileValue
	}
	return def
}

func boolSetting(env string, fileValue bool, errs *[]string) bool {
	raw := os.Getenv(env)
	if raw == "" {
		return fileValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("  - %s must be a boolean, got '%s'", env, raw))
		return fileValue
	}
	return v
}

func secondsSetting(env string, fileValue, def int, name string, errs *[]string) time.Duration {
	v := intSetting(env, fileValue, def, errs)
	if v <= 0 {
		*errs = append(*errs, fmt.Sprintf("  - %s must be a positive number of seconds, got %d", name, v))
		v = def
	}
	return time.Duration(v) * time.Second
}

func commandSetting(env, fileValue, def, name string, errs *[]string) []string {
	raw := firstNonEmpty(os.Getenv(env), fileValue, def)
	parts, err := cmdutil.ParseCommandString(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("  - %s: %v", name, err))
		return nil
	}
	if err := security.ValidateCommand(parts); err != nil {
		*errs = append(*errs, fmt.Sprintf("  - %s: %v", name, err))
		return nil
	}
	return parts
}
