package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// systemd unit names: letters, digits, and ":-_.\@"
var serviceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9:_.@-]+$`)

// ValidateServiceName ensures a service name is safe to pass to the service manager.
// Prevents option injection through names starting with '-'.
func ValidateServiceName(name string) error {
	if name == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return fmt.Errorf("service name cannot start with '-' or '.'")
	}
	if len(name) > 256 {
		return fmt.Errorf("service name too long (maximum 256 characters)")
	}
	if !serviceNamePattern.MatchString(name) {
		return fmt.Errorf("service name contains invalid characters (only a-z, A-Z, 0-9, :, _, ., @, - allowed)")
	}
	return nil
}

// ValidateCommand checks a configured command before it is ever executed.
// Commands run without a shell, so shell syntax in arguments is a
// configuration mistake rather than something that will be interpreted.
func ValidateCommand(cmdParts []string) error {
	if len(cmdParts) == 0 {
		return fmt.Errorf("empty command")
	}
	if strings.HasPrefix(cmdParts[0], "-") {
		return fmt.Errorf("command cannot start with '-': %s", cmdParts[0])
	}
	for i, arg := range cmdParts {
		if containsShellMetachars(arg) {
			return fmt.Errorf("argument %d contains shell metacharacters: %s", i, arg)
		}
	}
	return nil
}

// containsShellMetachars checks if a string contains shell control characters.
func containsShellMetachars(s string) bool {
	return strings.ContainsAny(s, ";|&$`\n<>(){}")
}

// SanitizePath ensures a path is absolute and doesn't contain traversal attempts.
func SanitizePath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("path must be absolute: %s", path)
	}

	// Check for .. before cleaning (filepath.Clean removes them)
	for _, elem := range strings.Split(filepath.ToSlash(path), "/") {
		if elem == ".." {
			return "", fmt.Errorf("path contains traversal elements: %s", path)
		}
	}

	return filepath.Clean(path), nil
}
