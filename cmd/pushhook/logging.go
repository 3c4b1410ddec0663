package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"pushhook/internal/security"
)

// setupLogging configures a JSON slog logger writing to stdout and, when
// logPath is set, appending to that file. The returned close function is
// always safe to call.
func setupLogging(logPath string) (*slog.Logger, func() error, error) {
	writer := io.Writer(os.Stdout)
	closeFn := func() error { return nil }

	if logPath != "" {
		file, err := security.OpenAppendFile(logPath, security.PermLogFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = io.MultiWriter(os.Stdout, file)
		closeFn = file.Close
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	if logPath != "" {
		if err := security.ValidateSecurePermissions(logPath); err != nil {
			logger.Warn("Log file permissions are too open", "log_file", logPath, "error", err)
		}
	}

	return logger, closeFn, nil
}
