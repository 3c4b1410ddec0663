package main

import (
	"fmt"
	"io"
	"os"

	"pushhook/internal/config"
	"pushhook/internal/server"

	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign [FILE]",
	Short: "Print the X-Hub-Signature-256 value for a payload",
	Long: `Compute the signature GitHub would send for a payload, using GITHUB_SECRET.
Reads the payload from FILE, or from stdin when FILE is omitted or "-".

Example:
  pushhook sign payload.json
  curl -H "X-Hub-Signature-256: $(pushhook sign payload.json)" ...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSign,
}

func runSign(cmd *cobra.Command, args []string) error {
	secret := os.Getenv(config.EnvSecret)
	if secret == "" {
		return config.ErrMissingSecret
	}

	var (
		payload []byte
		err     error
	)
	if len(args) == 0 || args[0] == "-" {
		payload, err = io.ReadAll(cmd.InOrStdin())
	} else {
		payload, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), server.Sign([]byte(secret), payload))
	return nil
}
