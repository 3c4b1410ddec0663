package main

import (
	"fmt"

	"pushhook/internal/security"

	"github.com/spf13/cobra"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Generate a random webhook secret",
	Long: `Generate a cryptographically random secret suitable for GITHUB_SECRET.
Use the same value in the GitHub webhook settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := security.GenerateSecret()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), secret)
		return nil
	},
}
