package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// These will be set during build with -ldflags
	gitCommit = "unknown"
	buildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "pushhook version %s\n", version)
		fmt.Fprintf(w, "  Git commit:  %s\n", gitCommit)
		fmt.Fprintf(w, "  Build date:  %s\n", buildDate)
		fmt.Fprintf(w, "  Go version:  %s\n", runtime.Version())
		fmt.Fprintf(w, "  OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
