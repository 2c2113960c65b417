// Package version provides the version command implementation.
package version

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Info is the build information the version command prints.
type Info interface {
	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}

// NewCommand creates the version command.
func NewCommand(info Info) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("surveysync version %s\n", info.Version())
			cmd.Printf("commit: %s\n", info.Commit())
			cmd.Printf("built: %s\n", info.Date())
			cmd.Printf("built by: %s\n", info.BuiltBy())
			cmd.Printf("go version: %s\n", runtime.Version())
			cmd.Printf("platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
