package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crosscast/tvlink/internal/output"
	"github.com/crosscast/tvlink/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.GetInfo()

	output.Println(fmt.Sprintf("tvlink version %s", info.Version))
	output.Println(fmt.Sprintf("  Commit: %s", info.GitCommit))
	output.Println(fmt.Sprintf("  Built:  %s", info.BuildDate))
	output.Println(fmt.Sprintf("  Go:     %s", info.GoVersion))

	return nil
}
