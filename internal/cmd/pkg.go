package cmd

import (
	"github.com/spf13/cobra"
)

// NewPkgCmd creates the pkg command group.
func NewPkgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pkg",
		Short: "Link and package app trees",
		Long: `Link compiled app trees into an installable package.

The build pipeline scans each component's fragment for cross-module calls,
injects the matching load directives into its manifest, merges the base and
overlay trees, and zips the result.`,
	}

	cmd.AddCommand(NewPkgBuildCmd())
	cmd.AddCommand(NewPkgMergeCmd())

	return cmd
}
