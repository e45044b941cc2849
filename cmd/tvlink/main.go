// Package main is the entry point for the tvlink CLI.
package main

import (
	"fmt"
	"os"

	"github.com/crosscast/tvlink/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmd.ExitCodeFromError(err))
	}
}
