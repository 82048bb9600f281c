// Package main provides the datakeep CLI, a command-line front end for
// the dataset registry.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Commands print their own diagnostics and exit with a specific
		// code; reaching here means cobra rejected the invocation.
		os.Exit(exitUserError)
	}
}
