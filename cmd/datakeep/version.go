// Version command for the datakeep CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datakeep/pkg/datakeep"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the datakeep version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("datakeep", datakeep.Version)
	},
}
