// Show command for the datakeep CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the dataset registered under the given name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			fmt.Fprintln(os.Stderr, "show:", err)
			os.Exit(exitSysError)
		}
		defer closeRegistry(reg)

		ds, err := reg.Load(args[0])
		if err != nil {
			fail("show", err)
		}

		printDataset(ds)
		return nil
	},
}
