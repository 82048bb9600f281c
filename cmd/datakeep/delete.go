// Delete command for the datakeep CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a dataset and its data from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		reg, err := openRegistry()
		if err != nil {
			fmt.Fprintln(os.Stderr, "delete:", err)
			os.Exit(exitSysError)
		}
		defer closeRegistry(reg)

		if _, err := reg.Delete(name); err != nil {
			fail("delete", err)
		}

		fmt.Printf("Deleted dataset: %s\n", name)
		return nil
	},
}
