// List command for the datakeep CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the names of all registered datasets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			fmt.Fprintln(os.Stderr, "list:", err)
			os.Exit(exitSysError)
		}
		defer closeRegistry(reg)

		names, err := reg.List()
		if err != nil {
			fail("list", err)
		}

		if flagJSON {
			out, err := json.MarshalIndent(names, "", "  ")
			if err != nil {
				fail("marshal JSON", err)
			}
			fmt.Println(string(out))
			return nil
		}

		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}
