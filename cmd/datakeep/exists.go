// Exists command for the datakeep CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var existsCmd = &cobra.Command{
	Use:   "exists <name>",
	Short: "Report whether a dataset is registered under the given name",
	Long: `Exists prints "true" or "false" and always exits 0 when the check
itself succeeds. Absence is an answer, not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			fmt.Fprintln(os.Stderr, "exists:", err)
			os.Exit(exitSysError)
		}
		defer closeRegistry(reg)

		exists, err := reg.Exists(args[0])
		if err != nil {
			fail("exists", err)
		}

		if flagJSON {
			out, _ := json.Marshal(map[string]bool{"exists": exists})
			fmt.Println(string(out))
		} else {
			fmt.Println(exists)
		}
		return nil
	},
}
