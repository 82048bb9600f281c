// Update command for the datakeep CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	updateSchema     string
	updateSchemaFile string
	updateFormat     string
	updatePartition  string
	updateLocation   string
)

var updateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Replace the descriptor of an existing dataset",
	Long: `Update replaces the descriptor of an existing dataset.

Only schema changes are supported. Changing the format, the partition
strategy, or the location of an existing dataset is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		desc, err := descriptorFromFlags(updateSchema, updateSchemaFile, updateFormat, updatePartition, updateLocation)
		if err != nil {
			fmt.Fprintln(os.Stderr, "update:", err)
			os.Exit(exitUserError)
		}

		reg, err := openRegistry()
		if err != nil {
			fmt.Fprintln(os.Stderr, "update:", err)
			os.Exit(exitSysError)
		}
		defer closeRegistry(reg)

		ds, err := reg.Update(name, desc)
		if err != nil {
			fail("update", err)
		}

		if flagJSON {
			printDataset(ds)
		} else {
			fmt.Printf("Updated dataset: %s\n", ds.Name())
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateSchema, "schema", "", "inline JSON schema")
	updateCmd.Flags().StringVar(&updateSchemaFile, "schema-file", "", "path to a JSON schema file")
	updateCmd.Flags().StringVar(&updateFormat, "format", "", "storage format (must match the existing dataset)")
	updateCmd.Flags().StringVar(&updatePartition, "partition", "", "partition fields (must match the existing dataset)")
	updateCmd.Flags().StringVar(&updateLocation, "location", "", "storage location (must match the existing dataset)")
}
