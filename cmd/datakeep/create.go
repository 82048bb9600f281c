// Create command for the datakeep CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	createSchema     string
	createSchemaFile string
	createFormat     string
	createPartition  string
	createLocation   string
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a dataset under the given name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		desc, err := descriptorFromFlags(createSchema, createSchemaFile, createFormat, createPartition, createLocation)
		if err != nil {
			fmt.Fprintln(os.Stderr, "create:", err)
			os.Exit(exitUserError)
		}

		reg, err := openRegistry()
		if err != nil {
			fmt.Fprintln(os.Stderr, "create:", err)
			os.Exit(exitSysError)
		}
		defer closeRegistry(reg)

		ds, err := reg.Create(name, desc)
		if err != nil {
			fail("create", err)
		}

		if flagJSON {
			printDataset(ds)
		} else {
			fmt.Printf("Created dataset: %s\n", ds.Name())
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createSchema, "schema", "", "inline JSON schema")
	createCmd.Flags().StringVar(&createSchemaFile, "schema-file", "", "path to a JSON schema file")
	createCmd.Flags().StringVar(&createFormat, "format", "", "storage format: json or csv (default: json)")
	createCmd.Flags().StringVar(&createPartition, "partition", "", "comma-separated partition field names")
	createCmd.Flags().StringVar(&createLocation, "location", "", "storage location hint")
}
