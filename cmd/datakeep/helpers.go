// Shared helpers for datakeep CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/datakeep/pkg/datakeep"
	"github.com/mesh-intelligence/datakeep/pkg/types"
)

// openRegistry resolves the data directory and backend, then opens the
// registry. The caller must defer datakeep.Close on the result.
func openRegistry() (types.Registry, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend: resolveBackend(),
		DataDir: dataDir,
	}

	reg, err := datakeep.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	return reg, nil
}

// closeRegistry releases backend resources. Close failures are reported
// but do not change the exit code.
func closeRegistry(reg types.Registry) {
	if err := datakeep.Close(reg); err != nil {
		fmt.Fprintln(os.Stderr, "close registry:", err)
	}
}

// exitCode classifies an error into a CLI exit code. Contract errors are
// caller mistakes; everything else is a registry or system fault.
func exitCode(err error) int {
	for _, sentinel := range []error{
		types.ErrInvalidName,
		types.ErrInvalidDescriptor,
		types.ErrNoSuchDataset,
		types.ErrDatasetExists,
		types.ErrUnsupportedDescriptor,
		types.ErrUnsupportedUpdate,
	} {
		if errors.Is(err, sentinel) {
			return exitUserError
		}
	}
	return exitSysError
}

// fail prints the error to stderr and exits with the classified code.
func fail(prefix string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, err)
	os.Exit(exitCode(err))
}

// datasetView is the JSON shape printed for a dataset handle.
type datasetView struct {
	Name       string           `json:"name"`
	Descriptor types.Descriptor `json:"descriptor"`
}

// printDataset renders a dataset handle as JSON or human-readable text
// depending on the --json flag.
func printDataset(ds *types.Dataset) {
	desc := ds.Descriptor()

	if flagJSON {
		out, err := json.MarshalIndent(datasetView{Name: ds.Name(), Descriptor: desc}, "", "  ")
		if err != nil {
			fail("marshal JSON", err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Println("name:     ", ds.Name())
	fmt.Println("format:   ", desc.Format)
	if len(desc.Partition) > 0 {
		fmt.Println("partition:", strings.Join(desc.Partition, ", "))
	}
	if desc.Location != "" {
		fmt.Println("location: ", desc.Location)
	}
	fmt.Println("schema:   ", string(desc.Schema))
}

// descriptorFromFlags assembles a Descriptor from the schema, format,
// partition, and location flags shared by create and update.
func descriptorFromFlags(schema, schemaFile, format, partition, location string) (types.Descriptor, error) {
	if schema != "" && schemaFile != "" {
		return types.Descriptor{}, errors.New("--schema and --schema-file are mutually exclusive")
	}

	raw := []byte(schema)
	if schemaFile != "" {
		data, err := os.ReadFile(schemaFile)
		if err != nil {
			return types.Descriptor{}, fmt.Errorf("read schema file: %w", err)
		}
		raw = data
	}

	var fields []string
	if partition != "" {
		for _, field := range strings.Split(partition, ",") {
			if field = strings.TrimSpace(field); field != "" {
				fields = append(fields, field)
			}
		}
	}

	return types.Descriptor{
		Schema:    raw,
		Format:    format,
		Partition: fields,
		Location:  location,
	}, nil
}
