package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/cli"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/server"
)

var openapiFlags struct {
	output string
	stdout bool
}

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Generate the OpenAPI document",
	Long: `Generate the OpenAPI 3.0 document describing the API.

The serve command writes the document at startup and again whenever the
configuration changes; this command regenerates it offline, e.g. for a docs
build.

Examples:
  # Write to the configured path
  ncod openapi

  # Write to a specific file
  ncod openapi --output docs/openapi.json

  # Print to stdout
  ncod openapi --stdout`,
	RunE: runOpenAPI,
}

func init() {
	rootCmd.AddCommand(openapiCmd)

	openapiCmd.Flags().StringVarP(&openapiFlags.output, "output", "o", "", "output path (defaults to server.openapi_path)")
	openapiCmd.Flags().BoolVar(&openapiFlags.stdout, "stdout", false, "print the document to stdout instead of writing a file")
}

func runOpenAPI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := server.MarshalOpenAPI(server.BuildOpenAPI(cfg, Version))
	if err != nil {
		return cli.NewCommandError("openapi", err)
	}

	if openapiFlags.stdout {
		_, err := os.Stdout.Write(doc)
		return err
	}

	path := openapiFlags.output
	if path == "" {
		path = cfg.Server.OpenAPIPath
	}
	if path == "" {
		return cli.NewCommandError("openapi", errors.New("no output path: set --output or server.openapi_path"))
	}

	if err := server.WriteOpenAPI(path, doc); err != nil {
		return cli.NewCommandError("openapi", err)
	}
	fmt.Printf("✓ OpenAPI document written to %s (%d bytes)\n", path, len(doc))
	return nil
}
