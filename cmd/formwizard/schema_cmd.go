package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard/pkg/openapi"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/wizards"
)

func newSchemaCmd() *cobra.Command {
	var (
		format    string
		document  string
		component string
	)
	cmd := &cobra.Command{
		Use:   "schema [wizard]",
		Short: "Print a wizard's step schema, bundled or imported from OpenAPI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				s   schema.Schema
				err error
			)
			switch {
			case document != "":
				if component == "" {
					return errors.New("--component is required with --openapi")
				}
				s, err = openapi.NewImporter().Import(cmd.Context(), document, component)
			case len(args) == 1:
				s, err = wizards.Lookup(args[0])
			default:
				return errors.New("name a wizard or pass --openapi")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(s); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			default:
				return fmt.Errorf("unsupported format %q (yaml or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	cmd.Flags().StringVar(&document, "openapi", "", "OpenAPI document to import the schema from")
	cmd.Flags().StringVar(&component, "component", "", "Component schema holding the wizard steps")
	return cmd
}
