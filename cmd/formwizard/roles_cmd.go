package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/pkg/roles"
)

func newRolesCmd() *cobra.Command {
	var department string
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List roles with their department, access level and preset permissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys := roles.Keys()
			if department != "" {
				dept := roles.ParseDepartment(department)
				keys = roles.AllowedRoles(dept)
				if len(keys) == 0 {
					return fmt.Errorf("unknown department %q (known: %s)", department, strings.Join(roles.DepartmentNames(), ", "))
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROLE\tNAME\tDEPARTMENT\tACCESS\tPERMISSIONS")
			for _, key := range keys {
				def, ok := roles.Lookup(key)
				if !ok {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					def.Name, def.DisplayName, def.Department, def.DefaultAccessLevel,
					strings.Join(def.Preset().Strings(), ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&department, "department", "", "Only list roles selectable in this department")
	return cmd
}
