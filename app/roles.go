package app

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/configurator-admin/configurator-admin/internal/permission"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(rolesCmd)
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the roles with their level and default permission flags",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd

		if _, err := fmt.Fprintln(w, "ROLE\tLEVEL\tNAME\tDEFAULTS"); err != nil {
			return err
		}

		for _, role := range permission.Roles() {
			defaults := permission.Defaults(role)

			var granted []string

			for _, key := range permission.CoreFlags() {
				if defaults.Get(key) {
					granted = append(granted, key)
				}
			}

			if _, err := fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
				role,
				permission.Level(role),
				permission.DisplayName(role, ""),
				strings.Join(granted, ","),
			); err != nil {
				return err
			}
		}

		return w.Flush()
	},
}
