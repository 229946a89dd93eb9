package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/taskplugin/internal/permission"
)

const permissionRationale = "taskplugin reads your tasks from the Tasks app to show those with a due date in calendar and search results. Nothing is modified."

func newRequestPermissionCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "request-permission",
		Short: "Ask for the permission to read tasks",
		Long: `Ask once on the terminal for ` + permission.ReadTasks + ` and record
a grant in the grants file if accepted. Exits successfully whatever the answer;
the outcome shows in the next "taskplugin state".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := permission.NewStore(cfg.Permission.GrantsFile)

			if revoke {
				if err := store.Revoke(permission.ReadTasks); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Permission revoked.")
				return nil
			}

			if store.Granted(permission.ReadTasks) {
				fmt.Fprintln(cmd.OutOrStdout(), "Permission already granted.")
				return nil
			}

			requester := &permission.Requester{
				Granter: store,
				In:      cmd.InOrStdin(),
				Out:     cmd.OutOrStdout(),
				Logger:  logger,
			}
			_, err := requester.Request(cmd.Context(), permission.ReadTasks, permissionRationale)
			return err
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "Revoke a previously granted permission instead")

	return cmd
}
