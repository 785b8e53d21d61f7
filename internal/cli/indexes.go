package cli

import (
	"github.com/dalemusser/classforge/internal/app/system/indexes"
	"github.com/spf13/cobra"
)

func newIndexesCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create or reconcile every collection index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := o.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := indexes.EnsureAll(cmd.Context(), db); err != nil {
				return err
			}
			cmd.Printf("indexes ensured on %s\n", db.Name())
			return nil
		},
	}
}
