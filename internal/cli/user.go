package cli

import (
	"errors"
	"fmt"

	userstore "github.com/dalemusser/classforge/internal/app/store/users"
	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/spf13/cobra"
)

func newUserCmd(o *rootOptions) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	userCmd.AddCommand(newUserCreateCmd(o))
	return userCmd
}

func newUserCreateCmd(o *rootOptions) *cobra.Command {
	var in models.User

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Example: `  classforgectl user create --login ada --name "Ada Lovelace" --role student
  classforgectl user create --login grace --name "Grace Hopper" --role teacher --email grace@example.edu`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.IsValidRole(in.Role) {
				return fmt.Errorf("--role must be student, teacher, or admin (got %q)", in.Role)
			}

			db, closeDB, err := o.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			u, err := userstore.New(db).Create(cmd.Context(), in)
			if errors.Is(err, userstore.ErrDuplicateLoginID) {
				return fmt.Errorf("login id %q is taken", in.LoginID)
			}
			if err != nil {
				return err
			}
			cmd.Printf("created %s %s (%s) id=%s\n", u.Role, u.LoginID, u.FullName, u.ID.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&in.LoginID, "login", "", "login id (required)")
	cmd.Flags().StringVar(&in.FullName, "name", "", "full name (required)")
	cmd.Flags().StringVar(&in.Role, "role", models.RoleStudent, "student, teacher, or admin")
	cmd.Flags().StringVar(&in.Email, "email", "", "email for notifications")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
