package cli

import (
	"github.com/spf13/cobra"

	"crm-usertool/internal/console"
	"crm-usertool/internal/domain"
	"crm-usertool/internal/service"
)

const (
	titleUserExists  = "User Already Exists"
	titleUserCreated = "Successfully Created User"
)

func newCreateUserCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "create-user <username> <password> <is_admin>",
		Aliases: []string{"user:create"},
		Short:   "Create a CRM administrator user",
		Long: `Create an active user titled Administrator.

The user is not created when an existing username starts with <username>.
<is_admin> accepts 1, true, on or yes as true; any other value is false.
The password is stored as system generated so it must be changed on first login.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mode, err := service.ParseDuplicateMode(a.cfg.Users.DuplicateMode)
			if err != nil {
				return err
			}

			users, closeUsers, err := a.openUsers(ctx)
			if err != nil {
				return err
			}
			defer closeUsers()

			svc := service.NewUserService(users, service.Options{
				DuplicateMode: mode,
				BcryptCost:    a.cfg.Users.BcryptCost,
				Logger:        a.logger,
			})

			res, err := svc.CreateAdmin(ctx, domain.SystemActor(), service.CreateAdminRequest{
				UserName: args[0],
				Password: args[1],
				IsAdmin:  args[2],
			})
			if err != nil {
				return err
			}

			out := console.NewPrinter(cmd.OutOrStdout())
			if res.Duplicate {
				return out.Title(titleUserExists)
			}
			return out.Title(titleUserCreated)
		},
	}
}
