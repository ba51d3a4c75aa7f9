package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zfogg/formdesk/internal/cli/api"
	"github.com/zfogg/formdesk/internal/cli/output"
	"github.com/zfogg/formdesk/internal/cli/prompter"
)

var (
	userSearch   string
	userRole     string
	userActive   bool
	userInactive bool
	userLimit    int
	userOffset   int

	newUserEmail    string
	newUserUsername string
	newUserName     string
	newUserRole     string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

func userFields(u *api.User) map[string]interface{} {
	fields := map[string]interface{}{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"role":       u.Role,
		"active":     u.IsActive,
		"2fa":        u.TOTPEnabled,
		"last_login": output.Time(u.LastLoginAt),
		"created":    output.Time(&u.CreatedAt),
	}
	if u.Employee != nil {
		fields["department"] = u.Employee.Department
		fields["job_title"] = u.Employee.JobTitle
	}
	return fields
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}

		filter := api.UserFilter{
			Search: userSearch,
			Role:   userRole,
			Page:   api.Page{Limit: userLimit, Offset: userOffset},
		}
		switch {
		case userActive:
			active := true
			filter.Active = &active
		case userInactive:
			active := false
			filter.Active = &active
		}

		list, err := api.ListUsers(filter)
		if err != nil {
			return explain(err)
		}

		rows := make([][]string, 0, len(list.Users))
		for _, u := range list.Users {
			state := "active"
			if !u.IsActive {
				state = "inactive"
			}
			rows = append(rows, []string{u.ID, u.Username, u.DisplayName, u.Email, u.Role, state})
		}
		return output.PrintTable(output.Table{
			Headers: []string{"ID", "USERNAME", "NAME", "EMAIL", "ROLE", "STATE"},
			Rows:    rows,
			Data:    list,
		})
	},
}

var usersGetCmd = &cobra.Command{
	Use:   "get <user-id>",
	Short: "Show an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		user, err := api.GetUser(args[0])
		if err != nil {
			return explain(err)
		}
		return output.PrintRecord(user.DisplayName, userFields(user), user)
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account with a generated password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		resp, err := api.CreateUser(api.CreateUserRequest{
			Email:       newUserEmail,
			Username:    newUserUsername,
			DisplayName: newUserName,
			Role:        newUserRole,
		})
		if err != nil {
			return explain(err)
		}

		output.PrintSuccess("Created %s (%s)", resp.User.Username, resp.User.ID)
		if resp.Password != "" {
			output.PrintWarning("Initial password, shown once: %s", resp.Password)
		}
		return nil
	},
}

var usersRoleCmd = &cobra.Command{
	Use:   "role <user-id> <role>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		user, err := api.SetUserRole(args[0], args[1])
		if err != nil {
			return explain(err)
		}
		output.PrintSuccess("%s is now %s", user.Username, user.Role)
		return nil
	},
}

func setActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireAuth(); err != nil {
				return err
			}
			user, err := api.SetUserActive(args[0], active)
			if err != nil {
				return explain(err)
			}
			output.PrintSuccess("%s %sd", user.Username, use)
			return nil
		},
	}
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		ok, err := prompter.PromptConfirm("Delete user " + args[0] + "?")
		if err != nil || !ok {
			return err
		}
		if err := api.DeleteUser(args[0]); err != nil {
			return explain(err)
		}
		output.PrintSuccess("Deleted user %s", args[0])
		return nil
	},
}

func init() {
	usersListCmd.Flags().StringVar(&userSearch, "search", "", "Search names and emails")
	usersListCmd.Flags().StringVar(&userRole, "role", "", "Comma separated roles")
	usersListCmd.Flags().BoolVar(&userActive, "active", false, "Only active accounts")
	usersListCmd.Flags().BoolVar(&userInactive, "inactive", false, "Only inactive accounts")
	usersListCmd.MarkFlagsMutuallyExclusive("active", "inactive")
	usersListCmd.Flags().IntVar(&userLimit, "limit", 0, "Maximum number of accounts")
	usersListCmd.Flags().IntVar(&userOffset, "offset", 0, "Number of accounts to skip")

	usersCreateCmd.Flags().StringVar(&newUserEmail, "email", "", "Email address")
	usersCreateCmd.Flags().StringVar(&newUserUsername, "username", "", "Username")
	usersCreateCmd.Flags().StringVar(&newUserName, "name", "", "Display name")
	usersCreateCmd.Flags().StringVar(&newUserRole, "role", "", "Role (default: employee)")
	for _, name := range []string{"email", "username", "name"} {
		_ = usersCreateCmd.MarkFlagRequired(name)
	}

	usersCmd.AddCommand(
		usersListCmd, usersGetCmd, usersCreateCmd, usersRoleCmd,
		setActiveCmd("activate", "Reactivate an account", true),
		setActiveCmd("deactivate", "Deactivate an account", false),
		usersDeleteCmd,
	)
}
