package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zfogg/formdesk/internal/cli/api"
	"github.com/zfogg/formdesk/internal/cli/client"
	"github.com/zfogg/formdesk/internal/cli/credentials"
	"github.com/zfogg/formdesk/internal/cli/logger"
	"github.com/zfogg/formdesk/internal/cli/output"
	"github.com/zfogg/formdesk/internal/cli/prompter"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with a username or email",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := credentials.Load()
		if err != nil {
			logger.Error("Failed to load credentials", "err", err)
			return err
		}
		if creds != nil && creds.IsValid() {
			output.PrintWarning("Already logged in as %s", creds.Username)
			ok, err := prompter.PromptConfirm("Continue with a new login?")
			if err != nil || !ok {
				return err
			}
		}

		login, err := prompter.PromptString("Username or email: ")
		if err != nil {
			return err
		}
		password, err := prompter.PromptPassword("Password: ")
		if err != nil {
			return err
		}
		if login == "" || password == "" {
			return errors.New("login and password are required")
		}

		resp, err := api.Login(login, password, "")
		if err != nil && isTOTPRequired(err) {
			code, perr := prompter.PromptString("Authenticator code: ")
			if perr != nil {
				return perr
			}
			resp, err = api.Login(login, password, code)
		}
		if err != nil {
			return explain(err)
		}

		creds = &credentials.Credentials{
			AccessToken: resp.Token,
			ExpiresAt:   resp.ExpiresAt,
			UserID:      resp.User.ID,
			Username:    resp.User.Username,
			Email:       resp.User.Email,
			Role:        resp.User.Role,
		}
		if err := credentials.Save(creds); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}

		output.PrintSuccess("Logged in as %s (%s)", resp.User.Username, resp.User.Role)
		return nil
	},
}

// isTOTPRequired matches the 401 the server returns for a missing or
// wrong second factor.
func isTOTPRequired(err error) bool {
	var apiErr *api.APIError
	return errors.As(err, &apiErr) && apiErr.Field == "totp_code"
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := credentials.Delete(); err != nil {
			return err
		}
		client.ClearAuthToken()
		output.PrintSuccess("Logged out")
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		me, err := api.GetCurrentUser()
		if err != nil {
			return explain(err)
		}

		fields := userFields(&me.User)
		if me.ImpersonatedBy != nil {
			fields["impersonated_by"] = me.ImpersonatedBy.Username
		}
		return output.PrintRecord(me.User.DisplayName, fields, me)
	},
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		current, err := prompter.PromptPassword("Current password: ")
		if err != nil {
			return err
		}
		next, err := promptNewPassword()
		if err != nil {
			return err
		}
		if err := api.ChangePassword(current, next); err != nil {
			return explain(err)
		}
		output.PrintSuccess("Password changed")
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <email>",
	Short: "Email a password reset link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.RequestPasswordReset(args[0]); err != nil {
			return err
		}
		output.PrintSuccess("If the address is registered, a reset link is on its way")
		return nil
	},
}

var confirmResetCmd = &cobra.Command{
	Use:   "confirm-reset <token>",
	Short: "Set a new password with a reset token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		next, err := promptNewPassword()
		if err != nil {
			return err
		}
		if err := api.ConfirmPasswordReset(args[0], next); err != nil {
			return err
		}
		output.PrintSuccess("Password reset, you can now log in")
		return nil
	},
}

func promptNewPassword() (string, error) {
	next, err := prompter.PromptPassword("New password: ")
	if err != nil {
		return "", err
	}
	again, err := prompter.PromptPassword("Repeat new password: ")
	if err != nil {
		return "", err
	}
	if next != again {
		return "", errors.New("passwords do not match")
	}
	return next, nil
}

var totpCmd = &cobra.Command{
	Use:   "2fa",
	Short: "Two-factor authentication",
}

var totpEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable an authenticator app",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		setup, err := api.SetupTOTP()
		if err != nil {
			return explain(err)
		}

		output.PrintInfo("Add this account to your authenticator app:")
		output.PrintInfo("  %s", setup.URL)
		output.PrintInfo("or enter the secret manually: %s", setup.Secret)

		code, err := prompter.PromptString("Code from the app: ")
		if err != nil {
			return err
		}
		if err := api.EnableTOTP(code); err != nil {
			return explain(err)
		}
		output.PrintSuccess("Two-factor authentication enabled")
		return nil
	},
}

var totpDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable two-factor authentication",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		password, err := prompter.PromptPassword("Password: ")
		if err != nil {
			return err
		}
		code, err := prompter.PromptString("Authenticator code: ")
		if err != nil {
			return err
		}
		if err := api.DisableTOTP(code, password); err != nil {
			return explain(err)
		}
		output.PrintSuccess("Two-factor authentication disabled")
		return nil
	},
}

func init() {
	authCmd.AddCommand(loginCmd, logoutCmd, meCmd, passwordCmd, resetPasswordCmd, confirmResetCmd, totpCmd)
	totpCmd.AddCommand(totpEnableCmd, totpDisableCmd)
}
