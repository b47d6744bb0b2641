package cli

import (
	"fmt"

	"github.com/atinyakov/Workboard/internal/models"
	"github.com/spf13/cobra"
)

func (a *App) loginCmd() *cobra.Command {
	var creds models.LoginCredentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.prompt.Fill(&creds.Email, "Email: "); err != nil {
				return err
			}
			if err := a.prompt.Fill(&creds.Password, "Password: "); err != nil {
				return err
			}
			return reported(a.dash.Login(cmd.Context(), creds).Err)
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	return cmd
}

func (a *App) signupCmd() *cobra.Command {
	var data models.SignupData
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.prompt.Fill(&data.FullName, "Full name: "); err != nil {
				return err
			}
			if err := a.prompt.Fill(&data.Email, "Email: "); err != nil {
				return err
			}
			if err := a.prompt.Fill(&data.Password, "Password: "); err != nil {
				return err
			}
			return reported(a.dash.Signup(cmd.Context(), data).Err)
		},
	}
	cmd.Flags().StringVar(&data.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&data.Email, "email", "", "account email")
	cmd.Flags().StringVar(&data.Password, "password", "", "account password")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			a.dash.Logout()
		},
	}
}

func (a *App) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := a.dash.Profile(cmd.Context())
			if err := readErr(res); err != nil {
				return err
			}
			u := res.Data
			fmt.Fprintf(a.out, "Name:         %s\n", u.FullName)
			fmt.Fprintf(a.out, "Email:        %s\n", u.Email)
			fmt.Fprintf(a.out, "Role:         %s\n", u.Role)
			fmt.Fprintf(a.out, "Member since: %s\n", formatDay(u.CreatedAt))
			return nil
		},
	}
}
