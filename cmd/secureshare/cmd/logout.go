package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		if !app.session.LoggedIn() {
			fmt.Println("Not logged in.")
			return nil
		}

		// Revoke the token server-side first; clear local state either way.
		if err := app.api.Logout(cmd.Context()); err != nil {
			errorf("could not revoke the session server-side: %v", err)
		}
		app.session.ClearAuth()
		fmt.Println("✓ Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
