package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		username, err := prompt("Username")
		if err != nil {
			return err
		}
		email, err := prompt("Email")
		if err != nil {
			return err
		}
		password, err := promptPassword("Password")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		resp, err := app.api.Register(cmd.Context(), username, email, password)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s\n", resp.Message)
		fmt.Println("Run 'secureshare login' to sign in.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}
